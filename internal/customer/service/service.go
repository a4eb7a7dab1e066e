// Package service orchestrates customer lifecycle operations. Every mutation
// runs inside a transaction that takes the customer's row lock first, so
// concurrent mutations of the same customer serialize. The acting admin is
// always read from request context; there is no ambient identity.
package service

import (
	"context"
	"errors"
	"log/slog"

	"signet/internal/audit"
	"signet/internal/customer/models"
	"signet/internal/customer/store"
	"signet/internal/platform/metrics"
	"signet/internal/signature/artifact"
	sigmodels "signet/internal/signature/models"
	sigstore "signet/internal/signature/store"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
	"signet/pkg/platform/tx"
	"signet/pkg/requestcontext"
)

// Enroller is the slice of the signature service this package needs for the
// composite register-with-signature and update-with-signature operations.
type Enroller interface {
	Enroll(ctx context.Context, customerID id.CustomerID, image []byte) (*sigmodels.EnrolledSignature, error)
	Remove(ctx context.Context, signatureID id.SignatureID) error
}

// Service owns customer registration, updates, and the cascade delete that
// removes a customer together with their signatures, artifacts, and audit
// history.
type Service struct {
	customers  store.Store
	signatures sigstore.Store
	audits     audit.Store
	artifacts  artifact.Store
	runner     tx.Runner
	enroller   Enroller
	publisher  audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(
	customers store.Store,
	signatures sigstore.Store,
	audits audit.Store,
	artifacts artifact.Store,
	runner tx.Runner,
	logger *slog.Logger,
) *Service {
	return &Service{
		customers:  customers,
		signatures: signatures,
		audits:     audits,
		artifacts:  artifacts,
		runner:     runner,
		logger:     logger,
	}
}

// WithEnroller wires the signature service in after both services exist.
func (s *Service) WithEnroller(enroller Enroller) *Service {
	s.enroller = enroller
	return s
}

// WithPublisher mirrors audit facts to the compliance stream. Publishing is
// best-effort; failures are logged and never fail the operation.
func (s *Service) WithPublisher(publisher audit.Publisher) *Service {
	s.publisher = publisher
	return s
}

// WithMetrics enables counter instrumentation.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Create registers a new customer and records the registration audit fact in
// the same transaction. The returned customer carries its assigned ID.
func (s *Service) Create(ctx context.Context, name, email, phone, nationalID string) (*models.Customer, error) {
	adminID, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	customer, err := models.New(name, email, phone, nationalID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	var registration *audit.Registration
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.customers.Create(ctx, customer); err != nil {
			return translateStoreError(err)
		}
		registration = &audit.Registration{
			CustomerID:   customer.ID,
			AdminID:      adminID,
			RegisteredAt: customer.CreatedAt,
		}
		return s.audits.AddRegistration(ctx, registration)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCustomersCreated()
	s.publishRegistration(ctx, registration)
	s.logger.InfoContext(ctx, "customer registered",
		"customer_id", customer.ID, "admin_id", adminID)
	return customer, nil
}

// RegisterWithSignature creates the customer and enrolls their first
// reference signature. If enrollment fails the just-created customer is
// removed again, so callers observe all-or-nothing.
func (s *Service) RegisterWithSignature(ctx context.Context, name, email, phone, nationalID string, image []byte) (*models.Customer, *sigmodels.EnrolledSignature, error) {
	if s.enroller == nil {
		return nil, nil, dErrors.New(dErrors.CodeInternal, "signature enrollment is not configured")
	}
	if len(image) == 0 {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "signature image is required")
	}

	customer, err := s.Create(ctx, name, email, phone, nationalID)
	if err != nil {
		return nil, nil, err
	}

	sig, err := s.enroller.Enroll(ctx, customer.ID, image)
	if err != nil {
		if cleanupErr := s.Delete(ctx, customer.ID); cleanupErr != nil {
			s.logger.ErrorContext(ctx, "compensating customer delete failed",
				"customer_id", customer.ID, "error", cleanupErr)
		}
		return nil, nil, err
	}
	return customer, sig, nil
}

// UpdateWithSignature updates identity details and swaps the reference
// signature as one operation. The new signature is enrolled first, alongside
// the previous set; if the metadata update then fails, the new signature is
// removed again and the previous set stays in place, so callers observe
// all-or-nothing. Previous signatures are retired only once the update has
// committed; a failed retirement leaves an extra signature, which is the safe
// direction.
func (s *Service) UpdateWithSignature(ctx context.Context, customerID id.CustomerID, name, email, phone, nationalID string, image []byte) (*models.Customer, *sigmodels.EnrolledSignature, error) {
	if s.enroller == nil {
		return nil, nil, dErrors.New(dErrors.CodeInternal, "signature enrollment is not configured")
	}
	if len(image) == 0 {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "signature image is required")
	}

	previous, err := s.signatures.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	sig, err := s.enroller.Enroll(ctx, customerID, image)
	if err != nil {
		return nil, nil, err
	}

	customer, err := s.Update(ctx, customerID, name, email, phone, nationalID)
	if err != nil {
		if cleanupErr := s.enroller.Remove(ctx, sig.ID); cleanupErr != nil {
			s.logger.ErrorContext(ctx, "compensating signature removal failed",
				"customer_id", customerID, "signature_id", sig.ID, "error", cleanupErr)
		}
		return nil, nil, err
	}

	for _, old := range previous {
		if old.ID == sig.ID {
			continue
		}
		if err := s.enroller.Remove(ctx, old.ID); err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				continue
			}
			s.logger.WarnContext(ctx, "previous signature left in place after update",
				"customer_id", customerID, "signature_id", old.ID, "error", err)
		}
	}
	return customer, sig, nil
}

// Get returns a customer by ID.
func (s *Service) Get(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return customer, nil
}

// GetByNationalID returns a customer by government identifier.
func (s *Service) GetByNationalID(ctx context.Context, nationalID string) (*models.Customer, error) {
	customer, err := s.customers.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return customer, nil
}

// List returns all customers ordered by name, ties broken by ID.
func (s *Service) List(ctx context.Context) ([]*models.Customer, error) {
	return s.customers.List(ctx)
}

// Update replaces a customer's identity details under the row lock.
func (s *Service) Update(ctx context.Context, customerID id.CustomerID, name, email, phone, nationalID string) (*models.Customer, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	var updated *models.Customer
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.customers.Lock(ctx, customerID); err != nil {
			return translateStoreError(err)
		}
		customer, err := s.customers.FindByID(ctx, customerID)
		if err != nil {
			return translateStoreError(err)
		}
		if err := customer.ApplyUpdate(name, email, phone, nationalID); err != nil {
			return err
		}
		if err := s.customers.Update(ctx, customer); err != nil {
			return translateStoreError(err)
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the customer and everything attached to them: signature
// rows, audit history, and the customer row commit together; stored image
// artifacts are removed after the commit. A failed artifact removal leaves
// an orphan blob, never a dangling row.
func (s *Service) Delete(ctx context.Context, customerID id.CustomerID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}

	var handles []string
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.customers.Lock(ctx, customerID); err != nil {
			return translateStoreError(err)
		}
		sigs, err := s.signatures.ListByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		for _, sig := range sigs {
			handles = append(handles, sig.ArtifactHandle)
		}
		if err := s.signatures.DeleteByCustomer(ctx, customerID); err != nil {
			return err
		}
		if err := s.audits.DeleteByCustomer(ctx, customerID); err != nil {
			return err
		}
		if err := s.customers.Delete(ctx, customerID); err != nil {
			return translateStoreError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, handle := range handles {
		if err := s.artifacts.Delete(ctx, handle); err != nil {
			s.logger.WarnContext(ctx, "orphaned artifact left behind after cascade delete",
				"customer_id", customerID, "handle", handle, "error", err)
		}
	}

	s.metrics.IncrementCustomersDeleted()
	s.logger.InfoContext(ctx, "customer deleted", "customer_id", customerID)
	return nil
}

// Registrations lists a customer's registration audit rows.
func (s *Service) Registrations(ctx context.Context, customerID id.CustomerID) ([]*audit.Registration, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, translateStoreError(err)
	}
	return s.audits.ListRegistrations(ctx, customerID)
}

// Stats backs the dashboard: total customers plus verification verdict
// totals across all customers.
type Stats struct {
	Customers           int
	VerificationsPassed int64
	VerificationsFailed int64
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	passed, failed, err := s.audits.CountVerifications(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Customers: len(customers), VerificationsPassed: passed, VerificationsFailed: failed}, nil
}

func (s *Service) publishRegistration(ctx context.Context, reg *audit.Registration) {
	if s.publisher == nil || reg == nil {
		return
	}
	if err := s.publisher.PublishRegistration(ctx, reg); err != nil {
		s.logger.WarnContext(ctx, "audit stream publish failed",
			"kind", "registration", "customer_id", reg.CustomerID, "error", err)
	}
}

func requireAdmin(ctx context.Context) (id.AdminID, error) {
	adminID := requestcontext.AdminID(ctx)
	if adminID.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "acting admin is required")
	}
	return adminID, nil
}

// translateStoreError maps sentinel facts from the stores onto the coded
// errors the transport layer understands.
func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDuplicateEmail):
		return dErrors.Wrap(err, dErrors.CodeConflict, "customer email is already registered")
	case errors.Is(err, store.ErrDuplicateNationalID):
		return dErrors.Wrap(err, dErrors.CodeConflict, "national ID is already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "customer not found")
	default:
		return err
	}
}
