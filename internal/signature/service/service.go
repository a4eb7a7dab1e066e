// Package service keeps signature rows and their stored image artifacts
// mutually consistent. The row commit is the point of no return; the artifact
// write before it is the compensable step and is deleted again on any
// downstream failure.
package service

import (
	"context"
	"errors"
	"log/slog"

	"signet/internal/customer/store"
	"signet/internal/embedding"
	"signet/internal/platform/metrics"
	"signet/internal/signature/artifact"
	"signet/internal/signature/models"
	sigstore "signet/internal/signature/store"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
	"signet/pkg/platform/tx"
	"signet/pkg/requestcontext"
)

// Service owns enrollment, replacement, and removal of reference signatures.
// Every mutation takes the owning customer's row lock, so replace and the
// customer cascade delete serialize per customer.
type Service struct {
	customers  store.Store
	signatures sigstore.Store
	artifacts  artifact.Store
	provider   embedding.Provider
	runner     tx.Runner
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(
	customers store.Store,
	signatures sigstore.Store,
	artifacts artifact.Store,
	provider embedding.Provider,
	runner tx.Runner,
	logger *slog.Logger,
) *Service {
	return &Service{
		customers:  customers,
		signatures: signatures,
		artifacts:  artifacts,
		provider:   provider,
		runner:     runner,
		logger:     logger,
	}
}

// WithMetrics enables counter instrumentation.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Enroll computes the embedding, durably writes the image artifact, and only
// then commits the row referencing it. On a failure after the artifact write,
// the artifact is deleted again, unless it already existed before this call or
// the failure was a handle conflict; either case means another committed row
// references the blob.
func (s *Service) Enroll(ctx context.Context, customerID id.CustomerID, image []byte) (*models.EnrolledSignature, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "signature image is required")
	}

	vector, err := s.provider.Embed(ctx, image)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeEmbeddingUnavailable, "embedding provider failed")
	}

	handle := artifact.Handle(customerID, image)
	existed, err := s.artifacts.Exists(ctx, handle)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "artifact store check failed")
	}
	if err := s.artifacts.Put(ctx, handle, image); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "artifact write failed")
	}

	sig, err := models.New(customerID, handle, vector, requestcontext.Now(ctx))
	if err != nil {
		s.compensateArtifact(ctx, handle, !existed)
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.customers.Lock(ctx, customerID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "customer not found")
			}
			return err
		}
		if err := s.signatures.Insert(ctx, sig); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "identical signature image is already enrolled")
			}
			return err
		}
		return nil
	})
	if err != nil {
		// A handle conflict proves a committed row references this artifact,
		// even when the Exists check above predates that row: a concurrent
		// enroll of the identical image may have published the blob and won
		// the insert after our read. The artifact must stay in that case.
		s.compensateArtifact(ctx, handle, !existed && !dErrors.HasCode(err, dErrors.CodeConflict))
		return nil, err
	}

	s.metrics.IncrementSignaturesEnrolled()
	s.logger.InfoContext(ctx, "signature enrolled",
		"customer_id", customerID, "signature_id", sig.ID, "handle", handle)
	return sig, nil
}

// Replace swaps the customer's reference signatures for a new one. The new
// signature is enrolled and committed first; only then are the previous rows
// and their artifacts removed, so the customer never passes through a
// zero-signature state. If the cleanup of a previous signature fails, the
// customer is left with an extra signature, which is the safe direction.
func (s *Service) Replace(ctx context.Context, customerID id.CustomerID, image []byte) (*models.EnrolledSignature, error) {
	previous, err := s.signatures.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	sig, err := s.Enroll(ctx, customerID, image)
	if err != nil {
		return nil, err
	}

	for _, old := range previous {
		if old.ID == sig.ID {
			continue
		}
		if err := s.Remove(ctx, old.ID); err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				continue
			}
			s.logger.WarnContext(ctx, "previous signature left in place after replace",
				"customer_id", customerID, "signature_id", old.ID, "error", err)
		}
	}
	return sig, nil
}

// ListFor returns the customer's signatures in enrollment order.
func (s *Service) ListFor(ctx context.Context, customerID id.CustomerID) ([]*models.EnrolledSignature, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return s.signatures.ListByCustomer(ctx, customerID)
}

// Remove deletes a signature row and, after the row's removal commits, its
// artifact. The owning customer's row lock is taken first.
func (s *Service) Remove(ctx context.Context, signatureID id.SignatureID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}

	var handle string
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		sig, err := s.signatures.FindByID(ctx, signatureID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "signature not found")
			}
			return err
		}
		if err := s.customers.Lock(ctx, sig.CustomerID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "customer not found")
			}
			return err
		}
		// Re-read under the lock; a concurrent mutation may have removed the
		// row between the first read and lock acquisition.
		sig, err = s.signatures.FindByID(ctx, signatureID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "signature not found")
			}
			return err
		}
		handle = sig.ArtifactHandle
		if err := s.signatures.Delete(ctx, signatureID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.artifacts.Delete(ctx, handle); err != nil {
		s.logger.WarnContext(ctx, "orphaned artifact left behind after signature removal",
			"signature_id", signatureID, "handle", handle, "error", err)
	}
	return nil
}

func (s *Service) compensateArtifact(ctx context.Context, handle string, created bool) {
	if !created {
		return
	}
	if err := s.artifacts.Delete(ctx, handle); err != nil {
		s.logger.ErrorContext(ctx, "artifact compensation failed, orphan left behind",
			"handle", handle, "error", err)
	}
}

func requireAdmin(ctx context.Context) (id.AdminID, error) {
	adminID := requestcontext.AdminID(ctx)
	if adminID.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "acting admin is required")
	}
	return adminID, nil
}
