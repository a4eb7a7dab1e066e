// Package verify implements the verification decision procedure: resolve the
// customer, embed the probe image, gather the enrolled candidate set, apply
// the nearest-neighbor threshold rule, and append the verification event.
// The verdict and its audit record commit together; no verdict is ever
// returned without its event, and no event is written for a failed call.
package verify

import (
	"context"
	"errors"
	"log/slog"

	"signet/internal/audit"
	"signet/internal/customer/store"
	"signet/internal/embedding"
	"signet/internal/platform/metrics"
	"signet/internal/signature/artifact"
	sigstore "signet/internal/signature/store"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/sentinel"
	"signet/pkg/platform/tx"
	"signet/pkg/requestcontext"
)

// Result is the caller-visible verdict of one verification call.
type Result struct {
	Verified        bool
	Status          audit.Outcome
	Distance        float64
	MatchPercentage int
	Threshold       float64
	CustomerID      id.CustomerID
}

// Service runs verification calls. It reads customers and signatures but
// never mutates them; its only write is the append-only verification event.
type Service struct {
	customers  store.Store
	signatures sigstore.Store
	artifacts  artifact.Store
	audits     audit.Store
	provider   embedding.Provider
	runner     tx.Runner
	threshold  float64
	publisher  audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewService(
	customers store.Store,
	signatures sigstore.Store,
	artifacts artifact.Store,
	audits audit.Store,
	provider embedding.Provider,
	runner tx.Runner,
	threshold float64,
	logger *slog.Logger,
) *Service {
	return &Service{
		customers:  customers,
		signatures: signatures,
		artifacts:  artifacts,
		audits:     audits,
		provider:   provider,
		runner:     runner,
		threshold:  threshold,
		logger:     logger,
	}
}

// WithPublisher mirrors verification events to the compliance stream,
// best-effort.
func (s *Service) WithPublisher(publisher audit.Publisher) *Service {
	s.publisher = publisher
	return s
}

// WithMetrics enables counter instrumentation.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Verify decides whether the probe image belongs to the customer registered
// under nationalID. Identical probe and enrolled set always produce the
// identical distance and verdict.
func (s *Service) Verify(ctx context.Context, nationalID string, probe []byte) (*Result, error) {
	adminID := requestcontext.AdminID(ctx)
	if adminID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "acting admin is required")
	}
	if len(probe) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "probe signature image is required")
	}

	customer, err := s.customers.FindByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}

	probeVec, err := s.provider.Embed(ctx, probe)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeEmbeddingUnavailable, "embedding provider failed")
	}

	var (
		result *Result
		event  *audit.VerificationEvent
	)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		candidates, err := s.gatherCandidates(ctx, customer.ID, len(probeVec))
		if err != nil {
			return err
		}

		decision := decide(nearestDistance(probeVec, candidates), s.threshold)
		outcome := audit.OutcomeFailed
		if decision.Verified {
			outcome = audit.OutcomePassed
		}

		event = &audit.VerificationEvent{
			CustomerID: customer.ID,
			AdminID:    adminID,
			Outcome:    outcome,
			VerifiedAt: requestcontext.Now(ctx),
		}
		if err := s.audits.AddVerification(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "verification event could not be recorded")
		}

		result = &Result{
			Verified:        decision.Verified,
			Status:          outcome,
			Distance:        decision.Distance,
			MatchPercentage: decision.MatchPercentage,
			Threshold:       decision.Threshold,
			CustomerID:      customer.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementVerification(string(result.Status))
	s.publishVerification(ctx, event)
	s.logger.InfoContext(ctx, "verification decided",
		"customer_id", customer.ID, "admin_id", adminID,
		"status", result.Status, "distance", result.Distance)
	return result, nil
}

// gatherCandidates loads the customer's enrolled embeddings and checks each
// row's artifact still exists. A row whose artifact is gone is re-fetched:
// if the row itself is gone too, a concurrent delete raced this read and the
// candidate is dropped; if the row is still present, the store is corrupted
// and verification fails deterministically rather than skipping the row.
func (s *Service) gatherCandidates(ctx context.Context, customerID id.CustomerID, dim int) ([][]float64, error) {
	sigs, err := s.signatures.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	candidates := make([][]float64, 0, len(sigs))
	for _, sig := range sigs {
		exists, err := s.artifacts.Exists(ctx, sig.ArtifactHandle)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "artifact store check failed")
		}
		if !exists {
			if _, err := s.signatures.FindByID(ctx, sig.ID); err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					continue
				}
				return nil, err
			}
			return nil, dErrors.Newf(dErrors.CodeArtifactMissing,
				"signature %d references a missing artifact", int64(sig.ID))
		}
		if len(sig.Embedding) != dim {
			return nil, dErrors.Newf(dErrors.CodeInternal,
				"signature %d has embedding dimensionality %d, want %d",
				int64(sig.ID), len(sig.Embedding), dim)
		}
		candidates = append(candidates, sig.Embedding)
	}

	if len(candidates) == 0 {
		return nil, dErrors.New(dErrors.CodeNoReferenceSignature,
			"customer has no enrolled reference signature")
	}
	return candidates, nil
}

// History lists a customer's verification events.
func (s *Service) History(ctx context.Context, customerID id.CustomerID) ([]*audit.VerificationEvent, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return s.audits.ListVerifications(ctx, customerID)
}

func (s *Service) publishVerification(ctx context.Context, event *audit.VerificationEvent) {
	if s.publisher == nil || event == nil {
		return
	}
	if err := s.publisher.PublishVerification(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit stream publish failed",
			"kind", "verification", "customer_id", event.CustomerID, "error", err)
	}
}
