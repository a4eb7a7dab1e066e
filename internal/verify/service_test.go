package verify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"signet/internal/audit"
	custmodels "signet/internal/customer/models"
	custstore "signet/internal/customer/store"
	"signet/internal/embedding"
	"signet/internal/signature/artifact"
	sigmodels "signet/internal/signature/models"
	sigstore "signet/internal/signature/store"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/tx"
	"signet/pkg/requestcontext"
)

const threshold = 1.4698

type VerifyServiceSuite struct {
	suite.Suite
	customers *custstore.InMemory
	sigs      *sigstore.InMemory
	artifacts *artifact.InMemory
	audits    *audit.InMemory
	provider  *embedding.Static
	service   *Service
	ctx       context.Context
	owner     id.CustomerID
}

func (s *VerifyServiceSuite) SetupTest() {
	s.customers = custstore.NewInMemory()
	s.sigs = sigstore.NewInMemory()
	s.artifacts = artifact.NewInMemory()
	s.audits = audit.NewInMemory()
	s.provider = embedding.NewStatic(3)
	s.service = NewService(s.customers, s.sigs, s.artifacts, s.audits, s.provider,
		tx.NewMemoryRunner(), threshold, slog.New(slog.DiscardHandler))

	ctx := requestcontext.WithAdminID(context.Background(), id.AdminID(7))
	s.ctx = requestcontext.WithTime(ctx, time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC))

	customer, err := custmodels.New("Ada", "ada@example.com", "", "123", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.customers.Create(s.ctx, customer))
	s.owner = customer.ID
}

func TestVerifyServiceSuite(t *testing.T) {
	suite.Run(t, new(VerifyServiceSuite))
}

// enroll seeds a signature row plus its artifact directly into the stores.
func (s *VerifyServiceSuite) enroll(image string, vec []float64) *sigmodels.EnrolledSignature {
	bytes := []byte(image)
	handle := artifact.Handle(s.owner, bytes)
	s.Require().NoError(s.artifacts.Put(s.ctx, handle, bytes))

	sig, err := sigmodels.New(s.owner, handle, vec, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.sigs.Insert(s.ctx, sig))
	return sig
}

// probe registers probe bytes with the provider and returns them.
func (s *VerifyServiceSuite) probe(name string, vec []float64) []byte {
	bytes := []byte(name)
	s.provider.Learn(bytes, vec)
	return bytes
}

// TestExactMatch covers the identical-embedding case: distance zero,
// verified, 100 percent.
func (s *VerifyServiceSuite) TestExactMatch() {
	s.enroll("ref", []float64{1, 2, 3})
	probe := s.probe("probe", []float64{1, 2, 3})

	result, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().NoError(err)
	s.True(result.Verified)
	s.Equal(audit.OutcomePassed, result.Status)
	s.Equal(0.0, result.Distance)
	s.Equal(100, result.MatchPercentage)
	s.Equal(threshold, result.Threshold)

	events, err := s.audits.ListVerifications(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.OutcomePassed, events[0].Outcome)
	s.Equal(id.AdminID(7), events[0].AdminID)
}

// TestTwiceThreshold covers the far end of the display scale: distance of
// exactly twice the threshold maps to zero percent.
func (s *VerifyServiceSuite) TestTwiceThreshold() {
	s.enroll("ref", []float64{0, 0, 0})
	probe := s.probe("probe", []float64{2 * threshold, 0, 0})

	result, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().NoError(err)
	s.False(result.Verified)
	s.Equal(audit.OutcomeFailed, result.Status)
	s.Equal(2*threshold, result.Distance)
	s.Equal(0, result.MatchPercentage)
}

// TestThresholdBoundary verifies the comparison is strict: distance equal to
// the threshold fails.
func (s *VerifyServiceSuite) TestThresholdBoundary() {
	s.enroll("ref", []float64{0, 0, 0})
	probe := s.probe("probe", []float64{threshold, 0, 0})

	result, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().NoError(err)
	s.False(result.Verified)
	s.Equal(threshold, result.Distance)
	s.Equal(50, result.MatchPercentage)
}

// TestNearestNeighbor verifies the decision uses the closest enrolled
// embedding, not the first.
func (s *VerifyServiceSuite) TestNearestNeighbor() {
	s.enroll("far", []float64{10, 0, 0})
	s.enroll("near", []float64{0.5, 0, 0})
	probe := s.probe("probe", []float64{0, 0, 0})

	result, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().NoError(err)
	s.True(result.Verified)
	s.Equal(0.5, result.Distance)
}

// TestNoReferenceSignature: zero enrolled signatures fail without writing
// any event.
func (s *VerifyServiceSuite) TestNoReferenceSignature() {
	probe := s.probe("probe", []float64{1, 2, 3})

	_, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNoReferenceSignature))

	events, err := s.audits.ListVerifications(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *VerifyServiceSuite) TestDeterminism() {
	s.enroll("ref", []float64{1, 2, 3})
	probe := s.probe("probe", []float64{1.1, 2.2, 3.3})

	first, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().NoError(err)
	for i := 0; i < 5; i++ {
		again, err := s.service.Verify(s.ctx, "123", probe)
		s.Require().NoError(err)
		s.Equal(first.Distance, again.Distance)
		s.Equal(first.Verified, again.Verified)
		s.Equal(first.MatchPercentage, again.MatchPercentage)
	}
}

// TestArtifactMissing: a surviving row whose artifact is gone is corruption
// and must fail the whole call, even when other intact candidates exist.
func (s *VerifyServiceSuite) TestArtifactMissing() {
	s.enroll("intact", []float64{1, 2, 3})
	corrupted := s.enroll("corrupted", []float64{4, 5, 6})
	s.Require().NoError(s.artifacts.Delete(s.ctx, corrupted.ArtifactHandle))

	probe := s.probe("probe", []float64{1, 2, 3})
	_, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeArtifactMissing))

	events, auditErr := s.audits.ListVerifications(s.ctx, s.owner)
	s.Require().NoError(auditErr)
	s.Empty(events)
}

func (s *VerifyServiceSuite) TestFailures() {
	s.enroll("ref", []float64{1, 2, 3})

	s.Run("unknown national ID", func() {
		probe := s.probe("probe", []float64{1, 2, 3})
		_, err := s.service.Verify(s.ctx, "does-not-exist", probe)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("undecodable probe image", func() {
		_, err := s.service.Verify(s.ctx, "123", []byte("garbage"))
		s.Require().True(dErrors.HasCode(err, dErrors.CodeEmbeddingUnavailable))
	})

	s.Run("missing admin context", func() {
		probe := s.probe("probe2", []float64{1, 2, 3})
		_, err := s.service.Verify(context.Background(), "123", probe)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("audit write failure returns no verdict", func() {
		probe := s.probe("probe3", []float64{1, 2, 3})
		s.audits.FailNextVerification = errors.New("audit table offline")

		result, err := s.service.Verify(s.ctx, "123", probe)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Nil(result)
	})
}

func (s *VerifyServiceSuite) TestHistory() {
	s.enroll("ref", []float64{1, 2, 3})
	probe := s.probe("probe", []float64{1, 2, 3})
	_, err := s.service.Verify(s.ctx, "123", probe)
	s.Require().NoError(err)

	events, err := s.service.History(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(events, 1)

	_, err = s.service.History(s.ctx, id.CustomerID(999))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
