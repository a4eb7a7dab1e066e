package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"signet/internal/audit"
	"signet/internal/customer/store"
	"signet/internal/embedding"
	"signet/internal/signature/artifact"
	sigservice "signet/internal/signature/service"
	sigstore "signet/internal/signature/store"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/tx"
	"signet/pkg/requestcontext"
)

var testTime = time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

type CustomerServiceSuite struct {
	suite.Suite
	customers *store.InMemory
	sigs      *sigstore.InMemory
	audits    *audit.InMemory
	artifacts *artifact.InMemory
	provider  *embedding.Static
	service   *Service
	ctx       context.Context
}

func (s *CustomerServiceSuite) SetupTest() {
	s.customers = store.NewInMemory()
	s.sigs = sigstore.NewInMemory()
	s.audits = audit.NewInMemory()
	s.artifacts = artifact.NewInMemory()
	s.provider = embedding.NewStatic(3)

	runner := tx.NewMemoryRunner()
	logger := slog.New(slog.DiscardHandler)
	s.service = NewService(s.customers, s.sigs, s.audits, s.artifacts, runner, logger)
	s.service.WithEnroller(sigservice.NewService(s.customers, s.sigs, s.artifacts, s.provider, runner, logger))

	ctx := requestcontext.WithAdminID(context.Background(), id.AdminID(7))
	s.ctx = requestcontext.WithTime(ctx, testTime)
}

func TestCustomerServiceSuite(t *testing.T) {
	suite.Run(t, new(CustomerServiceSuite))
}

func (s *CustomerServiceSuite) TestCreate() {
	s.Run("registers customer and records registration", func() {
		customer, err := s.service.Create(s.ctx, "Ada", "ada@example.com", "", "NID-1")
		s.Require().NoError(err)
		s.Require().False(customer.ID.IsNil())
		s.Equal(testTime, customer.CreatedAt)

		regs, err := s.audits.ListRegistrations(s.ctx, customer.ID)
		s.Require().NoError(err)
		s.Require().Len(regs, 1)
		s.Equal(id.AdminID(7), regs[0].AdminID)
		s.Equal(testTime, regs[0].RegisteredAt)
	})

	s.Run("rejects missing admin context", func() {
		_, err := s.service.Create(context.Background(), "Eve", "eve@example.com", "", "NID-2")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects duplicate national ID and keeps one row", func() {
		_, err := s.service.Create(s.ctx, "Eve", "eve@example.com", "", "NID-1")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))

		all, err := s.service.List(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("rejects malformed email before any store write", func() {
		_, err := s.service.Create(s.ctx, "Eve", "not-an-email", "", "NID-3")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CustomerServiceSuite) TestUpdate() {
	customer, err := s.service.Create(s.ctx, "Ada", "ada@example.com", "", "NID-1")
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, "Eve", "eve@example.com", "", "NID-2")
	s.Require().NoError(err)

	s.Run("applies new details", func() {
		updated, err := s.service.Update(s.ctx, customer.ID, "Ada Lovelace", "ada@example.com", "555", "NID-1")
		s.Require().NoError(err)
		s.Equal("Ada Lovelace", updated.Name)
		s.Equal("555", updated.Phone)
	})

	s.Run("rejects collision with another customer", func() {
		_, err := s.service.Update(s.ctx, customer.ID, "Ada", "eve@example.com", "", "NID-1")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects unknown customer", func() {
		_, err := s.service.Update(s.ctx, id.CustomerID(999), "X", "x@example.com", "", "NX")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestCascadeDelete verifies the delete removes every trace of the customer:
// signature rows, audit history, the customer row, and stored artifacts.
func (s *CustomerServiceSuite) TestCascadeDelete() {
	image := []byte("signature-image")
	s.provider.Learn(image, []float64{1, 2, 3})

	customer, _, err := s.service.RegisterWithSignature(s.ctx, "Ada", "ada@example.com", "", "NID-1", image)
	s.Require().NoError(err)
	s.Require().Equal(1, s.artifacts.Len())

	s.Require().NoError(s.service.Delete(s.ctx, customer.ID))

	s.Run("customer row is gone", func() {
		_, err := s.service.Get(s.ctx, customer.ID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("signature rows are gone", func() {
		sigs, err := s.sigs.ListByCustomer(s.ctx, customer.ID)
		s.Require().NoError(err)
		s.Empty(sigs)
	})

	s.Run("audit history is gone", func() {
		regs, err := s.audits.ListRegistrations(s.ctx, customer.ID)
		s.Require().NoError(err)
		s.Empty(regs)
	})

	s.Run("no artifact remains", func() {
		s.Equal(0, s.artifacts.Len())
	})

	s.Run("second delete reports NotFound", func() {
		err := s.service.Delete(s.ctx, customer.ID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CustomerServiceSuite) TestRegisterWithSignature() {
	s.Run("creates customer and first signature together", func() {
		image := []byte("first-signature")
		s.provider.Learn(image, []float64{1, 0, 0})

		customer, sig, err := s.service.RegisterWithSignature(s.ctx, "Ada", "ada@example.com", "", "NID-1", image)
		s.Require().NoError(err)
		s.Require().False(sig.ID.IsNil())
		s.Equal(customer.ID, sig.CustomerID)
		s.Equal(1, s.artifacts.Len())
	})

	s.Run("embedding failure leaves no customer behind", func() {
		_, _, err := s.service.RegisterWithSignature(s.ctx, "Eve", "eve@example.com", "", "NID-2", []byte("undecodable"))
		s.Require().True(dErrors.HasCode(err, dErrors.CodeEmbeddingUnavailable))

		_, err = s.service.GetByNationalID(s.ctx, "NID-2")
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(1, s.artifacts.Len())
	})

	s.Run("missing image fails validation", func() {
		_, _, err := s.service.RegisterWithSignature(s.ctx, "Eve", "eve@example.com", "", "NID-3", nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestUpdateWithSignature verifies the combined update is all-or-nothing: a
// failed metadata update leaves the previous signature set untouched, and a
// successful one swaps metadata and signature together.
func (s *CustomerServiceSuite) TestUpdateWithSignature() {
	original := []byte("original-signature")
	s.provider.Learn(original, []float64{1, 0, 0})
	customer, firstSig, err := s.service.RegisterWithSignature(s.ctx, "Ada", "ada@example.com", "", "NID-1", original)
	s.Require().NoError(err)
	_, err = s.service.Create(s.ctx, "Eve", "eve@example.com", "", "NID-2")
	s.Require().NoError(err)

	s.Run("metadata failure keeps the previous signature and details", func() {
		replacement := []byte("rejected-update")
		s.provider.Learn(replacement, []float64{0, 1, 0})

		_, _, err := s.service.UpdateWithSignature(s.ctx, customer.ID, "Ada", "eve@example.com", "", "NID-1", replacement)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))

		current, err := s.service.Get(s.ctx, customer.ID)
		s.Require().NoError(err)
		s.Equal("ada@example.com", current.Email)

		sigs, err := s.sigs.ListByCustomer(s.ctx, customer.ID)
		s.Require().NoError(err)
		s.Require().Len(sigs, 1)
		s.Equal(firstSig.ID, sigs[0].ID)
		s.Equal(1, s.artifacts.Len(), "the rejected update's artifact must be compensated away")
	})

	s.Run("swaps details and signature together", func() {
		replacement := []byte("accepted-update")
		s.provider.Learn(replacement, []float64{0, 0, 1})

		updated, sig, err := s.service.UpdateWithSignature(s.ctx, customer.ID, "Ada Lovelace", "ada@example.com", "555", "NID-1", replacement)
		s.Require().NoError(err)
		s.Equal("Ada Lovelace", updated.Name)
		s.NotEqual(firstSig.ID, sig.ID)

		sigs, err := s.sigs.ListByCustomer(s.ctx, customer.ID)
		s.Require().NoError(err)
		s.Require().Len(sigs, 1)
		s.Equal(sig.ID, sigs[0].ID)
		s.Equal(1, s.artifacts.Len(), "old artifact removed, new one kept")
	})

	s.Run("missing image fails validation", func() {
		_, _, err := s.service.UpdateWithSignature(s.ctx, customer.ID, "Ada", "ada@example.com", "", "NID-1", nil)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CustomerServiceSuite) TestStats() {
	_, err := s.service.Create(s.ctx, "Ada", "ada@example.com", "", "NID-1")
	s.Require().NoError(err)
	customer, err := s.service.GetByNationalID(s.ctx, "NID-1")
	s.Require().NoError(err)

	s.Require().NoError(s.audits.AddVerification(s.ctx, &audit.VerificationEvent{
		CustomerID: customer.ID, AdminID: 7, Outcome: audit.OutcomePassed, VerifiedAt: testTime,
	}))
	s.Require().NoError(s.audits.AddVerification(s.ctx, &audit.VerificationEvent{
		CustomerID: customer.ID, AdminID: 7, Outcome: audit.OutcomeFailed, VerifiedAt: testTime,
	}))

	stats, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.Customers)
	s.Equal(int64(1), stats.VerificationsPassed)
	s.Equal(int64(1), stats.VerificationsFailed)
}
