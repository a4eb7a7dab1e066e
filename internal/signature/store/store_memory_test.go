package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"signet/internal/signature/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

type SignatureStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *SignatureStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestSignatureStoreSuite(t *testing.T) {
	suite.Run(t, new(SignatureStoreSuite))
}

func (s *SignatureStoreSuite) newSignature(customerID id.CustomerID, handle string, embedding []float64) *models.EnrolledSignature {
	sig, err := models.New(customerID, handle, embedding, time.Now())
	s.Require().NoError(err)
	return sig
}

func (s *SignatureStoreSuite) TestInsertAndLookup() {
	s.Run("assigns IDs in insertion order", func() {
		first := s.newSignature(1, "customer_1_aaa.sig", []float64{1, 2})
		second := s.newSignature(1, "customer_1_bbb.sig", []float64{3, 4})
		s.Require().NoError(s.store.Insert(s.ctx, first))
		s.Require().NoError(s.store.Insert(s.ctx, second))
		s.Less(first.ID, second.ID)
	})

	s.Run("finds by ID", func() {
		found, err := s.store.FindByID(s.ctx, id.SignatureID(1))
		s.Require().NoError(err)
		s.Equal("customer_1_aaa.sig", found.ArtifactHandle)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.SignatureID(999))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects a handle already referenced", func() {
		dup := s.newSignature(2, "customer_1_aaa.sig", []float64{5, 6})
		s.Require().ErrorIs(s.store.Insert(s.ctx, dup), sentinel.ErrConflict)
	})
}

func (s *SignatureStoreSuite) TestListByCustomer() {
	for i, handle := range []string{"customer_1_a.sig", "customer_2_b.sig", "customer_1_c.sig"} {
		owner := id.CustomerID(1)
		if i == 1 {
			owner = 2
		}
		s.Require().NoError(s.store.Insert(s.ctx, s.newSignature(owner, handle, []float64{float64(i)})))
	}

	sigs, err := s.store.ListByCustomer(s.ctx, id.CustomerID(1))
	s.Require().NoError(err)
	s.Require().Len(sigs, 2)
	s.Equal("customer_1_a.sig", sigs[0].ArtifactHandle)
	s.Equal("customer_1_c.sig", sigs[1].ArtifactHandle)
	s.Less(sigs[0].ID, sigs[1].ID)
}

// TestReturnedRowsAreCopies verifies callers cannot mutate stored embeddings
// through a returned slice.
func (s *SignatureStoreSuite) TestReturnedRowsAreCopies() {
	sig := s.newSignature(1, "customer_1_a.sig", []float64{1, 2, 3})
	s.Require().NoError(s.store.Insert(s.ctx, sig))

	found, err := s.store.FindByID(s.ctx, sig.ID)
	s.Require().NoError(err)
	found.Embedding[0] = 99

	again, err := s.store.FindByID(s.ctx, sig.ID)
	s.Require().NoError(err)
	s.Equal(1.0, again.Embedding[0])
}

func (s *SignatureStoreSuite) TestDelete() {
	sig := s.newSignature(1, "customer_1_a.sig", []float64{1})
	other := s.newSignature(1, "customer_1_b.sig", []float64{2})
	s.Require().NoError(s.store.Insert(s.ctx, sig))
	s.Require().NoError(s.store.Insert(s.ctx, other))

	s.Run("removes a single row", func() {
		s.Require().NoError(s.store.Delete(s.ctx, sig.ID))
		s.Require().ErrorIs(s.store.Delete(s.ctx, sig.ID), sentinel.ErrNotFound)
	})

	s.Run("cascade removes all rows for a customer", func() {
		s.Require().NoError(s.store.DeleteByCustomer(s.ctx, id.CustomerID(1)))
		sigs, err := s.store.ListByCustomer(s.ctx, id.CustomerID(1))
		s.Require().NoError(err)
		s.Empty(sigs)
	})
}
