package store

import (
	"context"
	"sort"
	"sync"

	"signet/internal/signature/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

// InMemory is the test double for Store.
type InMemory struct {
	mu         sync.RWMutex
	signatures map[id.SignatureID]*models.EnrolledSignature
	nextID     int64
}

// NewInMemory constructs an empty in-memory signature store.
func NewInMemory() *InMemory {
	return &InMemory{signatures: make(map[id.SignatureID]*models.EnrolledSignature), nextID: 1}
}

func (s *InMemory) Insert(_ context.Context, sig *models.EnrolledSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.signatures {
		if existing.ArtifactHandle == sig.ArtifactHandle {
			return sentinel.ErrConflict
		}
	}

	stored := copySignature(sig)
	stored.ID = id.SignatureID(s.nextID)
	s.nextID++
	s.signatures[stored.ID] = stored
	sig.ID = stored.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, signatureID id.SignatureID) (*models.EnrolledSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signatures[signatureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copySignature(sig), nil
}

func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*models.EnrolledSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EnrolledSignature
	for _, sig := range s.signatures {
		if sig.CustomerID == customerID {
			out = append(out, copySignature(sig))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, signatureID id.SignatureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.signatures[signatureID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.signatures, signatureID)
	return nil
}

func (s *InMemory) DeleteByCustomer(_ context.Context, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for signatureID, sig := range s.signatures {
		if sig.CustomerID == customerID {
			delete(s.signatures, signatureID)
		}
	}
	return nil
}

func copySignature(sig *models.EnrolledSignature) *models.EnrolledSignature {
	copied := *sig
	copied.Embedding = make([]float64, len(sig.Embedding))
	copy(copied.Embedding, sig.Embedding)
	return &copied
}
