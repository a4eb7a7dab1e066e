package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"signet/internal/customer/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

// InMemory is the test double for Store. Mutating callers are expected to
// run inside a tx.MemoryRunner callback, which serializes them the way the
// SQL runner plus row lock does; the store's own mutex keeps concurrent
// readers safe.
type InMemory struct {
	mu        sync.RWMutex
	customers map[id.CustomerID]*models.Customer
	nextID    int64
}

// NewInMemory constructs an empty in-memory customer store.
func NewInMemory() *InMemory {
	return &InMemory{customers: make(map[id.CustomerID]*models.Customer), nextID: 1}
}

func (s *InMemory) Create(_ context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if strings.EqualFold(existing.Email, customer.Email) {
			return ErrDuplicateEmail
		}
		if existing.NationalID == customer.NationalID {
			return ErrDuplicateNationalID
		}
	}

	stored := *customer
	stored.ID = id.CustomerID(s.nextID)
	s.nextID++
	s.customers[stored.ID] = &stored
	customer.ID = stored.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for otherID, existing := range s.customers {
		if otherID == customer.ID {
			continue
		}
		if strings.EqualFold(existing.Email, customer.Email) {
			return ErrDuplicateEmail
		}
		if existing.NationalID == customer.NationalID {
			return ErrDuplicateNationalID
		}
	}

	stored := *customer
	s.customers[customer.ID] = &stored
	return nil
}

func (s *InMemory) FindByID(_ context.Context, customerID id.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *customer
	return &copied, nil
}

func (s *InMemory) FindByNationalID(_ context.Context, nationalID string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, customer := range s.customers {
		if customer.NationalID == nationalID {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		copied := *customer
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customerID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.customers, customerID)
	return nil
}

func (s *InMemory) Lock(_ context.Context, customerID id.CustomerID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.customers[customerID]; !ok {
		return sentinel.ErrNotFound
	}
	// The MemoryRunner already serializes mutating callbacks; existence is
	// all that is left to check here.
	return nil
}
