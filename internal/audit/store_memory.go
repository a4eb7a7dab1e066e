package audit

import (
	"context"
	"sync"

	id "signet/pkg/domain"
)

// InMemory is the test double for Store. Append-only like the real thing:
// the only removal path is DeleteByCustomer.
type InMemory struct {
	mu            sync.RWMutex
	registrations []*Registration
	verifications []*VerificationEvent
	nextRegID     int64
	nextVerID     int64

	// FailNextVerification makes the next AddVerification return this error,
	// for exercising the "no verdict unless durably logged" rule.
	FailNextVerification error
}

// NewInMemory constructs an empty in-memory audit store.
func NewInMemory() *InMemory {
	return &InMemory{nextRegID: 1, nextVerID: 1}
}

func (s *InMemory) AddRegistration(_ context.Context, reg *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *reg
	stored.ID = s.nextRegID
	s.nextRegID++
	s.registrations = append(s.registrations, &stored)
	reg.ID = stored.ID
	return nil
}

func (s *InMemory) ListRegistrations(_ context.Context, customerID id.CustomerID) ([]*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Registration
	for _, reg := range s.registrations {
		if reg.CustomerID == customerID {
			copied := *reg
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) AddVerification(_ context.Context, event *VerificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextVerification != nil {
		err := s.FailNextVerification
		s.FailNextVerification = nil
		return err
	}
	stored := *event
	stored.ID = s.nextVerID
	s.nextVerID++
	s.verifications = append(s.verifications, &stored)
	event.ID = stored.ID
	return nil
}

func (s *InMemory) ListVerifications(_ context.Context, customerID id.CustomerID) ([]*VerificationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*VerificationEvent
	for _, event := range s.verifications {
		if event.CustomerID == customerID {
			copied := *event
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) CountVerifications(_ context.Context) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var passed, failed int64
	for _, event := range s.verifications {
		if event.Outcome == OutcomePassed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed, nil
}

func (s *InMemory) DeleteByCustomer(_ context.Context, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	regs := s.registrations[:0]
	for _, reg := range s.registrations {
		if reg.CustomerID != customerID {
			regs = append(regs, reg)
		}
	}
	s.registrations = regs

	vers := s.verifications[:0]
	for _, event := range s.verifications {
		if event.CustomerID != customerID {
			vers = append(vers, event)
		}
	}
	s.verifications = vers
	return nil
}
