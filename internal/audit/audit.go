// Package audit owns the append-only trail of registration and verification
// events. Nothing in the module ever updates or deletes these records except
// the customer cascade delete, which removes a customer's whole history in
// the same transaction as the customer row.
package audit

import (
	"context"
	"time"

	id "signet/pkg/domain"
)

// Outcome is the recorded verdict of a verification event.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// Valid reports whether the outcome is one of the two recordable verdicts.
func (o Outcome) Valid() bool {
	return o == OutcomePassed || o == OutcomeFailed
}

// Registration is the immutable fact that an admin enrolled a customer.
// Created exactly once per customer-creation event.
type Registration struct {
	ID           int64
	CustomerID   id.CustomerID
	AdminID      id.AdminID
	RegisteredAt time.Time
}

// VerificationEvent is the immutable fact that an admin ran a verification
// and what the verdict was.
type VerificationEvent struct {
	ID         int64
	CustomerID id.CustomerID
	AdminID    id.AdminID
	Outcome    Outcome
	VerifiedAt time.Time
}

// Store persists the audit trail. Implementations honor a transaction
// carried in context (pkg/platform/tx) so audit writes commit atomically
// with the domain mutation they describe.
type Store interface {
	AddRegistration(ctx context.Context, reg *Registration) error
	ListRegistrations(ctx context.Context, customerID id.CustomerID) ([]*Registration, error)

	AddVerification(ctx context.Context, event *VerificationEvent) error
	ListVerifications(ctx context.Context, customerID id.CustomerID) ([]*VerificationEvent, error)

	// CountVerifications returns totals by outcome across all customers.
	CountVerifications(ctx context.Context) (passed, failed int64, err error)

	// DeleteByCustomer removes a customer's registrations and verification
	// events. Only the cascade delete calls this.
	DeleteByCustomer(ctx context.Context, customerID id.CustomerID) error
}
