package models

import (
	"strings"
	"time"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// Customer is the identity record a signature is verified against.
// Invariant: email and national ID are unique among active customers; the
// relational store enforces both with unique constraints and the model
// enforces presence and shape before anything reaches a store.
type Customer struct {
	ID         id.CustomerID
	Name       string
	Email      string
	Phone      string // optional
	NationalID string
	CreatedAt  time.Time
}

// New validates and constructs a Customer. The ID stays zero until the store
// assigns one.
func New(name, email, phone, nationalID string, now time.Time) (*Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	nationalID = strings.TrimSpace(nationalID)

	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "customer name is required")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "customer name must be 128 characters or less")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "customer email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "customer email is malformed")
	}
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "national ID is required")
	}

	return &Customer{
		Name:       name,
		Email:      email,
		Phone:      phone,
		NationalID: nationalID,
		CreatedAt:  now,
	}, nil
}

// ApplyUpdate validates and applies new identity details in place.
func (c *Customer) ApplyUpdate(name, email, phone, nationalID string) error {
	updated, err := New(name, email, phone, nationalID, c.CreatedAt)
	if err != nil {
		return err
	}
	c.Name = updated.Name
	c.Email = updated.Email
	c.Phone = updated.Phone
	c.NationalID = updated.NationalID
	return nil
}
