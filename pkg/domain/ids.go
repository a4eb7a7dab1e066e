// Package domain holds the typed identifiers shared across the module.
//
// Customers, signatures, and admins are keyed by serial integers in the
// relational store; the distinct Go types exist so the compiler rejects a
// signature ID where a customer ID is expected.
package domain

import (
	"strconv"

	dErrors "signet/pkg/domain-errors"
)

// CustomerID identifies a customer record.
type CustomerID int64

// SignatureID identifies an enrolled signature record.
type SignatureID int64

// AdminID identifies the acting admin principal. It is supplied by the
// external authentication collaborator and only recorded here, never issued.
type AdminID int64

// ParseCustomerID constructs a CustomerID from external input (URL params,
// form fields). Rejects non-numeric and non-positive values.
func ParseCustomerID(s string) (CustomerID, error) {
	v, err := parsePositive(s, "customer id")
	return CustomerID(v), err
}

// ParseSignatureID constructs a SignatureID from external input.
func ParseSignatureID(s string) (SignatureID, error) {
	v, err := parsePositive(s, "signature id")
	return SignatureID(v), err
}

// ParseAdminID constructs an AdminID from external input.
func ParseAdminID(s string) (AdminID, error) {
	v, err := parsePositive(s, "admin id")
	return AdminID(v), err
}

func parsePositive(s, label string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, label+" cannot be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	return v, nil
}

func (id CustomerID) IsNil() bool  { return id == 0 }
func (id SignatureID) IsNil() bool { return id == 0 }
func (id AdminID) IsNil() bool     { return id == 0 }

func (id CustomerID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id SignatureID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id AdminID) String() string     { return strconv.FormatInt(int64(id), 10) }
