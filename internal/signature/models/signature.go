package models

import (
	"time"

	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// EnrolledSignature pairs a stored image artifact with the embedding the
// verification engine compares probes against.
//
// Invariant: ArtifactHandle points at exactly one stored artifact and every
// artifact under this subsystem's control is referenced by exactly one row.
// The embedding dimensionality is fixed by the provider contract and is
// identical across all rows.
type EnrolledSignature struct {
	ID             id.SignatureID
	CustomerID     id.CustomerID
	ArtifactHandle string
	Embedding      []float64
	CreatedAt      time.Time
}

// New validates and constructs an EnrolledSignature. The ID stays zero until
// the store assigns one.
func New(customerID id.CustomerID, artifactHandle string, embedding []float64, now time.Time) (*EnrolledSignature, error) {
	if customerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "customer ID is required")
	}
	if artifactHandle == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "artifact handle is required")
	}
	if len(embedding) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "embedding is required")
	}
	return &EnrolledSignature{
		CustomerID:     customerID,
		ArtifactHandle: artifactHandle,
		Embedding:      embedding,
		CreatedAt:      now,
	}, nil
}
