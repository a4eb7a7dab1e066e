package store

import (
	"context"

	"signet/internal/signature/models"
	id "signet/pkg/domain"
)

// Store persists enrolled signature rows. Artifact bytes live in the
// artifact store; rows carry only the handle. Implementations honor a
// transaction carried in context (pkg/platform/tx).
type Store interface {
	// Insert adds the row and assigns its ID. Returns sentinel.ErrConflict
	// if the artifact handle is already referenced by another row.
	Insert(ctx context.Context, sig *models.EnrolledSignature) error

	FindByID(ctx context.Context, signatureID id.SignatureID) (*models.EnrolledSignature, error)

	// ListByCustomer returns the customer's signatures ordered by ID
	// ascending (insertion order).
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.EnrolledSignature, error)

	// Delete removes only the row; returns sentinel.ErrNotFound if absent.
	Delete(ctx context.Context, signatureID id.SignatureID) error

	// DeleteByCustomer removes all of a customer's rows. Used by the
	// customer cascade delete.
	DeleteByCustomer(ctx context.Context, customerID id.CustomerID) error
}
