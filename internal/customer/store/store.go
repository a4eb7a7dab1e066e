package store

import (
	"context"
	"fmt"

	"signet/internal/customer/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
)

// Duplicate-key facts, distinguishable so services can tell the caller which
// field collided. Both match sentinel.ErrConflict through errors.Is.
var (
	ErrDuplicateEmail      = fmt.Errorf("%w: customer email", sentinel.ErrConflict)
	ErrDuplicateNationalID = fmt.Errorf("%w: national id", sentinel.ErrConflict)
)

// Store persists customers. Implementations honor a transaction carried in
// context (pkg/platform/tx).
type Store interface {
	// Create inserts the customer and assigns its ID. Returns
	// ErrDuplicateEmail or ErrDuplicateNationalID on unique violations.
	Create(ctx context.Context, customer *models.Customer) error

	// Update persists new identity details. Returns sentinel.ErrNotFound for
	// unknown IDs and the duplicate errors above on unique violations
	// against a different customer.
	Update(ctx context.Context, customer *models.Customer) error

	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Customer, error)

	// List returns all customers ordered by name ascending, ties broken by
	// ID ascending.
	List(ctx context.Context) ([]*models.Customer, error)

	// Delete removes only the customer row. The cascade over dependent rows
	// and artifacts is the service's transaction; this is its last step.
	Delete(ctx context.Context, customerID id.CustomerID) error

	// Lock acquires the customer's row lock for the duration of the
	// transaction in context. Every mutation of a customer's signature set
	// takes this lock first so replace and delete serialize per customer.
	// Returns sentinel.ErrNotFound if the customer does not exist.
	Lock(ctx context.Context, customerID id.CustomerID) error
}
