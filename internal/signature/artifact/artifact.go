// Package artifact stores the image bytes behind enrolled signatures.
//
// The relational store is the single source of truth for which artifacts
// should exist; this layer only guarantees write-once blobs with atomic
// publish (a reader never observes a partial write) and delete-by-handle.
// An artifact with no referencing row is garbage to be collected; a row with
// no artifact is corruption the verification engine reports, never skips.
package artifact

import (
	"context"
	"crypto/sha256"
	"fmt"

	id "signet/pkg/domain"
)

// Store is the blob surface the signature and customer services use.
type Store interface {
	// Put durably writes data under handle. Publishing is atomic: concurrent
	// readers see either nothing or the complete blob. Writing an existing
	// handle with identical content is a no-op.
	Put(ctx context.Context, handle string, data []byte) error

	// Get returns the blob, or sentinel.ErrNotFound.
	Get(ctx context.Context, handle string) ([]byte, error)

	// Exists reports whether the handle has a published blob.
	Exists(ctx context.Context, handle string) (bool, error)

	// Delete removes the blob. Deleting an absent handle is a no-op so
	// compensation paths stay idempotent.
	Delete(ctx context.Context, handle string) error
}

// Handle derives the storage name for a signature image. Content-derived
// (image hash plus customer ID) rather than taken from any user-supplied
// filename, which closes collision and path-injection holes.
func Handle(customerID id.CustomerID, image []byte) string {
	sum := sha256.Sum256(image)
	return fmt.Sprintf("customer_%d_%x.sig", int64(customerID), sum[:12])
}
