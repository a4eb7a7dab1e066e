package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the artifact layer
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique constraint violated (duplicate email / national ID)
// - ErrArtifactMissing: signature row exists but its stored image does not
// - ErrUnavailable: dependency (embedding service, broker) temporarily down
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrArtifactMissing = errors.New("artifact missing")
	ErrUnavailable     = errors.New("unavailable")
)
