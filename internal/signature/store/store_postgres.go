package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"signet/internal/signature/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
	txcontext "signet/pkg/platform/tx"
)

// PostgresStore persists signature rows in PostgreSQL. Embeddings are stored
// as double precision arrays; nearest-neighbor search happens client-side in
// the verification engine, which is exact for the small per-customer sets
// this system holds.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed signature store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, sig *models.EnrolledSignature) error {
	query := `
		INSERT INTO hand_signatures (customer_id, artifact_handle, embedding, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING signature_id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		int64(sig.CustomerID), sig.ArtifactHandle, pq.Array(sig.Embedding), sig.CreatedAt,
	).Scan(&sig.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("artifact handle already referenced: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert signature: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, signatureID id.SignatureID) (*models.EnrolledSignature, error) {
	query := `
		SELECT signature_id, customer_id, artifact_handle, embedding, created_at
		FROM hand_signatures
		WHERE signature_id = $1
	`
	sig, err := scanSignature(s.execer(ctx).QueryRowContext(ctx, query, int64(signatureID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sig, nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.EnrolledSignature, error) {
	query := `
		SELECT signature_id, customer_id, artifact_handle, embedding, created_at
		FROM hand_signatures
		WHERE customer_id = $1
		ORDER BY signature_id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(customerID))
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()

	var out []*models.EnrolledSignature
	for rows.Next() {
		sig, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, signatureID id.SignatureID) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM hand_signatures WHERE signature_id = $1`, int64(signatureID))
	if err != nil {
		return fmt.Errorf("delete signature: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete signature: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByCustomer(ctx context.Context, customerID id.CustomerID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM hand_signatures WHERE customer_id = $1`, int64(customerID))
	if err != nil {
		return fmt.Errorf("delete signatures for customer: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignature(row rowScanner) (*models.EnrolledSignature, error) {
	var sig models.EnrolledSignature
	var embedding pq.Float64Array
	err := row.Scan(&sig.ID, &sig.CustomerID, &sig.ArtifactHandle, &embedding, &sig.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan signature: %w", err)
	}
	sig.Embedding = []float64(embedding)
	return &sig, nil
}
