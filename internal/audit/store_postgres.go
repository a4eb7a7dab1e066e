package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "signet/pkg/domain"
	txcontext "signet/pkg/platform/tx"
)

// PostgresStore persists the audit trail in PostgreSQL. Writes go through
// the transaction in context when one is present so a registration commits
// with its customer row and nothing else.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
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

func (s *PostgresStore) AddRegistration(ctx context.Context, reg *Registration) error {
	query := `
		INSERT INTO registrations (customer_id, admin_id, registered_at)
		VALUES ($1, $2, $3)
		RETURNING registration_id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		int64(reg.CustomerID), int64(reg.AdminID), reg.RegisteredAt,
	).Scan(&reg.ID)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRegistrations(ctx context.Context, customerID id.CustomerID) ([]*Registration, error) {
	query := `
		SELECT registration_id, customer_id, admin_id, registered_at
		FROM registrations
		WHERE customer_id = $1
		ORDER BY registration_id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(customerID))
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.CustomerID, &reg.AdminID, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, &reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddVerification(ctx context.Context, event *VerificationEvent) error {
	query := `
		INSERT INTO verifications (customer_id, admin_id, verification_status, verified_at)
		VALUES ($1, $2, $3, $4)
		RETURNING verification_id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		int64(event.CustomerID), int64(event.AdminID), string(event.Outcome), event.VerifiedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("insert verification event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListVerifications(ctx context.Context, customerID id.CustomerID) ([]*VerificationEvent, error) {
	query := `
		SELECT verification_id, customer_id, admin_id, verification_status, verified_at
		FROM verifications
		WHERE customer_id = $1
		ORDER BY verification_id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, int64(customerID))
	if err != nil {
		return nil, fmt.Errorf("query verification events: %w", err)
	}
	defer rows.Close()

	var out []*VerificationEvent
	for rows.Next() {
		var event VerificationEvent
		var outcome string
		if err := rows.Scan(&event.ID, &event.CustomerID, &event.AdminID, &outcome, &event.VerifiedAt); err != nil {
			return nil, fmt.Errorf("scan verification event: %w", err)
		}
		event.Outcome = Outcome(outcome)
		out = append(out, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountVerifications(ctx context.Context) (int64, int64, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE verification_status = 'passed'),
			COUNT(*) FILTER (WHERE verification_status = 'failed')
		FROM verifications
	`
	var passed, failed int64
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&passed, &failed); err != nil {
		return 0, 0, fmt.Errorf("count verification events: %w", err)
	}
	return passed, failed, nil
}

func (s *PostgresStore) DeleteByCustomer(ctx context.Context, customerID id.CustomerID) error {
	execer := s.execer(ctx)
	if _, err := execer.ExecContext(ctx,
		`DELETE FROM verifications WHERE customer_id = $1`, int64(customerID)); err != nil {
		return fmt.Errorf("delete verification events: %w", err)
	}
	if _, err := execer.ExecContext(ctx,
		`DELETE FROM registrations WHERE customer_id = $1`, int64(customerID)); err != nil {
		return fmt.Errorf("delete registrations: %w", err)
	}
	return nil
}
