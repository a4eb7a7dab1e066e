package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"signet/internal/customer/models"
	id "signet/pkg/domain"
	"signet/pkg/platform/sentinel"
	txcontext "signet/pkg/platform/tx"
)

// PostgresStore persists customers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed customer store.
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

func (s *PostgresStore) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (customer_name, customer_email, customer_phone, national_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING customer_id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		customer.Name, customer.Email, nullString(customer.Phone), customer.NationalID, customer.CreatedAt,
	).Scan(&customer.ID)
	if err != nil {
		return translateUniqueViolation(err, "insert customer")
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET customer_name = $1, customer_email = $2, customer_phone = $3, national_id = $4
		WHERE customer_id = $5
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		customer.Name, customer.Email, nullString(customer.Phone), customer.NationalID, int64(customer.ID),
	)
	if err != nil {
		return translateUniqueViolation(err, "update customer")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	query := `
		SELECT customer_id, customer_name, customer_email, customer_phone, national_id, created_at
		FROM customers
		WHERE customer_id = $1
	`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, int64(customerID)))
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Customer, error) {
	query := `
		SELECT customer_id, customer_name, customer_email, customer_phone, national_id, created_at
		FROM customers
		WHERE national_id = $1
	`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, nationalID))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Customer, error) {
	query := `
		SELECT customer_id, customer_name, customer_email, customer_phone, national_id, created_at
		FROM customers
		ORDER BY customer_name ASC, customer_id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, customerID id.CustomerID) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM customers WHERE customer_id = $1`, int64(customerID))
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Lock(ctx context.Context, customerID id.CustomerID) error {
	// Row lock held until the transaction in context commits or rolls back.
	var locked int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT customer_id FROM customers WHERE customer_id = $1 FOR UPDATE`,
		int64(customerID),
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock customer row: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Customer, error) {
	customer, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var customer models.Customer
	var phone sql.NullString
	err := row.Scan(&customer.ID, &customer.Name, &customer.Email, &phone, &customer.NationalID, &customer.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	customer.Phone = phone.String
	return &customer, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// translateUniqueViolation maps Postgres unique-constraint errors onto the
// store's duplicate sentinels, keyed by constraint name from the schema.
func translateUniqueViolation(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "customers_customer_email_key":
			return ErrDuplicateEmail
		case "customers_national_id_key":
			return ErrDuplicateNationalID
		}
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
