// Package identity maps verified OIDC claims to local customer records.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Customer is the persistent record for an authenticated principal, keyed
// by the provider's subject identifier. Address is managed elsewhere and
// never written by this package.
type Customer struct {
	ID         int64
	ExternalID string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
}

// CustomerFields carries the profile fields populated from claims.
type CustomerFields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// updatableColumns is the whitelist for UpdateFields.
var updatableColumns = map[string]struct{}{
	"first_name": {},
	"last_name":  {},
	"email":      {},
	"phone":      {},
}

// Store provides customer lookups/mutations against the store schema.
type Store struct {
	db     DB
	schema string
}

// NewStore builds a customer store. schema defaults to "store".
func NewStore(db DB, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "store"
	}
	return &Store{db: db, schema: s}
}

func (s *Store) customersTable() string { return s.schema + ".customers" }

// FindByExternalID returns the customer for an OIDC subject, or nil when
// none exists.
func (s *Store) FindByExternalID(ctx context.Context, externalID string) (*Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx,
		`SELECT id, external_id, first_name, last_name, email, phone, COALESCE(address, '') FROM `+
			s.customersTable()+` WHERE external_id = $1`,
		externalID,
	).Scan(&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID returns the customer with the given primary key, or nil when
// none exists.
func (s *Store) FindByID(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx,
		`SELECT id, external_id, first_name, last_name, email, phone, COALESCE(address, '') FROM `+
			s.customersTable()+` WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreate inserts a customer for externalID, relying on the unique
// constraint to resolve concurrent creation: the loser of the race reads
// the winner's row instead of failing. Returns created=true when this call
// inserted the row.
func (s *Store) GetOrCreate(ctx context.Context, externalID string, fields CustomerFields) (*Customer, bool, error) {
	var c Customer
	err := s.db.QueryRow(ctx,
		`INSERT INTO `+s.customersTable()+` (external_id, first_name, last_name, email, phone) `+
			`VALUES ($1, $2, $3, $4, $5) ON CONFLICT (external_id) DO NOTHING `+
			`RETURNING id, external_id, first_name, last_name, email, phone, COALESCE(address, '')`,
		externalID, fields.FirstName, fields.LastName, fields.Email, fields.Phone,
	).Scan(&c.ID, &c.ExternalID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address)
	if err == nil {
		return &c, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: another request created the row first.
	existing, ferr := s.FindByExternalID(ctx, externalID)
	if ferr != nil {
		return nil, false, ferr
	}
	if existing == nil {
		return nil, false, fmt.Errorf("identity: customer %q vanished after insert conflict", externalID)
	}
	return existing, false, nil
}

// UpdateFields persists only the given column subset. Columns outside the
// whitelist are rejected.
func (s *Store) UpdateFields(ctx context.Context, id int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("identity: column %q is not updatable", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	args = append(args, id)
	for i, col := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, i+2))
		args = append(args, fields[col])
	}

	_, err := s.db.Exec(ctx,
		`UPDATE `+s.customersTable()+` SET `+strings.Join(assignments, ", ")+` WHERE id = $1`,
		args...,
	)
	return err
}
