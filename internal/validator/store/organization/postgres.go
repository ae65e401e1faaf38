package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"attestor/internal/validator/models"
	id "attestor/pkg/domain"
	"attestor/pkg/platform/sentinel"
)

// Schema creates the tables this store needs. Applied by the server at
// startup and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
	address        TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	max_addresses  BIGINT NOT NULL,
	seq            BIGSERIAL,
	registered_at  TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS issued_addresses (
	organization  TEXT NOT NULL REFERENCES organizations(address),
	address       TEXT NOT NULL,
	position      INT NOT NULL,
	PRIMARY KEY (organization, address),
	UNIQUE (organization, position)
);
`

const pqUniqueViolation = "23505"

// Postgres persists organizations in PostgreSQL. The issued list's dense
// positions are stored explicitly so swap-removal survives restarts with the
// same observable order.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the store's schema.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply organization schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, org *models.Organization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (address, name, max_addresses, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, org.Address.String(), org.Name, int64(org.MaxAddresses), org.RegisteredAt, org.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return fmt.Errorf("organization %s: %w", org.Address, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, addr id.Address) (*models.Organization, error) {
	return s.load(ctx, s.db, addr, false)
}

func (s *Postgres) List(ctx context.Context) ([]id.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address FROM organizations ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var out []id.Address
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan organization address: %w", err)
		}
		out = append(out, id.Address(addr))
	}
	return out, rows.Err()
}

// Execute loads the organization FOR UPDATE, runs validate then mutate, and
// rewrites the issued list inside one transaction. Validation failures roll
// back without touching stored state.
func (s *Postgres) Execute(
	ctx context.Context,
	addr id.Address,
	validate func(*models.Organization) error,
	mutate func(*models.Organization),
) (*models.Organization, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	org, err := s.load(ctx, tx, addr, true)
	if err != nil {
		return nil, err
	}
	if err := validate(org); err != nil {
		return nil, err
	}
	mutate(org)

	if _, err := tx.ExecContext(ctx, `
		UPDATE organizations SET name = $2, max_addresses = $3, updated_at = $4 WHERE address = $1
	`, org.Address.String(), org.Name, int64(org.MaxAddresses), org.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}

	// Rewrite the issued list wholesale. Issued sets are small (bounded by
	// max_addresses) so this stays cheaper than diffing positions.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM issued_addresses WHERE organization = $1
	`, org.Address.String()); err != nil {
		return nil, fmt.Errorf("clear issued addresses: %w", err)
	}
	for i, issued := range org.IssuedAddresses() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO issued_addresses (organization, address, position) VALUES ($1, $2, $3)
		`, org.Address.String(), issued.String(), i); err != nil {
			return nil, fmt.Errorf("insert issued address: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return org, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) load(ctx context.Context, q queryer, addr id.Address, forUpdate bool) (*models.Organization, error) {
	query := `
		SELECT address, name, max_addresses, registered_at, updated_at
		FROM organizations WHERE address = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	org := &models.Organization{Exists: true}
	var address string
	var maxAddresses int64
	err := q.QueryRowContext(ctx, query, addr.String()).Scan(
		&address, &org.Name, &maxAddresses, &org.RegisteredAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization %s: %w", addr, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	org.Address = id.Address(address)
	org.MaxAddresses = uint64(maxAddresses)

	rows, err := q.QueryContext(ctx, `
		SELECT address FROM issued_addresses WHERE organization = $1 ORDER BY position ASC
	`, addr.String())
	if err != nil {
		return nil, fmt.Errorf("load issued addresses: %w", err)
	}
	defer rows.Close()

	var issued []id.Address
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan issued address: %w", err)
		}
		issued = append(issued, id.Address(a))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	org.RestoreIssued(issued)
	return org, nil
}
