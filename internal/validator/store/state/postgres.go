package state

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

// Schema creates the single-row validator_state table. The CHECK on
// singleton pins the row count to one.
const Schema = `
CREATE TABLE IF NOT EXISTS validator_state (
    singleton            BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    owner_address        TEXT        NOT NULL,
    jurisdiction_address TEXT        NOT NULL,
    attribute_id         BIGINT      NOT NULL,
    paused               BOOLEAN     NOT NULL DEFAULT FALSE,
    issuance_paused      BOOLEAN     NOT NULL DEFAULT FALSE,
    initialized_at       TIMESTAMPTZ NOT NULL
);
`

const pqUniqueViolation = "23505"

// Postgres persists the validator state in a single row.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating validator_state schema: %w", err)
	}
	return nil
}

func (p *Postgres) Initialize(ctx context.Context, st *models.ValidatorState) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO validator_state
			(owner_address, jurisdiction_address, attribute_id, paused, issuance_paused, initialized_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		st.Owner.String(), st.JurisdictionAddress.String(), st.AttributeID,
		st.Paused, st.IssuancePaused, st.InitializedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("inserting validator state: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context) (*models.ValidatorState, error) {
	return p.load(ctx, p.db, false)
}

func (p *Postgres) Execute(
	ctx context.Context,
	validate func(*models.ValidatorState) error,
	mutate func(*models.ValidatorState),
) (*models.ValidatorState, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	st, err := p.load(ctx, tx, true)
	if err != nil {
		return nil, err
	}
	if err := validate(st); err != nil {
		return nil, err
	}
	mutate(st)

	_, err = tx.ExecContext(ctx, `
		UPDATE validator_state SET
			owner_address = $1, jurisdiction_address = $2, attribute_id = $3,
			paused = $4, issuance_paused = $5`,
		st.Owner.String(), st.JurisdictionAddress.String(), st.AttributeID,
		st.Paused, st.IssuancePaused,
	)
	if err != nil {
		return nil, fmt.Errorf("updating validator state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing validator state: %w", err)
	}
	return st, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *Postgres) load(ctx context.Context, q queryer, forUpdate bool) (*models.ValidatorState, error) {
	query := `
		SELECT owner_address, jurisdiction_address, attribute_id, paused, issuance_paused, initialized_at
		FROM validator_state`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		st           models.ValidatorState
		owner, juris string
	)
	err := q.QueryRowContext(ctx, query).Scan(
		&owner, &juris, &st.AttributeID, &st.Paused, &st.IssuancePaused, &st.InitializedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading validator state: %w", err)
	}
	st.Owner = id.Address(owner)
	st.JurisdictionAddress = id.Address(juris)
	return &st, nil
}
