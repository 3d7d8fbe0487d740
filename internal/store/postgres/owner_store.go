package postgres

import (
	"context"
	"database/sql"

	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type PostgresOwnerStore struct {
	db *sqlx.DB
}

func NewPostgresOwnerStore(db *sqlx.DB) *PostgresOwnerStore {
	return &PostgresOwnerStore{db: db}
}

func (s *PostgresOwnerStore) FindByID(ctx context.Context, id string) (*types.Owner, error) {
	var owner types.Owner
	err := s.db.GetContext(ctx, &owner, `SELECT id, name, email FROM reportfire.owners WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // owner not found
		}
		return nil, errors.Wrapf(err, "find owner %s", id)
	}
	return &owner, nil
}

func (s *PostgresOwnerStore) Upsert(ctx context.Context, owner *types.Owner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reportfire.owners (id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		owner.ID, owner.Name, owner.Email)
	if err != nil {
		return errors.Wrapf(err, "upsert owner %s", owner.ID)
	}
	return nil
}

var _ store.OwnerStore = (*PostgresOwnerStore)(nil)
