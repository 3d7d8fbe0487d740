package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const artifactColumns = `id, owner_id, company_id, schedule_id, kind, title, body, tags, created_at`

type PostgresArtifactStore struct {
	db *sqlx.DB
}

func NewPostgresArtifactStore(db *sqlx.DB) *PostgresArtifactStore {
	return &PostgresArtifactStore{db: db}
}

func (s *PostgresArtifactStore) Save(ctx context.Context, artifact *types.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO reportfire.artifacts (id, owner_id, company_id, schedule_id, kind, title, body, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING created_at`,
		artifact.ID, artifact.OwnerID, artifact.CompanyID, artifact.ScheduleID, artifact.Kind,
		artifact.Title, artifact.Body, artifact.Tags,
	).Scan(&artifact.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "insert artifact %s", artifact.ID)
	}
	return nil
}

func (s *PostgresArtifactStore) FindByID(ctx context.Context, id string) (*types.Artifact, error) {
	var artifact types.Artifact
	err := s.db.GetContext(ctx, &artifact, `SELECT `+artifactColumns+` FROM reportfire.artifacts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(store.ErrNotFound, "artifact %s", id)
		}
		return nil, errors.Wrapf(err, "find artifact %s", id)
	}
	return &artifact, nil
}

func (s *PostgresArtifactStore) FindByOwner(ctx context.Context, ownerID string, kind state.ContentKind, companyID *string, from, to time.Time) ([]types.Artifact, error) {
	query := `
		SELECT ` + artifactColumns + `
		FROM reportfire.artifacts
		WHERE owner_id = $1 AND kind = $2 AND created_at >= $3 AND created_at < $4`
	args := []any{ownerID, kind, from, to}
	if companyID != nil {
		query += ` AND company_id = $5`
		args = append(args, *companyID)
	}
	query += ` ORDER BY created_at DESC`

	var artifacts []types.Artifact
	if err := s.db.SelectContext(ctx, &artifacts, query, args...); err != nil {
		return nil, errors.Wrapf(err, "find %s artifacts of owner %s", kind, ownerID)
	}
	return artifacts, nil
}

// FindDailyArtifacts returns the owner's daily artifacts in [from, to), company-scoped when set.
func (s *PostgresArtifactStore) FindDailyArtifacts(ctx context.Context, ownerID string, companyID *string, from, to time.Time) ([]types.Artifact, error) {
	return s.FindByOwner(ctx, ownerID, state.ContentDaily, companyID, from, to)
}

var _ store.ArtifactStore = (*PostgresArtifactStore)(nil)
