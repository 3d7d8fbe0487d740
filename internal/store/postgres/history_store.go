package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const historyColumns = `
	id, schedule_id, owner_id, executed_at, status, content_kind, artifact_id,
	notification_sent, recipients, duration_ms, error, metadata`

type PostgresHistoryStore struct {
	db *sqlx.DB
}

func NewPostgresHistoryStore(db *sqlx.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

func (s *PostgresHistoryStore) Insert(ctx context.Context, entry *types.ExecutionHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if !entry.Status.IsValid() {
		return errors.Newf("invalid execution status %q", entry.Status)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reportfire.execution_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.ScheduleID, entry.OwnerID, entry.ExecutedAt, entry.Status, entry.ContentKind,
		entry.ArtifactID, entry.NotificationSent, entry.Recipients, entry.DurationMs, entry.Error,
		entry.Metadata,
	)
	if err != nil {
		return errors.Wrapf(err, "insert history entry for schedule %s", entry.ScheduleID)
	}
	return nil
}

func (s *PostgresHistoryStore) ListBySchedule(ctx context.Context, scheduleID string, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
	return s.list(ctx, "schedule_id = $1", []any{scheduleID}, page, pageSize)
}

func (s *PostgresHistoryStore) ListByOwner(ctx context.Context, ownerID string, status state.ExecutionStatus, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
	if status == "" {
		return s.list(ctx, "owner_id = $1", []any{ownerID}, page, pageSize)
	}
	return s.list(ctx, "owner_id = $1 AND status = $2", []any{ownerID, status}, page, pageSize)
}

func (s *PostgresHistoryStore) list(ctx context.Context, where string, args []any, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
	page, pageSize, offset := types.NormalizePage(page, pageSize, defaultPageSize)

	var totalItems int
	if err := s.db.GetContext(ctx, &totalItems,
		`SELECT COUNT(*) FROM reportfire.execution_history WHERE `+where, args...); err != nil {
		return nil, errors.Wrap(err, "count history entries")
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		FROM reportfire.execution_history
		WHERE %s
		ORDER BY executed_at DESC
		LIMIT $%d OFFSET $%d`, historyColumns, where, argIndex, argIndex+1)

	var entries []types.ExecutionHistoryEntry
	if err := s.db.SelectContext(ctx, &entries, query, append(args, pageSize, offset)...); err != nil {
		return nil, errors.Wrap(err, "list history entries")
	}

	return types.NewPaginationResult(entries, totalItems, page, pageSize), nil
}

func (s *PostgresHistoryStore) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reportfire.execution_history WHERE id = $1 AND owner_id = $2`, entryID, ownerID)
	if err != nil {
		return errors.Wrapf(err, "delete history entry %s", entryID)
	}
	return requireAffected(res, "history entry", entryID)
}

func (s *PostgresHistoryStore) DeleteBySchedule(ctx context.Context, ownerID, scheduleID string) (int64, error) {
	query := `DELETE FROM reportfire.execution_history WHERE schedule_id = $1`
	args := []any{scheduleID}
	if ownerID != "" {
		query += ` AND owner_id = $2`
		args = append(args, ownerID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "delete history of schedule %s", scheduleID)
	}
	return res.RowsAffected()
}

func (s *PostgresHistoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reportfire.execution_history WHERE executed_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge expired history")
	}
	return res.RowsAffected()
}

var _ store.HistoryStore = (*PostgresHistoryStore)(nil)
