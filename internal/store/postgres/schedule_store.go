package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const scheduleColumns = `
	id, owner_id, content_kind, template, company_id, tags, recipients, send_notification,
	schedule_type, scheduled_time, scheduled_date, day_of_week, day_of_month, timezone,
	is_active, last_run, next_run, locked_by, locked_at, created_at, updated_at`

type PostgresScheduleStore struct {
	db *sqlx.DB
}

func NewPostgresScheduleStore(db *sqlx.DB) *PostgresScheduleStore {
	return &PostgresScheduleStore{db: db}
}

func (s *PostgresScheduleStore) Create(ctx context.Context, def *types.ScheduleDefinition) error {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}

	query := `
		INSERT INTO reportfire.schedules (
			id, owner_id, content_kind, template, company_id, tags, recipients, send_notification,
			schedule_type, scheduled_time, scheduled_date, day_of_week, day_of_month, timezone,
			is_active, next_run, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		def.ID, def.OwnerID, def.ContentKind, def.Template, def.CompanyID, def.Tags, def.Recipients,
		def.SendNotification, def.ScheduleType, def.ScheduledTime, def.ScheduledDate, def.DayOfWeek,
		def.DayOfMonth, def.Timezone, def.IsActive, def.NextRun,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "insert schedule %s", def.ID)
	}
	return nil
}

func (s *PostgresScheduleStore) Update(ctx context.Context, def *types.ScheduleDefinition) error {
	query := `
		UPDATE reportfire.schedules
		SET content_kind = $1, template = $2, company_id = $3, tags = $4, recipients = $5,
		    send_notification = $6, schedule_type = $7, scheduled_time = $8, scheduled_date = $9,
		    day_of_week = $10, day_of_month = $11, timezone = $12, is_active = $13, next_run = $14,
		    updated_at = now()
		WHERE id = $15 AND updated_at = $16
		RETURNING updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		def.ContentKind, def.Template, def.CompanyID, def.Tags, def.Recipients, def.SendNotification,
		def.ScheduleType, def.ScheduledTime, def.ScheduledDate, def.DayOfWeek, def.DayOfMonth,
		def.Timezone, def.IsActive, def.NextRun, def.ID, def.UpdatedAt,
	).Scan(&def.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(err, "update schedule %s", def.ID)
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM reportfire.schedules WHERE id = $1)`, def.ID); err != nil {
		return errors.Wrapf(err, "check schedule %s", def.ID)
	}
	if !exists {
		return errors.Wrapf(store.ErrNotFound, "schedule %s", def.ID)
	}
	return errors.Wrapf(store.ErrConflict, "schedule %s changed since it was read", def.ID)
}

func (s *PostgresScheduleStore) FindByID(ctx context.Context, id string) (*types.ScheduleDefinition, error) {
	var def types.ScheduleDefinition
	err := s.db.GetContext(ctx, &def, `SELECT `+scheduleColumns+` FROM reportfire.schedules WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(store.ErrNotFound, "schedule %s", id)
		}
		return nil, errors.Wrapf(err, "find schedule %s", id)
	}
	return &def, nil
}

func (s *PostgresScheduleStore) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error) {
	page, pageSize, offset := types.NormalizePage(page, pageSize, defaultPageSize)

	var totalItems int
	if err := s.db.GetContext(ctx, &totalItems,
		`SELECT COUNT(*) FROM reportfire.schedules WHERE owner_id = $1`, ownerID); err != nil {
		return nil, errors.Wrap(err, "count owner schedules")
	}

	var defs []types.ScheduleDefinition
	err := s.db.SelectContext(ctx, &defs, `
		SELECT `+scheduleColumns+`
		FROM reportfire.schedules
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, ownerID, pageSize, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list owner schedules")
	}

	return types.NewPaginationResult(defs, totalItems, page, pageSize), nil
}

func (s *PostgresScheduleStore) SetActive(ctx context.Context, id string, active bool, nextRun time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reportfire.schedules
		SET is_active = $1, next_run = $2, updated_at = now()
		WHERE id = $3`, active, nextRun, id)
	if err != nil {
		return errors.Wrapf(err, "set active on schedule %s", id)
	}
	return requireAffected(res, "schedule", id)
}

func (s *PostgresScheduleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reportfire.schedules WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete schedule %s", id)
	}
	return requireAffected(res, "schedule", id)
}

func (s *PostgresScheduleStore) FindDue(ctx context.Context, now time.Time, staleAfter time.Duration, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error) {
	page, pageSize, offset := types.NormalizePage(page, pageSize, defaultPageSize)
	staleBefore := now.Add(-staleAfter)

	where := `is_active = TRUE AND next_run <= $1 AND (locked_at IS NULL OR locked_at < $2)`

	var totalItems int
	if err := s.db.GetContext(ctx, &totalItems,
		`SELECT COUNT(*) FROM reportfire.schedules WHERE `+where, now, staleBefore); err != nil {
		return nil, errors.Wrap(err, "count due schedules")
	}

	var defs []types.ScheduleDefinition
	err := s.db.SelectContext(ctx, &defs, `
		SELECT `+scheduleColumns+`
		FROM reportfire.schedules
		WHERE `+where+`
		ORDER BY next_run ASC, id ASC
		LIMIT $3 OFFSET $4`, now, staleBefore, pageSize, offset)
	if err != nil {
		return nil, errors.Wrap(err, "fetch due schedules")
	}

	return types.NewPaginationResult(defs, totalItems, page, pageSize), nil
}

func (s *PostgresScheduleStore) Claim(ctx context.Context, id, instance string, now time.Time, staleAfter time.Duration) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reportfire.schedules
		SET locked_by = $1, locked_at = $2, updated_at = now()
		WHERE id = $3
		  AND is_active = TRUE
		  AND next_run <= $2
		  AND (locked_at IS NULL OR locked_at < $4)`,
		instance, now, id, now.Add(-staleAfter))
	if err != nil {
		return false, errors.Wrapf(err, "claim schedule %s", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return affected > 0, nil
}

func (s *PostgresScheduleStore) Advance(ctx context.Context, id string, lastRun, nextRun time.Time, keepActive bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reportfire.schedules
		SET last_run = $1,
		    next_run = $2,
		    is_active = is_active AND $3,
		    locked_by = NULL,
		    locked_at = NULL,
		    updated_at = now()
		WHERE id = $4`, lastRun, nextRun, keepActive, id)
	if err != nil {
		return errors.Wrapf(err, "advance schedule %s", id)
	}
	return requireAffected(res, "schedule", id)
}

var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)
