package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var artifactRowColumns = []string{"id", "owner_id", "company_id", "schedule_id", "kind", "title", "body", "tags", "created_at"}

func TestPostgresArtifactStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewPostgresArtifactStore(Wrap(db))
	created := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	scheduleID := "s-1"

	mock.ExpectQuery("INSERT INTO reportfire.artifacts").
		WithArgs(sqlmock.AnyArg(), "owner-1", nil, "s-1", "daily", "Daily report", "body", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	artifact := &types.Artifact{
		OwnerID:    "owner-1",
		ScheduleID: &scheduleID,
		Kind:       state.ContentDaily,
		Title:      "Daily report",
		Body:       "body",
	}
	require.NoError(t, s.Save(context.Background(), artifact))
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, created, artifact.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresArtifactStore_FindDailyArtifacts(t *testing.T) {
	from := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	to := from.Add(7 * 24 * time.Hour)

	t.Run("all companies", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s := NewPostgresArtifactStore(Wrap(db))

		mock.ExpectQuery("created_at < \\$4 ORDER BY created_at DESC").
			WithArgs("owner-1", "daily", from, to).
			WillReturnRows(sqlmock.NewRows(artifactRowColumns).
				AddRow("a-2", "owner-1", nil, nil, "daily", "Tue", "b", "{}", to.Add(-time.Hour)).
				AddRow("a-1", "owner-1", nil, nil, "daily", "Mon", "a", "{}", from.Add(time.Hour)))

		artifacts, err := s.FindDailyArtifacts(context.Background(), "owner-1", nil, from, to)
		require.NoError(t, err)
		require.Len(t, artifacts, 2)
		assert.Equal(t, "a-2", artifacts[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("company scoped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		s := NewPostgresArtifactStore(Wrap(db))
		company := "acme"

		mock.ExpectQuery("AND company_id = \\$5").
			WithArgs("owner-1", "daily", from, to, "acme").
			WillReturnRows(sqlmock.NewRows(artifactRowColumns))

		artifacts, err := s.FindDailyArtifacts(context.Background(), "owner-1", &company, from, to)
		require.NoError(t, err)
		assert.Empty(t, artifacts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
