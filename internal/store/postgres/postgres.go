// Package postgres implements the store interfaces on PostgreSQL through sqlx.
package postgres

import (
	"database/sql"

	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const defaultPageSize = 20

// Open connects to PostgreSQL and verifies the connection.
func Open(connectionURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", connectionURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	return db, nil
}

// Wrap adapts an existing *sql.DB, such as one created by sqlmock.
func Wrap(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func requireAffected(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrapf(store.ErrNotFound, "%s %s", kind, id)
	}
	return nil
}
