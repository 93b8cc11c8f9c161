package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

const collectionsTable = "collections"

// SQLStore keeps collections in the collections table of a SQL database.
type SQLStore struct {
	db   *sql.DB
	gq   *goqu.Database
	name string
	now  func() time.Time
}

// NewSQLStore wraps an open, migrated database. dialect is a goqu dialect
// name ("sqlite3" or "postgres").
func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{
		db:   db,
		gq:   goqu.New(dialect, db),
		name: dialect,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// DB exposes the underlying handle for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Load(ctx context.Context, name string) ([]byte, error) {
	var payload string
	found, err := s.gq.From(collectionsTable).
		Prepared(true).
		Select("payload").
		Where(goqu.C("name").Eq(name)).
		ScanValContext(ctx, &payload)
	if err != nil {
		return nil, fmt.Errorf("%s: load %s: %w", s.name, name, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return []byte(payload), nil
}

// Save upserts the collection inside a transaction.
func (s *SQLStore) Save(ctx context.Context, name string, data []byte) error {
	tx, err := s.gq.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.name, err)
	}
	err = tx.Wrap(func() error {
		now := s.now()
		res, err := tx.Update(collectionsTable).
			Prepared(true).
			Set(goqu.Record{"payload": string(data), "updated_at": now}).
			Where(goqu.C("name").Eq(name)).
			Executor().ExecContext(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n > 0 {
			return err
		}
		_, err = tx.Insert(collectionsTable).
			Prepared(true).
			Rows(goqu.Record{"name": name, "payload": string(data), "updated_at": now}).
			Executor().ExecContext(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: save %s: %w", s.name, name, err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }
