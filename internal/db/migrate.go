package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsTable = "schema_migrations"

type migrationFile struct {
	name     string
	data     []byte
	checksum string
}

// AppliedMigration is one row of the schema_migrations ledger.
type AppliedMigration struct {
	Name      string    `db:"name"`
	Checksum  string    `db:"checksum"`
	AppliedAt time.Time `db:"applied_at"`
}

// RunMigrations applies the migrations not yet recorded in schema_migrations,
// in file name order. Each migration and its ledger row commit in one
// transaction. Files come from migrationsDir when it exists, otherwise from
// the embedded set. A recorded migration whose file changed is an error.
func RunMigrations(ctx context.Context, db *sql.DB, dialect, migrationsDir string) error {
	files, err := loadMigrations(migrationsDir)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
    name TEXT PRIMARY KEY,
    checksum TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL
)`); err != nil {
		return fmt.Errorf("create %s: %w", migrationsTable, err)
	}
	applied, err := AppliedMigrations(ctx, db, dialect)
	if err != nil {
		return err
	}
	done := make(map[string]string, len(applied))
	for _, a := range applied {
		done[a.Name] = a.Checksum
	}

	gq := goqu.New(dialect, db)
	for _, mf := range files {
		if sum, ok := done[mf.name]; ok {
			if sum != mf.checksum {
				return fmt.Errorf("migration %s changed after it was applied", mf.name)
			}
			continue
		}
		tx, err := gq.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", mf.name, err)
		}
		err = tx.Wrap(func() error {
			if strings.TrimSpace(string(mf.data)) != "" {
				if _, err := tx.ExecContext(ctx, string(mf.data)); err != nil {
					return err
				}
			}
			_, err := tx.Insert(migrationsTable).
				Prepared(true).
				Rows(goqu.Record{"name": mf.name, "checksum": mf.checksum, "applied_at": time.Now().UTC()}).
				Executor().
				ExecContext(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("exec migration %s: %w", mf.name, err)
		}
	}
	return nil
}

// AppliedMigrations lists the ledger in name order.
func AppliedMigrations(ctx context.Context, db *sql.DB, dialect string) ([]AppliedMigration, error) {
	var rows []AppliedMigration
	err := goqu.New(dialect, db).
		From(migrationsTable).
		Prepared(true).
		Select("name", "checksum", "applied_at").
		Order(goqu.C("name").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", migrationsTable, err)
	}
	return rows, nil
}

// loadMigrations reads the .sql files of dir, or of the embedded set when dir
// is empty or missing. fs.ReadDir returns them sorted by name.
func loadMigrations(dir string) ([]migrationFile, error) {
	src, root := fs.FS(embeddedMigrations), "migrations"
	if dir != "" {
		_, err := os.Stat(dir)
		switch {
		case err == nil:
			src, root = os.DirFS(dir), "."
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read migrations: %w", err)
		}
	}
	entries, err := fs.ReadDir(src, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		content, err := fs.ReadFile(src, path.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(content)
		files = append(files, migrationFile{name: entry.Name(), data: content, checksum: hex.EncodeToString(sum[:])})
	}
	return files, nil
}
