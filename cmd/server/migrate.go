package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/soaringjerry/npsdesk/internal/db"
)

// MigrateIfNeeded copies the JSON collections of legacyDir into a new SQLite
// database at sqlitePath. It does nothing when the database already exists
// or legacyDir holds no collections.
func MigrateIfNeeded(ctx context.Context, legacyDir, sqlitePath, migrationsDir string) error {
	if sqlitePath == "" {
		return errors.New("sqlite path is required")
	}
	if legacyDir == "" {
		return nil
	}
	if _, err := os.Stat(sqlitePath); err == nil {
		return nil // already migrated
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check sqlite file: %w", err)
	}

	legacy := db.NewFileBackend(legacyDir)
	present := 0
	for _, name := range db.Collections {
		if _, err := legacy.Load(ctx, name); err == nil {
			present++
		}
	}
	if present == 0 {
		return nil
	}

	log.Info().Str("from", legacyDir).Str("to", sqlitePath).Msg("first run detected, migrating legacy collections")
	dst, err := db.OpenSQLite(ctx, sqlitePath, migrationsDir)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close sqlite db")
		}
	}()

	n, err := db.CopyCollections(ctx, dst, legacy, db.Collections)
	if err != nil {
		return fmt.Errorf("copy data: %w", err)
	}
	log.Info().Int("collections", n).Msg("data migration completed")
	return nil
}
