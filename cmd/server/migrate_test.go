package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/npsdesk/internal/db"
)

func TestMigrateIfNeededCopiesLegacyCollections(t *testing.T) {
	ctx := context.Background()
	legacyDir := t.TempDir()
	legacy := db.NewFileBackend(legacyDir)
	require.NoError(t, legacy.Save(ctx, db.QuestionsKey, []byte(`[{"id":"1"}]`)))
	require.NoError(t, legacy.Save(ctx, db.UsersKey, []byte(`[]`)))

	sqlitePath := filepath.Join(t.TempDir(), "nested", "nps.db")
	require.NoError(t, MigrateIfNeeded(ctx, legacyDir, sqlitePath, ""))

	dst, err := db.OpenSQLite(ctx, sqlitePath, "")
	require.NoError(t, err)
	defer dst.Close()
	got, err := dst.Load(ctx, db.QuestionsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(got))
	_, err = dst.Load(ctx, db.ResponsesKey)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestMigrateIfNeededSkips(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// nothing to migrate from
	sqlitePath := filepath.Join(dir, "empty.db")
	require.NoError(t, MigrateIfNeeded(ctx, t.TempDir(), sqlitePath, ""))
	_, err := os.Stat(sqlitePath)
	assert.True(t, os.IsNotExist(err))

	// existing database is left alone
	existing := filepath.Join(dir, "existing.db")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))
	legacy := t.TempDir()
	require.NoError(t, db.NewFileBackend(legacy).Save(ctx, db.UsersKey, []byte(`[]`)))
	require.NoError(t, MigrateIfNeeded(ctx, legacy, existing, ""))
	info, err := os.Stat(existing)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	assert.Error(t, MigrateIfNeeded(ctx, legacy, "", ""))
}
