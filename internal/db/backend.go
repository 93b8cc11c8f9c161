package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Collection keys persisted by the service.
const (
	QuestionsKey = "nps_questions"
	ResponsesKey = "nps_responses"
	UsersKey     = "nps_users"
)

// Collections lists every key in load order.
var Collections = []string{QuestionsKey, ResponsesKey, UsersKey}

// ErrNotFound is returned by Load when a collection was never saved.
var ErrNotFound = errors.New("collection not found")

// Backend persists whole collections as opaque JSON documents.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver        string
	DataDir       string
	SQLitePath    string
	MigrationsDir string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open returns the backend named by opts.Driver. SQL backends are migrated
// before they are returned.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "memory":
		return NewMemoryBackend(), nil
	case "", "file":
		return NewFileBackend(opts.DataDir), nil
	case "sqlite", "sqlite3":
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "nps.db")
		}
		return OpenSQLite(ctx, path, opts.MigrationsDir)
	case "postgres", "postgresql":
		if opts.PostgresDSN == "" {
			return nil, errors.New("postgres dsn is required")
		}
		return OpenPostgres(ctx, opts.PostgresDSN, opts.MigrationsDir)
	case "redis":
		return OpenRedis(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}

// CopyCollections copies every named collection present in src into dst and
// returns how many were copied.
func CopyCollections(ctx context.Context, dst, src Backend, names []string) (int, error) {
	copied := 0
	for _, name := range names {
		data, err := src.Load(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return copied, fmt.Errorf("load %s: %w", name, err)
		}
		if err := dst.Save(ctx, name, data); err != nil {
			return copied, fmt.Errorf("save %s: %w", name, err)
		}
		copied++
	}
	return copied, nil
}
