//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/soaringjerry/npsdesk/internal/api"
	"github.com/soaringjerry/npsdesk/internal/db"
	"github.com/soaringjerry/npsdesk/internal/models"
)

// exerciseStore seeds a backend through the collection store, writes one
// response and checks a fresh store over the same backend reads it back.
func exerciseStore(t *testing.T, backend db.Backend) {
	t.Helper()
	ctx := context.Background()
	store := api.NewCollectionStore(backend, zerolog.Nop())
	if err := store.Load(ctx, api.DefaultSeed()); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := len(store.ListResponses(""))
	added, err := store.AddResponses(ctx, []models.ResponseDraft{{
		QuestionID: "1", UserID: "2", UserName: "Regular User",
		Rating: models.Emoji3(models.LabelGood), Company: api.DemoCompany,
	}})
	if err != nil {
		t.Fatalf("add response: %v", err)
	}

	reloaded := api.NewCollectionStore(backend, zerolog.Nop())
	if err := reloaded.Load(ctx, api.Seed{}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	rs := reloaded.ListResponses("")
	if len(rs) != before+1 {
		t.Fatalf("expected %d responses after reload, got %d", before+1, len(rs))
	}
	last := rs[len(rs)-1]
	if last.ID != added[0].ID || !last.CreatedAt.Equal(added[0].CreatedAt) || last.Rating != added[0].Rating {
		t.Fatalf("reloaded response differs: %+v vs %+v", last, added[0])
	}
}

func TestPostgresBackendIntegration(t *testing.T) {
	dsn := os.Getenv("NPS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NPS_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	backend, err := db.OpenPostgres(ctx, dsn, "")
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer backend.Close()
	for _, name := range db.Collections {
		if _, err := backend.DB().ExecContext(ctx, "DELETE FROM collections WHERE name = $1", name); err != nil {
			t.Fatalf("reset %s: %v", name, err)
		}
	}
	exerciseStore(t, backend)
}

func TestRedisBackendIntegration(t *testing.T) {
	addr := os.Getenv("NPS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NPS_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	backend, err := db.OpenRedis(ctx, db.RedisOptions{
		Addr:   addr,
		Prefix: fmt.Sprintf("nps-test-%d:", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer backend.Close()
	exerciseStore(t, backend)
}
