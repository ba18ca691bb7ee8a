//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"oncofeliz/internal/platform/config"
	"oncofeliz/internal/platform/postgres"
)

// Postgres is a migrated throwaway database.
type Postgres struct {
	URL string
	DB  *sql.DB
}

// StartPostgres runs postgres:16-alpine, opens it through the pgx driver and
// applies the embedded migrations.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("oncofeliz"),
		tcpostgres.WithUsername("oncofeliz"),
		tcpostgres.WithPassword("oncofeliz"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	db, err := postgres.Open(ctx, config.Database{URL: url, MaxOpenConns: 20})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := postgres.Migrate(ctx, db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &Postgres{URL: url, DB: db}
}

// Truncate empties the given tables and restarts their identity columns.
func (p *Postgres) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			return err
		}
	}
	return nil
}
