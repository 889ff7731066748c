//go:build integration

package store

import (
	"context"
	"os"
	"testing"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	if err := Migrate(DriverPostgres, dbURL); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE assay_scores")
		_, _ = s.pool.Exec(ctx, "TRUNCATE assay_criteria")
		s.Close()
	})

	return s
}

func TestPostgresStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return setupTestDB(t) })
}
