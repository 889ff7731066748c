package store

import (
	"context"
	"fmt"
)

// Open returns the Store for driver, running migrations first when
// migrateOnStart is set.
func Open(ctx context.Context, driver, url string, migrateOnStart bool) (Store, error) {
	if migrateOnStart {
		if err := Migrate(driver, url); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres:
		return NewPostgresStore(ctx, url)
	case DriverSQLite:
		return NewSQLiteStore(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
