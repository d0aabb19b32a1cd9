package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	// sqlite driver.
	_ "modernc.org/sqlite"

	"github.com/danya1a/Reminder-bot/internal/profile"
	"github.com/danya1a/Reminder-bot/internal/version"
	"github.com/danya1a/Reminder-bot/store"
	"github.com/danya1a/Reminder-bot/store/db"
)

// NewTestingStore returns a migrated store backed by the driver named in
// DRIVER (sqlite by default). PostgreSQL runs need POSTGRES_TEST_DSN.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	profile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, profile)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if profile.Driver == "postgres" {
			_, _ = dbDriver.GetDB().ExecContext(context.Background(), "DROP TABLE IF EXISTS reminder, migration_history")
		}
		s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()

	dir := t.TempDir()
	mode := "dev"
	driver := getDriverFromEnv()
	var dsn string
	switch driver {
	case "sqlite":
		dsn = filepath.Join(dir, fmt.Sprintf("reminders_%s.db", mode))
	case "postgres":
		dsn = os.Getenv("POSTGRES_TEST_DSN")
		if dsn == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
	default:
		t.Fatalf("unsupported test driver: %s", driver)
	}

	return &profile.Profile{
		Mode:            mode,
		Data:            dir,
		DSN:             dsn,
		Driver:          driver,
		Version:         version.Version,
		DefaultTimezone: profile.DefaultTimezone,
	}
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
