package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// MigrationHistory model related methods.
	FindMigrationHistoryList(ctx context.Context) ([]*MigrationHistory, error)
	UpsertMigrationHistory(ctx context.Context, upsert *MigrationHistory) (*MigrationHistory, error)

	// Reminder model related methods.
	CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error)
	ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error)
	UpdateReminder(ctx context.Context, update *UpdateReminder) error
	DeleteReminder(ctx context.Context, delete *DeleteReminder) error
}

// MigrationHistory records an applied schema version.
type MigrationHistory struct {
	Version   string
	CreatedTs int64
}
