package sqlite

import (
	"context"
	"fmt"

	"github.com/danya1a/Reminder-bot/store"
)

func (d *DB) FindMigrationHistoryList(ctx context.Context) ([]*store.MigrationHistory, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT version, created_ts FROM migration_history ORDER BY created_ts DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	defer rows.Close()

	list := make([]*store.MigrationHistory, 0)
	for rows.Next() {
		var history store.MigrationHistory
		if err := rows.Scan(&history.Version, &history.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan migration history: %w", err)
		}
		list = append(list, &history)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migration history: %w", err)
	}
	return list, nil
}

func (d *DB) UpsertMigrationHistory(ctx context.Context, upsert *store.MigrationHistory) (*store.MigrationHistory, error) {
	stmt := `INSERT INTO migration_history (version, created_ts) VALUES (` + placeholders(2) + `)
		ON CONFLICT(version) DO UPDATE SET created_ts = EXCLUDED.created_ts`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Version, upsert.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert migration history: %w", err)
	}
	return upsert, nil
}
