package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/danya1a/Reminder-bot/store"
)

func (d *DB) CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error) {
	fields := []string{"owner_id", "text", "fire_at", "timezone", "created_ts"}
	args := []any{create.OwnerID, create.Text, create.FireAt.UTC().Format(store.TimeLayout), create.Timezone, create.CreatedTs}

	stmt := `INSERT INTO reminder (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return create, nil
}

func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "reminder.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "reminder.owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if find.Pending {
		where = append(where, "reminder.delivered_ts IS NULL")
	}

	query := `
		SELECT id, owner_id, text, fire_at, timezone, created_ts, delivered_ts
		FROM reminder
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY reminder.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Reminder, 0)
	for rows.Next() {
		var reminder store.Reminder
		var fireAt string
		var deliveredTs sql.NullInt64
		if err := rows.Scan(
			&reminder.ID,
			&reminder.OwnerID,
			&reminder.Text,
			&fireAt,
			&reminder.Timezone,
			&reminder.CreatedTs,
			&deliveredTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		parsed, err := time.Parse(store.TimeLayout, fireAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fire_at of reminder %d: %w", reminder.ID, err)
		}
		reminder.FireAt = parsed.UTC()
		if deliveredTs.Valid {
			reminder.DeliveredTs = &deliveredTs.Int64
		}
		list = append(list, &reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateReminder(ctx context.Context, update *store.UpdateReminder) error {
	set, args := []string{}, []any{}
	if v := update.DeliveredTs; v != nil {
		set, args = append(set, "delivered_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := `UPDATE reminder SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	return nil
}

func (d *DB) DeleteReminder(ctx context.Context, delete *store.DeleteReminder) error {
	where, args := []string{"id = " + placeholder(1)}, []any{delete.ID}
	if v := delete.OwnerID; v != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	stmt := `DELETE FROM reminder WHERE ` + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}
