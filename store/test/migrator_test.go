package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danya1a/Reminder-bot/store"
)

func TestGetCurrentSchemaVersion(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	currentSchemaVersion, err := ts.GetCurrentSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", currentSchemaVersion)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	require.NoError(t, ts.Migrate(ctx))
	require.NoError(t, ts.Migrate(ctx))

	list, err := ts.GetDriver().FindMigrationHistoryList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "0.1.0", list[0].Version)
}

func TestMigrateWithEmptyHistoryKeepsData(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateReminder(ctx, &store.Reminder{OwnerID: 1, Text: "Water plants", FireAt: time.Now().Add(time.Hour), Timezone: "UTC"})
	require.NoError(t, err)

	_, err = ts.GetDriver().GetDB().ExecContext(ctx, "DELETE FROM migration_history")
	require.NoError(t, err)
	require.NoError(t, ts.Migrate(ctx))

	got, err := ts.GetReminder(ctx, &store.FindReminder{ID: &created.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Water plants", got.Text)

	require.NoError(t, ts.MarkReminderDelivered(ctx, created.ID, time.Now()))
	got, err = ts.GetReminder(ctx, &store.FindReminder{ID: &created.ID})
	require.NoError(t, err)
	assert.True(t, got.IsDelivered())
}
