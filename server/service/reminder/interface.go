package reminder

import (
	"context"
	"time"

	pluginreminder "github.com/danya1a/Reminder-bot/plugin/reminder"
	"github.com/danya1a/Reminder-bot/store"
)

// Service defines the reminder lifecycle operations used by the chat router
// and the HTTP API.
type Service interface {
	// CreateReminder parses the message, persists the reminder and arms its job.
	CreateReminder(ctx context.Context, create *CreateReminderRequest) (*store.Reminder, error)

	// ListReminders returns the owner's reminders in creation order with
	// display-formatted local times.
	ListReminders(ctx context.Context, ownerID int64) ([]*ReminderView, error)

	// GetReminder returns one of the owner's reminders, or a NOT_FOUND error.
	GetReminder(ctx context.Context, ownerID, reminderID int64) (*ReminderView, error)

	// DeleteReminder removes the reminder and cancels its job. Deleting a
	// missing reminder, or one owned by someone else, is a no-op.
	DeleteReminder(ctx context.Context, ownerID, reminderID int64) error

	// Deliver is the scheduler callback: it notifies the owner and records
	// the delivery.
	Deliver(ctx context.Context, payload pluginreminder.Payload, firedAt time.Time)

	// Reconcile arms every pending reminder after a restart. Reminders whose
	// instant passed while the process was down fire immediately.
	Reconcile(ctx context.Context) (*ReconcileResult, error)

	// SetLanguage stores the owner's interface language.
	SetLanguage(ownerID int64, language string)

	// Language returns the owner's stored language, if any.
	Language(ownerID int64) (string, bool)
}

// CreateReminderRequest is an inbound free-text reminder.
type CreateReminderRequest struct {
	OwnerID int64
	Text    string
	// LocaleHint is the language tag reported by the chat platform.
	LocaleHint string
}

// ReminderView is a reminder prepared for display to its owner.
type ReminderView struct {
	ID        int64
	Text      string
	FireAt    time.Time
	Timezone  string
	LocalTime string
	Delivered bool
}

// ReconcileResult summarizes a reconciliation pass.
type ReconcileResult struct {
	Rearmed int
	// Overdue counts reminders armed for immediate late delivery.
	Overdue int
	Failed  int
}

// Store is the interface for store operations needed by the reminder service.
type Store interface {
	CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error)
	ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error)
	GetReminder(ctx context.Context, find *store.FindReminder) (*store.Reminder, error)
	DeleteReminder(ctx context.Context, delete *store.DeleteReminder) error
	MarkReminderDelivered(ctx context.Context, id int64, deliveredAt time.Time) error
}

// Scheduler is the subset of the job scheduler the service drives.
type Scheduler interface {
	Arm(fireAt time.Time, payload pluginreminder.Payload) (pluginreminder.JobHandle, error)
	Cancel(handle pluginreminder.JobHandle)
}

// Notifier fans a message out to the owner's channels.
type Notifier interface {
	Broadcast(ctx context.Context, ownerID int64, message string) []error
}
