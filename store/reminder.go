package store

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TimeLayout is the ISO-8601 form reminder instants are persisted in.
const TimeLayout = time.RFC3339

// Reminder is the object representing a one-shot reminder.
type Reminder struct {
	ID      int64
	OwnerID int64
	Text    string
	// FireAt is the absolute instant in UTC.
	FireAt time.Time
	// Timezone is the owner's IANA zone captured at creation time.
	Timezone    string
	CreatedTs   int64
	DeliveredTs *int64
}

// IsDelivered reports whether the delivery callback already ran for this reminder.
func (r *Reminder) IsDelivered() bool {
	return r.DeliveredTs != nil
}

// Location returns the owner's location, or UTC when the stored zone is unknown.
func (r *Reminder) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FindReminder is the find condition for reminders. Results are ordered by id.
type FindReminder struct {
	ID      *int64
	OwnerID *int64

	// Pending restricts the result to reminders not yet delivered.
	Pending bool
}

// UpdateReminder is the update request for a reminder.
type UpdateReminder struct {
	ID          int64
	DeliveredTs *int64
}

// DeleteReminder is the delete request for a reminder. When OwnerID is set
// the row is removed only if it belongs to that owner.
type DeleteReminder struct {
	ID      int64
	OwnerID *int64
}

// CreateReminder persists a new reminder and returns it with its store-assigned id.
func (s *Store) CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error) {
	create.Text = strings.TrimSpace(create.Text)
	if create.Text == "" {
		return nil, errors.New("reminder text must not be empty")
	}
	if create.FireAt.IsZero() {
		return nil, errors.New("reminder instant must be set")
	}
	create.FireAt = create.FireAt.UTC().Truncate(time.Second)
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	reminder, err := s.driver.CreateReminder(ctx, create)
	if err != nil {
		return nil, newStorageError("create reminder", err)
	}
	return reminder, nil
}

// ListReminders lists reminders matching find, in insertion order.
func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	list, err := s.driver.ListReminders(ctx, find)
	if err != nil {
		return nil, newStorageError("list reminders", err)
	}
	return list, nil
}

// GetReminder returns the reminder with the given id, or nil if none exists.
func (s *Store) GetReminder(ctx context.Context, find *FindReminder) (*Reminder, error) {
	list, err := s.ListReminders(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// MarkReminderDelivered records that the reminder fired at deliveredAt.
func (s *Store) MarkReminderDelivered(ctx context.Context, id int64, deliveredAt time.Time) error {
	ts := deliveredAt.Unix()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.driver.UpdateReminder(ctx, &UpdateReminder{ID: id, DeliveredTs: &ts}); err != nil {
		return newStorageError("mark reminder delivered", err)
	}
	return nil
}

// DeleteReminder removes a reminder. Deleting a missing id is not an error.
func (s *Store) DeleteReminder(ctx context.Context, delete *DeleteReminder) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.driver.DeleteReminder(ctx, delete); err != nil {
		return newStorageError("delete reminder", err)
	}
	return nil
}
