package store

import (
	"sync"

	"github.com/danya1a/Reminder-bot/internal/profile"
)

// Store provides database access to reminders.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// writeMu serializes mutations so id assignment and delivery
	// bookkeeping never interleave.
	writeMu sync.Mutex
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}
