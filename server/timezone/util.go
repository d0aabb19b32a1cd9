// Package timezone resolves owner timezones and converts reminder instants
// between UTC storage and the owner's wall clock.
package timezone

import (
	"fmt"
	"time"

	// Embed the IANA database so resolution works in minimal containers.
	_ "time/tzdata"
)

// UTC is the coordinated universal time timezone.
var UTC = time.UTC

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Kyiv").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == TimezoneUTC {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// LoadOrUTC is ParseTimezone without the error. Stored reminders always carry a
// resolver-produced identifier, so a failure here means the tz database changed.
func LoadOrUTC(tz string) *time.Location {
	loc, _ := ParseTimezone(tz)
	return loc
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	if tz == "" || tz == TimezoneUTC {
		return true
	}

	_, err := time.LoadLocation(tz)
	return err == nil
}

// ToUTC converts a wall-clock instant to UTC for storage and scheduling.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// FormatInZone formats an instant as seen by an owner in tz.
// The layout should be a valid Go time layout (e.g., "15:04").
func FormatInZone(t time.Time, tz *time.Location, layout string) string {
	if tz == nil {
		tz = UTC
	}
	return t.In(tz).Format(layout)
}

// FormatReminderTime renders a reminder instant for list views: "15:04" when
// the instant falls on the owner's current day, "02.01.2006 15:04" otherwise.
func FormatReminderTime(instant time.Time, tz *time.Location, now time.Time) string {
	if tz == nil {
		tz = UTC
	}
	local := instant.In(tz)
	today := now.In(tz)
	if local.Year() == today.Year() && local.YearDay() == today.YearDay() {
		return local.Format("15:04")
	}
	return local.Format("02.01.2006 15:04")
}

// Common timezone identifiers.
const (
	TimezoneUTC          = "UTC"
	TimezoneEuropeLondon = "Europe/London"
	TimezoneEuropeKyiv   = "Europe/Kyiv"
	TimezoneEuropeMoscow = "Europe/Moscow"
	TimezoneEuropeMinsk  = "Europe/Minsk"
)
