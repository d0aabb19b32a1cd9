package timezone

import (
	"strings"
	"time"
)

// localeZones maps chat-platform language codes to the zone most of their
// speakers live in. Region-qualified tags are checked before the bare language.
var localeZones = map[string]string{
	"ru":    TimezoneEuropeMoscow,
	"uk":    TimezoneEuropeKyiv,
	"be":    TimezoneEuropeMinsk,
	"kk":    "Asia/Almaty",
	"uz":    "Asia/Tashkent",
	"ka":    "Asia/Tbilisi",
	"hy":    "Asia/Yerevan",
	"az":    "Asia/Baku",
	"pl":    "Europe/Warsaw",
	"de":    "Europe/Berlin",
	"fr":    "Europe/Paris",
	"it":    "Europe/Rome",
	"es":    "Europe/Madrid",
	"pt":    "Europe/Lisbon",
	"pt-br": "America/Sao_Paulo",
	"nl":    "Europe/Amsterdam",
	"tr":    "Europe/Istanbul",
	"ja":    "Asia/Tokyo",
	"ko":    "Asia/Seoul",
	"zh":    "Asia/Shanghai",
	"zh-tw": "Asia/Taipei",
	"en-gb": TimezoneEuropeLondon,
	"en-us": "America/New_York",
	"en-au": "Australia/Sydney",
	"en-ca": "America/Toronto",
}

// Resolver maps a coarse locale hint to an IANA timezone identifier.
// It is safe for concurrent use and never fails.
type Resolver struct {
	fallback string
}

// NewResolver returns a resolver that falls back to defaultZone for missing or
// unknown hints. An invalid defaultZone degrades to UTC.
func NewResolver(defaultZone string) *Resolver {
	if defaultZone == "" || !IsValidTimezone(defaultZone) {
		defaultZone = TimezoneUTC
	}
	return &Resolver{fallback: defaultZone}
}

// Resolve returns the timezone identifier for a language code such as "uk",
// "en-US" or "pt_BR".
func (r *Resolver) Resolve(hint string) string {
	tag := normalizeTag(hint)
	if tag == "" {
		return r.fallback
	}
	if zone, ok := localeZones[tag]; ok {
		return zone
	}
	if base, _, found := strings.Cut(tag, "-"); found {
		if zone, ok := localeZones[base]; ok {
			return zone
		}
	}
	return r.fallback
}

// ResolveLocation is Resolve followed by loading the location.
func (r *Resolver) ResolveLocation(hint string) (string, *time.Location) {
	zone := r.Resolve(hint)
	return zone, LoadOrUTC(zone)
}

func normalizeTag(hint string) string {
	tag := strings.ToLower(strings.TrimSpace(hint))
	return strings.ReplaceAll(tag, "_", "-")
}
