// Package timezone resolves the effective timezone of a reminder owner.
package timezone

import (
	"strings"
	"time"
)

// Fallback is used when neither the user nor the system default names a usable zone.
const Fallback = "Asia/Ho_Chi_Minh"

// LegacyNames maps Rails ActiveSupport::TimeZone display names, which is what
// Redmine stores in user preferences, to IANA identifiers.
var LegacyNames = map[string]string{
	"Hanoi":                       "Asia/Ho_Chi_Minh",
	"Bangkok":                     "Asia/Bangkok",
	"Jakarta":                     "Asia/Jakarta",
	"Singapore":                   "Asia/Singapore",
	"Kuala Lumpur":                "Asia/Kuala_Lumpur",
	"Beijing":                     "Asia/Shanghai",
	"Hong Kong":                   "Asia/Hong_Kong",
	"Taipei":                      "Asia/Taipei",
	"Seoul":                       "Asia/Seoul",
	"Tokyo":                       "Asia/Tokyo",
	"Osaka":                       "Asia/Tokyo",
	"Sydney":                      "Australia/Sydney",
	"Mumbai":                      "Asia/Kolkata",
	"New Delhi":                   "Asia/Kolkata",
	"London":                      "Europe/London",
	"Paris":                       "Europe/Paris",
	"Berlin":                      "Europe/Berlin",
	"Moscow":                      "Europe/Moscow",
	"UTC":                         "Etc/UTC",
	"Eastern Time (US & Canada)":  "America/New_York",
	"Central Time (US & Canada)":  "America/Chicago",
	"Mountain Time (US & Canada)": "America/Denver",
	"Pacific Time (US & Canada)":  "America/Los_Angeles",
}

// Resolve returns the first candidate that, after trimming and legacy-name
// correction, names a loadable IANA zone. If none does, fallback is returned
// unchecked.
func Resolve(candidates []string, fallback string, legacy map[string]string) string {
	for _, c := range candidates {
		if name, ok := normalize(c, legacy); ok {
			return name
		}
	}
	return fallback
}

func normalize(candidate string, legacy map[string]string) (string, bool) {
	name := strings.TrimSpace(candidate)
	if name == "" {
		return "", false
	}
	if mapped, ok := legacy[name]; ok {
		name = mapped
	}
	// LoadLocation accepts "Local" as the host zone, which is not a user choice.
	if name == "Local" {
		return "", false
	}
	if _, err := time.LoadLocation(name); err != nil {
		return "", false
	}
	return name, true
}

// Resolver binds the system-wide default and the legacy table.
type Resolver struct {
	defaultZone string
	fallback    string
	legacy      map[string]string
}

// NewResolver creates a Resolver with the system default zone setting, which may be blank.
func NewResolver(defaultZone string) *Resolver {
	return &Resolver{
		defaultZone: defaultZone,
		fallback:    Fallback,
		legacy:      LegacyNames,
	}
}

// Resolve returns the effective zone name for a user preference.
func (r *Resolver) Resolve(preference string) string {
	return Resolve([]string{preference, r.defaultZone}, r.fallback, r.legacy)
}

// Location returns the effective location for a user preference. It never fails.
func (r *Resolver) Location(preference string) *time.Location {
	name := r.Resolve(preference)
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Only reachable if the fallback itself is missing from the zone database.
		return time.UTC
	}
	return loc
}
