package booking

import "time"

// IsOpen reports whether a provider accepts bookings on the given date,
// from their per-weekday availability map. Pure; must be re-evaluated for
// every candidate date rather than cached across date changes.
func IsOpen(availability map[string]bool, date time.Time) bool {
	return availability[date.Weekday().String()]
}
