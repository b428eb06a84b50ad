package providerRepo

import "medibook/models"

// ProviderRepository is the read-mostly lookup the booking engine consumes.
// Profile management beyond the weekly hours lives elsewhere.
type ProviderRepository interface {
	GetByID(id string) (*models.Provider, error)
	UpdateWeeklyHours(id string, availability map[string]bool, hours map[string]models.WeeklyHours) error
}
