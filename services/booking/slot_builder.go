package booking

import (
	"time"

	"medibook/models"

	"github.com/google/uuid"
)

// BuildDaySchedule materializes a day schedule from one weekday's published
// hours: contiguous slots of SlotIntervalMinutes from StartMinute up to
// EndMinute, all available. A trailing remainder shorter than the interval
// is dropped.
func BuildDaySchedule(providerID, date string, hours models.WeeklyHours) *models.Schedule {
	now := time.Now()
	schedule := &models.Schedule{
		ID:                  uuid.New().String(),
		ProviderID:          providerID,
		Date:                date,
		Day:                 hours.Day,
		StartMinute:         hours.StartMinute,
		EndMinute:           hours.EndMinute,
		SlotIntervalMinutes: hours.SlotIntervalMinutes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if hours.SlotIntervalMinutes <= 0 {
		return schedule
	}
	for start := hours.StartMinute; start+hours.SlotIntervalMinutes <= hours.EndMinute; start += hours.SlotIntervalMinutes {
		schedule.Slots = append(schedule.Slots, models.TimeSlot{
			Start:  start,
			End:    start + hours.SlotIntervalMinutes,
			Status: models.SlotAvailable,
		})
	}
	return schedule
}
