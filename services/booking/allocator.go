package booking

import (
	"errors"
	"fmt"
	"time"

	scheduleRepo "medibook/database/repository/schedule"
	"medibook/models"
	"medibook/utils"
)

// SlotAllocator claims a single slot for a candidate booking attempt. The
// claim itself is a conditional update in the schedule store; the allocator
// adds the policy checks around it (day open, slot exists, slot not in the
// past) and materializes day schedules on first use.
type SlotAllocator struct {
	Schedules scheduleRepo.ScheduleRepository
	// Now is the clock used for the past-slot check; injectable for tests.
	Now func() time.Time
}

func NewSlotAllocator(schedules scheduleRepo.ScheduleRepository) *SlotAllocator {
	return &SlotAllocator{Schedules: schedules, Now: time.Now}
}

// EnsureSchedule returns the provider's schedule for the date, creating it
// from the weekly hours when the date is requested for the first time.
// Returns scheduleRepo.ErrScheduleNotFound when the provider publishes no
// hours for that weekday.
func (a *SlotAllocator) EnsureSchedule(provider *models.Provider, date string, day time.Weekday) (*models.Schedule, error) {
	schedule, err := a.Schedules.GetSchedule(provider.ID, date)
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
		return nil, err
	}

	hours, ok := provider.WeeklyHours[day.String()]
	if !ok {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	if err := a.Schedules.CreateSchedule(BuildDaySchedule(provider.ID, date, hours)); err != nil {
		return nil, err
	}
	// Re-read rather than returning the built document: a concurrent
	// caller may have won the create race with slots already mutated.
	return a.Schedules.GetSchedule(provider.ID, date)
}

// Hold atomically claims the slot starting at slotStart for attemptID.
func (a *SlotAllocator) Hold(provider *models.Provider, date string, slotStart int, attemptID string) (*models.TimeSlot, error) {
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, newRejection(CodeValidation, err.Error())
	}

	// Past slots are rejected here, server-side, so a stale client cannot
	// book an elapsed interval.
	now := a.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return nil, newRejection(CodeSlotExpired, fmt.Sprintf("date %s has passed", date))
	}
	if utils.SameDay(day, now) && slotStart < utils.MinutesOfDay(now) {
		return nil, newRejection(CodeSlotExpired,
			fmt.Sprintf("slot %s has already passed for today", utils.FormatMinutes(slotStart)))
	}

	schedule, err := a.EnsureSchedule(provider, date, day.Weekday())
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			return nil, newRejection(CodeSlotNotFound,
				fmt.Sprintf("provider %s has no hours on %s", provider.ID, day.Weekday()))
		}
		return nil, err
	}
	if schedule.SlotAt(slotStart) == nil {
		return nil, newRejection(CodeSlotNotFound,
			fmt.Sprintf("no slot starts at %s on %s", utils.FormatMinutes(slotStart), date))
	}

	slot, err := a.Schedules.HoldSlot(provider.ID, date, slotStart, attemptID)
	if err != nil {
		switch {
		case errors.Is(err, scheduleRepo.ErrSlotAlreadyTaken):
			return nil, newRejection(CodeSlotTaken, "slot is already held or booked")
		case errors.Is(err, scheduleRepo.ErrSlotNotFound):
			return nil, newRejection(CodeSlotNotFound, "slot not found in schedule")
		default:
			return nil, err
		}
	}
	return slot, nil
}
