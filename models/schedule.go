package models

import "time"

// SlotStatus is the lifecycle state of one reservable interval.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotHeld      SlotStatus = "held"
	SlotBooked    SlotStatus = "booked"
)

// TimeSlot represents one reservable interval within a day schedule.
// Start and End are minutes from midnight (e.g., 600 for 10:00 AM).
// A slot moves available -> held -> booked, or held -> available when a
// hold is released; booked never reverts automatically.
type TimeSlot struct {
	Start         int        `bson:"start" json:"start"`
	End           int        `bson:"end" json:"end"`
	Status        SlotStatus `bson:"status" json:"status"`
	BookingID     string     `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	HoldAttemptID string     `bson:"holdAttemptId,omitempty" json:"holdAttemptId,omitempty"`
	HeldAt        *time.Time `bson:"heldAt,omitempty" json:"heldAt,omitempty"`
	IsRevisit     bool       `bson:"isRevisit,omitempty" json:"isRevisit,omitempty"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
}

// Schedule is a provider's slot layout for one calendar date, materialized
// from the provider's weekly hours the first time the date is requested.
// Slots are contiguous, non-overlapping and ordered by Start.
type Schedule struct {
	ID                  string     `bson:"id" json:"id"`
	ProviderID          string     `bson:"providerId" json:"providerId"`
	Date                string     `bson:"date" json:"date"` // "2006-01-02"
	Day                 string     `bson:"day" json:"day"`   // weekday name
	StartMinute         int        `bson:"startMinute" json:"startMinute"`
	EndMinute           int        `bson:"endMinute" json:"endMinute"`
	SlotIntervalMinutes int        `bson:"slotIntervalMinutes" json:"slotIntervalMinutes"`
	Slots               []TimeSlot `bson:"slots" json:"slots"`
	CreatedAt           time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// SlotAt returns the slot starting at the given minute, or nil.
func (s *Schedule) SlotAt(start int) *TimeSlot {
	for i := range s.Slots {
		if s.Slots[i].Start == start {
			return &s.Slots[i]
		}
	}
	return nil
}

// DayAvailability is the read-path view of a provider's day.
type DayAvailability struct {
	ProviderID string     `json:"providerId"`
	Date       string     `json:"date"`
	Day        string     `json:"day"`
	Open       bool       `json:"open"`
	Slots      []TimeSlot `json:"slots,omitempty"`
}
