package scheduleRepo

import (
	"errors"

	"medibook/models"
)

// Slot-state errors surfaced by the conditional updates below. The service
// layer maps these onto its caller-facing taxonomy.
var (
	ErrScheduleNotFound  = errors.New("no schedule published for this day")
	ErrSlotNotFound      = errors.New("slot not found in schedule")
	ErrSlotAlreadyTaken  = errors.New("slot is held or booked")
	ErrSlotUnavailable   = errors.New("slot is not held by this attempt")
	ErrSlotStateConflict = errors.New("slot already booked by another attempt")
)

// ScheduleRepository owns the per-provider, per-date schedules and every
// slot-state transition. All mutations are conditional single-document
// updates keyed on the current slot status, so concurrent callers across
// processes serialize at the storage layer rather than in application code.
type ScheduleRepository interface {
	// GetSchedule fetches the schedule for a provider and date.
	// Returns ErrScheduleNotFound when none has been materialized.
	GetSchedule(providerID, date string) (*models.Schedule, error)

	// CreateSchedule inserts a freshly materialized day schedule unless one
	// already exists for (providerId, date). Losing the create race to a
	// concurrent caller is not an error.
	CreateSchedule(schedule *models.Schedule) error

	// HoldSlot atomically transitions an available slot to held, tagged
	// with the attempt id. Fails with ErrSlotAlreadyTaken when the slot is
	// held or booked, ErrSlotNotFound when no slot starts at slotStart.
	HoldSlot(providerID, date string, slotStart int, attemptID string) (*models.TimeSlot, error)

	// MarkBooked is the sole path into the booked status. The slot must
	// currently be held by the given attempt; otherwise ErrSlotStateConflict
	// (another attempt booked it) or ErrSlotUnavailable.
	MarkBooked(providerID, date string, slotStart int, attemptID, bookingID string) error

	// ReleaseHold transitions held back to available. Idempotent: releasing
	// a slot that is not held (or is held by a different attempt when
	// attemptID is non-empty) is a no-op.
	ReleaseHold(providerID, date string, slotStart int, attemptID string) error

	// FreeBookedSlot marks a booked slot available again. Used only by the
	// explicit appointment-cancellation path, keyed on the booking id so a
	// stale cancel cannot free a rebooked slot.
	FreeBookedSlot(providerID, date string, slotStart int, bookingID string) error
}
