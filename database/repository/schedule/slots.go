package scheduleRepo

import (
	"context"
	"fmt"
	"time"

	"medibook/models"

	"go.mongodb.org/mongo-driver/bson"
)

// HoldSlot is the single point of contention for concurrent bookings: a
// conditional update keyed on status == available. Whichever caller's update
// matches first wins the slot; everyone else sees MatchedCount == 0.
func (repo *MongoScheduleRepo) HoldSlot(providerID, date string, slotStart int, attemptID string) (*models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"providerId": providerID,
		"date":       date,
		"slots": bson.M{
			"$elemMatch": bson.M{
				"start":  slotStart,
				"status": models.SlotAvailable,
			},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"slots.$.status":        models.SlotHeld,
			"slots.$.holdAttemptId": attemptID,
			"slots.$.heldAt":        now,
			"updatedAt":             now,
		},
	}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to hold slot %d for provider %s on %s: %w", slotStart, providerID, date, err)
	}
	if res.MatchedCount == 0 {
		return nil, repo.diagnoseSlot(providerID, date, slotStart)
	}

	schedule, err := repo.GetSchedule(providerID, date)
	if err != nil {
		return nil, err
	}
	slot := schedule.SlotAt(slotStart)
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

func (repo *MongoScheduleRepo) MarkBooked(providerID, date string, slotStart int, attemptID, bookingID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"providerId": providerID,
		"date":       date,
		"slots": bson.M{
			"$elemMatch": bson.M{
				"start":         slotStart,
				"status":        models.SlotHeld,
				"holdAttemptId": attemptID,
			},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"slots.$.status":    models.SlotBooked,
			"slots.$.bookingId": bookingID,
			"updatedAt":         time.Now(),
		},
		"$unset": bson.M{
			"slots.$.holdAttemptId": "",
			"slots.$.heldAt":        "",
		},
	}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to book slot %d for provider %s on %s: %w", slotStart, providerID, date, err)
	}
	if res.MatchedCount == 0 {
		return repo.diagnoseBooked(providerID, date, slotStart, bookingID)
	}
	return nil
}

func (repo *MongoScheduleRepo) ReleaseHold(providerID, date string, slotStart int, attemptID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slotMatch := bson.M{
		"start":  slotStart,
		"status": models.SlotHeld,
	}
	// An empty attemptID releases whoever holds the slot (sweep path);
	// otherwise only the owning attempt's hold is released.
	if attemptID != "" {
		slotMatch["holdAttemptId"] = attemptID
	}
	filter := bson.M{
		"providerId": providerID,
		"date":       date,
		"slots":      bson.M{"$elemMatch": slotMatch},
	}
	update := bson.M{
		"$set": bson.M{
			"slots.$.status": models.SlotAvailable,
			"updatedAt":      time.Now(),
		},
		"$unset": bson.M{
			"slots.$.holdAttemptId": "",
			"slots.$.heldAt":        "",
		},
	}

	// MatchedCount == 0 means the slot is not held (anymore) by this
	// attempt; releasing is idempotent so that is not an error.
	if _, err := repo.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to release hold on slot %d for provider %s on %s: %w", slotStart, providerID, date, err)
	}
	return nil
}

func (repo *MongoScheduleRepo) FreeBookedSlot(providerID, date string, slotStart int, bookingID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"providerId": providerID,
		"date":       date,
		"slots": bson.M{
			"$elemMatch": bson.M{
				"start":     slotStart,
				"status":    models.SlotBooked,
				"bookingId": bookingID,
			},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"slots.$.status": models.SlotAvailable,
			"updatedAt":      time.Now(),
		},
		"$unset": bson.M{
			"slots.$.bookingId": "",
		},
	}

	if _, err := repo.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to free booked slot %d for provider %s on %s: %w", slotStart, providerID, date, err)
	}
	return nil
}

// diagnoseSlot explains why a hold's conditional update matched nothing.
func (repo *MongoScheduleRepo) diagnoseSlot(providerID, date string, slotStart int) error {
	schedule, err := repo.GetSchedule(providerID, date)
	if err != nil {
		return err
	}
	slot := schedule.SlotAt(slotStart)
	if slot == nil {
		return ErrSlotNotFound
	}
	return ErrSlotAlreadyTaken
}

// diagnoseBooked explains why a mark-booked conditional update matched
// nothing: either another attempt already booked the slot (the loud case) or
// the hold is gone.
func (repo *MongoScheduleRepo) diagnoseBooked(providerID, date string, slotStart int, bookingID string) error {
	schedule, err := repo.GetSchedule(providerID, date)
	if err != nil {
		return err
	}
	slot := schedule.SlotAt(slotStart)
	if slot == nil {
		return ErrSlotNotFound
	}
	if slot.Status == models.SlotBooked && slot.BookingID != bookingID {
		return ErrSlotStateConflict
	}
	return ErrSlotUnavailable
}
