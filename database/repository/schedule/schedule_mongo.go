package scheduleRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibook/database"
	"medibook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoScheduleRepo implements ScheduleRepository backed by MongoDB. One
// document per (providerId, date) with the slots embedded.
type MongoScheduleRepo struct {
	coll *mongo.Collection
}

func NewMongoScheduleRepo() *MongoScheduleRepo {
	return &MongoScheduleRepo{coll: database.Collection("schedules")}
}

func (repo *MongoScheduleRepo) GetSchedule(providerID, date string) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var schedule models.Schedule
	err := repo.coll.FindOne(ctx, bson.M{"providerId": providerID, "date": date}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to fetch schedule for provider %s on %s: %w", providerID, date, err)
	}
	return &schedule, nil
}

func (repo *MongoScheduleRepo) CreateSchedule(schedule *models.Schedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.coll.InsertOne(ctx, schedule)
	if err != nil {
		// A concurrent caller materialized the same day first; the unique
		// (providerId, date) index rejects the duplicate and we use theirs.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to create schedule for provider %s on %s: %w",
			schedule.ProviderID, schedule.Date, err)
	}
	return nil
}
