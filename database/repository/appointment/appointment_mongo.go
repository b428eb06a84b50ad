package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibook/database"
	"medibook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentRepo implements AppointmentRepository backed by MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

func NewMongoAppointmentRepo() *MongoAppointmentRepo {
	return &MongoAppointmentRepo{coll: database.Collection("appointments")}
}

func (repo *MongoAppointmentRepo) Save(appointment *models.Appointment) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, appointment); err != nil {
		return fmt.Errorf("failed to save appointment %s: %w", appointment.ID, err)
	}
	return nil
}

func (repo *MongoAppointmentRepo) FindByID(id string) (*models.Appointment, error) {
	return repo.findOne(bson.M{"id": id})
}

func (repo *MongoAppointmentRepo) FindByAttemptID(attemptID string) (*models.Appointment, error) {
	return repo.findOne(bson.M{"attemptId": attemptID})
}

func (repo *MongoAppointmentRepo) findOne(filter bson.M) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var appointment models.Appointment
	err := repo.coll.FindOne(ctx, filter).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}
	return &appointment, nil
}

func (repo *MongoAppointmentRepo) FindByRequester(requesterID string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "slotStart", Value: -1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"requester.id": requesterID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments for requester %s: %w", requesterID, err)
	}
	defer cursor.Close(ctx)

	var appointments []models.Appointment
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func (repo *MongoAppointmentRepo) UpdateStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update appointment %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
