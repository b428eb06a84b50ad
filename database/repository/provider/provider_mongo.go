package providerRepo

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

// ErrProviderNotFound is returned when no provider matches the given id.
var ErrProviderNotFound = errors.New("provider not found")

// MongoProviderRepo implements ProviderRepository backed by MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

func NewMongoProviderRepo() *MongoProviderRepo {
	return &MongoProviderRepo{coll: database.Collection("providers")}
}

func (repo *MongoProviderRepo) GetByID(id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var provider models.Provider
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to fetch provider %s: %w", id, err)
	}
	return &provider, nil
}

func (repo *MongoProviderRepo) UpdateWeeklyHours(id string, availability map[string]bool, hours map[string]models.WeeklyHours) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"availability": availability,
			"weeklyHours":  hours,
			"updatedAt":    time.Now(),
		},
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update weekly hours for provider %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrProviderNotFound
	}
	return nil
}
