package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"medibook/models"

	"github.com/go-redis/redis/v8"
)

// ErrAttemptNotFound is returned when an attempt id is unknown or its
// record has aged out of the cache.
var ErrAttemptNotFound = errors.New("booking attempt not found or expired")

// AttemptStore keeps in-flight booking attempts. Records are time-bounded;
// a confirmed attempt's durable trace is its Appointment, not this record.
type AttemptStore interface {
	Save(ctx context.Context, attempt *models.BookingAttempt) error
	Get(ctx context.Context, attemptID string) (*models.BookingAttempt, error)
	Delete(ctx context.Context, attemptID string) error
}

const attemptKeyPrefix = "attempt:"

// RedisAttemptStore stores attempts as JSON under a TTL, the same way
// booking sessions are cached.
type RedisAttemptStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{Client: client, TTL: ttl}
}

func (s *RedisAttemptStore) Save(ctx context.Context, attempt *models.BookingAttempt) error {
	attempt.UpdatedAt = time.Now()
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal booking attempt %s: %w", attempt.ID, err)
	}
	if err := s.Client.Set(ctx, attemptKeyPrefix+attempt.ID, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store booking attempt %s: %w", attempt.ID, err)
	}
	return nil
}

func (s *RedisAttemptStore) Get(ctx context.Context, attemptID string) (*models.BookingAttempt, error) {
	data, err := s.Client.Get(ctx, attemptKeyPrefix+attemptID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking attempt %s: %w", attemptID, err)
	}
	var attempt models.BookingAttempt
	if err := json.Unmarshal([]byte(data), &attempt); err != nil {
		return nil, fmt.Errorf("failed to parse booking attempt %s: %w", attemptID, err)
	}
	return &attempt, nil
}

func (s *RedisAttemptStore) Delete(ctx context.Context, attemptID string) error {
	if err := s.Client.Del(ctx, attemptKeyPrefix+attemptID).Err(); err != nil {
		return fmt.Errorf("failed to delete booking attempt %s: %w", attemptID, err)
	}
	return nil
}
