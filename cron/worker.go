package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"medibook/config"

	"github.com/hibiken/asynq"
)

const TypeHoldExpire = "hold:expire"

// HoldReleaser frees the slot of an attempt whose hold window has elapsed.
type HoldReleaser interface {
	ReleaseExpiredHold(ctx context.Context, attemptID string) error
}

type holdExpirePayload struct {
	AttemptID string `json:"attemptId"`
}

// Sweeper schedules and executes deferred hold-expiry tasks over asynq.
type Sweeper struct {
	client *asynq.Client
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepQueueDB,
	}
}

func NewSweeper() *Sweeper {
	return &Sweeper{client: asynq.NewClient(redisOpts())}
}

// ScheduleHoldExpiry enqueues a sweep for the attempt after the hold window.
func (s *Sweeper) ScheduleHoldExpiry(attemptID string, delay time.Duration) error {
	payload, err := json.Marshal(holdExpirePayload{AttemptID: attemptID})
	if err != nil {
		return fmt.Errorf("failed to marshal hold expiry payload: %w", err)
	}
	task := asynq.NewTask(TypeHoldExpire, payload)
	if _, err := s.client.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue hold expiry for attempt %s: %w", attemptID, err)
	}
	return nil
}

// InitSweepWorker runs the async worker in background.
func InitSweepWorker(releaser HoldReleaser) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeHoldExpire, handleHoldExpireTask(releaser))

	go func() {
		log.Println("[SweepWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SweepWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SweepWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleHoldExpireTask(releaser HoldReleaser) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p holdExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[SweepWorker] invalid payload: %v", err)
			return err
		}
		if err := releaser.ReleaseExpiredHold(ctx, p.AttemptID); err != nil {
			log.Printf("[SweepWorker] failed to release hold for attempt %s: %v", p.AttemptID, err)
			return err
		}
		return nil
	}
}
