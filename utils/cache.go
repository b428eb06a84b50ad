// File: medibook/utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"medibook/config"

	"github.com/go-redis/redis/v8"
)

// AttemptCacheClient is the dedicated client for in-flight booking attempts.
var AttemptCacheClient *redis.Client

// InitAttemptCache initializes the Redis client holding booking attempt state.
func InitAttemptCache() {
	AttemptCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAttemptDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := AttemptCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Attempt Cache): %v", err)
	}
}

// GetAttemptCacheClient returns the booking attempt cache client.
func GetAttemptCacheClient() *redis.Client {
	if AttemptCacheClient == nil {
		InitAttemptCache()
	}
	return AttemptCacheClient
}
