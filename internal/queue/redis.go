package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueName = "batchrunner:chunks"
)

// RedisClient implements Client using a Redis list
type RedisClient struct {
	client    *redis.Client
	queueName string
}

// NewRedisClient creates a new Redis queue client. Messages are pushed onto the list named
// queueName, or DefaultQueueName when empty.
func NewRedisClient(addr, password string, db int, queueName string) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}

	if queueName == "" {
		queueName = DefaultQueueName
	}
	return &RedisClient{client: client, queueName: queueName}, nil
}

// QueueName returns the list the client pushes onto
func (r *RedisClient) QueueName() string {
	return r.queueName
}

// Publish sends a chunk message to the queue
func (r *RedisClient) Publish(ctx context.Context, message ChunkMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if err := r.client.RPush(ctx, r.queueName, data).Err(); err != nil {
		return fmt.Errorf("RPUSH to redis queue went bad. %w", err)
	}
	return nil
}

// Close terminates the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
