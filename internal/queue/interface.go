package queue

import (
	"context"
	"time"

	"batchrunner/internal/models"
)

// ChunkMessage represents a written chunk sent to the queue
type ChunkMessage struct {
	JobName   string          `json:"job_name"`
	StepName  string          `json:"step_name"`
	Size      int             `json:"size"`
	Records   []models.Record `json:"records"`
	WrittenAt time.Time       `json:"written_at"`
}

// Client defines the interface for chunk queue operations
type Client interface {
	Publish(ctx context.Context, message ChunkMessage) error
	Close() error
}
