package sink

import (
	"context"
	"time"

	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
	"batchrunner/internal/queue"
)

// QueueWriter publishes every chunk as a single message
type QueueWriter struct {
	client   queue.Client
	jobName  string
	stepName string
}

func NewQueueWriter(client queue.Client, jobName, stepName string) *QueueWriter {
	return &QueueWriter{client: client, jobName: jobName, stepName: stepName}
}

func (w *QueueWriter) Write(ctx context.Context, chunk pipeline.Chunk) error {
	records := make([]models.Record, len(chunk))
	copy(records, chunk)

	return w.client.Publish(ctx, queue.ChunkMessage{
		JobName:   w.jobName,
		StepName:  w.stepName,
		Size:      len(chunk),
		Records:   records,
		WrittenAt: time.Now().UTC(),
	})
}
