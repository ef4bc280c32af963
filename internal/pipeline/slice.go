package pipeline

import (
	"context"
	"io"

	"batchrunner/internal/models"
)

// SliceReader serves records from memory. It can be reopened to replay the same records.
type SliceReader struct {
	records []models.Record
	pos     int
}

func NewSliceReader(records ...models.Record) *SliceReader {
	return &SliceReader{records: records}
}

func (r *SliceReader) Open(context.Context) error {
	r.pos = 0
	return nil
}

func (r *SliceReader) Read(ctx context.Context) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}
	if r.pos >= len(r.records) {
		return models.Record{}, io.EOF
	}
	record := r.records[r.pos]
	r.pos++
	return record, nil
}

func (r *SliceReader) Close() error {
	return nil
}
