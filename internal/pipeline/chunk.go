package pipeline

import (
	"context"
	"errors"
	"io"

	"batchrunner/internal/models"
)

// Chunk is an ordered batch of records handed to the writer in one call
type Chunk []models.Record

// Chunks splits records into chunks of at most size records, preserving order. Every chunk but
// the last holds exactly size records.
func Chunks(records []models.Record, size int) ([]Chunk, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}

	chunks := make([]Chunk, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunk := make(Chunk, end-start)
		copy(chunk, records[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// nextChunk reads up to size records from the reader. It returns io.EOF only when the reader
// was already exhausted and nothing was read. On a read error the records read so far are
// returned alongside the error and must not be written.
func nextChunk(ctx context.Context, reader Reader, size int) (Chunk, error) {
	chunk := make(Chunk, 0, size)
	for len(chunk) < size {
		record, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return chunk, err
		}
		chunk = append(chunk, record)
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}
