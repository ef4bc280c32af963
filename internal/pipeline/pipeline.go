package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"

	"batchrunner/internal/metrics"
	"batchrunner/internal/models"
)

// Reader produces records sequentially. Read returns io.EOF once the source is exhausted.
type Reader interface {
	Open(ctx context.Context) error
	Read(ctx context.Context) (models.Record, error)
	Close() error
}

// Writer accepts one chunk at a time
type Writer interface {
	Write(ctx context.Context, chunk Chunk) error
}

// Stats holds the bookkeeping of a single pipeline run
type Stats struct {
	ReadCount  int
	WriteCount int
	ChunkCount int
}

// Pipeline reads records, groups them into chunks and hands every chunk to the writer. Readers
// keep their position, so every run needs its own Pipeline.
type Pipeline struct {
	name      string
	reader    Reader
	writer    Writer
	chunkSize int
	recorder  metrics.Recorder
}

type Option func(*Pipeline)

// WithName sets the name used in logs and metrics
func WithName(name string) Option {
	return func(p *Pipeline) {
		p.name = name
	}
}

// WithRecorder sets the metrics recorder notified of every written chunk
func WithRecorder(recorder metrics.Recorder) Option {
	return func(p *Pipeline) {
		if recorder != nil {
			p.recorder = recorder
		}
	}
}

// New creates a Pipeline. chunkSize must be at least 1.
func New(reader Reader, writer Writer, chunkSize int, opts ...Option) (*Pipeline, error) {
	if chunkSize < 1 {
		return nil, ErrInvalidChunkSize
	}
	if reader == nil || writer == nil {
		return nil, errors.New("pipeline requires both a reader and a writer")
	}

	p := &Pipeline{
		name:      "step",
		reader:    reader,
		writer:    writer,
		chunkSize: chunkSize,
		recorder:  metrics.Noop{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) ChunkSize() int {
	return p.chunkSize
}

// Run processes every available record. It stops at the first read or write error; chunks
// already written stay written.
func (p *Pipeline) Run(ctx context.Context) (stats Stats, err error) {
	if err := p.reader.Open(ctx); err != nil {
		return stats, asSourceError(p.name, err)
	}
	defer func() {
		if cErr := p.reader.Close(); cErr != nil {
			log.Warn().Err(cErr).Str("step", p.name).Msg("Could not close reader")
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunk, err := nextChunk(ctx, p.reader, p.chunkSize)
		stats.ReadCount += len(chunk)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, asSourceError(p.name, err)
		}

		if err := p.writer.Write(ctx, chunk); err != nil {
			var writeErr *WriteError
			if errors.As(err, &writeErr) {
				return stats, writeErr
			}
			return stats, &WriteError{Chunk: stats.ChunkCount, Size: len(chunk), Err: err}
		}

		log.Info().
			Str("step", p.name).
			Int("chunk", stats.ChunkCount).
			Int("size", len(chunk)).
			Interface("records", chunk).
			Msg("Chunk written")

		stats.ChunkCount++
		stats.WriteCount += len(chunk)
		p.recorder.RecordChunk(p.name, len(chunk))
	}
}

// asSourceError keeps typed and context errors intact and classifies anything else as an
// unreachable source
func asSourceError(source string, err error) error {
	var srcErr *SourceError
	if errors.As(err, &srcErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewUnavailableError(source, err)
}
