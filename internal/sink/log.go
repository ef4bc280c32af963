package sink

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"batchrunner/internal/pipeline"
)

// LogWriter writes every chunk to the log, one line for the chunk and one per record
type LogWriter struct {
	logger zerolog.Logger
}

// NewLogWriter creates a LogWriter on the global logger
func NewLogWriter() *LogWriter {
	return &LogWriter{logger: log.Logger}
}

// NewLogWriterTo creates a LogWriter on the given logger
func NewLogWriterTo(logger zerolog.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(ctx context.Context, chunk pipeline.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.logger.Info().Int("size", len(chunk)).Msg("writer...")
	for _, record := range chunk {
		w.logger.Info().
			Int64("id", record.ID).
			Str("name", record.Name).
			Msg(record.String())
	}
	return nil
}
