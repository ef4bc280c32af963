// Package sink contains the writers a batch job can deliver chunks to
package sink

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"batchrunner/internal/config"
	"batchrunner/internal/pipeline"
	"batchrunner/internal/queue"
)

// New creates the writer named by the sink configuration. db is only required for a postgres
// sink and client only for a redis sink.
func New(conf *config.BRConfig, db *sqlx.DB, client queue.Client, stepName string) (pipeline.Writer, error) {
	switch conf.Sink.Type {
	case config.SinkLog:
		return NewLogWriter(), nil
	case config.SinkPostgres:
		if db == nil {
			return nil, errors.New("postgres sink requires a database connection")
		}
		writer, err := NewSQLWriter(db, conf.Sink.Table)
		if err != nil {
			return nil, err
		}
		return writer, nil
	case config.SinkRedis:
		if client == nil {
			return nil, errors.New("redis sink requires a queue client")
		}
		return NewQueueWriter(client, conf.Batch.JobName, stepName), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", conf.Sink.Type)
	}
}
