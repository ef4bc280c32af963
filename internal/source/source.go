// Package source contains the record sources a batch job can read from
package source

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"batchrunner/internal/config"
	"batchrunner/internal/pipeline"
)

// New creates the reader named by the source configuration. db is only required for a
// postgres source.
func New(conf *config.BRConfig, db *sqlx.DB) (pipeline.Reader, error) {
	switch conf.Source.Type {
	case config.SourceCSV:
		return NewCSVReader(conf.Source.Path, conf.Delimiter(), conf.Source.Header), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, errors.New("postgres source requires a database connection")
		}
		return NewSQLReader(db, conf.Source.Query), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", conf.Source.Type)
	}
}
