package source

import (
	"context"
	"errors"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
)

// SQLReader streams records from a query whose columns map onto models.Record
type SQLReader struct {
	db    *sqlx.DB
	query string

	rows *sqlx.Rows
	row  int
}

func NewSQLReader(db *sqlx.DB, query string) *SQLReader {
	return &SQLReader{db: db, query: query}
}

func (r *SQLReader) Open(ctx context.Context) error {
	rows, err := r.db.QueryxContext(ctx, r.query)
	if err != nil {
		return pipeline.NewUnavailableError(r.query, err)
	}
	r.rows = rows
	r.row = 0

	log.Debug().Str("query", r.query).Msg("SQL source opened")
	return nil
}

func (r *SQLReader) Read(ctx context.Context) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}
	if r.rows == nil {
		return models.Record{}, pipeline.NewUnavailableError(r.query, errors.New("reader is not open"))
	}

	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return models.Record{}, pipeline.NewUnavailableError(r.query, err)
		}
		return models.Record{}, io.EOF
	}
	r.row++

	var record models.Record
	if err := r.rows.StructScan(&record); err != nil {
		return models.Record{}, pipeline.NewMalformedError(r.query, r.row, err)
	}
	return record, nil
}

func (r *SQLReader) Close() error {
	if r.rows == nil {
		return nil
	}
	err := r.rows.Close()
	r.rows = nil
	return err
}
