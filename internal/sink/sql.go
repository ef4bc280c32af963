package sink

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"

	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLWriter inserts every chunk into a table in a single statement
type SQLWriter struct {
	db     *sqlx.DB
	table  string
	insert string
}

func NewSQLWriter(db *sqlx.DB, table string) (*SQLWriter, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLWriter{
		db:     db,
		table:  table,
		insert: fmt.Sprintf("INSERT INTO %s (id, name) VALUES (:id, :name)", table),
	}, nil
}

func (w *SQLWriter) Write(ctx context.Context, chunk pipeline.Chunk) error {
	if len(chunk) == 0 {
		return nil
	}

	result, err := w.db.NamedExecContext(ctx, w.insert, []models.Record(chunk))
	if err != nil {
		return fmt.Errorf("could not insert chunk into %s: %w", w.table, err)
	}

	inserted, err := result.RowsAffected()
	if err == nil && inserted != int64(len(chunk)) {
		return fmt.Errorf("inserted %d of %d records into %s", inserted, len(chunk), w.table)
	}
	return nil
}
