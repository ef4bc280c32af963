package source_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchrunner/internal/config"
	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
	"batchrunner/internal/source"
)

const query = "SELECT id, name FROM books ORDER BY id"

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "pgx")
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func TestSQLReader(t *testing.T) {
	t.Run("streams rows as records", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "a").
				AddRow(2, "b").
				AddRow(3, "c"))

		records, err := readAll(t, source.NewSQLReader(db, query))
		require.NoError(t, err)
		assert.Equal(t, []models.Record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure is unavailable", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnError(errors.New("connection refused"))

		err := source.NewSQLReader(db, query).Open(context.Background())
		assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row that does not scan is malformed", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "a").
				AddRow("two", "b"))

		records, err := readAll(t, source.NewSQLReader(db, query))
		assert.ErrorIs(t, err, pipeline.ErrMalformedRecord)
		assert.Len(t, records, 1)

		var srcErr *pipeline.SourceError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, 2, srcErr.Line)
	})

	t.Run("iteration error is unavailable", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "a").
				RowError(0, errors.New("connection reset")))

		_, err := readAll(t, source.NewSQLReader(db, query))
		assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
	})
}

func TestNew(t *testing.T) {
	conf := &config.BRConfig{}
	conf.Source.Type = config.SourceCSV
	conf.Source.Path = "books.csv"
	conf.Source.Delimiter = ","

	reader, err := source.New(conf, nil)
	require.NoError(t, err)
	assert.IsType(t, &source.CSVReader{}, reader)

	conf.Source.Type = config.SourcePostgres
	_, err = source.New(conf, nil)
	assert.Error(t, err, "postgres source needs a database")

	db, _ := newMockDB(t)
	reader, err = source.New(conf, db)
	require.NoError(t, err)
	assert.IsType(t, &source.SQLReader{}, reader)

	conf.Source.Type = "parquet"
	_, err = source.New(conf, db)
	assert.Error(t, err)
}
