package sink_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"batchrunner/internal/config"
	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
	"batchrunner/internal/queue"
	"batchrunner/internal/sink"
)

var chunk = pipeline.Chunk{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}

type MockQueueClient struct {
	mock.Mock
}

func (m *MockQueueClient) Publish(ctx context.Context, message queue.ChunkMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockQueueClient) Close() error {
	return m.Called().Error(0)
}

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

func TestLogWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := sink.NewLogWriterTo(zerolog.New(&buf))

	require.NoError(t, writer.Write(context.Background(), chunk))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var header map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	assert.Equal(t, "writer...", header["message"])
	assert.EqualValues(t, 2, header["size"])

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &first))
	assert.Equal(t, "Record(id=1, name=a)", first["message"])
	assert.EqualValues(t, 1, first["id"])
	assert.Equal(t, "a", first["name"])

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, writer.Write(ctx, chunk), context.Canceled)
	})
}

func TestSQLWriter(t *testing.T) {
	t.Run("inserts the chunk in one statement", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO books_out \(id, name\) VALUES`).
			WithArgs(int64(1), "a", int64(2), "b").
			WillReturnResult(sqlmock.NewResult(0, 2))

		writer, err := sink.NewSQLWriter(db, "books_out")
		require.NoError(t, err)
		require.NoError(t, writer.Write(context.Background(), chunk))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejected insert fails the write", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO books_out`).WillReturnError(errors.New("duplicate key"))

		writer, err := sink.NewSQLWriter(db, "books_out")
		require.NoError(t, err)
		err = writer.Write(context.Background(), chunk)
		assert.ErrorContains(t, err, "duplicate key")
	})

	t.Run("short insert fails the write", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO books_out`).WillReturnResult(sqlmock.NewResult(0, 1))

		writer, err := sink.NewSQLWriter(db, "books_out")
		require.NoError(t, err)
		assert.Error(t, writer.Write(context.Background(), chunk))
	})

	t.Run("empty chunk is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		writer, err := sink.NewSQLWriter(db, "books_out")
		require.NoError(t, err)
		assert.NoError(t, writer.Write(context.Background(), pipeline.Chunk{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("table names are validated", func(t *testing.T) {
		db, _ := newMockDB(t)
		for _, table := range []string{"public.books_out", "_t1"} {
			_, err := sink.NewSQLWriter(db, table)
			assert.NoError(t, err, table)
		}
		for _, table := range []string{"", "books; DROP TABLE books", "1books", "a.b.c"} {
			_, err := sink.NewSQLWriter(db, table)
			assert.Error(t, err, table)
		}
	})
}

func TestQueueWriter(t *testing.T) {
	t.Run("publishes the chunk", func(t *testing.T) {
		client := &MockQueueClient{}
		client.On("Publish", mock.Anything, mock.MatchedBy(func(msg queue.ChunkMessage) bool {
			return msg.JobName == "job" &&
				msg.StepName == "step" &&
				msg.Size == 2 &&
				assert.ObjectsAreEqual([]models.Record(chunk), msg.Records) &&
				!msg.WrittenAt.IsZero()
		})).Return(nil).Once()

		writer := sink.NewQueueWriter(client, "job", "step")
		require.NoError(t, writer.Write(context.Background(), chunk))
		client.AssertExpectations(t)
	})

	t.Run("publish failure fails the write", func(t *testing.T) {
		client := &MockQueueClient{}
		client.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

		writer := sink.NewQueueWriter(client, "job", "step")
		assert.ErrorContains(t, writer.Write(context.Background(), chunk), "redis down")
	})

	t.Run("failed chunk aborts the pipeline", func(t *testing.T) {
		client := &MockQueueClient{}
		client.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		records := []models.Record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}
		p, err := pipeline.New(pipeline.NewSliceReader(records...), sink.NewQueueWriter(client, "job", "step"), 2)
		require.NoError(t, err)

		_, err = p.Run(context.Background())
		assert.ErrorIs(t, err, pipeline.ErrWriteRejected)
		client.AssertNumberOfCalls(t, "Publish", 1)
	})
}

func TestNew(t *testing.T) {
	conf := &config.BRConfig{}
	conf.Batch.JobName = "job"
	conf.Sink.Table = "books_out"

	conf.Sink.Type = config.SinkLog
	writer, err := sink.New(conf, nil, nil, "step")
	require.NoError(t, err)
	assert.IsType(t, &sink.LogWriter{}, writer)

	conf.Sink.Type = config.SinkPostgres
	_, err = sink.New(conf, nil, nil, "step")
	assert.Error(t, err)
	db, _ := newMockDB(t)
	writer, err = sink.New(conf, db, nil, "step")
	require.NoError(t, err)
	assert.IsType(t, &sink.SQLWriter{}, writer)

	conf.Sink.Type = config.SinkRedis
	_, err = sink.New(conf, nil, nil, "step")
	assert.Error(t, err)
	writer, err = sink.New(conf, nil, &MockQueueClient{}, "step")
	require.NoError(t, err)
	assert.IsType(t, &sink.QueueWriter{}, writer)

	conf.Sink.Type = "kafka"
	_, err = sink.New(conf, nil, nil, "step")
	assert.Error(t, err)
}
