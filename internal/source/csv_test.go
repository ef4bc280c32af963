package source_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
	"batchrunner/internal/source"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readAll(t *testing.T, r pipeline.Reader) ([]models.Record, error) {
	t.Helper()
	ctx := context.Background()
	if err := r.Open(ctx); err != nil {
		return nil, err
	}
	defer func() {
		assert.NoError(t, r.Close())
	}()

	var records []models.Record
	for {
		record, err := r.Read(ctx)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

type memoryWriter struct {
	chunks []pipeline.Chunk
}

func (w *memoryWriter) Write(_ context.Context, chunk pipeline.Chunk) error {
	w.chunks = append(w.chunks, chunk)
	return nil
}

func TestCSVReader(t *testing.T) {
	t.Run("reads every row in order", func(t *testing.T) {
		path := writeFile(t, "1,a\n2, b\n3,c\n")

		records, err := readAll(t, source.NewCSVReader(path, ',', false))
		require.NoError(t, err)
		assert.Equal(t, []models.Record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}, records)
	})

	t.Run("skips the header row", func(t *testing.T) {
		path := writeFile(t, "id;name\n10;x\n")

		records, err := readAll(t, source.NewCSVReader(path, ';', true))
		require.NoError(t, err)
		assert.Equal(t, []models.Record{{ID: 10, Name: "x"}}, records)
	})

	t.Run("empty file yields no records", func(t *testing.T) {
		records, err := readAll(t, source.NewCSVReader(writeFile(t, ""), ',', true))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("quoted name keeps its delimiter", func(t *testing.T) {
		records, err := readAll(t, source.NewCSVReader(writeFile(t, "1,\"war, and peace\"\n"), ',', false))
		require.NoError(t, err)
		assert.Equal(t, "war, and peace", records[0].Name)
	})

	t.Run("can be reopened for the next run", func(t *testing.T) {
		reader := source.NewCSVReader(writeFile(t, "1,a\n"), ',', false)

		first, err := readAll(t, reader)
		require.NoError(t, err)
		second, err := readAll(t, reader)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	malformed := []struct {
		name    string
		content string
		line    int
	}{
		{"non numeric id", "1,a\n2,b\nthree,c\n", 3},
		{"missing name", "1,a\n2\n", 2},
		{"extra field", "1,a,extra\n", 1},
		{"bare quote", "1,a\n2,\"b\n", 2},
	}
	for _, tt := range malformed {
		t.Run("malformed "+tt.name, func(t *testing.T) {
			_, err := readAll(t, source.NewCSVReader(writeFile(t, tt.content), ',', false))
			require.Error(t, err)
			assert.ErrorIs(t, err, pipeline.ErrMalformedRecord)

			var srcErr *pipeline.SourceError
			require.ErrorAs(t, err, &srcErr)
			assert.Equal(t, tt.line, srcErr.Line)
		})
	}

	t.Run("missing file is unavailable", func(t *testing.T) {
		reader := source.NewCSVReader(filepath.Join(t.TempDir(), "nope.csv"), ',', false)

		err := reader.Open(context.Background())
		assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.NoError(t, reader.Close())
	})

	t.Run("read before open is unavailable", func(t *testing.T) {
		_, err := source.NewCSVReader("books.csv", ',', false).Read(context.Background())
		assert.ErrorIs(t, err, pipeline.ErrSourceUnavailable)
	})
}

func TestCSVReader_Pipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("three records with chunk size two", func(t *testing.T) {
		writer := &memoryWriter{}
		p, err := pipeline.New(source.NewCSVReader(writeFile(t, "1,a\n2,b\n3,c\n"), ',', false), writer, 2)
		require.NoError(t, err)

		stats, err := p.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, []pipeline.Chunk{
			{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
			{{ID: 3, Name: "c"}},
		}, writer.chunks)
		assert.Equal(t, 3, stats.WriteCount)
	})

	t.Run("malformed third record stops after the first chunk", func(t *testing.T) {
		writer := &memoryWriter{}
		p, err := pipeline.New(source.NewCSVReader(writeFile(t, "1,a\n2,b\nbad,c\n4,d\n"), ',', false), writer, 2)
		require.NoError(t, err)

		_, err = p.Run(ctx)
		assert.ErrorIs(t, err, pipeline.ErrMalformedRecord)
		assert.Equal(t, []pipeline.Chunk{{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}}, writer.chunks)
	})
}
