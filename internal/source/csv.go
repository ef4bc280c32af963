package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"batchrunner/internal/models"
	"batchrunner/internal/pipeline"
)

// CSVReader reads records from a delimited file with an id and a name column. The file is
// opened on Open, so the same reader can serve consecutive runs.
type CSVReader struct {
	path      string
	delimiter rune
	header    bool

	file *os.File
	csv  *csv.Reader
}

func NewCSVReader(path string, delimiter rune, header bool) *CSVReader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVReader{path: path, delimiter: delimiter, header: header}
}

func (r *CSVReader) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.Open(r.path)
	if err != nil {
		return pipeline.NewUnavailableError(r.path, err)
	}

	reader := csv.NewReader(file)
	reader.Comma = r.delimiter
	reader.FieldsPerRecord = -1 // field count is checked per row to report the offending line
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	r.file = file
	r.csv = reader

	if r.header {
		if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) {
			_ = r.Close()
			return r.wrapReadError(err)
		}
	}

	log.Debug().Str("path", r.path).Msg("CSV source opened")
	return nil
}

func (r *CSVReader) Read(ctx context.Context) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}
	if r.csv == nil {
		return models.Record{}, pipeline.NewUnavailableError(r.path, errors.New("reader is not open"))
	}

	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.Record{}, io.EOF
		}
		return models.Record{}, r.wrapReadError(err)
	}

	line, _ := r.csv.FieldPos(0)
	if len(row) != 2 {
		return models.Record{}, pipeline.NewMalformedError(r.path, line, fmt.Errorf("expected 2 fields, got %d", len(row)))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return models.Record{}, pipeline.NewMalformedError(r.path, line, fmt.Errorf("invalid id %q: %w", row[0], err))
	}

	return models.Record{ID: id, Name: strings.TrimSpace(row[1])}, nil
}

func (r *CSVReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.csv = nil
	return err
}

func (r *CSVReader) wrapReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return pipeline.NewMalformedError(r.path, parseErr.StartLine, parseErr.Err)
	}
	return pipeline.NewUnavailableError(r.path, err)
}
