package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord   = errors.New("malformed record")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrWriteRejected     = errors.New("chunk rejected by writer")
	ErrInvalidChunkSize  = errors.New("chunk size must be >= 1")
)

// SourceError is returned when the reader cannot produce the next record. Kind is either
// ErrMalformedRecord or ErrSourceUnavailable so callers can match with errors.Is.
type SourceError struct {
	Kind   error
	Source string // Source location, e.g. a file path or query
	Line   int    // 1-based position of the offending row. 0 if unknown
	Err    error
}

// NewMalformedError creates a SourceError for a row that could not be mapped into a Record
func NewMalformedError(source string, line int, err error) *SourceError {
	return &SourceError{Kind: ErrMalformedRecord, Source: source, Line: line, Err: err}
}

// NewUnavailableError creates a SourceError for a source that could not be reached
func NewUnavailableError(source string, err error) *SourceError {
	return &SourceError{Kind: ErrSourceUnavailable, Source: source, Err: err}
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.Source)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WriteError is returned when the writer rejects a chunk. The failed chunk is the last one
// the pipeline attempts.
type WriteError struct {
	Chunk int // 0-based index of the rejected chunk
	Size  int
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%v: chunk %d (%d records): %v", ErrWriteRejected, e.Chunk, e.Size, e.Err)
}

func (e *WriteError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrWriteRejected}
	}
	return []error{ErrWriteRejected, e.Err}
}
