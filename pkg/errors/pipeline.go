package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports a single field that could not be normalized. It only
// excludes the record it belongs to.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Value)
}

// ValidationError aggregates every business-rule violation found for one record.
type ValidationError struct {
	Row    int
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d failed validation: %s", e.Row, strings.Join(e.Errors, ", "))
}

// ExtractionError means the upstream source was unavailable or empty. The run
// stops before any write.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// LoadError wraps any store failure during the transactional load. The
// transaction has been rolled back when it is returned.
type LoadError struct {
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsRecordScoped reports whether err only invalidates a single record.
func IsRecordScoped(err error) bool {
	var parseErr *ParseError
	var validationErr *ValidationError
	return errors.As(err, &parseErr) || errors.As(err, &validationErr)
}

// IsRunScoped reports whether err must abort the whole run.
func IsRunScoped(err error) bool {
	var extractErr *ExtractionError
	var loadErr *LoadError
	return errors.As(err, &extractErr) || errors.As(err, &loadErr)
}
