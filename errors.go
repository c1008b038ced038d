package strata

import (
	"errors"
	"fmt"
)

// Construction errors returned by New.
var (
	// ErrEmptyTableName is returned when the table name is empty.
	ErrEmptyTableName = errors.New("table name cannot be empty")

	// ErrNilRenderer is returned when no SQL renderer is provided.
	ErrNilRenderer = errors.New("renderer cannot be nil")
)

// Operation errors surfaced by repository verbs and the service layer.
var (
	// ErrNotFound is returned when a single-record read matches nothing.
	ErrNotFound = errors.New("record not found")

	// ErrMultipleRows is returned when a single-record read matches more than one row.
	ErrMultipleRows = errors.New("expected exactly one row, found multiple")

	// ErrWhereRequired is returned when an UPDATE or DELETE is attempted
	// without any WHERE condition.
	ErrWhereRequired = errors.New("at least one WHERE condition is required")

	// ErrNothingAffected is returned by the service layer when an update or
	// destroy touched zero rows.
	ErrNothingAffected = errors.New("no rows affected")

	// ErrStoreFailed is returned when an INSERT produced no record.
	ErrStoreFailed = errors.New("create returned no record")
)

// ModelError reports that a type cannot back a repository: it has no
// db-tagged columns or no primary key.
type ModelError struct {
	Model  string
	Reason string
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	return fmt.Sprintf("type %s is not a model: %s", e.Model, e.Reason)
}

// OpError is a repository operation failure carrying an HTTP-style status
// code. It wraps the underlying cause for errors.Is/As.
type OpError struct {
	Op     string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %v", e.Op, e.Status, e.Err)
}

// Unwrap exposes the wrapped error to errors.Is/errors.As.
func (e *OpError) Unwrap() error {
	return e.Err
}

func newOpError(op string, status int, err error) *OpError {
	return &OpError{Op: op, Status: status, Err: err}
}

// Builder error constructors. These wrap schema-validation failures with
// enough context to identify the offending field or parameter.

func newTableError(table string, err error) error {
	return fmt.Errorf("invalid table %q: %w", table, err)
}

func newFieldError(field string, err error) error {
	return fmt.Errorf("invalid field %q: %w", field, err)
}

func newParamError(param string, err error) error {
	return fmt.Errorf("invalid param %q: %w", param, err)
}

func newOperatorError(op string) error {
	return fmt.Errorf("unsupported operator %q", op)
}

func newDirectionError(dir string) error {
	return fmt.Errorf("unsupported sort direction %q", dir)
}

func newConditionError(err error) error {
	return fmt.Errorf("invalid condition: %w", err)
}

func newRenderError(operation string, err error) error {
	return fmt.Errorf("failed to render %s query: %w", operation, err)
}

func newQueryError(operation string, err error) error {
	return fmt.Errorf("%s failed: %w", operation, err)
}

func newScanError(operation string, err error) error {
	return fmt.Errorf("%s scan failed: %w", operation, err)
}

func newIterationError(err error) error {
	return fmt.Errorf("row iteration failed: %w", err)
}
