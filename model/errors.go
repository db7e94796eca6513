package model

import "fmt"

// Error taxonomy for import and query operations. Import-time errors
// (ParseError, ReferenceError, ValidationError) carry the table and
// 1-based data row they originate from, so lenient imports can report
// exactly what was skipped.

// The archive itself is unusable: not a zip, or a required table is
// missing entirely.
type FeedError struct {
	Msg string
	Err error
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// A malformed row or column value at a known position.
type ParseError struct {
	Table string
	Row   int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Table, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A foreign key referencing a nonexistent entity.
type ReferenceError struct {
	Table string
	Row   int
	Field string
	Value string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s row %d: unknown %s '%s'", e.Table, e.Row, e.Field, e.Value)
}

// A well-formed value violating a domain constraint: out-of-range
// coordinate, duplicate stop_sequence, invalid time.
type ValidationError struct {
	Table string
	Row   int
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Table, e.Row, e.Msg)
}

// A query for an entity ID that does not exist. Distinct from an empty
// result set, which queries return as an empty slice.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.ID)
}

// A malformed query parameter: bad date, bad time, coordinate out of
// range.
type QueryError struct {
	Msg string
}

func (e *QueryError) Error() string {
	return e.Msg
}
