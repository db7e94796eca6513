package parse

import (
	"errors"

	"github.com/urbanfeed/transit/model"
)

// Row error policy for an import.
type Mode int

const (
	// Abort the import on the first bad row.
	Strict Mode = iota
	// Skip bad rows, record them, keep going.
	Lenient
)

// Report collects the outcome of an import. In lenient mode every
// skipped row lands in Skipped as a typed error (ParseError,
// ReferenceError or ValidationError from the model package).
type Report struct {
	Mode    Mode
	Skipped []error
}

func NewReport(mode Mode) *Report {
	return &Report{Mode: mode}
}

// skip applies the mode policy to a bad row: in strict mode the error
// is returned and aborts the table, in lenient mode it is recorded and
// nil is returned so the caller moves on to the next row.
func (r *Report) skip(err error) error {
	if r.Mode == Strict {
		return err
	}
	r.Skipped = append(r.Skipped, err)
	return nil
}

// wrapTableErr keeps typed import errors intact and turns anything
// else (CSV reader failures, writer failures) into a FeedError naming
// the table it came from.
func wrapTableErr(table string, err error) error {
	var feedErr *model.FeedError
	var parseErr *model.ParseError
	var refErr *model.ReferenceError
	var valErr *model.ValidationError
	if errors.As(err, &feedErr) || errors.As(err, &parseErr) || errors.As(err, &refErr) || errors.As(err, &valErr) {
		return err
	}
	return &model.FeedError{Msg: "parsing " + table + ".txt", Err: err}
}
