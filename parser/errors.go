package parser

import (
	"errors"
	"fmt"
)

// Sentinel errors for parse operations.
var (
	// ErrSectionNotFound indicates the requested block is absent from the input.
	ErrSectionNotFound = errors.New("section not found")

	// ErrEmptyBlock indicates the block is present but declares no entries.
	ErrEmptyBlock = errors.New("block found but no entries")

	// ErrMalformedEntry indicates a line inside a block lacks its quoted payload.
	ErrMalformedEntry = errors.New("malformed entry")

	// ErrMalformedRecord indicates a stackup line that cannot be paired into key/value tokens.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDuplicateKey indicates a key repeated before the record was flushed.
	ErrDuplicateKey = errors.New("duplicate key in record")

	// ErrUnexpectedEOF indicates the input ended before a complete result was read.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
)

// Error wraps parse errors with the offending location.
type Error struct {
	Op       string // Operation that failed ("extract layers", "parse stackup")
	Line     int    // 0-based line index, same numbering as RawLine.Num
	Expected string // What the parser was looking for, if known
	Found    string // What it found instead, if known
	Err      error  // Underlying sentinel error
}

// Error implements the error interface. Line numbers are printed 1-based.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: line %d: %v", e.Op, e.Line+1, e.Err)
	switch {
	case e.Expected != "" && e.Found != "":
		msg += fmt.Sprintf(": expected %s, found %q", e.Expected, e.Found)
	case e.Expected != "":
		msg += ": expected " + e.Expected
	case e.Found != "":
		msg += fmt.Sprintf(": found %q", e.Found)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, line int, err error, expected, found string) *Error {
	return &Error{
		Op:       op,
		Line:     line,
		Expected: expected,
		Found:    found,
		Err:      err,
	}
}

// IsParseError reports whether err carries a parse location.
func IsParseError(err error) bool {
	var perr *Error
	return errors.As(err, &perr)
}
