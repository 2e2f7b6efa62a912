package source

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is wrapped by every decoding error.
	ErrSyntax = errors.New("syntax error")

	// ErrNoParser is returned when no parser handles a file.
	ErrNoParser = errors.New("no parser for file type")

	// ErrNoMatch is returned when a load pattern matches no file.
	ErrNoMatch = errors.New("no files match pattern")
)

// SyntaxError reports a malformed statement.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() []error {
	return []error{ErrSyntax, e.Err}
}
