package timeparse

import (
	"fmt"
)

// Kind classifies why a reminder message could not be parsed.
type Kind int

const (
	// NoDelimiter means no time-introducing word ("at", "в", "о") was found.
	NoDelimiter Kind = iota + 1
	// BadDateTime means the date or time-of-day token is not a valid calendar value.
	BadDateTime
	// EmptyTask means nothing is left to remind about once the time is removed.
	EmptyTask
)

func (k Kind) String() string {
	switch k {
	case NoDelimiter:
		return "no_delimiter"
	case BadDateTime:
		return "bad_date_time"
	case EmptyTask:
		return "empty_task"
	default:
		return "unknown"
	}
}

// ParseError is returned by Parser.Parse. Match it with errors.Is against
// ErrNoDelimiter, ErrBadDateTime or ErrEmptyTask, or errors.As for details.
type ParseError struct {
	Kind  Kind
	Input string
	Err   error
}

// Sentinels for errors.Is.
var (
	ErrNoDelimiter = &ParseError{Kind: NoDelimiter}
	ErrBadDateTime = &ParseError{Kind: BadDateTime}
	ErrEmptyTask   = &ParseError{Kind: EmptyTask}
)

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse reminder %q: %s: %v", e.Input, e.Kind, e.Err)
	}
	return fmt.Sprintf("parse reminder %q: %s", e.Input, e.Kind)
}

// Is reports whether target is a ParseError of the same kind.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(kind Kind, input string, cause error) *ParseError {
	return &ParseError{Kind: kind, Input: input, Err: cause}
}
