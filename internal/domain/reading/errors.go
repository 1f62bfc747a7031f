package reading

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrOutOfRange    = errors.New("value out of range")
	ErrInvalidEnum   = errors.New("invalid enum value")
	ErrMissingSource = errors.New("reading source missing")
)

// OutOfRangeError reports a numeric field outside its permitted bounds.
type OutOfRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s out of range: %v not in [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// Unwrap lets errors.Is(err, ErrOutOfRange) match.
func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// InvalidEnumError reports a vocabulary violation on an enum field.
type InvalidEnumError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("%s invalid: %q not one of %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Unwrap lets errors.Is(err, ErrInvalidEnum) match.
func (e *InvalidEnumError) Unwrap() error { return ErrInvalidEnum }
