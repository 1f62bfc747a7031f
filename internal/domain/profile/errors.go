package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidEnum = errors.New("invalid enum value")
)

// InvalidEnumError reports a questionnaire answer outside its vocabulary.
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
