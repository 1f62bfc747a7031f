package risk

import (
	"errors"
	"fmt"

	"github.com/voralis/envrisk/internal/domain/reading"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMissingDomain = errors.New("required domain missing")
)

// MissingDomainError reports a mandatory reading domain absent from a bundle.
type MissingDomainError struct {
	Domain reading.Domain
}

func (e *MissingDomainError) Error() string {
	return fmt.Sprintf("required %s reading missing", e.Domain)
}

// Unwrap lets errors.Is(err, ErrMissingDomain) match.
func (e *MissingDomainError) Unwrap() error { return ErrMissingDomain }
