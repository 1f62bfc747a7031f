package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNotReady is returned while the service is not started; the
	// HTTP layer maps it to 503.
	ErrNotReady = errors.New("service not ready")

	// ErrProfileConflict rejects requests carrying both an inline
	// questionnaire and a stored profile id.
	ErrProfileConflict = errors.New("profile and profile_id are mutually exclusive")

	// ErrProfileRequired rejects report requests with neither an inline
	// questionnaire nor a stored profile id.
	ErrProfileRequired = errors.New("either profile or profile_id is required")

	// ErrDomainDisabled marks readings domains switched off in config.
	ErrDomainDisabled = errors.New("reading domain disabled")
)
