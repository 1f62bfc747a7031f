package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateID  = errors.New("duplicate record id")
	ErrClosed       = errors.New("store closed")
	ErrInvalidLimit = errors.New("invalid list limit")
)
