package store

import "classreg/pkg/platform/sentinel"

// Re-exported so callers can match store failures without importing
// sentinel directly.
var (
	ErrConflict    = sentinel.ErrConflict
	ErrCorrupt     = sentinel.ErrCorrupt
	ErrUnavailable = sentinel.ErrUnavailable
)
