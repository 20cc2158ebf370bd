package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and the registry service translates them into domain errors.
//
//   - ErrNotFound: key has no value in the backing store
//   - ErrConflict: a claim-once slot already holds a different value
//   - ErrCorrupt: a stored value cannot be decoded
//   - ErrUnavailable: backend temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrCorrupt     = errors.New("corrupt value")
	ErrUnavailable = errors.New("unavailable")
)
