// Package access decides whether a caller may mutate the registry.
package access

import (
	"crypto/subtle"
	"errors"

	id "classreg/pkg/domain"
)

// ErrUnauthorized is returned when the caller is not the registry owner.
var ErrUnauthorized = errors.New("caller is not the registry owner")

// Authorize succeeds only for an exact match between caller and owner. There
// is no delegation and no role hierarchy; an anonymous (zero) caller never
// matches.
func Authorize(caller, owner id.AccountID) error {
	if caller.IsZero() || owner.IsZero() {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(caller[:], owner[:]) != 1 {
		return ErrUnauthorized
	}
	return nil
}
