package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidName is returned for names the text-backed stores cannot hold.
var ErrInvalidName = errors.New("invalid student name")

// ValidateName accepts any valid UTF-8 text without NUL bytes, including the
// empty string.
func ValidateName(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidName)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: contains NUL", ErrInvalidName)
	}
	return nil
}
