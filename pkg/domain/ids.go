package domain

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	dErrors "classreg/pkg/domain-errors"
)

// StudentID is the primary key of a registry record. IDs are not required to
// be sequential or pre-registered.
type StudentID uint32

// ParseStudentID parses a decimal uint32. Signs, whitespace and leading "+"
// are rejected so the textual form stays canonical.
func ParseStudentID(s string) (StudentID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "student id is required")
	}
	if s[0] < '0' || s[0] > '9' {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "student id must be a non-negative integer")
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "student id must be a 32-bit unsigned integer")
	}
	return StudentID(v), nil
}

func (id StudentID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// AccountIDLen is the size of a principal identifier in bytes.
const AccountIDLen = 32

// AccountID is an opaque principal identifier. The zero value identifies no
// one and is never a valid owner.
type AccountID [AccountIDLen]byte

// ParseAccountID decodes a 64 character hex string with an optional 0x prefix.
func ParseAccountID(s string) (AccountID, error) {
	var a AccountID
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != hex.EncodedLen(AccountIDLen) {
		return a, dErrors.New(dErrors.CodeInvalidInput, "account id must be 32 hex-encoded bytes")
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id is not valid hex")
	}
	if a.IsZero() {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must not be zero")
	}
	return a, nil
}

// AccountIDFromBytes copies b into an AccountID. b must be exactly 32 bytes.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var a AccountID
	if len(b) != AccountIDLen {
		return a, dErrors.New(dErrors.CodeInvalidInput, "account id must be 32 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// DeriveAccountID hashes seed with BLAKE2b-256. Operator tooling uses it to
// turn a memorable name into a stable principal.
func DeriveAccountID(seed string) AccountID {
	return AccountID(blake2b.Sum256([]byte(seed)))
}

func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// String returns the lowercase hex form without prefix.
func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

func (a AccountID) Bytes() []byte {
	b := make([]byte, AccountIDLen)
	copy(b, a[:])
	return b
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
