package models

import (
	"fmt"

	dErrors "classreg/pkg/domain-errors"
)

// Tier is the performance classification derived from a final score.
//
// Invariants:
//   - The set is closed: Excellent, Good, Average, Fail, Unrated
//   - Unrated is only ever a read default; it is never persisted
//   - Numeric codes are stable and match declaration order
type Tier uint8

const (
	TierExcellent Tier = iota
	TierGood
	TierAverage
	TierFail
	TierUnrated
)

var tierNames = [...]string{
	TierExcellent: "Excellent",
	TierGood:      "Good",
	TierAverage:   "Average",
	TierFail:      "Fail",
	TierUnrated:   "Unrated",
}

// IsValid reports whether t is one of the declared tiers.
func (t Tier) IsValid() bool {
	return t <= TierUnrated
}

// IsStorable reports whether t may be written to a tier mapping.
func (t Tier) IsStorable() bool {
	return t < TierUnrated
}

func (t Tier) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("Tier(%d)", uint8(t))
	}
	return tierNames[t]
}

// ParseTier accepts the canonical name of a tier.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown tier %q", s))
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("marshal tier: invalid code %d", uint8(t))
	}
	return []byte(tierNames[t]), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// EncodeTier returns the storage code for t. Unrated is refused because it
// must never be persisted.
func EncodeTier(t Tier) (uint8, error) {
	if !t.IsStorable() {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("tier %s cannot be stored", t))
	}
	return uint8(t), nil
}

// DecodeTier maps a storage code back to a Tier.
func DecodeTier(code uint8) (Tier, error) {
	t := Tier(code)
	if !t.IsStorable() {
		return 0, fmt.Errorf("decode tier: unexpected stored code %d", code)
	}
	return t, nil
}
