package models

import (
	"errors"
	"fmt"
)

const (
	MinScore uint32 = 1
	MaxScore uint32 = 10
)

// ErrInvalidScore is returned for scores outside MinScore..MaxScore.
var ErrInvalidScore = errors.New("invalid final score")

// ValidateScore rejects scores Classify is not defined for.
func ValidateScore(score uint32) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: %d is outside %d..%d", ErrInvalidScore, score, MinScore, MaxScore)
	}
	return nil
}

// Classify maps a validated score to its tier:
//
//	[8,10] Excellent
//	[7,8)  Good
//	[5,7)  Average
//	[1,5)  Fail
//
// Callers must run ValidateScore first; out-of-range input lands in Fail.
func Classify(score uint32) Tier {
	switch {
	case score >= 8:
		return TierExcellent
	case score >= 7:
		return TierGood
	case score >= 5:
		return TierAverage
	default:
		return TierFail
	}
}
