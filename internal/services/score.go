package services

import "github.com/soaringjerry/npsdesk/internal/models"

// Satisfaction is the scale-independent bucket every rating falls into.
type Satisfaction string

const (
	Good    Satisfaction = "good"
	Regular Satisfaction = "regular"
	Bad     Satisfaction = "bad"
)

// ParseSatisfaction accepts "good", "regular" or "bad".
func ParseSatisfaction(s string) (Satisfaction, bool) {
	switch Satisfaction(s) {
	case Good, Regular, Bad:
		return Satisfaction(s), true
	}
	return "", false
}

// NPSBand is the Net Promoter band of a 0-10 score.
type NPSBand string

const (
	Promoter  NPSBand = "promoter"
	Passive   NPSBand = "passive"
	Detractor NPSBand = "detractor"
)

// Band maps a 0-10 score to its NPS band: >=9 promoter, 7..8 passive, <=6 detractor.
func Band(score int) NPSBand {
	switch {
	case score >= 9:
		return Promoter
	case score >= 7:
		return Passive
	default:
		return Detractor
	}
}

// Classify maps any rating onto good/regular/bad.
// The 3-point scale has no middle option, so it never yields Regular.
// Ratings are expected to have passed Rating.Validate; anything outside the
// declared domains is counted as Bad.
func Classify(r models.Rating) Satisfaction {
	switch r.Scale {
	case models.ScaleEmoji3:
		if r.Label == models.LabelGood || r.Label == models.LabelExcellent {
			return Good
		}
		return Bad
	case models.ScaleEmoji5:
		switch r.Label {
		case models.LabelGood, models.LabelVeryGood, models.LabelExcellent:
			return Good
		case models.LabelNotGood:
			return Regular
		default:
			return Bad
		}
	case models.ScaleNumeric:
		switch Band(r.Score) {
		case Promoter:
			return Good
		case Passive:
			return Regular
		}
	}
	return Bad
}
