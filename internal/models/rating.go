package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScaleType is the shape of the rating domain a question is configured with.
type ScaleType string

const (
	ScaleEmoji3  ScaleType = "emoji3"
	ScaleEmoji5  ScaleType = "emoji5"
	ScaleNumeric ScaleType = "numeric"
)

// Valid reports whether s is one of the three supported scales.
func (s ScaleType) Valid() bool {
	switch s {
	case ScaleEmoji3, ScaleEmoji5, ScaleNumeric:
		return true
	}
	return false
}

// Emoji labels shared by the 3 and 5 point scales.
const (
	LabelBad       = "bad"
	LabelNotGood   = "not_good"
	LabelGood      = "good"
	LabelVeryGood  = "very_good"
	LabelExcellent = "excellent"
)

// Numeric scale bounds (inclusive).
const (
	NumericMin = 0
	NumericMax = 10
)

var (
	emoji3Labels = []string{LabelBad, LabelGood, LabelExcellent}
	emoji5Labels = []string{LabelBad, LabelNotGood, LabelGood, LabelVeryGood, LabelExcellent}
)

// ErrInvalidRating is wrapped by every rating validation failure.
var ErrInvalidRating = errors.New("invalid rating")

// Rating is a tagged union: Scale selects the variant, Label carries the
// emoji variants' value and Score carries the numeric variant's value.
type Rating struct {
	Scale ScaleType
	Label string
	Score int
}

// Emoji3 builds a 3-point emoji rating.
func Emoji3(label string) Rating { return Rating{Scale: ScaleEmoji3, Label: label} }

// Emoji5 builds a 5-point emoji rating.
func Emoji5(label string) Rating { return Rating{Scale: ScaleEmoji5, Label: label} }

// Numeric builds a 0-10 rating.
func Numeric(score int) Rating { return Rating{Scale: ScaleNumeric, Score: score} }

// Labels returns the ordered value domain of an emoji scale, worst first.
// Numeric and unknown scales return nil.
func Labels(s ScaleType) []string {
	switch s {
	case ScaleEmoji3:
		return append([]string(nil), emoji3Labels...)
	case ScaleEmoji5:
		return append([]string(nil), emoji5Labels...)
	}
	return nil
}

// IsZero reports whether no rating was selected.
func (r Rating) IsZero() bool { return r.Scale == "" }

// Validate checks that the value belongs to the declared scale.
func (r Rating) Validate() error {
	switch r.Scale {
	case ScaleEmoji3:
		if !contains(emoji3Labels, r.Label) {
			return fmt.Errorf("%w: %q is not a 3-point value", ErrInvalidRating, r.Label)
		}
	case ScaleEmoji5:
		if !contains(emoji5Labels, r.Label) {
			return fmt.Errorf("%w: %q is not a 5-point value", ErrInvalidRating, r.Label)
		}
	case ScaleNumeric:
		if r.Score < NumericMin || r.Score > NumericMax {
			return fmt.Errorf("%w: score %d outside %d..%d", ErrInvalidRating, r.Score, NumericMin, NumericMax)
		}
	case "":
		return fmt.Errorf("%w: no rating selected", ErrInvalidRating)
	default:
		return fmt.Errorf("%w: unknown scale %q", ErrInvalidRating, r.Scale)
	}
	return nil
}

// Raw renders the stored value the way reports show it ("excellent", "9").
func (r Rating) Raw() string {
	if r.Scale == ScaleNumeric {
		return strconv.Itoa(r.Score)
	}
	return r.Label
}

type ratingWire struct {
	Type  ScaleType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes {"type": <scale>, "value": <label or score>}.
func (r Rating) MarshalJSON() ([]byte, error) {
	var value any = r.Label
	if r.Scale == ScaleNumeric {
		value = r.Score
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ratingWire{Type: r.Scale, Value: raw})
}

// UnmarshalJSON decodes the tagged form. The value's JSON type must match the
// tag; label checks are left to Validate so persisted data always loads.
// A JSON null leaves r unset. Untagged values from older records are
// accepted: a bare number is numeric, a bare label is read as LegacyRating.
func (r *Rating) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	switch {
	case string(trimmed) == "null":
		*r = Rating{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var label string
		if err := json.Unmarshal(trimmed, &label); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRating, err)
		}
		*r = LegacyRating(label)
		return nil
	case len(trimmed) > 0 && trimmed[0] != '{':
		n, err := numericScore(trimmed)
		if err != nil {
			return err
		}
		*r = Numeric(n)
		return nil
	}
	var w ratingWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRating, err)
	}
	switch w.Type {
	case ScaleNumeric:
		n, err := numericScore(w.Value)
		if err != nil {
			return err
		}
		*r = Numeric(n)
	case ScaleEmoji3, ScaleEmoji5:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("%w: emoji value must be a string", ErrInvalidRating)
		}
		*r = Rating{Scale: w.Type, Label: s}
	default:
		return fmt.Errorf("%w: unknown scale %q", ErrInvalidRating, w.Type)
	}
	return nil
}

// LegacyRating reads an untagged value as older records stored it. Digits
// are a numeric score; labels only the 5-point scale has select emoji5 and
// every other label emoji3. Callers that know the question's scale should
// pass the result through WithScale.
func LegacyRating(raw string) Rating {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return Numeric(n)
	}
	label := strings.ToLower(raw)
	if label == LabelNotGood || label == LabelVeryGood {
		return Emoji5(label)
	}
	return Emoji3(label)
}

// WithScale moves an emoji label onto scale when the label belongs to it.
// Other ratings are returned unchanged.
func (r Rating) WithScale(scale ScaleType) Rating {
	if r.Scale == scale || r.Scale == ScaleNumeric || scale == ScaleNumeric {
		return r
	}
	if contains(Labels(scale), r.Label) {
		return Rating{Scale: scale, Label: r.Label}
	}
	return r
}

// numericScore decodes a JSON number and bounds it before converting, so an
// out-of-range float never reaches int conversion.
func numericScore(raw []byte) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%w: numeric value must be a number", ErrInvalidRating)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: numeric value must be an integer", ErrInvalidRating)
	}
	if f < NumericMin || f > NumericMax {
		return 0, fmt.Errorf("%w: score %v outside %d..%d", ErrInvalidRating, f, NumericMin, NumericMax)
	}
	return int(f), nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
