package features

import (
	"fmt"
	"math"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match ErrValidation with errors.Is.
func (e *FieldError) Unwrap() error { return ErrValidation }

// Validate checks the value ranges of a match state. Presence and JSON types
// are checked by the transport before a MatchState exists.
func Validate(s MatchState) error {
	switch {
	case s.CurrentScore < 0:
		return &FieldError{Field: "current_score", Reason: "must be non-negative"}
	case math.IsNaN(s.Overs) || math.IsInf(s.Overs, 0):
		return &FieldError{Field: "overs", Reason: "must be a finite number"}
	case s.Overs < 0 || s.Overs > OversPerInnings:
		return &FieldError{Field: "overs", Reason: fmt.Sprintf("must be between 0 and %d", OversPerInnings)}
	case s.Wickets < 0 || s.Wickets > MaxWickets:
		return &FieldError{Field: "wickets", Reason: fmt.Sprintf("must be between 0 and %d", MaxWickets)}
	case s.BatsmenLeft < 0:
		return &FieldError{Field: "batsmen_left", Reason: "must be non-negative"}
	case s.LastFive < 0:
		return &FieldError{Field: "last_five", Reason: "must be non-negative"}
	}
	return nil
}
