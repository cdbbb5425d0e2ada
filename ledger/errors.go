package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrOdometerBelowPrevious = errors.New("odometer must exceed previous reading")
	ErrOdometerAboveNext     = errors.New("odometer must be less than next reading")
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrUnknownMember         = errors.New("unknown member")
	ErrInvalidNumber         = errors.New("invalid number")
	ErrInvalidTimestamp      = errors.New("invalid date or time")
)

// OrderingViolation is returned when a reading breaks the time/odometer
// monotonicity against one of its temporal neighbours.
type OrderingViolation struct {
	Err      error  // ErrOdometerBelowPrevious or ErrOdometerAboveNext
	Neighbor Record // the record the candidate was compared against
}

func (v *OrderingViolation) Error() string {
	return fmt.Sprintf("%v (%d at %s)", v.Err, v.Neighbor.Odometer, v.Neighbor.Timestamp.Format("2006-01-02 15:04"))
}

func (v *OrderingViolation) Unwrap() error {
	return v.Err
}

// MissingFieldError names the required input that was left empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingRequiredField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingRequiredField
}

// IsUserError reports whether err is a correctable input problem rather
// than an infrastructure failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrOdometerBelowPrevious) ||
		errors.Is(err, ErrOdometerAboveNext) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrUnknownMember) ||
		errors.Is(err, ErrInvalidNumber) ||
		errors.Is(err, ErrInvalidTimestamp)
}
