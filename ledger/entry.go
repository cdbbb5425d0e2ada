package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Entry is the raw bundle a form or request submits for a reading.
type Entry struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	User     string `json:"user"`
	Odometer string `json:"odometer"`
	Pay      string `json:"pay"`
}

// Candidate is a parsed Entry, ready to be validated.
type Candidate struct {
	Timestamp time.Time
	User      string
	Odometer  int
	Pay       int
}

// Record returns the candidate as a record carrying id, for validation.
func (c Candidate) Record(id int) Record {
	return Record{ID: id, Timestamp: c.Timestamp, User: c.User, Odometer: c.Odometer, Pay: c.Pay}
}

// ParseEntry converts e into a Candidate. An empty date or time falls back
// to the matching part of now.
func ParseEntry(e Entry, members Members, now time.Time) (Candidate, error) {
	user := strings.TrimSpace(e.User)
	if user == "" {
		return Candidate{}, &MissingFieldError{Field: "user"}
	}
	if strings.TrimSpace(e.Odometer) == "" {
		return Candidate{}, &MissingFieldError{Field: "odometer"}
	}
	if !members.Contains(user) {
		return Candidate{}, fmt.Errorf("%w: %q", ErrUnknownMember, user)
	}

	odometer, err := parseAmount("odometer", e.Odometer)
	if err != nil {
		return Candidate{}, err
	}
	pay, err := parseAmount("pay", e.Pay)
	if err != nil {
		return Candidate{}, err
	}
	ts, err := parseTimestamp(e.Date, e.Time, now)
	if err != nil {
		return Candidate{}, err
	}

	return Candidate{Timestamp: ts, User: user, Odometer: odometer, Pay: pay}, nil
}

func parseAmount(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q must be a non-negative integer", ErrInvalidNumber, field, s)
	}
	return n, nil
}

func parseTimestamp(date, clock string, now time.Time) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		date = now.Format(DateLayout)
	}
	if clock == "" {
		clock = now.Format(TimeLayout)
	}

	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if ts, err := time.ParseInLocation(DateLayout+"T"+layout, date+"T"+clock, now.Location()); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidTimestamp, date, clock)
}
