package ledger

import "sort"

// Violation ties an ordering problem to the record that has it.
type Violation struct {
	RecordID int
	Err      error
}

// Validate checks candidate against others for time/odometer consistency.
// others must not contain the candidate's own prior state.
//
// The previous neighbour is the highest reading taken strictly before the
// candidate and the next neighbour is the lowest reading taken strictly
// after it. Equal readings are allowed. It returns nil or an
// *OrderingViolation.
func Validate(candidate Record, others []Record) error {
	var prev, next *Record
	for i := range others {
		r := &others[i]
		switch {
		case r.Timestamp.Before(candidate.Timestamp):
			if prev == nil || r.Odometer > prev.Odometer {
				prev = r
			}
		case r.Timestamp.After(candidate.Timestamp):
			if next == nil || r.Odometer < next.Odometer {
				next = r
			}
		}
	}

	if prev != nil && candidate.Odometer < prev.Odometer {
		return &OrderingViolation{Err: ErrOdometerBelowPrevious, Neighbor: *prev}
	}
	if next != nil && candidate.Odometer > next.Odometer {
		return &OrderingViolation{Err: ErrOdometerAboveNext, Neighbor: *next}
	}
	return nil
}

// ValidateAll runs Validate for every record against all the others and
// returns the violations ordered by record id. It never modifies records.
func ValidateAll(records []Record) []Violation {
	var violations []Violation
	others := make([]Record, 0, len(records))
	for i, r := range records {
		others = others[:0]
		others = append(others, records[:i]...)
		others = append(others, records[i+1:]...)
		if err := Validate(r, others); err != nil {
			violations = append(violations, Violation{RecordID: r.ID, Err: err})
		}
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].RecordID < violations[j].RecordID
	})
	return violations
}

// Without returns a copy of records that leaves out the record with id.
func Without(records []Record, id int) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
