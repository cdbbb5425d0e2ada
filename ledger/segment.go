package ledger

import "sort"

// SortByOdometer returns a copy of records in driving order. Records with
// equal readings keep their relative input order.
func SortByOdometer(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Odometer < sorted[j].Odometer
	})
	return sorted
}

// Reconcile re-derives Trip and TankID for the full record set and returns
// it in ascending odometer order. Every other field is left untouched.
//
// The last record keeps its stored Trip since it has no successor yet.
// TankID is carried forward from the previous record: a paid record opens
// the next segment, an unpaid record stays in its predecessor's segment.
// The first record keeps its stored TankID.
func Reconcile(records []Record) []Record {
	sorted := SortByOdometer(records)

	for i := 0; i+1 < len(sorted); i++ {
		sorted[i].Trip = sorted[i+1].Odometer - sorted[i].Odometer
	}

	for i := 1; i < len(sorted); i++ {
		tankID := sorted[i-1].TankID
		if sorted[i].Paid() {
			// a paid record left behind by a deleted payment must not skip ids
			tankID++
		}
		sorted[i].TankID = tankID
	}

	return sorted
}

// NextID returns the id for a new record: one past the highest id, or 1.
func NextID(records []Record) int {
	maxID := 0
	for _, r := range records {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

// NewRecord builds the record to append for candidate. Its initial TankID
// comes from the record with the largest reading below it (1 when there is
// none) and is advanced by one when the candidate pays.
func NewRecord(existing []Record, c Candidate) Record {
	tankID := 1
	best := -1
	for _, r := range existing {
		if r.Odometer < c.Odometer && r.Odometer > best {
			best = r.Odometer
			tankID = r.TankID
		}
	}
	if c.Pay > 0 {
		tankID++
	}

	return Record{
		ID:        NextID(existing),
		Timestamp: c.Timestamp,
		User:      c.User,
		Odometer:  c.Odometer,
		Trip:      0,
		TankID:    tankID,
		Pay:       c.Pay,
	}
}

// Apply overwrites the user-editable fields of r with c. Trip and TankID
// are left for Reconcile.
func (c Candidate) Apply(r Record) Record {
	r.Timestamp = c.Timestamp
	r.User = c.User
	r.Odometer = c.Odometer
	r.Pay = c.Pay
	return r
}
