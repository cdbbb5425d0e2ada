package ledger

import "github.com/shopspring/decimal"

// Allocate derives the Tank rows from a reconciled record set.
//
// Every paid record closes segment TankID-1. A member's share of the price
// is the fraction of that segment's distance they drove, rounded half to
// even. Members not in the list still count towards the segment distance.
// If two paid records close the same segment the later one in odometer
// order wins.
func Allocate(records []Record, members Members) []Tank {
	sorted := SortByOdometer(records)

	var tanks []Tank
	for _, r := range sorted {
		if !r.Paid() {
			continue
		}
		id := r.TankID - 1
		tanks = append(tanks, Tank{
			ID:        id,
			Timestamp: r.Timestamp,
			Price:     r.Pay,
			Shares:    segmentShares(sorted, id, r.Pay, members),
		})
	}

	return dedupKeepLast(tanks)
}

func segmentShares(records []Record, tankID, price int, members Members) map[string]int {
	totalKm := 0
	userKm := make(map[string]int, len(members))
	for _, r := range records {
		if r.TankID != tankID {
			continue
		}
		totalKm += r.Trip
		userKm[r.User] += r.Trip
	}

	shares := make(map[string]int, len(members))
	for _, m := range members {
		shares[m] = Share(userKm[m], totalKm, price)
	}
	return shares
}

// Share returns round(userKm / totalKm * price) with ties going to the even
// integer, or 0 when totalKm is not positive. The quotient is computed in
// decimal so exact halves are detected without float error.
func Share(userKm, totalKm, price int) int {
	if totalKm <= 0 {
		return 0
	}
	q := decimal.NewFromInt(int64(userKm)).
		Mul(decimal.NewFromInt(int64(price))).
		DivRound(decimal.NewFromInt(int64(totalKm)), 16)
	return int(q.RoundBank(0).IntPart())
}

func dedupKeepLast(tanks []Tank) []Tank {
	last := make(map[int]int, len(tanks))
	for i, t := range tanks {
		last[t.ID] = i
	}
	out := make([]Tank, 0, len(last))
	for i, t := range tanks {
		if last[t.ID] == i {
			out = append(out, t)
		}
	}
	return out
}
