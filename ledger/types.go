package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Record is one odometer observation. A nonzero Pay marks a refuelling.
// Trip and TankID are derived by Reconcile and never entered by hand.
type Record struct {
	ID        int       `json:"id" diff:"id,identifier" msgpack:"id"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	User      string    `json:"user" msgpack:"user"`
	Odometer  int       `json:"odometer" msgpack:"odometer"`
	Trip      int       `json:"trip" msgpack:"trip"`
	TankID    int       `json:"tank_id" msgpack:"tank_id"`
	Pay       int       `json:"pay" msgpack:"pay"`
}

// Paid reports whether the record is a refuelling event.
func (r Record) Paid() bool {
	return r.Pay > 0
}

// Tank is the cost allocation of one closed fuel segment.
// ID is the segment being closed, i.e. the paying record's TankID - 1.
type Tank struct {
	ID        int            `json:"id" diff:"id,identifier" msgpack:"id"`
	Timestamp time.Time      `json:"timestamp" msgpack:"timestamp"`
	Price     int            `json:"price" msgpack:"price"`
	Shares    map[string]int `json:"shares" msgpack:"shares"`
}

// ShareSum returns the sum of all member shares.
func (t Tank) ShareSum() int {
	sum := 0
	for _, s := range t.Shares {
		sum += s
	}
	return sum
}

// Members is the ordered set of people sharing the vehicle.
type Members []string

// NewMembers trims, validates and returns the member list.
func NewMembers(names ...string) (Members, error) {
	seen := make(map[string]bool, len(names))
	members := make(Members, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if seen[n] {
			return nil, fmt.Errorf("duplicate member %q", n)
		}
		seen[n] = true
		members = append(members, n)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("member list cannot be empty")
	}
	return members, nil
}

// Contains reports whether name is a configured member.
func (m Members) Contains(name string) bool {
	for _, n := range m {
		if n == name {
			return true
		}
	}
	return false
}
