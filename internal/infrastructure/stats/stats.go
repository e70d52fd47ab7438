// Package stats derives aggregate statistics from room snapshots.
package stats

import (
	"strconv"

	"github.com/pointdeck/pointdeck/internal/domain"
)

// Mean returns the arithmetic mean of the numeric estimates in a
// snapshot, or nil when the room is not revealed or holds no numeric
// votes. Symbolic tokens such as "?" are excluded from both numerator
// and denominator. Pure function of the snapshot.
func Mean(snap domain.Snapshot) *float64 {
	if !snap.Revealed {
		// Stats must not leak hidden votes
		return nil
	}

	var sum float64
	var count int
	for _, user := range snap.Users {
		if user.Estimate == nil {
			continue
		}
		v, err := strconv.ParseFloat(*user.Estimate, 64)
		if err != nil {
			continue
		}
		sum += v
		count++
	}

	if count == 0 {
		return nil
	}
	mean := sum / float64(count)
	return &mean
}
