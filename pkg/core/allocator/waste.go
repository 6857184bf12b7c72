package allocator

import "math"

// MinShare is the smallest per-participant share reported before the floor rule applies
const MinShare = 0.1

// Allocate returns the kilograms of waste credited to a participant when
// wasteAvailable is split evenly across totalParticipants (the new entrant included).
//
// The share is rounded to 2 decimal places. A share below MinShare is replaced by
// max(1, wasteAvailable/10) so that crowded events still credit a visible contribution.
// Earlier participants are never rebalanced when later ones join.
func Allocate(wasteAvailable float64, totalParticipants int) float64 {
	if !isFinite(wasteAvailable) || wasteAvailable <= 0 || totalParticipants <= 0 {
		return 0
	}

	share := Round2(wasteAvailable / float64(totalParticipants))
	if share < MinShare {
		share = Round2(math.Max(1, wasteAvailable/10))
	}

	return share
}

// Round2 rounds x to 2 decimal places, with halves rounded up.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
