package db

import (
	"sort"

	"github.com/projectseashield/seashield/pkg/core/model"
)

// DedupeCheckIns keeps the earliest check-in for each (user, event) pair.
// Later records for the same pair are returned as duplicates. Rows written before
// the unique key existed can contain such duplicates.
func DedupeCheckIns(checkIns []model.CheckIn) (kept, duplicates []model.CheckIn) {
	ordered := make([]model.CheckIn, len(checkIns))
	copy(ordered, checkIns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	type pair struct{ userID, eventID string }
	seen := make(map[pair]bool, len(ordered))

	for _, c := range ordered {
		key := pair{c.UserID, c.EventID}
		if seen[key] {
			duplicates = append(duplicates, c)
			continue
		}
		seen[key] = true
		kept = append(kept, c)
	}

	return kept, duplicates
}
