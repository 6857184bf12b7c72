package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/projectseashield/seashield/pkg/core/model"
)

// StreakGap is the longest gap between consecutive check-ins that keeps a streak alive
const StreakGap = 48 * time.Hour

// Badge names
const (
	BadgeFiveCleanups     = "5 Cleanups"
	BadgeCleanupChamp     = "50kg Cleanup Champ"
	BadgeThreeDayStreaker = "3-Day Streaker"
)

// Badge thresholds
const (
	CleanupsForBadge = 5
	WasteForBadge    = 50.0
	StreakForBadge   = 3
)

// Summary is a volunteer's record derived from their check-in history
type Summary struct {
	CheckInCount int      `json:"checkInCount"`
	TotalWaste   float64  `json:"totalWaste"`
	Streak       int      `json:"streak"`
	Badges       []string `json:"badges"`
}

// Aggregate computes total waste, longest streak and earned badges from a full
// check-in history. The input slice is not modified.
func Aggregate(checkIns []model.CheckIn) Summary {
	totalWaste := 0.0
	for _, c := range checkIns {
		totalWaste += wasteOf(c)
	}

	streak := LongestStreak(checkIns)

	return Summary{
		CheckInCount: len(checkIns),
		TotalWaste:   totalWaste,
		Streak:       streak,
		Badges:       badges(len(checkIns), totalWaste, streak),
	}
}

// LongestStreak returns the longest run of check-ins where each follows the
// previous one by at most StreakGap.
func LongestStreak(checkIns []model.CheckIn) int {
	if len(checkIns) == 0 {
		return 0
	}

	times := make([]time.Time, len(checkIns))
	for i, c := range checkIns {
		times[i] = c.Timestamp
	}
	sort.SliceStable(times, func(i, j int) bool { return times[i].Before(times[j]) })

	current, longest := 1, 1
	for i := 1; i < len(times); i++ {
		if times[i].Sub(times[i-1]) <= StreakGap {
			current++
			longest = max(longest, current)
		} else {
			current = 1
		}
	}

	return longest
}

func badges(count int, totalWaste float64, streak int) []string {
	earned := []string{}
	if count >= CleanupsForBadge {
		earned = append(earned, BadgeFiveCleanups)
	}
	if totalWaste >= WasteForBadge {
		earned = append(earned, BadgeCleanupChamp)
	}
	if streak >= StreakForBadge {
		earned = append(earned, BadgeThreeDayStreaker)
	}
	return earned
}

// wasteOf treats non-finite and negative values as no contribution
func wasteOf(c model.CheckIn) float64 {
	w := c.WasteCollected
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

// ExcludeOrphans splits check-ins into those whose event still exists and those
// whose event has been deleted.
func ExcludeOrphans(checkIns []model.CheckIn, existingEventIDs map[string]bool) (kept, orphans []model.CheckIn) {
	for _, c := range checkIns {
		if existingEventIDs[c.EventID] {
			kept = append(kept, c)
		} else {
			orphans = append(orphans, c)
		}
	}
	return kept, orphans
}

// BadgeProgress describes how close a volunteer is to a badge
type BadgeProgress struct {
	Badge    string  `json:"badge"`
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
	Earned   bool    `json:"earned"`
	Progress float64 `json:"progress"` // 0..1
}

// Progress reports progress toward every badge for a summary
func Progress(s Summary) []BadgeProgress {
	return []BadgeProgress{
		progress(BadgeFiveCleanups, float64(s.CheckInCount), CleanupsForBadge),
		progress(BadgeCleanupChamp, s.TotalWaste, WasteForBadge),
		progress(BadgeThreeDayStreaker, float64(s.Streak), StreakForBadge),
	}
}

func progress(badge string, current, target float64) BadgeProgress {
	ratio := math.Min(1, current/target)
	return BadgeProgress{
		Badge:    badge,
		Current:  current,
		Target:   target,
		Earned:   current >= target,
		Progress: ratio,
	}
}
