package allocator

import (
	"fmt"
	"sort"

	"github.com/projectseashield/seashield/pkg/core/model"
)

// TeamName returns the generated name of the n-th (1-based) auto-assigned team
func TeamName(n int) string {
	return fmt.Sprintf("Team %d", n)
}

// AssignTeams splits an event's check-ins into teams of at most teamSize members,
// in check-in order. Check-ins already assigned to a team keep their assignment and
// count toward that team's size. Returns checkInID -> team name for the check-ins
// that need a (new) assignment.
func AssignTeams(checkIns []model.CheckIn, teamSize int) (map[string]string, error) {
	if teamSize <= 0 {
		return nil, fmt.Errorf("team size must be positive, got %d", teamSize)
	}

	ordered := make([]model.CheckIn, len(checkIns))
	copy(ordered, checkIns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	// Existing team sizes
	sizes := make(map[string]int)
	for _, c := range ordered {
		if c.TeamAssigned && c.AssignedTeam != "" {
			sizes[c.AssignedTeam]++
		}
	}

	assignments := make(map[string]string)
	teamNum := 1
	for _, c := range ordered {
		if c.TeamAssigned && c.AssignedTeam != "" {
			continue
		}

		for sizes[TeamName(teamNum)] >= teamSize {
			teamNum++
		}

		name := TeamName(teamNum)
		assignments[c.ID] = name
		sizes[name]++
	}

	return assignments, nil
}
