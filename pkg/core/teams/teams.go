package teams

import (
	"math"
	"sort"

	"github.com/projectseashield/seashield/pkg/core/model"
)

// PhotoWeight is the kilograms-equivalent credited per proof photo when ranking teams
const PhotoWeight = 10.0

// Member is one volunteer in a team summary
type Member struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	EcoScore int    `json:"ecoScore"`
}

// TeamSummary is the leaderboard row for one team at one event
type TeamSummary struct {
	EventID             string   `json:"eventId"`
	EventTitle          string   `json:"eventTitle"`
	EventDate           string   `json:"eventDate"`
	TeamName            string   `json:"teamName"`
	Members             []Member `json:"members"`
	TotalWasteCollected float64  `json:"totalWasteCollected"`
	TotalPhotoUploads   int      `json:"totalPhotoUploads"`
	TotalEcoScore       int      `json:"totalEcoScore"`
	AvgEcoScore         int      `json:"avgEcoScore"`
}

// RankingScore weighs each proof photo as PhotoWeight kilograms of waste
func (s TeamSummary) RankingScore() float64 {
	return s.TotalWasteCollected + float64(s.TotalPhotoUploads)*PhotoWeight
}

type groupKey struct {
	eventID string
	team    string
}

// AggregateTeams groups team-assigned check-ins by (event, team) and ranks the
// groups by RankingScore, highest first. Ties are ordered by event ID, then team name.
// users supplies each member's current EcoScore; members without a user record count as 0.
func AggregateTeams(checkIns []model.CheckIn, events []model.Event, users []model.User) []TeamSummary {
	eventsByID := make(map[string]model.Event, len(events))
	for _, e := range events {
		eventsByID[e.ID] = e
	}
	usersByID := make(map[string]model.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	groups := make(map[groupKey]*TeamSummary)
	seen := make(map[groupKey]map[string]bool)
	var order []groupKey

	for _, c := range checkIns {
		if !c.TeamAssigned || c.AssignedTeam == "" {
			continue
		}

		key := groupKey{eventID: c.EventID, team: c.AssignedTeam}
		summary, ok := groups[key]
		if !ok {
			event := eventsByID[c.EventID]
			summary = &TeamSummary{
				EventID:    c.EventID,
				EventTitle: event.Title,
				EventDate:  event.Date,
				TeamName:   c.AssignedTeam,
				Members:    []Member{},
			}
			groups[key] = summary
			seen[key] = make(map[string]bool)
			order = append(order, key)
		}

		summary.TotalWasteCollected += c.WasteCollected
		if c.HasProofPhoto() {
			summary.TotalPhotoUploads++
		}

		if !seen[key][c.UserID] {
			seen[key][c.UserID] = true
			user := usersByID[c.UserID]
			name := c.UserName
			if name == "" {
				name = user.DisplayName
			}
			summary.Members = append(summary.Members, Member{
				UserID:   c.UserID,
				Name:     name,
				EcoScore: user.EcoScore,
			})
			summary.TotalEcoScore += user.EcoScore
		}
	}

	result := make([]TeamSummary, 0, len(order))
	for _, key := range order {
		s := groups[key]
		if len(s.Members) > 0 {
			s.AvgEcoScore = int(math.Round(float64(s.TotalEcoScore) / float64(len(s.Members))))
		}
		result = append(result, *s)
	}

	sort.SliceStable(result, func(i, j int) bool {
		si, sj := result[i].RankingScore(), result[j].RankingScore()
		if si != sj {
			return si > sj
		}
		if result[i].EventID != result[j].EventID {
			return result[i].EventID < result[j].EventID
		}
		return result[i].TeamName < result[j].TeamName
	})

	return result
}
