package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/teams"
)

// LeaderboardStore defines the database operations needed for the leaderboards
type LeaderboardStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListCheckIns(ctx context.Context) ([]model.CheckIn, error)
}

// VolunteerRank is one row of the volunteer leaderboard
type VolunteerRank struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	EcoScore      int    `json:"ecoScore"`
	TotalCheckIns int    `json:"totalCheckIns"`
}

// TeamLeaderboard ranks every (event, team) group across all check-ins
func TeamLeaderboard(ctx context.Context, store LeaderboardStore, eventID string) ([]teams.TeamSummary, error) {
	checkIns, err := store.ListCheckIns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}
	events, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	if eventID != "" {
		filtered := checkIns[:0:0]
		for _, c := range checkIns {
			if c.EventID == eventID {
				filtered = append(filtered, c)
			}
		}
		checkIns = filtered
	}

	return teams.AggregateTeams(checkIns, events, users), nil
}

// VolunteerLeaderboard ranks volunteers by EcoScore. Equal scores share a rank.
// limit <= 0 returns everyone.
func VolunteerLeaderboard(ctx context.Context, store LeaderboardStore, limit int) ([]VolunteerRank, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	volunteers := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.UserType == model.UserTypeVolunteer {
			volunteers = append(volunteers, u)
		}
	}

	sort.SliceStable(volunteers, func(i, j int) bool {
		if volunteers[i].EcoScore != volunteers[j].EcoScore {
			return volunteers[i].EcoScore > volunteers[j].EcoScore
		}
		return volunteers[i].ID < volunteers[j].ID
	})

	if limit > 0 && len(volunteers) > limit {
		volunteers = volunteers[:limit]
	}

	ranks := make([]VolunteerRank, len(volunteers))
	for i, u := range volunteers {
		rank := i + 1
		if i > 0 && u.EcoScore == volunteers[i-1].EcoScore {
			rank = ranks[i-1].Rank
		}
		ranks[i] = VolunteerRank{
			Rank:          rank,
			UserID:        u.ID,
			DisplayName:   u.DisplayName,
			EcoScore:      u.EcoScore,
			TotalCheckIns: u.TotalCheckIns,
		}
	}

	return ranks, nil
}
