package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/allocator"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// TeamAssignmentStore defines the database operations needed to assign check-ins to teams
type TeamAssignmentStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetCheckIn(ctx context.Context, id string) (*model.CheckIn, error)
	ListCheckInsByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error)
	AssignCheckInTeams(ctx context.Context, assignments map[string]string) error
}

// AssignTeamInput names the team a check-in is placed on
type AssignTeamInput struct {
	Team string `json:"team" validate:"required,max=100"`
}

// AssignTeam places one check-in on a named team for the event leaderboard
func AssignTeam(ctx context.Context, store TeamAssignmentStore, logger *zap.Logger, session model.Session, checkInID string, input AssignTeamInput) (*model.CheckIn, error) {
	if err := requireOrganizer(session); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	checkIn, err := store.GetCheckIn(ctx, checkInID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-in: %w", err)
	}

	if _, err := ownedEvent(ctx, store, session, checkIn.EventID); err != nil {
		return nil, err
	}

	if err := store.AssignCheckInTeams(ctx, map[string]string{checkIn.ID: input.Team}); err != nil {
		return nil, fmt.Errorf("failed to assign team: %w", err)
	}

	logger.Info("Check-in assigned to team",
		zap.String("check_in_id", checkIn.ID),
		zap.String("event_id", checkIn.EventID),
		zap.String("team", input.Team))

	checkIn.AssignedTeam = input.Team
	checkIn.TeamAssigned = true
	return checkIn, nil
}

// AutoAssignTeams splits the event's unassigned check-ins into teams of teamSize in
// check-in order. teamSize <= 0 uses the configured default.
// Returns checkInID -> team for the check-ins that were assigned.
func AutoAssignTeams(ctx context.Context, store TeamAssignmentStore, cfg *config.Config, logger *zap.Logger, session model.Session, eventID string, teamSize int) (map[string]string, error) {
	if _, err := ownedEvent(ctx, store, session, eventID); err != nil {
		return nil, err
	}
	if teamSize <= 0 {
		teamSize = cfg.AutoAssignTeamSize
	}

	checkIns, err := store.ListCheckInsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}

	assignments, err := allocator.AssignTeams(checkIns, teamSize)
	if err != nil {
		return nil, &ValidationError{Field: "teamSize", Message: err.Error()}
	}

	if len(assignments) == 0 {
		logger.Debug("No check-ins to assign", zap.String("event_id", eventID))
		return assignments, nil
	}

	if err := store.AssignCheckInTeams(ctx, assignments); err != nil {
		return nil, fmt.Errorf("failed to assign teams: %w", err)
	}

	logger.Info("Teams auto-assigned",
		zap.String("event_id", eventID),
		zap.Int("team_size", teamSize),
		zap.Int("assigned", len(assignments)))

	return assignments, nil
}
