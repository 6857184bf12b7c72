package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// TeamMembershipStore defines the database operations needed to manage team membership
type TeamMembershipStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)
	InsertTeam(ctx context.Context, team *model.Team) error
	ChangeTeamMembership(ctx context.Context, change db.MembershipChange) (*db.MembershipResult, error)
}

// CreateTeamInput is the form for a new team
type CreateTeamInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Capacity    int    `json:"capacity" validate:"gte=0,lte=1000"`
}

// LeaveResult reports what happened to the team after a member left
type LeaveResult struct {
	Team    *model.Team `json:"team,omitempty"`
	Deleted bool        `json:"deleted"`
}

func getTeam(ctx context.Context, store TeamMembershipStore, teamID string) (*model.Team, error) {
	team, err := store.GetTeam(ctx, teamID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team: %w", err)
	}
	return team, nil
}

// teamlessUser fails with ErrAlreadyMember if the user already belongs to a team
func teamlessUser(ctx context.Context, store TeamMembershipStore, userID string) (*model.User, error) {
	user, err := store.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user.TeamID != "" {
		return nil, ErrAlreadyMember
	}
	return user, nil
}

// CreateTeam creates a team captained by the session's user
func CreateTeam(ctx context.Context, store TeamMembershipStore, cfg *config.Config, logger *zap.Logger, session model.Session, input CreateTeamInput) (*model.Team, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := teamlessUser(ctx, store, session.UserID); err != nil {
		return nil, err
	}

	capacity := input.Capacity
	if capacity == 0 {
		capacity = cfg.TeamCapacity
	}

	team := &model.Team{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		CaptainID:   session.UserID,
		Members:     []string{session.UserID},
		Capacity:    capacity,
		CreatedAt:   now().UTC(),
	}
	err := store.InsertTeam(ctx, team)
	if errors.Is(err, db.ErrConflict) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert team: %w", err)
	}

	logger.Info("Team created", zap.String("team_id", team.ID), zap.String("captain_id", team.CaptainID))
	return team, nil
}

// GetTeam returns a team by ID
func GetTeam(ctx context.Context, store TeamMembershipStore, teamID string) (*model.Team, error) {
	return getTeam(ctx, store, teamID)
}

// ListTeams returns all teams, by name
func ListTeams(ctx context.Context, store TeamMembershipStore) ([]model.Team, error) {
	teams, err := store.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	slices.SortStableFunc(teams, func(a, b model.Team) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return teams, nil
}

// changeMembership runs change against the locked team and user. Errors returned by
// change.Apply pass through untouched; missing rows map to the matching not-found error.
func changeMembership(ctx context.Context, store TeamMembershipStore, change db.MembershipChange) (*db.MembershipResult, error) {
	apply := change.Apply
	var rejected error
	change.Apply = func(team *model.Team, user *model.User, req *model.JoinRequest) error {
		rejected = apply(team, user, req)
		return rejected
	}

	result, err := store.ChangeTeamMembership(ctx, change)
	if rejected != nil {
		return nil, rejected
	}
	switch db.MissingTable(err) {
	case db.TableTeams:
		return nil, ErrTeamNotFound
	case db.TableUsers:
		return nil, ErrUserNotFound
	case db.TableJoinRequests:
		return nil, ErrJoinRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save team membership: %w", err)
	}
	return result, nil
}

// addMember appends the user after checking existing membership and capacity
func addMember(team *model.Team, user *model.User) error {
	if team.IsMember(user.ID) || user.TeamID != "" {
		return ErrAlreadyMember
	}
	if team.IsFull() {
		return ErrTeamFull
	}
	team.Members = append(team.Members, user.ID)
	return nil
}

// JoinTeam adds the session's user to the team directly
func JoinTeam(ctx context.Context, store TeamMembershipStore, logger *zap.Logger, session model.Session, teamID string) (*model.Team, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	result, err := changeMembership(ctx, store, db.MembershipChange{
		TeamID: teamID,
		UserID: session.UserID,
		Apply: func(team *model.Team, user *model.User, _ *model.JoinRequest) error {
			return addMember(team, user)
		},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Joined team", zap.String("team_id", teamID), zap.String("user_id", session.UserID))
	return result.Team, nil
}

// LeaveTeam removes the session's user from the team. A departing captain hands the
// captaincy to the longest-standing remaining member; the last member leaving deletes the team.
func LeaveTeam(ctx context.Context, store TeamMembershipStore, logger *zap.Logger, session model.Session, teamID string) (*LeaveResult, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	var handedOver bool
	result, err := changeMembership(ctx, store, db.MembershipChange{
		TeamID: teamID,
		UserID: session.UserID,
		Apply: func(team *model.Team, user *model.User, _ *model.JoinRequest) error {
			if !team.IsMember(user.ID) {
				return ErrNotMember
			}
			team.Members = slices.DeleteFunc(team.Members, func(id string) bool {
				return id == user.ID
			})
			if team.CaptainID == user.ID && len(team.Members) > 0 {
				team.CaptainID = team.Members[0]
				handedOver = true
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	if result.Deleted {
		logger.Info("Last member left, team deleted", zap.String("team_id", teamID))
		return &LeaveResult{Deleted: true}, nil
	}
	if handedOver {
		logger.Info("Captaincy transferred",
			zap.String("team_id", teamID),
			zap.String("from", session.UserID),
			zap.String("to", result.Team.CaptainID))
	}

	logger.Info("Left team", zap.String("team_id", teamID), zap.String("user_id", session.UserID))
	return &LeaveResult{Team: result.Team}, nil
}
