package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// JoinRequestStore defines the database operations needed for join requests
type JoinRequestStore interface {
	TeamMembershipStore
	InsertJoinRequest(ctx context.Context, req *model.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (*model.JoinRequest, error)
	FindPendingJoinRequest(ctx context.Context, teamID, userID string) (*model.JoinRequest, error)
	ListJoinRequests(ctx context.Context, teamID string, status model.JoinRequestStatus) ([]model.JoinRequest, error)
}

// RequestToJoin files a pending request for the captain to decide.
// A second request while one is pending returns the existing request.
func RequestToJoin(ctx context.Context, store JoinRequestStore, logger *zap.Logger, session model.Session, teamID string) (*model.JoinRequest, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	team, err := getTeam(ctx, store, teamID)
	if err != nil {
		return nil, err
	}
	if team.IsMember(session.UserID) {
		return nil, ErrAlreadyMember
	}
	if _, err := teamlessUser(ctx, store, session.UserID); err != nil {
		return nil, err
	}

	existing, err := store.FindPendingJoinRequest(ctx, teamID, session.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up join request: %w", err)
	}

	req := &model.JoinRequest{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		UserID:    session.UserID,
		Status:    model.JoinRequestPending,
		CreatedAt: now().UTC(),
	}
	if err := store.InsertJoinRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to insert join request: %w", err)
	}

	logger.Info("Join request filed", zap.String("team_id", teamID), zap.String("user_id", session.UserID))
	return req, nil
}

// captainRequest loads a pending request on a team captained by the session's user
func captainRequest(ctx context.Context, store JoinRequestStore, session model.Session, requestID string) (*model.JoinRequest, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	req, err := store.GetJoinRequest(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrJoinRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch join request: %w", err)
	}

	team, err := getTeam(ctx, store, req.TeamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != session.UserID {
		return nil, fmt.Errorf("only the captain can decide join requests: %w", ErrForbidden)
	}
	if req.Status != model.JoinRequestPending {
		return nil, ErrJoinRequestDecided
	}

	return req, nil
}

// decideJoinRequest settles a pending request against the locked team and request rows.
// An approval also adds the requester to the team.
func decideJoinRequest(ctx context.Context, store JoinRequestStore, session model.Session, req *model.JoinRequest, status model.JoinRequestStatus) (*model.Team, error) {
	result, err := changeMembership(ctx, store, db.MembershipChange{
		TeamID:    req.TeamID,
		UserID:    req.UserID,
		RequestID: req.ID,
		Apply: func(team *model.Team, user *model.User, locked *model.JoinRequest) error {
			if team.CaptainID != session.UserID {
				return fmt.Errorf("only the captain can decide join requests: %w", ErrForbidden)
			}
			if locked.Status != model.JoinRequestPending {
				return ErrJoinRequestDecided
			}
			if status == model.JoinRequestApproved {
				if err := addMember(team, user); err != nil {
					return err
				}
			}
			locked.Status = status
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return result.Team, nil
}

// ApproveJoinRequest adds the requester to the team and marks the request approved
// in one write. Capacity and single-team membership are checked at approval time.
func ApproveJoinRequest(ctx context.Context, store JoinRequestStore, logger *zap.Logger, session model.Session, requestID string) (*model.Team, error) {
	req, err := captainRequest(ctx, store, session, requestID)
	if err != nil {
		return nil, err
	}

	team, err := decideJoinRequest(ctx, store, session, req, model.JoinRequestApproved)
	if err != nil {
		return nil, err
	}

	logger.Info("Join request approved", zap.String("request_id", req.ID), zap.String("team_id", team.ID))
	return team, nil
}

// RejectJoinRequest declines a pending request
func RejectJoinRequest(ctx context.Context, store JoinRequestStore, logger *zap.Logger, session model.Session, requestID string) error {
	req, err := captainRequest(ctx, store, session, requestID)
	if err != nil {
		return err
	}

	if _, err := decideJoinRequest(ctx, store, session, req, model.JoinRequestRejected); err != nil {
		return err
	}

	logger.Info("Join request rejected", zap.String("request_id", req.ID))
	return nil
}

// ListJoinRequests returns the team's pending requests; captain only
func ListJoinRequests(ctx context.Context, store JoinRequestStore, session model.Session, teamID string) ([]model.JoinRequest, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	team, err := getTeam(ctx, store, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != session.UserID {
		return nil, fmt.Errorf("only the captain can view join requests: %w", ErrForbidden)
	}

	requests, err := store.ListJoinRequests(ctx, teamID, model.JoinRequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch join requests: %w", err)
	}
	return requests, nil
}
