package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/allocator"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// checkInNamespace seeds the deterministic check-in IDs
var checkInNamespace = uuid.MustParse("6f1b7c1e-4c1a-5d7e-9a3f-2f0d8f6c5b41")

// now is replaced in tests
var now = time.Now

// CheckInID derives the check-in ID from the (user, event) pair so that a retried
// check-in maps to the same record
func CheckInID(userID, eventID string) string {
	return uuid.NewSHA1(checkInNamespace, []byte(userID+"|"+eventID)).String()
}

// CheckInResult is the outcome of a successful check-in
type CheckInResult struct {
	CheckIn        *model.CheckIn
	Event          *model.Event
	WasteCollected float64
	EcoScoreDelta  int
}

// CheckInStore defines the database operations needed to check in
type CheckInStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindCheckIn(ctx context.Context, userID, eventID string) (*model.CheckIn, error)
	RegisterCheckIn(ctx context.Context, params db.RegisterCheckInParams) (*model.CheckIn, error)
}

// CheckIn registers the session's user at an event.
// The user's share of the event's waste is computed from the participant count
// including them. Fails with ErrEventNotFound, ErrEventCancelled or ErrDuplicateCheckIn.
func CheckIn(ctx context.Context, store CheckInStore, cfg *config.Config, logger *zap.Logger, session model.Session, eventID string) (*CheckInResult, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, &ValidationError{Field: "eventId", Message: "is required"}
	}

	logger.Debug("Checking in", zap.String("user_id", session.UserID), zap.String("event_id", eventID))

	// Step 1: Resolve the event
	event, err := store.GetEvent(ctx, eventID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	if event.Status == model.EventStatusCancelled {
		return nil, ErrEventCancelled
	}

	// Step 2: Reject duplicates before doing any work
	_, err = store.FindCheckIn(ctx, session.UserID, eventID)
	if err == nil {
		return nil, ErrDuplicateCheckIn
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing check-in: %w", err)
	}

	// Step 3: Snapshot the volunteer's name and email
	user, err := store.GetUser(ctx, session.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	// Step 4: Allocate, persist and update counters atomically
	checkIn, err := store.RegisterCheckIn(ctx, db.RegisterCheckInParams{
		CheckInID:     CheckInID(session.UserID, eventID),
		UserID:        session.UserID,
		EventID:       eventID,
		UserName:      user.DisplayName,
		UserEmail:     user.Email,
		Timestamp:     now().UTC(),
		EcoScoreDelta: cfg.EcoScorePerCheckIn,
		Allocate:      allocator.Allocate,
	})
	switch {
	case errors.Is(err, db.ErrDuplicate):
		return nil, ErrDuplicateCheckIn
	case db.MissingTable(err) == db.TableUsers:
		return nil, ErrUserNotFound
	case errors.Is(err, db.ErrNotFound):
		return nil, ErrEventNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to register check-in: %w", err)
	}

	logger.Info("Checked in",
		zap.String("user_id", session.UserID),
		zap.String("event_id", eventID),
		zap.String("check_in_id", checkIn.ID),
		zap.Float64("waste_collected", checkIn.WasteCollected))

	return &CheckInResult{
		CheckIn:        checkIn,
		Event:          event,
		WasteCollected: checkIn.WasteCollected,
		EcoScoreDelta:  cfg.EcoScorePerCheckIn,
	}, nil
}
