package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/scoring"
	"github.com/projectseashield/seashield/pkg/db"
)

// ProfileStore defines the database operations needed to build a volunteer profile
type ProfileStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListCheckInsByUser(ctx context.Context, userID string) ([]model.CheckIn, error)
	DeleteCheckIns(ctx context.Context, ids []string) error
}

// ProfileCheckIn pairs a check-in with the event it belongs to
type ProfileCheckIn struct {
	CheckIn model.CheckIn `json:"checkIn"`
	Event   model.Event   `json:"event"`
}

// Profile is a volunteer's dashboard, recomputed from their check-in history
type Profile struct {
	User           *model.User             `json:"user"`
	Summary        scoring.Summary         `json:"summary"`
	BadgeProgress  []scoring.BadgeProgress `json:"badgeProgress"`
	CheckIns       []ProfileCheckIn        `json:"checkIns"`
	OrphansRemoved int                     `json:"orphansRemoved"`
}

// ViewProfile aggregates the user's check-ins into totals, streak and badges.
// Check-ins whose event no longer exists are excluded and deleted.
func ViewProfile(ctx context.Context, store ProfileStore, logger *zap.Logger, session model.Session, userID string) (*Profile, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}
	if userID == "" {
		userID = session.UserID
	}

	user, err := store.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	checkIns, err := store.ListCheckInsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	eventsByID := make(map[string]model.Event, len(events))
	exists := make(map[string]bool, len(events))
	for _, e := range events {
		eventsByID[e.ID] = e
		exists[e.ID] = true
	}

	kept, orphans := scoring.ExcludeOrphans(checkIns, exists)
	if len(orphans) > 0 {
		ids := make([]string, len(orphans))
		for i, o := range orphans {
			ids[i] = o.ID
		}
		// Cleanup failure does not affect the profile; the orphans are already excluded
		if err := store.DeleteCheckIns(ctx, ids); err != nil {
			logger.Warn("Failed to delete orphaned check-ins", zap.String("user_id", userID), zap.Error(err))
		} else {
			logger.Info("Deleted orphaned check-ins", zap.String("user_id", userID), zap.Int("count", len(ids)))
		}
	}

	summary := scoring.Aggregate(kept)

	profileCheckIns := make([]ProfileCheckIn, len(kept))
	for i, c := range kept {
		profileCheckIns[i] = ProfileCheckIn{CheckIn: c, Event: eventsByID[c.EventID]}
	}

	logger.Debug("Profile computed",
		zap.String("user_id", userID),
		zap.Int("check_ins", summary.CheckInCount),
		zap.Float64("total_waste", summary.TotalWaste),
		zap.Int("streak", summary.Streak),
		zap.Strings("badges", summary.Badges))

	return &Profile{
		User:           user,
		Summary:        summary,
		BadgeProgress:  scoring.Progress(summary),
		CheckIns:       profileCheckIns,
		OrphansRemoved: len(orphans),
	}, nil
}
