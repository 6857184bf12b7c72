package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/scoring"
	"github.com/projectseashield/seashield/pkg/db"
)

// ReconcileStore defines the database operations needed to rebuild the counters
type ReconcileStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListCheckIns(ctx context.Context) ([]model.CheckIn, error)
	DeleteCheckIns(ctx context.Context, ids []string) error
	SetUserCounters(ctx context.Context, userID string, ecoScore, totalCheckIns int) error
	SetParticipantCount(ctx context.Context, eventID string, count int) error
}

// UserDrift is a user whose stored counters disagree with their check-ins
type UserDrift struct {
	UserID                string `json:"userId"`
	StoredEcoScore        int    `json:"storedEcoScore"`
	ExpectedEcoScore      int    `json:"expectedEcoScore"`
	StoredTotalCheckIns   int    `json:"storedTotalCheckIns"`
	ExpectedTotalCheckIns int    `json:"expectedTotalCheckIns"`
}

// EventDrift is an event whose stored participant count disagrees with its check-ins
type EventDrift struct {
	EventID       string `json:"eventId"`
	StoredCount   int    `json:"storedCount"`
	ExpectedCount int    `json:"expectedCount"`
}

// ReconcileResult reports the drift found, and whether it was repaired
type ReconcileResult struct {
	Users             []UserDrift  `json:"users"`
	Events            []EventDrift `json:"events"`
	DuplicateCheckIns []string     `json:"duplicateCheckIns"`
	OrphanCheckIns    []string     `json:"orphanCheckIns"`
	Applied           bool         `json:"applied"`
}

// HasDrift reports whether anything disagreed with the check-in records
func (r *ReconcileResult) HasDrift() bool {
	return len(r.Users) > 0 || len(r.Events) > 0 || len(r.DuplicateCheckIns) > 0 || len(r.OrphanCheckIns) > 0
}

// ReconcileCounters recomputes every event's participantCount and every user's
// EcoScore and totalCheckIns from the check-in records. Duplicate check-ins (same
// user and event) and check-ins of deleted events are not counted. With apply set,
// the stored counters are overwritten and the uncounted check-ins deleted.
func ReconcileCounters(ctx context.Context, store ReconcileStore, cfg *config.Config, logger *zap.Logger, session model.Session, apply bool) (*ReconcileResult, error) {
	if err := requireOrganizer(session); err != nil {
		return nil, err
	}

	// Step 1: Load everything
	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	events, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	checkIns, err := store.ListCheckIns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}

	// Step 2: Drop duplicates and orphans
	kept, duplicates := db.DedupeCheckIns(checkIns)

	exists := make(map[string]bool, len(events))
	for _, e := range events {
		exists[e.ID] = true
	}
	kept, orphans := scoring.ExcludeOrphans(kept, exists)

	result := &ReconcileResult{
		Users:             []UserDrift{},
		Events:            []EventDrift{},
		DuplicateCheckIns: checkInIDs(duplicates),
		OrphanCheckIns:    checkInIDs(orphans),
		Applied:           apply,
	}

	// Step 3: Count
	perEvent := make(map[string]int)
	perUser := make(map[string]int)
	for _, c := range kept {
		perEvent[c.EventID]++
		perUser[c.UserID]++
	}

	for _, e := range events {
		if e.ParticipantCount != perEvent[e.ID] {
			result.Events = append(result.Events, EventDrift{
				EventID:       e.ID,
				StoredCount:   e.ParticipantCount,
				ExpectedCount: perEvent[e.ID],
			})
		}
	}

	for _, u := range users {
		count := perUser[u.ID]
		expectedScore := count * cfg.EcoScorePerCheckIn
		if u.EcoScore != expectedScore || u.TotalCheckIns != count {
			result.Users = append(result.Users, UserDrift{
				UserID:                u.ID,
				StoredEcoScore:        u.EcoScore,
				ExpectedEcoScore:      expectedScore,
				StoredTotalCheckIns:   u.TotalCheckIns,
				ExpectedTotalCheckIns: count,
			})
		}
	}

	logger.Info("Reconciliation computed",
		zap.Int("user_drift", len(result.Users)),
		zap.Int("event_drift", len(result.Events)),
		zap.Int("duplicates", len(result.DuplicateCheckIns)),
		zap.Int("orphans", len(result.OrphanCheckIns)),
		zap.Bool("apply", apply))

	if !apply {
		return result, nil
	}

	// Step 4: Repair
	uncounted := append(append([]string{}, result.DuplicateCheckIns...), result.OrphanCheckIns...)
	if len(uncounted) > 0 {
		if err := store.DeleteCheckIns(ctx, uncounted); err != nil {
			return nil, fmt.Errorf("failed to delete uncounted check-ins: %w", err)
		}
	}
	for _, d := range result.Events {
		if err := store.SetParticipantCount(ctx, d.EventID, d.ExpectedCount); err != nil {
			return nil, fmt.Errorf("failed to set participant count for event %s: %w", d.EventID, err)
		}
	}
	for _, d := range result.Users {
		if err := store.SetUserCounters(ctx, d.UserID, d.ExpectedEcoScore, d.ExpectedTotalCheckIns); err != nil {
			return nil, fmt.Errorf("failed to set counters for user %s: %w", d.UserID, err)
		}
	}

	logger.Info("Reconciliation applied")
	return result, nil
}

func checkInIDs(checkIns []model.CheckIn) []string {
	ids := make([]string, len(checkIns))
	for i, c := range checkIns {
		ids[i] = c.ID
	}
	return ids
}
