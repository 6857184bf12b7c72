package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// CreateEventInput holds the fields an organizer fills in for a new event
type CreateEventInput struct {
	Title          string  `json:"title" validate:"required,max=200"`
	Description    string  `json:"description" validate:"max=5000"`
	Location       string  `json:"location" validate:"required,max=500"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	WasteAvailable float64 `json:"wasteAvailable" validate:"gte=0"`
}

// EventFilter narrows ListEvents. Zero values match everything.
type EventFilter struct {
	Status      model.EventStatus
	OrganizerID string
	FromDate    string // inclusive, YYYY-MM-DD
}

func (f EventFilter) matches(e model.Event) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.OrganizerID != "" && e.OrganizerID != f.OrganizerID {
		return false
	}
	// YYYY-MM-DD strings order the same as the dates
	if f.FromDate != "" && e.Date < f.FromDate {
		return false
	}
	return true
}

// EventReader defines the database operations needed to read events
type EventReader interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
}

// EventWriter defines the database operations needed to manage events
type EventWriter interface {
	EventReader
	InsertEvent(ctx context.Context, event *model.Event) error
	UpdateEventStatus(ctx context.Context, id string, status model.EventStatus) error
	DeleteEventCascade(ctx context.Context, eventID string, ecoScorePerCheckIn int) (*db.DeleteEventResult, error)
}

// CreateEvent creates an active event owned by the session's organizer
func CreateEvent(ctx context.Context, store EventWriter, logger *zap.Logger, session model.Session, input CreateEventInput) (*model.Event, error) {
	if err := requireOrganizer(session); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !isFinite(input.WasteAvailable) {
		return nil, &ValidationError{Field: "wasteAvailable", Message: "must be a number"}
	}

	event := &model.Event{
		ID:             uuid.New().String(),
		Title:          input.Title,
		Description:    input.Description,
		Location:       input.Location,
		Date:           input.Date,
		Status:         model.EventStatusActive,
		WasteAvailable: input.WasteAvailable,
		CreatedAt:      now().UTC(),
		OrganizerID:    session.UserID,
	}

	if err := store.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	logger.Info("Event created",
		zap.String("event_id", event.ID),
		zap.String("title", event.Title),
		zap.String("date", event.Date),
		zap.Float64("waste_available", event.WasteAvailable))

	return event, nil
}

// GetEvent fetches one event
func GetEvent(ctx context.Context, store EventReader, eventID string) (*model.Event, error) {
	event, err := store.GetEvent(ctx, eventID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return event, nil
}

// ListEvents returns the events matching filter, soonest date first
func ListEvents(ctx context.Context, store EventReader, filter EventFilter) ([]model.Event, error) {
	events, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]model.Event, 0, len(events))
	for _, e := range events {
		if filter.matches(e) {
			result = append(result, e)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// ownedEvent loads an event and verifies the session's organizer created it
func ownedEvent(ctx context.Context, store EventReader, session model.Session, eventID string) (*model.Event, error) {
	if err := requireOrganizer(session); err != nil {
		return nil, err
	}

	event, err := GetEvent(ctx, store, eventID)
	if err != nil {
		return nil, err
	}

	if event.OrganizerID != session.UserID {
		return nil, fmt.Errorf("event belongs to another organizer: %w", ErrForbidden)
	}

	return event, nil
}

// CancelEvent marks an event cancelled. Existing check-ins are kept; new ones are refused.
func CancelEvent(ctx context.Context, store EventWriter, logger *zap.Logger, session model.Session, eventID string) (*model.Event, error) {
	event, err := ownedEvent(ctx, store, session, eventID)
	if err != nil {
		return nil, err
	}

	if event.Status == model.EventStatusCancelled {
		logger.Debug("Event already cancelled", zap.String("event_id", eventID))
		return event, nil
	}

	if err := store.UpdateEventStatus(ctx, eventID, model.EventStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}

	logger.Info("Event cancelled", zap.String("event_id", eventID), zap.String("title", event.Title))

	event.Status = model.EventStatusCancelled
	return event, nil
}

// DeleteEvent deletes an event with its check-ins and notifications, taking back the
// EcoScore and check-in count each participant earned from it
func DeleteEvent(ctx context.Context, store EventWriter, cfg *config.Config, logger *zap.Logger, session model.Session, eventID string) (*db.DeleteEventResult, error) {
	event, err := ownedEvent(ctx, store, session, eventID)
	if err != nil {
		return nil, err
	}

	result, err := store.DeleteEventCascade(ctx, eventID, cfg.EcoScorePerCheckIn)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}

	logger.Info("Event deleted",
		zap.String("event_id", eventID),
		zap.String("title", event.Title),
		zap.Int("check_ins_removed", result.DeletedCheckIns),
		zap.Int("notifications_removed", result.DeletedNotifications),
		zap.Int("users_affected", len(result.AffectedUsers)))

	return result, nil
}
