package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/model"
)

// MaxScheduleWindow bounds how far ahead recurring events can be created in one run
const MaxScheduleWindow = 366 * 24 * time.Hour

// ScheduleStore defines the database operations needed to schedule recurring events
type ScheduleStore interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	InsertEvent(ctx context.Context, event *model.Event) error
}

// ScheduleResult lists the events created and the occurrences that already existed
type ScheduleResult struct {
	Created []model.Event
	Skipped []model.Event
}

// ScheduleRecurringEvents expands each configured recurring event between from and
// until (inclusive) and creates the occurrences that do not exist yet. An occurrence
// exists when an event with the same title is already on that date.
func ScheduleRecurringEvents(ctx context.Context, store ScheduleStore, cfg *config.Config, logger *zap.Logger, session model.Session, from, until time.Time) (*ScheduleResult, error) {
	if err := requireOrganizer(session); err != nil {
		return nil, err
	}
	if !until.After(from) {
		return nil, &ValidationError{Field: "until", Message: "must be after from"}
	}
	if until.Sub(from) > MaxScheduleWindow {
		return nil, &ValidationError{Field: "until", Message: "must be within a year of from"}
	}

	logger.Debug("Scheduling recurring events",
		zap.Int("definitions", len(cfg.RecurringEvents)),
		zap.Time("from", from),
		zap.Time("until", until))

	existing, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	type occurrence struct{ title, date string }
	scheduled := make(map[occurrence]model.Event, len(existing))
	for _, e := range existing {
		scheduled[occurrence{e.Title, e.Date}] = e
	}

	result := &ScheduleResult{}
	for i, recurring := range cfg.RecurringEvents {
		rule, err := rrule.StrToRRule(recurring.RRule)
		if err != nil {
			return result, fmt.Errorf("failed to parse rrule for recurringEvents[%d]: %w", i, err)
		}
		rule.DTStart(from)

		dates := rule.Between(from, until, true)
		logger.Debug("Expanded recurring event",
			zap.String("title", recurring.Title),
			zap.String("rrule", recurring.RRule),
			zap.Int("occurrences", len(dates)))

		for _, date := range dates {
			key := occurrence{recurring.Title, date.Format(model.DateLayout)}
			if e, ok := scheduled[key]; ok {
				result.Skipped = append(result.Skipped, e)
				continue
			}

			event := model.Event{
				ID:             uuid.New().String(),
				Title:          recurring.Title,
				Description:    recurring.Description,
				Location:       recurring.Location,
				Date:           key.date,
				Status:         model.EventStatusActive,
				WasteAvailable: recurring.WasteAvailable,
				CreatedAt:      now().UTC(),
				OrganizerID:    session.UserID,
			}
			if err := store.InsertEvent(ctx, &event); err != nil {
				return result, fmt.Errorf("failed to insert %s on %s: %w", event.Title, event.Date, err)
			}

			scheduled[key] = event
			result.Created = append(result.Created, event)
		}
	}

	logger.Info("Recurring events scheduled",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}
