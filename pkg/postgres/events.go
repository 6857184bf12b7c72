package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

const eventColumns = `id, title, description, location, date, status, waste_available, participant_count, created_at, organizer_id`

func scanEvent(row scanner) (*model.Event, error) {
	var e model.Event
	var date time.Time
	var status string
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &date, &status, &e.WasteAvailable, &e.ParticipantCount, &e.CreatedAt, &e.OrganizerID); err != nil {
		return nil, err
	}
	e.Date = date.Format(model.DateLayout)
	e.Status = model.EventStatus(status)
	return &e, nil
}

// GetEvent retrieves an event by ID
func (d *DB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, translateError(err))
	}
	return e, nil
}

// ListEvents retrieves all events, most recent date first
func (d *DB) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// InsertEvent inserts a new event record
func (d *DB) InsertEvent(ctx context.Context, event *model.Event) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO events (id, title, description, location, date, status, waste_available, participant_count, created_at, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, event.ID, event.Title, event.Description, event.Location, event.Date, string(event.Status),
		event.WasteAvailable, event.ParticipantCount, event.CreatedAt, event.OrganizerID)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", translateError(err))
	}
	return nil
}

// UpdateEventStatus sets the status of an event
func (d *DB) UpdateEventStatus(ctx context.Context, id string, status model.EventStatus) error {
	tag, err := d.pool.Exec(ctx, `UPDATE events SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update event %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// SetParticipantCount overwrites the advisory participant counter of an event
func (d *DB) SetParticipantCount(ctx context.Context, eventID string, count int) error {
	tag, err := d.pool.Exec(ctx, `UPDATE events SET participant_count = $2 WHERE id = $1`, eventID, count)
	if err != nil {
		return fmt.Errorf("failed to set participant count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set participant count for %s: %w", eventID, db.ErrNotFound)
	}
	return nil
}

// DeleteEventCascade deletes an event together with its check-ins and notifications
// in one transaction. Each affected user loses ecoScorePerCheckIn points and one
// check-in per deleted check-in; counters never go below zero.
func (d *DB) DeleteEventCascade(ctx context.Context, eventID string, ecoScorePerCheckIn int) (*db.DeleteEventResult, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&lockedID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event %s: %w", eventID, translateError(err))
	}

	rows, err := tx.Query(ctx, `
		SELECT user_id, COUNT(*) FROM checkins WHERE event_id = $1 GROUP BY user_id ORDER BY user_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event check-ins: %w", err)
	}
	counts := make(map[string]int)
	var users []string
	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan check-in count: %w", err)
		}
		counts[userID] = count
		users = append(users, userID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-in counts: %w", err)
	}

	result := &db.DeleteEventResult{AffectedUsers: users}

	for _, userID := range users {
		n := counts[userID]
		_, err := tx.Exec(ctx, `
			UPDATE users
			SET eco_score = GREATEST(eco_score - $2, 0),
			    total_check_ins = GREATEST(total_check_ins - $3, 0)
			WHERE id = $1
		`, userID, ecoScorePerCheckIn*n, n)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement counters for %s: %w", userID, err)
		}
		result.DeletedCheckIns += n
	}

	if _, err := tx.Exec(ctx, `DELETE FROM checkins WHERE event_id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("failed to delete check-ins: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM notifications WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete notifications: %w", err)
	}
	result.DeletedNotifications = int(tag.RowsAffected())

	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}
