package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

const checkInColumns = `id, user_id, event_id, user_name, user_email, waste_collected, checked_in_at, proof_photo,
	feedback_rating, feedback_text, feedback_recommend, feedback_submitted_at, assigned_team, team_assigned`

func scanCheckIn(row scanner) (*model.CheckIn, error) {
	var c model.CheckIn
	var proofPhoto, feedbackText, assignedTeam *string
	var rating *int
	var recommend *bool
	var submittedAt *time.Time
	if err := row.Scan(&c.ID, &c.UserID, &c.EventID, &c.UserName, &c.UserEmail, &c.WasteCollected, &c.Timestamp, &proofPhoto,
		&rating, &feedbackText, &recommend, &submittedAt, &assignedTeam, &c.TeamAssigned); err != nil {
		return nil, err
	}
	c.ProofPhoto = derefString(proofPhoto)
	c.AssignedTeam = derefString(assignedTeam)
	if rating != nil {
		c.Feedback = &model.Feedback{
			Rating: *rating,
			Text:   derefString(feedbackText),
		}
		if recommend != nil {
			c.Feedback.Recommend = *recommend
		}
		if submittedAt != nil {
			c.Feedback.SubmittedAt = *submittedAt
		}
	}
	return &c, nil
}

func (d *DB) queryCheckIns(ctx context.Context, where string, args ...any) ([]model.CheckIn, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+checkInColumns+` FROM checkins `+where+` ORDER BY checked_in_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []model.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkIns = append(checkIns, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}

	return checkIns, nil
}

// RegisterCheckIn records a check-in in a single transaction. The event row is locked
// so concurrent check-ins to the same event see each other's participant counts.
func (d *DB) RegisterCheckIn(ctx context.Context, p db.RegisterCheckInParams) (*model.CheckIn, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var wasteAvailable float64
	err = tx.QueryRow(ctx, `SELECT waste_available FROM events WHERE id = $1 FOR UPDATE`, p.EventID).Scan(&wasteAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &db.NotFoundError{Table: db.TableEvents, ID: p.EventID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock event %s: %w", p.EventID, err)
	}

	var existing int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM checkins WHERE user_id = $1 AND event_id = $2`, p.UserID, p.EventID).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing check-in: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("user %s already checked in to %s: %w", p.UserID, p.EventID, db.ErrDuplicate)
	}

	var participants int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM checkins WHERE event_id = $1`, p.EventID).Scan(&participants)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	checkIn := &model.CheckIn{
		ID:             p.CheckInID,
		UserID:         p.UserID,
		EventID:        p.EventID,
		UserName:       p.UserName,
		UserEmail:      p.UserEmail,
		WasteCollected: p.Allocate(wasteAvailable, participants+1),
		Timestamp:      p.Timestamp,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO checkins (id, user_id, event_id, user_name, user_email, waste_collected, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, checkIn.ID, checkIn.UserID, checkIn.EventID, checkIn.UserName, checkIn.UserEmail, checkIn.WasteCollected, checkIn.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert check-in: %w", translateError(err))
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users SET eco_score = eco_score + $2, total_check_ins = total_check_ins + 1 WHERE id = $1
	`, p.UserID, p.EcoScoreDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to update user counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &db.NotFoundError{Table: db.TableUsers, ID: p.UserID}
	}

	if _, err := tx.Exec(ctx, `UPDATE events SET participant_count = participant_count + 1 WHERE id = $1`, p.EventID); err != nil {
		return nil, fmt.Errorf("failed to update participant count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit check-in: %w", translateError(err))
	}

	return checkIn, nil
}

// GetCheckIn retrieves a check-in by ID
func (d *DB) GetCheckIn(ctx context.Context, id string) (*model.CheckIn, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+checkInColumns+` FROM checkins WHERE id = $1`, id)
	c, err := scanCheckIn(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in %s: %w", id, translateError(err))
	}
	return c, nil
}

// FindCheckIn retrieves the check-in of a user at an event
func (d *DB) FindCheckIn(ctx context.Context, userID, eventID string) (*model.CheckIn, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+checkInColumns+` FROM checkins WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	c, err := scanCheckIn(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find check-in: %w", translateError(err))
	}
	return c, nil
}

// ListCheckIns retrieves every check-in in check-in order
func (d *DB) ListCheckIns(ctx context.Context) ([]model.CheckIn, error) {
	return d.queryCheckIns(ctx, "")
}

// ListCheckInsByUser retrieves a user's check-ins in check-in order
func (d *DB) ListCheckInsByUser(ctx context.Context, userID string) ([]model.CheckIn, error) {
	return d.queryCheckIns(ctx, "WHERE user_id = $1", userID)
}

// ListCheckInsByEvent retrieves an event's check-ins in check-in order
func (d *DB) ListCheckInsByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error) {
	return d.queryCheckIns(ctx, "WHERE event_id = $1", eventID)
}

// DeleteCheckIns deletes the given check-ins without touching any counters
func (d *DB) DeleteCheckIns(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := d.pool.Exec(ctx, `DELETE FROM checkins WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete check-ins: %w", err)
	}
	return nil
}

func (d *DB) updateCheckIn(ctx context.Context, id, set string, args ...any) error {
	tag, err := d.pool.Exec(ctx, `UPDATE checkins SET `+set+` WHERE id = $1`, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update check-in %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update check-in %s: %w", id, db.ErrNotFound)
	}
	return nil
}

// UpdateCheckInWaste overrides the waste credited to a check-in
func (d *DB) UpdateCheckInWaste(ctx context.Context, id string, waste float64) error {
	return d.updateCheckIn(ctx, id, "waste_collected = $2", waste)
}

// UpdateCheckInPhoto sets the proof photo URL of a check-in
func (d *DB) UpdateCheckInPhoto(ctx context.Context, id string, photoURL string) error {
	return d.updateCheckIn(ctx, id, "proof_photo = $2", nullString(photoURL))
}

// UpdateCheckInFeedback stores the volunteer's feedback on a check-in
func (d *DB) UpdateCheckInFeedback(ctx context.Context, id string, feedback *model.Feedback) error {
	return d.updateCheckIn(ctx, id,
		"feedback_rating = $2, feedback_text = $3, feedback_recommend = $4, feedback_submitted_at = $5",
		feedback.Rating, nullString(feedback.Text), feedback.Recommend, feedback.SubmittedAt)
}

// AssignCheckInTeams sets the assigned team of each check-in in one transaction
func (d *DB) AssignCheckInTeams(ctx context.Context, assignments map[string]string) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for checkInID, team := range assignments {
		tag, err := tx.Exec(ctx, `
			UPDATE checkins SET assigned_team = $2, team_assigned = $3 WHERE id = $1
		`, checkInID, nullString(team), team != "")
		if err != nil {
			return fmt.Errorf("failed to assign team to check-in %s: %w", checkInID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("failed to assign team to check-in %s: %w", checkInID, db.ErrNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
