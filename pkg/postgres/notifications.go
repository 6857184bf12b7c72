package postgres

import (
	"context"
	"fmt"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

const notificationColumns = `id, recipient_id, event_id, event_name, organizer_id, organizer_name, subject, message, created_at, read`

func scanNotification(row scanner) (*model.Notification, error) {
	var n model.Notification
	if err := row.Scan(&n.ID, &n.RecipientID, &n.EventID, &n.EventName, &n.OrganizerID, &n.OrganizerName,
		&n.Subject, &n.Message, &n.CreatedAt, &n.Read); err != nil {
		return nil, err
	}
	return &n, nil
}

// InsertNotifications inserts multiple notification records in a batch
func (d *DB) InsertNotifications(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, n := range notifications {
		_, err := tx.Exec(ctx, `
			INSERT INTO notifications (id, recipient_id, event_id, event_name, organizer_id, organizer_name, subject, message, created_at, read)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, n.ID, n.RecipientID, n.EventID, n.EventName, n.OrganizerID, n.OrganizerName, n.Subject, n.Message, n.CreatedAt, n.Read)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetNotification retrieves a notification by ID
func (d *DB) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification %s: %w", id, translateError(err))
	}
	return n, nil
}

// ListNotifications retrieves a recipient's notifications, newest first
func (d *DB) ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id
	`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead sets the read flag of a notification
func (d *DB) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark notification %s read: %w", id, db.ErrNotFound)
	}
	return nil
}

// DeleteNotification deletes a notification
func (d *DB) DeleteNotification(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete notification %s: %w", id, db.ErrNotFound)
	}
	return nil
}
