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

// Notifier delivers a broadcast outside the app (e-mail, push).
// The notification carries the broadcast content; RecipientID is unset.
// It returns the recipients it failed to reach.
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, notification model.Notification, recipients []model.User) []model.DeliveryFailure
}

// NotificationStore defines the database operations needed for notifications
type NotificationStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListCheckInsByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error)
	InsertNotifications(ctx context.Context, notifications []model.Notification) error
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
}

// BroadcastInput is the organizer's message form
type BroadcastInput struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// BroadcastResult reports a broadcast's stored notifications and delivery failures
type BroadcastResult struct {
	Recipients       int                     `json:"recipients"`
	Notifications    []model.Notification    `json:"notifications"`
	DeliveryFailures []model.DeliveryFailure `json:"deliveryFailures"`
}

// BroadcastMessage stores one notification per distinct participant of the event,
// then hands the broadcast to each notifier. Delivery is best effort: failures are
// logged and returned, never retried, and do not undo the stored notifications.
func BroadcastMessage(ctx context.Context, store NotificationStore, notifiers []Notifier, logger *zap.Logger, session model.Session, eventID string, input BroadcastInput) (*BroadcastResult, error) {
	event, err := ownedEvent(ctx, store, session, eventID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	organizer, err := store.GetUser(ctx, session.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizer: %w", err)
	}

	// Step 1: Derive recipients from the event's check-ins
	checkIns, err := store.ListCheckInsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}

	seen := make(map[string]bool, len(checkIns))
	var recipientIDs []string
	for _, c := range checkIns {
		if seen[c.UserID] {
			continue
		}
		seen[c.UserID] = true
		recipientIDs = append(recipientIDs, c.UserID)
	}
	if len(recipientIDs) == 0 {
		return nil, ErrNoParticipants
	}

	// Step 2: Store the notifications in one batch
	template := model.Notification{
		EventID:       event.ID,
		EventName:     event.Title,
		OrganizerID:   organizer.ID,
		OrganizerName: organizer.DisplayName,
		Subject:       input.Subject,
		Message:       input.Message,
		CreatedAt:     now().UTC(),
	}

	notifications := make([]model.Notification, len(recipientIDs))
	for i, id := range recipientIDs {
		n := template
		n.ID = uuid.NewString()
		n.RecipientID = id
		notifications[i] = n
	}
	if err := store.InsertNotifications(ctx, notifications); err != nil {
		return nil, fmt.Errorf("failed to insert notifications: %w", err)
	}

	logger.Info("Broadcast stored",
		zap.String("event_id", eventID),
		zap.Int("recipients", len(recipientIDs)))

	result := &BroadcastResult{
		Recipients:       len(recipientIDs),
		Notifications:    notifications,
		DeliveryFailures: []model.DeliveryFailure{},
	}

	if len(notifiers) == 0 {
		return result, nil
	}

	// Step 3: Deliver outside the app
	var recipients []model.User
	for _, id := range recipientIDs {
		user, err := store.GetUser(ctx, id)
		if err != nil {
			logger.Warn("Skipping delivery to unknown recipient", zap.String("user_id", id), zap.Error(err))
			result.DeliveryFailures = append(result.DeliveryFailures, model.DeliveryFailure{
				Channel:     "all",
				RecipientID: id,
				Reason:      err.Error(),
			})
			continue
		}
		recipients = append(recipients, *user)
	}

	for _, notifier := range notifiers {
		failures := notifier.Notify(ctx, template, recipients)
		for _, f := range failures {
			logger.Warn("Delivery failed",
				zap.String("channel", f.Channel),
				zap.String("user_id", f.RecipientID),
				zap.String("reason", f.Reason))
		}
		result.DeliveryFailures = append(result.DeliveryFailures, failures...)
	}

	return result, nil
}

// ListNotifications returns the session user's notifications, newest first
func ListNotifications(ctx context.Context, store NotificationStore, session model.Session) ([]model.Notification, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	notifications, err := store.ListNotifications(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}

func ownedNotification(ctx context.Context, store NotificationStore, session model.Session, id string) (*model.Notification, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	n, err := store.GetNotification(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}
	if n.RecipientID != session.UserID {
		return nil, fmt.Errorf("notification belongs to another user: %w", ErrForbidden)
	}
	return n, nil
}

// MarkNotificationRead flags one of the session user's notifications as read
func MarkNotificationRead(ctx context.Context, store NotificationStore, session model.Session, id string) (*model.Notification, error) {
	n, err := ownedNotification(ctx, store, session, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}

	if err := store.MarkNotificationRead(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.Read = true
	return n, nil
}

// DeleteNotification removes one of the session user's notifications
func DeleteNotification(ctx context.Context, store NotificationStore, logger *zap.Logger, session model.Session, id string) error {
	if _, err := ownedNotification(ctx, store, session, id); err != nil {
		return err
	}

	if err := store.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	logger.Debug("Notification deleted", zap.String("notification_id", id), zap.String("user_id", session.UserID))
	return nil
}
