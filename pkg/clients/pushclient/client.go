package pushclient

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"github.com/projectseashield/seashield/pkg/core/model"
)

// Channel names this notifier in delivery failures
const Channel = "push"

// MaxTokensPerBatch is the FCM limit on tokens in one multicast
const MaxTokensPerBatch = 500

// sender is the part of *messaging.Client the push client uses
type sender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Client sends broadcast notifications to volunteers' devices through FCM
type Client struct {
	sender sender
}

// NewClient returns a push client backed by the app's messaging client
func NewClient(ctx context.Context, app *firebase.App) (*Client, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &Client{sender: client}, nil
}

// Channel implements services.Notifier
func (c *Client) Channel() string { return Channel }

// Notify multicasts the broadcast to every recipient with a registered device token.
// Recipients without a token have not enabled push and are not failures.
func (c *Client) Notify(ctx context.Context, notification model.Notification, recipients []model.User) []model.DeliveryFailure {
	var tokens, owners []string
	for _, r := range recipients {
		if r.PushToken == "" {
			continue
		}
		tokens = append(tokens, r.PushToken)
		owners = append(owners, r.ID)
	}

	var failures []model.DeliveryFailure
	for start := 0; start < len(tokens); start += MaxTokensPerBatch {
		end := min(start+MaxTokensPerBatch, len(tokens))
		failures = append(failures, c.sendBatch(ctx, notification, tokens[start:end], owners[start:end])...)
	}
	return failures
}

func (c *Client) sendBatch(ctx context.Context, n model.Notification, tokens, owners []string) []model.DeliveryFailure {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Subject,
			Body:  n.Message,
		},
		Data: map[string]string{
			"type":      "broadcast",
			"eventId":   n.EventID,
			"eventName": n.EventName,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	resp, err := c.sender.SendEachForMulticast(ctx, message)
	if err != nil {
		failures := make([]model.DeliveryFailure, len(owners))
		for i, id := range owners {
			failures[i] = model.DeliveryFailure{Channel: Channel, RecipientID: id, Reason: err.Error()}
		}
		return failures
	}

	var failures []model.DeliveryFailure
	for i, r := range resp.Responses {
		if r.Success || i >= len(owners) {
			continue
		}
		reason := "unknown error"
		if r.Error != nil {
			reason = r.Error.Error()
		}
		failures = append(failures, model.DeliveryFailure{Channel: Channel, RecipientID: owners[i], Reason: reason})
	}
	return failures
}
