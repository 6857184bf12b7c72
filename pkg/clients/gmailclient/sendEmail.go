package gmailclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/projectseashield/seashield/pkg/core/model"
)

// EmailInterval is the minimum gap between two sends, to stay under Gmail's rate limits
const EmailInterval = 3 * time.Second

// Channel names this notifier in delivery failures
const Channel = "email"

// SendEmail sends a plain-text email. Sends are serialized and spaced by the client's interval.
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	if !c.lastSendTime.IsZero() {
		if wait := c.interval - time.Since(c.lastSendTime); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	raw := buildMessage(c.sender, to, subject, body)
	gmailMessage := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	if _, err := c.service.Users.Messages.Send(c.userID, gmailMessage).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.lastSendTime = time.Now()
	return nil
}

// buildMessage renders an RFC 5322 message; non-ASCII subjects are Q-encoded
func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// emailBody is the text sent for a broadcast notification
func emailBody(n model.Notification) string {
	return fmt.Sprintf("%s\n\n-- \n%s, organizer of %s (%s)\nSent via Project Seashield\n",
		n.Message, n.OrganizerName, n.EventName, n.EventID)
}

// Channel implements services.Notifier
func (c *Client) Channel() string { return Channel }

// Notify emails the broadcast to each recipient with an address
func (c *Client) Notify(ctx context.Context, notification model.Notification, recipients []model.User) []model.DeliveryFailure {
	var failures []model.DeliveryFailure
	subject := fmt.Sprintf("[%s] %s", notification.EventName, notification.Subject)
	body := emailBody(notification)

	for _, r := range recipients {
		if r.Email == "" {
			failures = append(failures, model.DeliveryFailure{Channel: Channel, RecipientID: r.ID, Reason: "no email address"})
			continue
		}
		if err := c.SendEmail(ctx, r.Email, subject, body); err != nil {
			failures = append(failures, model.DeliveryFailure{Channel: Channel, RecipientID: r.ID, Reason: err.Error()})
		}
	}

	return failures
}
