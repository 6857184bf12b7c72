package pushclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectseashield/seashield/pkg/core/model"
)

type fakeSender struct {
	messages []*messaging.MulticastMessage
	failFor  map[string]bool
	err      error
}

func (f *fakeSender) SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.messages = append(f.messages, message)
	if f.err != nil {
		return nil, f.err
	}

	resp := &messaging.BatchResponse{}
	for _, token := range message.Tokens {
		if f.failFor[token] {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: errors.New("unregistered")})
			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "m-" + token})
	}
	return resp, nil
}

func TestNotify(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"tok-b": true}}
	c := &Client{sender: sender}

	failures := c.Notify(context.Background(),
		model.Notification{EventID: "e1", EventName: "Beach Sweep", Subject: "Thanks", Message: "Great work"},
		[]model.User{
			{ID: "a", PushToken: "tok-a"},
			{ID: "b", PushToken: "tok-b"},
			{ID: "c"},
		})

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, []string{"tok-a", "tok-b"}, msg.Tokens)
	assert.Equal(t, "Thanks", msg.Notification.Title)
	assert.Equal(t, "e1", msg.Data["eventId"])

	assert.Equal(t, []model.DeliveryFailure{{Channel: Channel, RecipientID: "b", Reason: "unregistered"}}, failures)
}

func TestNotify_Batches(t *testing.T) {
	sender := &fakeSender{}
	c := &Client{sender: sender}

	recipients := make([]model.User, MaxTokensPerBatch+1)
	for i := range recipients {
		recipients[i] = model.User{ID: fmt.Sprintf("u%d", i), PushToken: fmt.Sprintf("tok-%d", i)}
	}

	failures := c.Notify(context.Background(), model.Notification{}, recipients)
	assert.Empty(t, failures)
	require.Len(t, sender.messages, 2)
	assert.Len(t, sender.messages[0].Tokens, MaxTokensPerBatch)
	assert.Len(t, sender.messages[1].Tokens, 1)
}

func TestNotify_SendErrorFailsWholeBatch(t *testing.T) {
	c := &Client{sender: &fakeSender{err: assert.AnError}}

	failures := c.Notify(context.Background(), model.Notification{}, []model.User{
		{ID: "a", PushToken: "tok-a"},
		{ID: "b", PushToken: "tok-b"},
	})

	require.Len(t, failures, 2)
	assert.Equal(t, "a", failures[0].RecipientID)
	assert.Equal(t, "b", failures[1].RecipientID)
}

func TestNotify_NoTokens(t *testing.T) {
	sender := &fakeSender{}
	c := &Client{sender: sender}

	failures := c.Notify(context.Background(), model.Notification{}, []model.User{{ID: "a"}})
	assert.Empty(t, failures)
	assert.Empty(t, sender.messages)
}
