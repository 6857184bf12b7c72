package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
	"github.com/projectseashield/seashield/pkg/db/memstore"
)

// fakeVerifier accepts any token and treats it as the user's UID, except "bad"
type fakeVerifier struct{}

func (fakeVerifier) Verify(ctx context.Context, token string) (services.Identity, error) {
	if token == "bad" {
		return services.Identity{}, errors.New("token expired")
	}
	return services.Identity{UID: token, DisplayName: strings.ToUpper(token[:1]) + token[1:], Email: token + "@example.com"}, nil
}

type recordingNotifier struct {
	recipients []string
}

func (n *recordingNotifier) Channel() string { return "test" }

func (n *recordingNotifier) Notify(ctx context.Context, notification model.Notification, recipients []model.User) []model.DeliveryFailure {
	var failures []model.DeliveryFailure
	for _, u := range recipients {
		n.recipients = append(n.recipients, u.ID)
		if u.ID == "bob" {
			failures = append(failures, model.DeliveryFailure{Channel: n.Channel(), RecipientID: u.ID, Reason: "unreachable"})
		}
	}
	return failures
}

type testServer struct {
	store    *memstore.Store
	notifier *recordingNotifier
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memstore.New()
	store.PutUser(model.User{ID: "org", DisplayName: "Olive Organizer", Email: "olive@example.com", UserType: model.UserTypeOrganizer})
	store.PutUser(model.User{ID: "alice", DisplayName: "Alice", Email: "alice@example.com", UserType: model.UserTypeVolunteer})
	store.PutUser(model.User{ID: "bob", DisplayName: "Bob", Email: "bob@example.com", UserType: model.UserTypeVolunteer})
	store.PutEvent(model.Event{
		ID:             "e1",
		Title:          "Beach Sweep",
		Location:       "North Shore",
		Date:           "2025-06-08",
		Status:         model.EventStatusActive,
		WasteAvailable: 80,
		OrganizerID:    "org",
	})

	notifier := &recordingNotifier{}
	server := NewServer(Deps{
		Store: store,
		Config: &config.Config{
			DatabaseURL:        "postgres://localhost/seashield_test",
			EcoScorePerCheckIn: 10,
			TeamCapacity:       3,
			AutoAssignTeamSize: 2,
		},
		Logger:    zap.NewNop(),
		Verifier:  fakeVerifier{},
		Notifiers: []services.Notifier{notifier},
	})

	return &testServer{store: store, notifier: notifier, handler: server.Router()}
}

// do sends a request as the given user ("" for no Authorization header)
func (ts *testServer) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"rejected token", "Bearer bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body ErrorResponse
			decodeBody(t, rec, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestFirstRequestRegistersVolunteer(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/me", "dana", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var user model.User
	decodeBody(t, rec, &user)
	assert.Equal(t, "dana", user.ID)
	assert.Equal(t, "Dana", user.DisplayName)
	assert.Equal(t, model.UserTypeVolunteer, user.UserType)
}

func TestRegister(t *testing.T) {
	t.Run("new account gets requested type", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/me", "erin", `{"userType":"organizer"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var user model.User
		decodeBody(t, rec, &user)
		assert.Equal(t, model.UserTypeOrganizer, user.UserType)
	})

	t.Run("existing account keeps its type", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/me", "alice", `{"userType":"organizer"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var user model.User
		decodeBody(t, rec, &user)
		assert.Equal(t, model.UserTypeVolunteer, user.UserType)
	})

	t.Run("unknown type", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/me", "erin", `{"userType":"admin"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "userType", body.Field)
	})
}

func TestCreateEvent(t *testing.T) {
	const body = `{"title":"Dune Cleanup","location":"South Beach","date":"2030-07-01","wasteAvailable":50}`

	t.Run("organizer", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/events", "org", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		var event model.Event
		decodeBody(t, rec, &event)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "org", event.OrganizerID)
		assert.Equal(t, model.EventStatusActive, event.Status)

		rec = ts.do(t, http.MethodGet, "/api/events/"+event.ID, "alice", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("volunteer is forbidden", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/events", "alice", body)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/events", "org", `{"location":"South Beach","date":"2030-07-01"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp ErrorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "title", resp.Field)
	})

	t.Run("unknown field", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/events", "org", `{"title":"x","colour":"blue"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListEvents_Filter(t *testing.T) {
	ts := newTestServer(t)
	ts.store.PutEvent(model.Event{ID: "e2", Title: "Old Sweep", Date: "2024-01-01", Status: model.EventStatusCancelled, OrganizerID: "org"})

	rec := ts.do(t, http.MethodGet, "/api/events?status=active", "alice", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var events []model.Event
	decodeBody(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/events?status=bogus", "alice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckIn(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/events/e1/checkin", "alice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var first checkInResponse
	decodeBody(t, rec, &first)
	assert.Equal(t, 80.0, first.WasteCollected)
	assert.Equal(t, 10, first.EcoScoreDelta)

	rec = ts.do(t, http.MethodPost, "/api/events/e1/checkin", "bob", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var second checkInResponse
	decodeBody(t, rec, &second)
	assert.Equal(t, 40.0, second.WasteCollected)

	rec = ts.do(t, http.MethodPost, "/api/events/e1/checkin", "alice", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/events/missing/checkin", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seashield_checkins_total 2")
	assert.Contains(t, rec.Body.String(), `route="/api/events/{id}/checkin"`)
}

func TestCheckIn_CancelledEvent(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/events/e1/cancel", "org", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/events/e1/checkin", "alice", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFeedback_OnlyOwner(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/events/e1/checkin", "alice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var result checkInResponse
	decodeBody(t, rec, &result)
	path := "/api/checkins/" + result.CheckIn.ID + "/feedback"

	rec = ts.do(t, http.MethodPatch, path, "bob", `{"rating":5,"recommend":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, "alice", `{"rating":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, "alice", `{"rating":5,"text":"Great","recommend":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var checkIn model.CheckIn
	decodeBody(t, rec, &checkIn)
	require.NotNil(t, checkIn.Feedback)
	assert.Equal(t, 5, checkIn.Feedback.Rating)
}

func TestBroadcast(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/events/e1/broadcast", "org", `{"subject":"Reminder","message":"Bring gloves"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for _, user := range []string{"alice", "bob"} {
		rec = ts.do(t, http.MethodPost, "/api/events/e1/checkin", user, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/events/e1/broadcast", "org", `{"subject":"Reminder","message":"Bring gloves"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result services.BroadcastResult
	decodeBody(t, rec, &result)
	assert.Equal(t, 2, result.Recipients)
	require.Len(t, result.DeliveryFailures, 1)
	assert.Equal(t, "bob", result.DeliveryFailures[0].RecipientID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, ts.notifier.recipients)

	rec = ts.do(t, http.MethodGet, "/api/me/notifications", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []model.Notification
	decodeBody(t, rec, &notifications)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Reminder", notifications[0].Subject)

	// Only the recipient may touch a notification
	rec = ts.do(t, http.MethodPost, "/api/me/notifications/"+notifications[0].ID+"/read", "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/me/notifications/"+notifications[0].ID+"/read", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/me/notifications/"+notifications[0].ID, "alice", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", "", "")
	assert.Contains(t, rec.Body.String(), `seashield_broadcast_delivery_failures_total{channel="test"} 1`)
}

func TestExportReport_NotConfigured(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/events/e1/report/export", "org", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTeams(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/teams", "alice", `{"name":"Gulls"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var team model.Team
	decodeBody(t, rec, &team)
	assert.Equal(t, "alice", team.CaptainID)
	assert.Equal(t, 3, team.Capacity)

	rec = ts.do(t, http.MethodPost, "/api/teams/"+team.ID+"/join", "alice", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/teams/"+team.ID+"/requests", "bob", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var req model.JoinRequest
	decodeBody(t, rec, &req)

	rec = ts.do(t, http.MethodPost, "/api/join-requests/"+req.ID+"/approve", "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/join-requests/"+req.ID+"/approve", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &team)
	assert.Equal(t, []string{"alice", "bob"}, team.Members)

	rec = ts.do(t, http.MethodPost, "/api/join-requests/"+req.ID+"/approve", "alice", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/teams/missing", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVolunteerLeaderboard_Limit(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/leaderboard/volunteers?limit=x", "alice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/leaderboard/volunteers?limit=1", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ranks []services.VolunteerRank
	decodeBody(t, rec, &ranks)
	assert.Len(t, ranks, 1)
}

func TestOrganizerRoutes_RequireOrganizer(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/organizer/analytics"},
		{http.MethodPost, "/api/organizer/reconcile"},
		{http.MethodDelete, "/api/events/e1"},
		{http.MethodGet, "/api/events/e1/report"},
	}

	for _, p := range paths {
		rec := ts.do(t, p.method, p.path, "alice", "")
		assert.Equal(t, http.StatusForbidden, rec.Code, p.path)
	}
}

func TestReconcile_ApplyFlag(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/organizer/reconcile?apply=maybe", "org", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/organizer/reconcile", "org", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result services.ReconcileResult
	decodeBody(t, rec, &result)
	assert.False(t, result.Applied)
}

func TestStoreFailure_HidesDetails(t *testing.T) {
	ts := newTestServer(t)
	ts.store.Errors["ListEvents"] = errors.New("connection reset by peer")

	rec := ts.do(t, http.MethodGet, "/api/events", "alice", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest},
		{services.ErrUnauthenticated, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrEventNotFound, http.StatusNotFound},
		{services.ErrNotificationNotFound, http.StatusNotFound},
		{services.ErrDuplicateCheckIn, http.StatusConflict},
		{services.ErrTeamFull, http.StatusConflict},
		{services.ErrNoParticipants, http.StatusUnprocessableEntity},
		{services.ErrReportSheetNotConfigured, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
