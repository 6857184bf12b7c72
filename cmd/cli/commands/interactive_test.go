package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db/memstore"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{"plain words", "checkIn e1", []string{"checkIn", "e1"}, false},
		{"double quotes", `createEvent "Dune Sweep" 2030-07-01`, []string{"createEvent", "Dune Sweep", "2030-07-01"}, false},
		{"single quotes", `broadcast e1 'Hi all' "Bring gloves"`, []string{"broadcast", "e1", "Hi all", "Bring gloves"}, false},
		{"extra whitespace", "  listEvents   --status   active ", []string{"listEvents", "--status", "active"}, false},
		{"empty quoted argument", `broadcast e1 "" body`, []string{"broadcast", "e1", "", "body"}, false},
		{"quote inside word", `say it's`, nil, true},
		{"unclosed quote", `createEvent "Dune Sweep`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestApp() (*AppContext, *memstore.Store) {
	store := memstore.New()
	store.PutUser(model.User{ID: "org", DisplayName: "Olive Organizer", Email: "olive@example.com", UserType: model.UserTypeOrganizer})
	store.PutUser(model.User{ID: "alice", DisplayName: "Alice", Email: "alice@example.com", UserType: model.UserTypeVolunteer})

	return &AppContext{
		Cfg:      config.Defaults(),
		Env:      "test",
		Database: store,
		Logger:   zap.NewNop(),
		Ctx:      context.Background(),
	}, store
}

func rootWith(app *AppContext) *cobra.Command {
	root := &cobra.Command{Use: "seashield"}
	root.AddCommand(
		AsCmd(app),
		RegisterUserCmd(app),
		CreateEventCmd(app),
		ListEventsCmd(app),
		CheckInCmd(app),
		ReconcileCmd(app),
		InteractiveCmd(app),
	)
	return root
}

func TestRunSession(t *testing.T) {
	app, store := newTestApp()
	root := rootWith(app)
	interactive, _, err := root.Find([]string{"interactive"})
	require.NoError(t, err)

	input := strings.Join([]string{
		"as org",
		`createEvent "Dune Sweep" 2030-07-01 --location 'South Beach' --waste 30`,
		"bogus",
		"exit",
		"as alice",
	}, "\n")

	require.NoError(t, runSession(strings.NewReader(input), siblingCommands(interactive)))

	events, err := store.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dune Sweep", events[0].Title)
	assert.Equal(t, "South Beach", events[0].Location)
	assert.Equal(t, 30.0, events[0].WasteAvailable)
	assert.Equal(t, "org", events[0].OrganizerID)

	// Lines after exit are not run
	assert.Equal(t, "org", app.ActingUser)
}

func TestRunCommand_ResetsFlags(t *testing.T) {
	app, store := newTestApp()
	app.ActingUser = "org"
	cmd := CreateEventCmd(app)

	require.NoError(t, runCommand(cmd, []string{"First", "2030-07-01", "--location", "North", "--waste", "12"}))
	require.NoError(t, runCommand(cmd, []string{"Second", "2030-07-02", "--location", "South"}))

	events, err := store.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 12.0, events[0].WasteAvailable)
	assert.Equal(t, 0.0, events[1].WasteAvailable)
}

func TestRunCommand_ArgsValidated(t *testing.T) {
	app, _ := newTestApp()
	app.ActingUser = "alice"

	err := runCommand(CheckInCmd(app), nil)

	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	app, _ := newTestApp()

	_, err := app.Session()
	assert.Error(t, err)

	app.ActingUser = "nobody"
	_, err = app.Session()
	assert.Error(t, err)

	app.ActingUser = "org"
	session, err := app.Session()
	require.NoError(t, err)
	assert.True(t, session.IsOrganizer())
}

func TestAsCmd_UnknownUserKeepsPrevious(t *testing.T) {
	app, _ := newTestApp()
	app.ActingUser = "alice"

	err := runCommand(AsCmd(app), []string{"nobody"})

	assert.Error(t, err)
	assert.Equal(t, "alice", app.ActingUser)
}

func TestCheckInCmd(t *testing.T) {
	app, store := newTestApp()
	store.PutEvent(model.Event{ID: "e1", Title: "Beach Sweep", Location: "North Shore", Date: "2030-06-08",
		Status: model.EventStatusActive, WasteAvailable: 80, OrganizerID: "org"})
	app.ActingUser = "alice"

	require.NoError(t, runCommand(CheckInCmd(app), []string{"e1"}))
	assert.Error(t, runCommand(CheckInCmd(app), []string{"e1"}), "second check-in is a duplicate")

	user, err := store.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalCheckIns)
	assert.Equal(t, config.DefaultEcoScorePerCheckIn, user.EcoScore)
}

func TestRegisterUserCmd(t *testing.T) {
	app, store := newTestApp()

	require.NoError(t, runCommand(RegisterUserCmd(app), []string{"dana", "Dana", "--type", "organizer", "--email", "dana@example.com"}))
	assert.Error(t, runCommand(RegisterUserCmd(app), []string{"erin", "Erin", "--type", "admin"}))

	user, err := store.GetUser(context.Background(), "dana")
	require.NoError(t, err)
	assert.Equal(t, model.UserTypeOrganizer, user.UserType)
	assert.Equal(t, "dana@example.com", user.Email)
}
