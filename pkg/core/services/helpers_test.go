package services

import (
	"testing"
	"time"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db/memstore"
)

var testNow = time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)

// freezeTime pins now() for the duration of the test
func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func testConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        "postgres://localhost/seashield_test",
		EcoScorePerCheckIn: 10,
		TeamCapacity:       3,
		AutoAssignTeamSize: 2,
	}
}

func volunteer(id string) model.Session {
	return model.Session{UserID: id, UserType: model.UserTypeVolunteer}
}

func organizer(id string) model.Session {
	return model.Session{UserID: id, UserType: model.UserTypeOrganizer}
}

// seededStore returns a store with organizer "org", volunteers "alice", "bob", "carol"
// and an active event "e1" owned by "org" with 80kg available
func seededStore() *memstore.Store {
	s := memstore.New()
	s.PutUser(model.User{ID: "org", DisplayName: "Olive Organizer", Email: "olive@example.com", UserType: model.UserTypeOrganizer})
	s.PutUser(model.User{ID: "alice", DisplayName: "Alice", Email: "alice@example.com", UserType: model.UserTypeVolunteer})
	s.PutUser(model.User{ID: "bob", DisplayName: "Bob", Email: "bob@example.com", UserType: model.UserTypeVolunteer})
	s.PutUser(model.User{ID: "carol", DisplayName: "Carol", Email: "carol@example.com", UserType: model.UserTypeVolunteer})
	s.PutEvent(model.Event{
		ID:             "e1",
		Title:          "Beach Sweep",
		Location:       "North Shore",
		Date:           "2025-06-08",
		Status:         model.EventStatusActive,
		WasteAvailable: 80,
		OrganizerID:    "org",
	})
	return s
}
