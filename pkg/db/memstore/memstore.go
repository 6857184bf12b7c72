// Package memstore is an in-memory db.Database. It backs the service and HTTP tests
// and the CLI's --memory mode, and follows the same semantics as the postgres store.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// Store holds every collection in maps guarded by one mutex
type Store struct {
	mu            sync.Mutex
	users         map[string]model.User
	events        map[string]model.Event
	checkIns      map[string]model.CheckIn
	teams         map[string]model.Team
	joinRequests  map[string]model.JoinRequest
	notifications map[string]model.Notification

	// Errors injects a failure for the named method (e.g. "InsertNotifications")
	Errors map[string]error
}

var _ db.Database = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		users:         make(map[string]model.User),
		events:        make(map[string]model.Event),
		checkIns:      make(map[string]model.CheckIn),
		teams:         make(map[string]model.Team),
		joinRequests:  make(map[string]model.JoinRequest),
		notifications: make(map[string]model.Notification),
		Errors:        make(map[string]error),
	}
}

func (s *Store) fail(method string) error {
	return s.Errors[method]
}

// Seed helpers write records as-is, bypassing counter side effects

func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutEvent(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *Store) PutCheckIn(c model.CheckIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkIns[c.ID] = cloneCheckIn(c)
}

func (s *Store) PutTeam(t model.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Members = slices.Clone(t.Members)
	s.teams[t.ID] = t
}

func (s *Store) PutJoinRequest(r model.JoinRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinRequests[r.ID] = r
}

func cloneCheckIn(c model.CheckIn) model.CheckIn {
	if c.Feedback != nil {
		f := *c.Feedback
		c.Feedback = &f
	}
	return c
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, db.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListUsers"); err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) UpsertUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpsertUser"); err != nil {
		return err
	}
	if existing, ok := s.users[user.ID]; ok {
		existing.DisplayName = user.DisplayName
		existing.Email = user.Email
		s.users[user.ID] = existing
		return nil
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) SetPushToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SetPushToken"); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, db.ErrNotFound)
	}
	u.PushToken = token
	s.users[userID] = u
	return nil
}

func (s *Store) SetUserCounters(ctx context.Context, userID string, ecoScore, totalCheckIns int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SetUserCounters"); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, db.ErrNotFound)
	}
	u.EcoScore = ecoScore
	u.TotalCheckIns = totalCheckIns
	s.users[userID] = u
	return nil
}

// Events

func (s *Store) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetEvent"); err != nil {
		return nil, err
	}
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, db.ErrNotFound)
	}
	return &e, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListEvents"); err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (s *Store) InsertEvent(ctx context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertEvent"); err != nil {
		return err
	}
	if _, ok := s.events[event.ID]; ok {
		return fmt.Errorf("event %s: %w", event.ID, db.ErrDuplicate)
	}
	s.events[event.ID] = *event
	return nil
}

func (s *Store) UpdateEventStatus(ctx context.Context, id string, status model.EventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("UpdateEventStatus"); err != nil {
		return err
	}
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event %s: %w", id, db.ErrNotFound)
	}
	e.Status = status
	s.events[id] = e
	return nil
}

func (s *Store) SetParticipantCount(ctx context.Context, eventID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("SetParticipantCount"); err != nil {
		return err
	}
	e, ok := s.events[eventID]
	if !ok {
		return fmt.Errorf("event %s: %w", eventID, db.ErrNotFound)
	}
	e.ParticipantCount = count
	s.events[eventID] = e
	return nil
}

func (s *Store) DeleteEventCascade(ctx context.Context, eventID string, ecoScorePerCheckIn int) (*db.DeleteEventResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteEventCascade"); err != nil {
		return nil, err
	}
	if _, ok := s.events[eventID]; !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, db.ErrNotFound)
	}

	counts := make(map[string]int)
	result := &db.DeleteEventResult{}
	for id, c := range s.checkIns {
		if c.EventID != eventID {
			continue
		}
		counts[c.UserID]++
		result.DeletedCheckIns++
		delete(s.checkIns, id)
	}

	for userID, n := range counts {
		result.AffectedUsers = append(result.AffectedUsers, userID)
		u, ok := s.users[userID]
		if !ok {
			continue
		}
		u.EcoScore = max(u.EcoScore-ecoScorePerCheckIn*n, 0)
		u.TotalCheckIns = max(u.TotalCheckIns-n, 0)
		s.users[userID] = u
	}
	sort.Strings(result.AffectedUsers)

	for id, n := range s.notifications {
		if n.EventID == eventID {
			delete(s.notifications, id)
			result.DeletedNotifications++
		}
	}

	delete(s.events, eventID)
	return result, nil
}

// Check-ins

func (s *Store) RegisterCheckIn(ctx context.Context, p db.RegisterCheckInParams) (*model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("RegisterCheckIn"); err != nil {
		return nil, err
	}

	event, ok := s.events[p.EventID]
	if !ok {
		return nil, &db.NotFoundError{Table: db.TableEvents, ID: p.EventID}
	}
	user, ok := s.users[p.UserID]
	if !ok {
		return nil, &db.NotFoundError{Table: db.TableUsers, ID: p.UserID}
	}

	participants := 0
	for _, c := range s.checkIns {
		if c.EventID != p.EventID {
			continue
		}
		if c.UserID == p.UserID {
			return nil, fmt.Errorf("user %s already checked in to %s: %w", p.UserID, p.EventID, db.ErrDuplicate)
		}
		participants++
	}
	if _, ok := s.checkIns[p.CheckInID]; ok {
		return nil, fmt.Errorf("check-in %s: %w", p.CheckInID, db.ErrDuplicate)
	}

	checkIn := model.CheckIn{
		ID:             p.CheckInID,
		UserID:         p.UserID,
		EventID:        p.EventID,
		UserName:       p.UserName,
		UserEmail:      p.UserEmail,
		WasteCollected: p.Allocate(event.WasteAvailable, participants+1),
		Timestamp:      p.Timestamp,
	}
	s.checkIns[checkIn.ID] = checkIn

	user.EcoScore += p.EcoScoreDelta
	user.TotalCheckIns++
	s.users[user.ID] = user

	event.ParticipantCount++
	s.events[event.ID] = event

	return &checkIn, nil
}

func (s *Store) GetCheckIn(ctx context.Context, id string) (*model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetCheckIn"); err != nil {
		return nil, err
	}
	c, ok := s.checkIns[id]
	if !ok {
		return nil, fmt.Errorf("check-in %s: %w", id, db.ErrNotFound)
	}
	c = cloneCheckIn(c)
	return &c, nil
}

func (s *Store) FindCheckIn(ctx context.Context, userID, eventID string) (*model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindCheckIn"); err != nil {
		return nil, err
	}
	matches := s.sortedCheckIns(func(c model.CheckIn) bool { return c.UserID == userID && c.EventID == eventID })
	if len(matches) == 0 {
		return nil, fmt.Errorf("check-in for %s at %s: %w", userID, eventID, db.ErrNotFound)
	}
	return &matches[0], nil
}

// sortedCheckIns returns matching check-ins ordered by timestamp, then ID
func (s *Store) sortedCheckIns(match func(model.CheckIn) bool) []model.CheckIn {
	var result []model.CheckIn
	for _, c := range s.checkIns {
		if match(c) {
			result = append(result, cloneCheckIn(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *Store) ListCheckIns(ctx context.Context) ([]model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListCheckIns"); err != nil {
		return nil, err
	}
	return s.sortedCheckIns(func(model.CheckIn) bool { return true }), nil
}

func (s *Store) ListCheckInsByUser(ctx context.Context, userID string) ([]model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListCheckInsByUser"); err != nil {
		return nil, err
	}
	return s.sortedCheckIns(func(c model.CheckIn) bool { return c.UserID == userID }), nil
}

func (s *Store) ListCheckInsByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListCheckInsByEvent"); err != nil {
		return nil, err
	}
	return s.sortedCheckIns(func(c model.CheckIn) bool { return c.EventID == eventID }), nil
}

func (s *Store) DeleteCheckIns(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("DeleteCheckIns"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.checkIns, id)
	}
	return nil
}

func (s *Store) updateCheckIn(method, id string, update func(*model.CheckIn)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(method); err != nil {
		return err
	}
	c, ok := s.checkIns[id]
	if !ok {
		return fmt.Errorf("check-in %s: %w", id, db.ErrNotFound)
	}
	update(&c)
	s.checkIns[id] = c
	return nil
}

func (s *Store) UpdateCheckInWaste(ctx context.Context, id string, waste float64) error {
	return s.updateCheckIn("UpdateCheckInWaste", id, func(c *model.CheckIn) { c.WasteCollected = waste })
}

func (s *Store) UpdateCheckInPhoto(ctx context.Context, id string, photoURL string) error {
	return s.updateCheckIn("UpdateCheckInPhoto", id, func(c *model.CheckIn) { c.ProofPhoto = photoURL })
}

func (s *Store) UpdateCheckInFeedback(ctx context.Context, id string, feedback *model.Feedback) error {
	f := *feedback
	return s.updateCheckIn("UpdateCheckInFeedback", id, func(c *model.CheckIn) { c.Feedback = &f })
}

func (s *Store) AssignCheckInTeams(ctx context.Context, assignments map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AssignCheckInTeams"); err != nil {
		return err
	}
	for id := range assignments {
		if _, ok := s.checkIns[id]; !ok {
			return fmt.Errorf("check-in %s: %w", id, db.ErrNotFound)
		}
	}
	for id, team := range assignments {
		c := s.checkIns[id]
		c.AssignedTeam = team
		c.TeamAssigned = team != ""
		s.checkIns[id] = c
	}
	return nil
}
