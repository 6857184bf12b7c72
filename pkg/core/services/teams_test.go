package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
	"github.com/projectseashield/seashield/pkg/db/memstore"
)

func TestCreateTeam(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()

	team, err := CreateTeam(ctx, store, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)
	assert.Equal(t, "alice", team.CaptainID)
	assert.Equal(t, []string{"alice"}, team.Members)
	assert.Equal(t, 3, team.Capacity)

	alice, _ := store.GetUser(ctx, "alice")
	assert.Equal(t, team.ID, alice.TeamID)

	// One team per volunteer
	_, err = CreateTeam(ctx, store, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Another"})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = CreateTeam(ctx, store, testConfig(), zap.NewNop(), volunteer("bob"), CreateTeamInput{})
	assert.True(t, IsValidationError(err))
}

func TestJoinTeam_Capacity(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()
	store.PutUser(model.User{ID: "dave", DisplayName: "Dave", UserType: model.UserTypeVolunteer})

	team, err := CreateTeam(ctx, store, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)

	_, err = JoinTeam(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)
	joined, err := JoinTeam(ctx, store, zap.NewNop(), volunteer("carol"), team.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, joined.Members)

	_, err = JoinTeam(ctx, store, zap.NewNop(), volunteer("dave"), team.ID)
	assert.ErrorIs(t, err, ErrTeamFull)

	_, err = JoinTeam(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = JoinTeam(ctx, store, zap.NewNop(), volunteer("dave"), "missing")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

// interleavedStore runs another change against the underlying store just before
// the first membership write goes through
type interleavedStore struct {
	*memstore.Store
	once   sync.Once
	before func()
}

func (s *interleavedStore) ChangeTeamMembership(ctx context.Context, change db.MembershipChange) (*db.MembershipResult, error) {
	s.once.Do(s.before)
	return s.Store.ChangeTeamMembership(ctx, change)
}

func TestJoinTeam_InterleavedJoinsKeepBothMembers(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	base := seededStore()

	team, err := CreateTeam(ctx, base, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)

	store := &interleavedStore{Store: base}
	store.before = func() {
		_, err := JoinTeam(ctx, base, zap.NewNop(), volunteer("carol"), team.ID)
		require.NoError(t, err)
	}

	joined, err := JoinTeam(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol", "bob"}, joined.Members)

	for _, id := range []string{"bob", "carol"} {
		user, _ := base.GetUser(ctx, id)
		assert.Equal(t, team.ID, user.TeamID, id)
	}

	// Both can still leave
	_, err = LeaveTeam(ctx, base, zap.NewNop(), volunteer("carol"), team.ID)
	require.NoError(t, err)
	_, err = LeaveTeam(ctx, base, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)
}

func TestJoinTeam_InterleavedJoinTakesLastSeat(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	base := seededStore()
	base.PutUser(model.User{ID: "dave", DisplayName: "Dave", UserType: model.UserTypeVolunteer})

	team, err := CreateTeam(ctx, base, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)
	_, err = JoinTeam(ctx, base, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)

	store := &interleavedStore{Store: base}
	store.before = func() {
		_, err := JoinTeam(ctx, base, zap.NewNop(), volunteer("carol"), team.ID)
		require.NoError(t, err)
	}

	_, err = JoinTeam(ctx, store, zap.NewNop(), volunteer("dave"), team.ID)
	assert.ErrorIs(t, err, ErrTeamFull)

	stored, err := GetTeam(ctx, base, team.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, stored.Members)
	dave, _ := base.GetUser(ctx, "dave")
	assert.Empty(t, dave.TeamID)
}

func TestJoinTeam_ConcurrentJoinsRespectCapacity(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()
	cfg := testConfig()
	cfg.TeamCapacity = 5

	team, err := CreateTeam(ctx, store, cfg, zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)

	var joiners []string
	for i := range 10 {
		id := fmt.Sprintf("v%d", i)
		store.PutUser(model.User{ID: id, UserType: model.UserTypeVolunteer})
		joiners = append(joiners, id)
	}

	errs := make([]error, len(joiners))
	var wg sync.WaitGroup
	for i, id := range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = JoinTeam(ctx, store, zap.NewNop(), volunteer(id), team.ID)
		}()
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, ErrTeamFull)
	}
	assert.Equal(t, 4, joined)

	stored, err := GetTeam(ctx, store, team.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Members, 5)
	for _, id := range joiners {
		user, _ := store.GetUser(ctx, id)
		if stored.IsMember(id) {
			assert.Equal(t, team.ID, user.TeamID, id)
		} else {
			assert.Empty(t, user.TeamID, id)
		}
	}
}

func TestCreateTeam_CaptainJoinedElsewhereMeanwhile(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()
	store.PutTeam(model.Team{ID: "t0", Name: "Existing", CaptainID: "bob", Members: []string{"bob"}})

	_, err := JoinTeam(ctx, store, zap.NewNop(), volunteer("alice"), "t0")
	require.NoError(t, err)

	// A pre-check that still sees alice without a team is overruled by the store
	_, err = CreateTeam(ctx, staleTeamlessStore{store}, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Second"})
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

// staleTeamlessStore reports every user as teamless, as a read taken before a join would
type staleTeamlessStore struct {
	*memstore.Store
}

func (s staleTeamlessStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.TeamID = ""
	return user, nil
}

func TestLeaveTeam_CaptainTransferAndDelete(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()

	team, err := CreateTeam(ctx, store, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)
	_, err = JoinTeam(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)
	_, err = JoinTeam(ctx, store, zap.NewNop(), volunteer("carol"), team.ID)
	require.NoError(t, err)

	_, err = LeaveTeam(ctx, store, zap.NewNop(), volunteer("dave"), team.ID)
	assert.ErrorIs(t, err, ErrNotMember)

	// Captain leaves: longest-standing member takes over
	result, err := LeaveTeam(ctx, store, zap.NewNop(), volunteer("alice"), team.ID)
	require.NoError(t, err)
	assert.False(t, result.Deleted)
	assert.Equal(t, "bob", result.Team.CaptainID)
	assert.Equal(t, []string{"bob", "carol"}, result.Team.Members)

	alice, _ := store.GetUser(ctx, "alice")
	assert.Empty(t, alice.TeamID)

	// Non-captain leaves: captain unchanged
	result, err = LeaveTeam(ctx, store, zap.NewNop(), volunteer("carol"), team.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", result.Team.CaptainID)
	assert.Equal(t, []string{"bob"}, result.Team.Members)

	// Last member leaves: team is deleted
	result, err = LeaveTeam(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	_, err = GetTeam(ctx, store, team.ID)
	assert.ErrorIs(t, err, ErrTeamNotFound)
	bob, _ := store.GetUser(ctx, "bob")
	assert.Empty(t, bob.TeamID)
}

func TestListTeams_ByName(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	store.PutTeam(model.Team{ID: "t1", Name: "Zebra Crew"})
	store.PutTeam(model.Team{ID: "t2", Name: "Anchors"})

	teams, err := ListTeams(ctx, store)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Anchors", teams[0].Name)
}

func TestJoinRequests(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()

	team, err := CreateTeam(ctx, store, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)

	req, err := RequestToJoin(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JoinRequestPending, req.Status)

	// Asking again returns the pending request
	again, err := RequestToJoin(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)

	carolReq, err := RequestToJoin(ctx, store, zap.NewNop(), volunteer("carol"), team.ID)
	require.NoError(t, err)

	_, err = ListJoinRequests(ctx, store, volunteer("bob"), team.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	pending, err := ListJoinRequests(ctx, store, volunteer("alice"), team.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = ApproveJoinRequest(ctx, store, zap.NewNop(), volunteer("bob"), req.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := ApproveJoinRequest(ctx, store, zap.NewNop(), volunteer("alice"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, updated.Members)

	_, err = ApproveJoinRequest(ctx, store, zap.NewNop(), volunteer("alice"), req.ID)
	assert.ErrorIs(t, err, ErrJoinRequestDecided)

	require.NoError(t, RejectJoinRequest(ctx, store, zap.NewNop(), volunteer("alice"), carolReq.ID))
	stored, _ := store.GetJoinRequest(ctx, carolReq.ID)
	assert.Equal(t, model.JoinRequestRejected, stored.Status)

	pending, err = ListJoinRequests(ctx, store, volunteer("alice"), team.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = RequestToJoin(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	err = RejectJoinRequest(ctx, store, zap.NewNop(), volunteer("alice"), "missing")
	assert.ErrorIs(t, err, ErrJoinRequestNotFound)
}

func TestApproveJoinRequest_FailedWriteLeavesRequestPending(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()

	team, err := CreateTeam(ctx, store, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)
	req, err := RequestToJoin(ctx, store, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)

	store.Errors["ChangeTeamMembership"] = assert.AnError
	_, err = ApproveJoinRequest(ctx, store, zap.NewNop(), volunteer("alice"), req.ID)
	assert.ErrorIs(t, err, assert.AnError)

	bob, _ := store.GetUser(ctx, "bob")
	assert.Empty(t, bob.TeamID)
	stored, _ := store.GetJoinRequest(ctx, req.ID)
	assert.Equal(t, model.JoinRequestPending, stored.Status)

	// Retrying after the failure approves normally
	delete(store.Errors, "ChangeTeamMembership")
	updated, err := ApproveJoinRequest(ctx, store, zap.NewNop(), volunteer("alice"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, updated.Members)
	stored, _ = store.GetJoinRequest(ctx, req.ID)
	assert.Equal(t, model.JoinRequestApproved, stored.Status)
}

func TestApproveJoinRequest_RejectedMeanwhile(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	base := seededStore()

	team, err := CreateTeam(ctx, base, testConfig(), zap.NewNop(), volunteer("alice"), CreateTeamInput{Name: "Shell Seekers"})
	require.NoError(t, err)
	req, err := RequestToJoin(ctx, base, zap.NewNop(), volunteer("bob"), team.ID)
	require.NoError(t, err)

	store := &interleavedStore{Store: base}
	store.before = func() {
		require.NoError(t, RejectJoinRequest(ctx, base, zap.NewNop(), volunteer("alice"), req.ID))
	}

	_, err = ApproveJoinRequest(ctx, store, zap.NewNop(), volunteer("alice"), req.ID)
	assert.ErrorIs(t, err, ErrJoinRequestDecided)

	bob, _ := base.GetUser(ctx, "bob")
	assert.Empty(t, bob.TeamID)
	stored, _ := base.GetJoinRequest(ctx, req.ID)
	assert.Equal(t, model.JoinRequestRejected, stored.Status)
}

func TestAutoAssignTeams(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()
	cfg := testConfig()
	store.PutUser(model.User{ID: "dave", DisplayName: "Dave", UserType: model.UserTypeVolunteer})

	var ids []string
	for i, user := range []string{"alice", "bob", "carol", "dave"} {
		freezeTime(t, testNow.Add(time.Duration(i)*time.Minute))
		result, err := CheckIn(ctx, store, cfg, zap.NewNop(), volunteer(user), "e1")
		require.NoError(t, err)
		ids = append(ids, result.CheckIn.ID)
	}

	_, err := AutoAssignTeams(ctx, store, cfg, zap.NewNop(), volunteer("alice"), "e1", 0)
	assert.ErrorIs(t, err, ErrForbidden)

	assignments, err := AutoAssignTeams(ctx, store, cfg, zap.NewNop(), organizer("org"), "e1", 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		ids[0]: "Team 1",
		ids[1]: "Team 1",
		ids[2]: "Team 2",
		ids[3]: "Team 2",
	}, assignments)

	// Already-assigned check-ins are left alone
	again, err := AutoAssignTeams(ctx, store, cfg, zap.NewNop(), organizer("org"), "e1", 0)
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = AutoAssignTeams(ctx, store, cfg, zap.NewNop(), organizer("org"), "e1", -1)
	require.NoError(t, err)
}

func TestAssignTeam(t *testing.T) {
	freezeTime(t, testNow)
	ctx := context.Background()
	store := seededStore()
	result, err := CheckIn(ctx, store, testConfig(), zap.NewNop(), volunteer("alice"), "e1")
	require.NoError(t, err)

	_, err = AssignTeam(ctx, store, zap.NewNop(), organizer("other-org"), result.CheckIn.ID, AssignTeamInput{Team: "Red"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = AssignTeam(ctx, store, zap.NewNop(), organizer("org"), "missing", AssignTeamInput{Team: "Red"})
	assert.ErrorIs(t, err, ErrCheckInNotFound)

	assigned, err := AssignTeam(ctx, store, zap.NewNop(), organizer("org"), result.CheckIn.ID, AssignTeamInput{Team: "Red"})
	require.NoError(t, err)
	assert.True(t, assigned.TeamAssigned)

	stored, _ := store.GetCheckIn(ctx, result.CheckIn.ID)
	assert.Equal(t, "Red", stored.AssignedTeam)
	assert.True(t, stored.TeamAssigned)
}
