package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

func (s *Store) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetTeam"); err != nil {
		return nil, err
	}
	t, ok := s.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, db.ErrNotFound)
	}
	t.Members = slices.Clone(t.Members)
	return &t, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListTeams"); err != nil {
		return nil, err
	}
	teams := make([]model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		t.Members = slices.Clone(t.Members)
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (s *Store) setUserTeam(userID, teamID string) {
	if u, ok := s.users[userID]; ok {
		u.TeamID = teamID
		s.users[userID] = u
	}
}

func (s *Store) InsertTeam(ctx context.Context, team *model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertTeam"); err != nil {
		return err
	}
	if _, ok := s.teams[team.ID]; ok {
		return fmt.Errorf("team %s: %w", team.ID, db.ErrDuplicate)
	}
	captain, ok := s.users[team.CaptainID]
	if !ok {
		return &db.NotFoundError{Table: db.TableUsers, ID: team.CaptainID}
	}
	if captain.TeamID != "" {
		return fmt.Errorf("user %s already on team %s: %w", captain.ID, captain.TeamID, db.ErrConflict)
	}
	t := *team
	t.Members = slices.Clone(team.Members)
	s.teams[t.ID] = t
	s.setUserTeam(t.CaptainID, t.ID)
	return nil
}

func (s *Store) ChangeTeamMembership(ctx context.Context, change db.MembershipChange) (*db.MembershipResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ChangeTeamMembership"); err != nil {
		return nil, err
	}

	team, ok := s.teams[change.TeamID]
	if !ok {
		return nil, &db.NotFoundError{Table: db.TableTeams, ID: change.TeamID}
	}
	user, ok := s.users[change.UserID]
	if !ok {
		return nil, &db.NotFoundError{Table: db.TableUsers, ID: change.UserID}
	}
	var req *model.JoinRequest
	if change.RequestID != "" {
		r, ok := s.joinRequests[change.RequestID]
		if !ok {
			return nil, &db.NotFoundError{Table: db.TableJoinRequests, ID: change.RequestID}
		}
		req = &r
	}

	team.Members = slices.Clone(team.Members)
	if err := change.Apply(&team, &user, req); err != nil {
		return nil, err
	}

	if req != nil {
		s.joinRequests[req.ID] = *req
	}
	if len(team.Members) == 0 {
		s.deleteTeam(team.ID)
		return &db.MembershipResult{Deleted: true}, nil
	}

	s.teams[team.ID] = team
	if team.IsMember(user.ID) {
		s.setUserTeam(user.ID, team.ID)
	} else if user.TeamID == team.ID {
		s.setUserTeam(user.ID, "")
	}

	out := team
	out.Members = slices.Clone(team.Members)
	return &db.MembershipResult{Team: &out}, nil
}

// deleteTeam removes a team with its join requests and clears every user still on it
func (s *Store) deleteTeam(teamID string) {
	delete(s.teams, teamID)
	for id, r := range s.joinRequests {
		if r.TeamID == teamID {
			delete(s.joinRequests, id)
		}
	}
	for id, u := range s.users {
		if u.TeamID == teamID {
			u.TeamID = ""
			s.users[id] = u
		}
	}
}

func (s *Store) InsertJoinRequest(ctx context.Context, req *model.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertJoinRequest"); err != nil {
		return err
	}
	for _, r := range s.joinRequests {
		if r.TeamID == req.TeamID && r.UserID == req.UserID && r.Status == model.JoinRequestPending {
			return fmt.Errorf("pending request for %s: %w", req.UserID, db.ErrDuplicate)
		}
	}
	s.joinRequests[req.ID] = *req
	return nil
}

func (s *Store) GetJoinRequest(ctx context.Context, id string) (*model.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("GetJoinRequest"); err != nil {
		return nil, err
	}
	r, ok := s.joinRequests[id]
	if !ok {
		return nil, fmt.Errorf("join request %s: %w", id, db.ErrNotFound)
	}
	return &r, nil
}

func (s *Store) FindPendingJoinRequest(ctx context.Context, teamID, userID string) (*model.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindPendingJoinRequest"); err != nil {
		return nil, err
	}
	for _, r := range s.joinRequests {
		if r.TeamID == teamID && r.UserID == userID && r.Status == model.JoinRequestPending {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("pending request for %s: %w", userID, db.ErrNotFound)
}

func (s *Store) ListJoinRequests(ctx context.Context, teamID string, status model.JoinRequestStatus) ([]model.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListJoinRequests"); err != nil {
		return nil, err
	}
	var requests []model.JoinRequest
	for _, r := range s.joinRequests {
		if r.TeamID == teamID && r.Status == status {
			requests = append(requests, r)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.Before(requests[j].CreatedAt)
		}
		return requests[i].ID < requests[j].ID
	})
	return requests, nil
}
