package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

const teamColumns = `id, name, description, captain_id, members, capacity, created_at`

func scanTeam(row scanner) (*model.Team, error) {
	var t model.Team
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CaptainID, &t.Members, &t.Capacity, &t.CreatedAt); err != nil {
		return nil, err
	}
	if t.Members == nil {
		t.Members = []string{}
	}
	return &t, nil
}

// GetTeam retrieves a team by ID
func (d *DB) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	t, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", id, translateError(err))
	}
	return t, nil
}

// ListTeams retrieves all teams, oldest first
func (d *DB) ListTeams(ctx context.Context) ([]model.Team, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// InsertTeam inserts a team and points the captain's user record at it. The captain's
// row is locked so they cannot found or join a second team at the same time.
func (d *DB) InsertTeam(ctx context.Context, team *model.Team) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current *string
	err = tx.QueryRow(ctx, `SELECT team_id FROM users WHERE id = $1 FOR UPDATE`, team.CaptainID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return &db.NotFoundError{Table: db.TableUsers, ID: team.CaptainID}
	}
	if err != nil {
		return fmt.Errorf("failed to lock captain %s: %w", team.CaptainID, err)
	}
	if current != nil {
		return fmt.Errorf("user %s already on team %s: %w", team.CaptainID, *current, db.ErrConflict)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO teams (id, name, description, captain_id, members, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, team.ID, team.Name, team.Description, team.CaptainID, team.Members, team.Capacity, team.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", translateError(err))
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET team_id = $2 WHERE id = $1`, team.CaptainID, team.ID); err != nil {
		return fmt.Errorf("failed to set captain team: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ChangeTeamMembership runs a membership change in a single transaction. Rows are
// locked team first, then user, then join request, so concurrent changes to the
// same team queue on the team row and see each other's writes.
func (d *DB) ChangeTeamMembership(ctx context.Context, change db.MembershipChange) (*db.MembershipResult, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	team, err := scanTeam(tx.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE`, change.TeamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &db.NotFoundError{Table: db.TableTeams, ID: change.TeamID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock team %s: %w", change.TeamID, err)
	}

	user, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, change.UserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &db.NotFoundError{Table: db.TableUsers, ID: change.UserID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %s: %w", change.UserID, err)
	}

	var req *model.JoinRequest
	if change.RequestID != "" {
		req, err = scanJoinRequest(tx.QueryRow(ctx, `SELECT `+joinRequestColumns+` FROM join_requests WHERE id = $1 FOR UPDATE`, change.RequestID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &db.NotFoundError{Table: db.TableJoinRequests, ID: change.RequestID}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock join request %s: %w", change.RequestID, err)
		}
	}

	if err := change.Apply(team, user, req); err != nil {
		return nil, err
	}

	if req != nil {
		if _, err := tx.Exec(ctx, `UPDATE join_requests SET status = $2 WHERE id = $1`, req.ID, string(req.Status)); err != nil {
			return nil, fmt.Errorf("failed to update join request: %w", translateError(err))
		}
	}

	result := &db.MembershipResult{Team: team}
	if len(team.Members) == 0 {
		// join_requests go with the team through ON DELETE CASCADE
		if _, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, team.ID); err != nil {
			return nil, fmt.Errorf("failed to delete team: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET team_id = NULL WHERE team_id = $1`, team.ID); err != nil {
			return nil, fmt.Errorf("failed to clear user team: %w", err)
		}
		result = &db.MembershipResult{Deleted: true}
	} else {
		if _, err := tx.Exec(ctx, `UPDATE teams SET members = $2, captain_id = $3 WHERE id = $1`, team.ID, team.Members, team.CaptainID); err != nil {
			return nil, fmt.Errorf("failed to update team members: %w", err)
		}

		var userTeam *string
		switch {
		case team.IsMember(user.ID):
			userTeam = &team.ID
		case user.TeamID != team.ID:
			userTeam = nullString(user.TeamID)
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET team_id = $2 WHERE id = $1`, user.ID, userTeam); err != nil {
			return nil, fmt.Errorf("failed to update user team: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

const joinRequestColumns = `id, team_id, user_id, status, created_at`

func scanJoinRequest(row scanner) (*model.JoinRequest, error) {
	var r model.JoinRequest
	var status string
	if err := row.Scan(&r.ID, &r.TeamID, &r.UserID, &status, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = model.JoinRequestStatus(status)
	return &r, nil
}

// InsertJoinRequest inserts a join request. A second pending request from the
// same user to the same team fails with db.ErrDuplicate.
func (d *DB) InsertJoinRequest(ctx context.Context, req *model.JoinRequest) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO join_requests (id, team_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, req.TeamID, req.UserID, string(req.Status), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert join request: %w", translateError(err))
	}
	return nil
}

// GetJoinRequest retrieves a join request by ID
func (d *DB) GetJoinRequest(ctx context.Context, id string) (*model.JoinRequest, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+joinRequestColumns+` FROM join_requests WHERE id = $1`, id)
	r, err := scanJoinRequest(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get join request %s: %w", id, translateError(err))
	}
	return r, nil
}

// FindPendingJoinRequest retrieves a user's pending request to a team
func (d *DB) FindPendingJoinRequest(ctx context.Context, teamID, userID string) (*model.JoinRequest, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+joinRequestColumns+` FROM join_requests
		WHERE team_id = $1 AND user_id = $2 AND status = 'pending'
	`, teamID, userID)
	r, err := scanJoinRequest(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find join request: %w", translateError(err))
	}
	return r, nil
}

// ListJoinRequests retrieves a team's join requests with the given status, oldest first
func (d *DB) ListJoinRequests(ctx context.Context, teamID string, status model.JoinRequestStatus) ([]model.JoinRequest, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+joinRequestColumns+` FROM join_requests
		WHERE team_id = $1 AND status = $2
		ORDER BY created_at, id
	`, teamID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query join requests: %w", err)
	}
	defer rows.Close()

	var requests []model.JoinRequest
	for rows.Next() {
		r, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating join requests: %w", err)
	}

	return requests, nil
}
