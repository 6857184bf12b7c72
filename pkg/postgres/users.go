package postgres

import (
	"context"
	"fmt"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

const userColumns = `id, display_name, email, user_type, eco_score, total_check_ins, team_id, push_token, created_at`

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	var userType string
	var teamID, pushToken *string
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &userType, &u.EcoScore, &u.TotalCheckIns, &teamID, &pushToken, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.UserType = model.UserType(userType)
	u.TeamID = derefString(teamID)
	u.PushToken = derefString(pushToken)
	return &u, nil
}

// GetUser retrieves a user by ID
func (d *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, translateError(err))
	}
	return u, nil
}

// ListUsers retrieves all users ordered by EcoScore, highest first
func (d *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY eco_score DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpsertUser inserts a user, or refreshes the display name and email of an existing one.
// The user type and counters of an existing user are left untouched.
func (d *DB) UpsertUser(ctx context.Context, user *model.User) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO users (id, display_name, email, user_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name, email = EXCLUDED.email
	`, user.ID, user.DisplayName, user.Email, string(user.UserType), user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// SetPushToken stores the user's push notification token. An empty token clears it.
func (d *DB) SetPushToken(ctx context.Context, userID, token string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE users SET push_token = $2 WHERE id = $1`, userID, nullString(token))
	if err != nil {
		return fmt.Errorf("failed to set push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set push token for %s: %w", userID, db.ErrNotFound)
	}
	return nil
}

// SetUserCounters overwrites a user's EcoScore and check-in count
func (d *DB) SetUserCounters(ctx context.Context, userID string, ecoScore, totalCheckIns int) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE users SET eco_score = $2, total_check_ins = $3 WHERE id = $1
	`, userID, ecoScore, totalCheckIns)
	if err != nil {
		return fmt.Errorf("failed to set user counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set counters for %s: %w", userID, db.ErrNotFound)
	}
	return nil
}
