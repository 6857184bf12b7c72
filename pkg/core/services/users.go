package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// UserStore defines the database operations needed to manage accounts
type UserStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) error
	SetPushToken(ctx context.Context, userID, token string) error
}

// Identity is what the identity provider tells us about a signed-in user
type Identity struct {
	UID         string
	DisplayName string
	Email       string
}

// RegisterUser creates the account on first sign-in, or refreshes the name and email
// of an existing one. New accounts get requestedType when valid, volunteer otherwise;
// an existing account's type never changes here.
func RegisterUser(ctx context.Context, store UserStore, logger *zap.Logger, identity Identity, requestedType model.UserType) (*model.User, error) {
	if identity.UID == "" {
		return nil, ErrUnauthenticated
	}

	userType := requestedType
	if !userType.IsValid() {
		userType = model.UserTypeVolunteer
	}

	displayName := identity.DisplayName
	if displayName == "" {
		displayName = identity.Email
	}

	err := store.UpsertUser(ctx, &model.User{
		ID:          identity.UID,
		DisplayName: displayName,
		Email:       identity.Email,
		UserType:    userType,
		CreatedAt:   now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user, err := store.GetUser(ctx, identity.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registered user: %w", err)
	}

	logger.Debug("User registered", zap.String("user_id", user.ID), zap.String("user_type", string(user.UserType)))

	return user, nil
}

// SessionFor resolves the session of an existing user
func SessionFor(ctx context.Context, store UserStore, userID string) (model.Session, error) {
	user, err := store.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return model.Session{}, ErrUserNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return model.Session{UserID: user.ID, UserType: user.UserType}, nil
}

// SetPushToken stores the device token used for push notifications
func SetPushToken(ctx context.Context, store UserStore, logger *zap.Logger, session model.Session, token string) error {
	if err := requireUser(session); err != nil {
		return err
	}

	err := store.SetPushToken(ctx, session.UserID, token)
	if errors.Is(err, db.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to set push token: %w", err)
	}

	logger.Debug("Push token updated", zap.String("user_id", session.UserID), zap.Bool("cleared", token == ""))
	return nil
}
