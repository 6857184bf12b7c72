package firebaseclient

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/services"
)

// NewApp initializes the Firebase app from the service-account file in cfg
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}

// tokenVerifier is the part of *auth.Client the Verifier uses
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier checks Firebase ID tokens sent by the web client
type Verifier struct {
	client tokenVerifier
}

// NewVerifier returns a Verifier backed by the app's auth client
func NewVerifier(ctx context.Context, app *firebase.App) (*Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firebase auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

// Verify validates the ID token and returns the identity it asserts
func (v *Verifier) Verify(ctx context.Context, idToken string) (services.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return services.Identity{}, fmt.Errorf("failed to verify id token: %w", err)
	}
	return identityFromClaims(token.UID, token.Claims), nil
}

func identityFromClaims(uid string, claims map[string]interface{}) services.Identity {
	identity := services.Identity{UID: uid}
	if name, ok := claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	return identity
}
