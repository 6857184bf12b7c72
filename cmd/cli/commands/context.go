package commands

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/clients/firebaseclient"
	"github.com/projectseashield/seashield/pkg/clients/gmailclient"
	"github.com/projectseashield/seashield/pkg/clients/pushclient"
	"github.com/projectseashield/seashield/pkg/clients/sheetsclient"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/services"
	"github.com/projectseashield/seashield/pkg/db"
	"github.com/projectseashield/seashield/pkg/utils"
)

// Migrator applies pending schema migrations
type Migrator interface {
	RunMigrations(ctx context.Context) ([]string, error)
}

// AppContext holds the application dependencies shared across all commands.
// Google and Firebase clients are created on first use so that commands which
// don't need them never trigger an OAuth flow.
type AppContext struct {
	Cfg      *config.Config
	Env      string
	Database db.Database
	// Migrator is nil when running against the in-memory store
	Migrator Migrator
	Logger   *zap.Logger
	Ctx      context.Context
	// ActingUser is the user ID operations run as (--as)
	ActingUser string

	oauthCfg     *config.OAuthClientConfig
	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
	firebaseApp  *firebase.App
}

// Session resolves the acting user's session
func (app *AppContext) Session() (model.Session, error) {
	if app.ActingUser == "" {
		return model.Session{}, errors.New("no acting user: pass --as <userID> or run 'as <userID>'")
	}
	session, err := services.SessionFor(app.Ctx, app.Database, app.ActingUser)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to resolve user %q: %w", app.ActingUser, err)
	}
	return session, nil
}

func (app *AppContext) loadOAuthConfig() (*config.OAuthClientConfig, error) {
	if app.oauthCfg != nil {
		return app.oauthCfg, nil
	}

	app.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}
	app.oauthCfg = oauthCfg
	return oauthCfg, nil
}

// SheetsClient returns the Google Sheets client, authorizing on first use
func (app *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if app.sheetsClient != nil {
		return app.sheetsClient, nil
	}

	oauthCfg, err := app.loadOAuthConfig()
	if err != nil {
		return nil, err
	}

	tokens, err := utils.DefaultTokenStore()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, tokens, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.sheetsClient = client
	return client, nil
}

// GmailClient returns the Gmail client, sharing the sheets client's token
func (app *AppContext) GmailClient() (*gmailclient.Client, error) {
	if app.gmailClient != nil {
		return app.gmailClient, nil
	}

	sheets, err := app.SheetsClient()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing gmail client")
	client, err := gmailclient.NewClient(app.Ctx, app.oauthCfg, sheets.Token(), app.Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	app.gmailClient = client
	return client, nil
}

// FirebaseApp returns the Firebase app used for token verification and push
func (app *AppContext) FirebaseApp() (*firebase.App, error) {
	if app.firebaseApp != nil {
		return app.firebaseApp, nil
	}
	if app.Cfg.Firebase.CredentialsFile == "" {
		return nil, fmt.Errorf("firebase credentials not configured (set firebase.credentialsFile or %s)", config.EnvFirebaseCredentials)
	}

	app.Logger.Info("Initializing firebase app")
	fbApp, err := firebaseclient.NewApp(app.Ctx, app.Cfg.Firebase)
	if err != nil {
		return nil, err
	}
	app.firebaseApp = fbApp
	return fbApp, nil
}

// Notifiers builds the delivery channels selected by the flags
func (app *AppContext) Notifiers(email, push bool) ([]services.Notifier, error) {
	var notifiers []services.Notifier

	if email {
		client, err := app.GmailClient()
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, client)
	}

	if push {
		fbApp, err := app.FirebaseApp()
		if err != nil {
			return nil, err
		}
		client, err := pushclient.NewClient(app.Ctx, fbApp)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, client)
	}

	return notifiers, nil
}
