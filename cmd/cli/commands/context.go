package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/internal/config"
	"github.com/jakechorley/volunteer-events/pkg/clients/gmailclient"
	"github.com/jakechorley/volunteer-events/pkg/clients/sheetsclient"
	"github.com/jakechorley/volunteer-events/pkg/db"
	"github.com/jakechorley/volunteer-events/pkg/postgres"
	"github.com/jakechorley/volunteer-events/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands.
// Google clients are created on first use so commands that never touch
// Sheets or Gmail skip the OAuth flow. Each client asks only for its own job's scopes.
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database db.Database
	// Postgres is nil when running against the in-memory store
	Postgres *postgres.DB
	Logger   *zap.Logger
	Ctx      context.Context

	authorizer   *utils.Authorizer
	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
}

func (a *AppContext) googleAuth() (*utils.Authorizer, error) {
	if a.authorizer != nil {
		return a.authorizer, nil
	}

	a.Logger.Info("Loading OAuth client configuration")
	cfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}
	auth, err := utils.NewAuthorizer(cfg, a.Env, a.Logger)
	if err != nil {
		return nil, err
	}
	a.authorizer = auth
	return auth, nil
}

// SheetsClient returns the Sheets client, authorizing on first call
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if a.sheetsClient != nil {
		return a.sheetsClient, nil
	}

	auth, err := a.googleAuth()
	if err != nil {
		return nil, err
	}

	a.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(a.Ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	a.sheetsClient = client
	return client, nil
}

// GmailClient returns the Gmail client, authorizing on first call
func (a *AppContext) GmailClient() (*gmailclient.Client, error) {
	if a.gmailClient != nil {
		return a.gmailClient, nil
	}

	auth, err := a.googleAuth()
	if err != nil {
		return nil, err
	}

	a.Logger.Info("Initializing gmail client")
	client, err := gmailclient.NewClient(a.Ctx, auth, a.Cfg.Email.GmailUserID, a.Cfg.Email.Sender)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	a.gmailClient = client
	return client, nil
}

// RequirePostgres fails for commands that only make sense against a real database
func (a *AppContext) RequirePostgres() (*postgres.DB, error) {
	if a.Postgres == nil {
		return nil, fmt.Errorf("this command needs postgres; drop --in-memory")
	}
	return a.Postgres, nil
}

// Close releases the database pool
func (a *AppContext) Close() {
	if a.Postgres != nil {
		a.Postgres.Close()
	}
}
