package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/volunteer-events/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".volunteer-events/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
)

// Job is a CLI job that calls Google. Every job keeps its own token holding only the scopes it uses.
type Job string

const (
	JobRosterExport Job = "roster-export"
	JobEmailRelay   Job = "email-relay"
)

var jobScopes = map[Job][]string{
	JobRosterExport: {sheets.SpreadsheetsScope},
	JobEmailRelay:   {gmail.GmailSendScope},
}

// Scopes returns the OAuth scopes the job requests
func (j Job) Scopes() ([]string, error) {
	scopes, ok := jobScopes[j]
	if !ok {
		return nil, fmt.Errorf("unknown google job %q", j)
	}
	return scopes, nil
}

// storedToken is the on-disk form of a job token
type storedToken struct {
	Token  *oauth2.Token `json:"token"`
	Scopes []string      `json:"scopes"`
}

// Authorizer hands out job tokens. Tokens are read from disk, refreshed when
// expired and obtained through the browser consent flow when neither works.
type Authorizer struct {
	client   *config.OAuthClientConfig
	env      string
	tokenDir string
	port     int
	logger   *zap.Logger
	// prompt receives the consent URL
	prompt io.Writer

	mu     sync.Mutex
	tokens map[Job]*oauth2.Token
}

// NewAuthorizer stores tokens for env under ~/.volunteer-events/tokens
func NewAuthorizer(client *config.OAuthClientConfig, env string, logger *zap.Logger) (*Authorizer, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return newAuthorizer(client, env, filepath.Join(homeDir, tokenDirName), logger), nil
}

func newAuthorizer(client *config.OAuthClientConfig, env, tokenDir string, logger *zap.Logger) *Authorizer {
	return &Authorizer{
		client:   client,
		env:      env,
		tokenDir: tokenDir,
		port:     AuthPort,
		logger:   logger,
		prompt:   os.Stdout,
		tokens:   make(map[Job]*oauth2.Token),
	}
}

// Config builds the OAuth2 config for a job with the redirect pointed at the local callback
func (a *Authorizer) Config(job Job) (*oauth2.Config, error) {
	scopes, err := job.Scopes()
	if err != nil {
		return nil, err
	}

	clientJSON, err := json.Marshal(a.client)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth client: %w", err)
	}
	cfg, err := google.ConfigFromJSON(clientJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d%s", a.port, callbackPath)
	return cfg, nil
}

// HTTPClient returns a client that authorizes requests with the job's token
func (a *Authorizer) HTTPClient(ctx context.Context, job Job) (*http.Client, error) {
	cfg, err := a.Config(job)
	if err != nil {
		return nil, err
	}
	token, err := a.Token(ctx, job)
	if err != nil {
		return nil, err
	}
	return cfg.Client(ctx, token), nil
}

// Token returns a valid token for the job. Only one consent flow runs at a time.
func (a *Authorizer) Token(ctx context.Context, job Job) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if token := a.tokens[job]; token != nil && token.Valid() {
		return token, nil
	}

	cfg, err := a.Config(job)
	if err != nil {
		return nil, err
	}
	logger := a.logger.With(zap.String("job", string(job)))

	stored, err := a.load(job)
	if err != nil {
		logger.Warn("Ignoring unreadable token file", zap.Error(err))
	}
	if stored != nil {
		if token := a.reuse(ctx, cfg, job, stored, logger); token != nil {
			a.tokens[job] = token
			return token, nil
		}
	}

	token, err := a.consent(ctx, cfg)
	if err != nil {
		return nil, err
	}
	granted := grantedScopes(token, cfg.Scopes)
	if missing := missingScopes(granted, cfg.Scopes); len(missing) > 0 {
		return nil, fmt.Errorf("consent for %s did not grant %v; accept every requested permission", job, missing)
	}

	if err := a.save(job, storedToken{Token: token, Scopes: granted}); err != nil {
		logger.Warn("Failed to save token", zap.Error(err))
	}
	a.tokens[job] = token
	return token, nil
}

// reuse returns the stored token, refreshed if needed, or nil when a new consent is required
func (a *Authorizer) reuse(ctx context.Context, cfg *oauth2.Config, job Job, stored *storedToken, logger *zap.Logger) *oauth2.Token {
	if missing := missingScopes(stored.Scopes, cfg.Scopes); len(missing) > 0 {
		logger.Info("Stored token lacks scopes, asking for consent again", zap.Strings("missing", missing))
		if err := a.remove(job); err != nil {
			logger.Warn("Failed to delete token file", zap.Error(err))
		}
		return nil
	}
	if stored.Token.Valid() {
		return stored.Token
	}
	if stored.Token.RefreshToken == "" {
		return nil
	}

	refreshed, err := cfg.TokenSource(ctx, stored.Token).Token()
	if err != nil {
		logger.Info("Token refresh failed, asking for consent again", zap.Error(err))
		return nil
	}
	logger.Debug("Token refreshed")
	if err := a.save(job, storedToken{Token: refreshed, Scopes: stored.Scopes}); err != nil {
		logger.Warn("Failed to save refreshed token", zap.Error(err))
	}
	return refreshed
}

// consent sends the user to Google and exchanges the code delivered to the local callback
func (a *Authorizer) consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	state := uuid.NewString()

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", a.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for oauth callback: %w", err)
	}

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, codes, errs))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("callback server: %w", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(a.prompt, "\nVisit this URL to authorize %s:\n%s\n\n", strings.Join(cfg.Scopes, ", "),
		cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, fmt.Errorf("authorization failed: %w", err)
	case <-waitCtx.Done():
		return nil, fmt.Errorf("authorization timed out after %v", authTimeout)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

// callbackHandler delivers the authorization code of a request carrying the expected state
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		if reason := query.Get("error"); reason != "" {
			http.Error(w, "Authorization denied", http.StatusForbidden)
			trySend(errs, fmt.Errorf("consent denied: %s", reason))
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			trySend(errs, errors.New("no authorization code received"))
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)
		trySend(codes, code)
	}
}

func trySend[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// grantedScopes reads the scopes Google reports on the token, assuming the requested ones when absent
func grantedScopes(token *oauth2.Token, requested []string) []string {
	if s, ok := token.Extra("scope").(string); ok && strings.TrimSpace(s) != "" {
		return strings.Fields(s)
	}
	return slices.Clone(requested)
}

func missingScopes(granted, required []string) []string {
	var missing []string
	for _, scope := range required {
		if !slices.Contains(granted, scope) {
			missing = append(missing, scope)
		}
	}
	return missing
}

func (a *Authorizer) tokenPath(job Job) string {
	return filepath.Join(a.tokenDir, fmt.Sprintf("token-%s-%s.json", a.env, job))
}

// load returns nil without error when the job has no token file yet
func (a *Authorizer) load(job Job) (*storedToken, error) {
	data, err := os.ReadFile(a.tokenPath(job))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if stored.Token == nil {
		return nil, fmt.Errorf("token file %s holds no token", a.tokenPath(job))
	}
	return &stored, nil
}

func (a *Authorizer) save(job Job, stored storedToken) error {
	if err := os.MkdirAll(a.tokenDir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(a.tokenPath(job), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (a *Authorizer) remove(job Job) error {
	if err := os.Remove(a.tokenPath(job)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
