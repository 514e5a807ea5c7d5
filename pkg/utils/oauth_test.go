package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/volunteer-events/internal/config"
)

func testClient() *config.OAuthClientConfig {
	return &config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:                "client-id",
		ProjectID:               "volunteer-events",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "secret",
		RedirectURIs:            []string{"http://localhost"},
	}}
}

func TestJobScopes(t *testing.T) {
	scopes, err := JobRosterExport.Scopes()
	require.NoError(t, err)
	assert.Equal(t, []string{sheets.SpreadsheetsScope}, scopes)

	scopes, err = JobEmailRelay.Scopes()
	require.NoError(t, err)
	assert.Equal(t, []string{gmail.GmailSendScope}, scopes)

	_, err = Job("calendar").Scopes()
	assert.Error(t, err)
}

func TestAuthorizerConfig(t *testing.T) {
	a := newAuthorizer(testClient(), "test", t.TempDir(), zap.NewNop())

	cfg, err := a.Config(JobEmailRelay)
	require.NoError(t, err)
	assert.Equal(t, []string{gmail.GmailSendScope}, cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)
	assert.Equal(t, "client-id", cfg.ClientID)
}

func TestMissingScopes(t *testing.T) {
	assert.Empty(t, missingScopes([]string{sheets.SpreadsheetsScope, "openid"}, []string{sheets.SpreadsheetsScope}))
	assert.Equal(t, []string{gmail.GmailSendScope}, missingScopes([]string{sheets.SpreadsheetsScope}, []string{gmail.GmailSendScope}))
}

func TestGrantedScopes(t *testing.T) {
	token := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{
		"scope": sheets.SpreadsheetsScope + " openid",
	})
	assert.Equal(t, []string{sheets.SpreadsheetsScope, "openid"}, grantedScopes(token, nil))

	bare := &oauth2.Token{AccessToken: "a"}
	assert.Equal(t, []string{gmail.GmailSendScope}, grantedScopes(bare, []string{gmail.GmailSendScope}))
}

func TestToken_ReusesStoredTokenPerJob(t *testing.T) {
	dir := t.TempDir()
	a := newAuthorizer(testClient(), "test", dir, zap.NewNop())

	stored := &oauth2.Token{AccessToken: "sheets-token", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, a.save(JobRosterExport, storedToken{Token: stored, Scopes: []string{sheets.SpreadsheetsScope}}))

	info, err := os.Stat(a.tokenPath(JobRosterExport))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())

	token, err := a.Token(context.Background(), JobRosterExport)
	require.NoError(t, err)
	assert.Equal(t, "sheets-token", token.AccessToken)

	relay, err := a.load(JobEmailRelay)
	require.NoError(t, err)
	assert.Nil(t, relay)
}

func TestReuse_DropsTokenWithoutJobScopes(t *testing.T) {
	a := newAuthorizer(testClient(), "test", t.TempDir(), zap.NewNop())
	stored := storedToken{
		Token:  &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(time.Hour)},
		Scopes: []string{sheets.SpreadsheetsScope},
	}
	require.NoError(t, a.save(JobEmailRelay, stored))

	cfg, err := a.Config(JobEmailRelay)
	require.NoError(t, err)
	assert.Nil(t, a.reuse(context.Background(), cfg, JobEmailRelay, &stored, zap.NewNop()))

	_, err = os.Stat(a.tokenPath(JobEmailRelay))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
		wantErr    bool
	}{
		{name: "code delivered", query: "?state=s1&code=abc", wantStatus: http.StatusOK, wantCode: "abc"},
		{name: "wrong state", query: "?state=other&code=abc", wantStatus: http.StatusBadRequest},
		{name: "denied", query: "?state=s1&error=access_denied", wantStatus: http.StatusForbidden, wantErr: true},
		{name: "no code", query: "?state=s1", wantStatus: http.StatusBadRequest, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(chan string, 1)
			errs := make(chan error, 1)
			rec := httptest.NewRecorder()

			callbackHandler("s1", codes, errs)(rec, httptest.NewRequest(http.MethodGet, callbackPath+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, <-codes)
			} else {
				assert.Empty(t, codes)
			}
			assert.Equal(t, tt.wantErr, len(errs) == 1)
		})
	}
}
