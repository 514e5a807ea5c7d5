package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/auth"
	"github.com/jakechorley/volunteer-events/pkg/db/memdb"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenIssuer("test-secret-0123456789", time.Hour)
	srv := NewServer(memdb.New(), tokens, zap.NewNop(), Options{SeriesMaxOccurrences: 10})
	return &testServer{t: t, router: srv.Router()}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// signUp creates an account and returns its token and profile id
func (ts *testServer) signUp(role string) (string, string) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/accounts", "", accountRequest{
		Username:  fmt.Sprintf("test_%s", gofakeit.LetterN(10)),
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Password:  gofakeit.Password(true, true, true, false, false, 12),
		Role:      role,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[tokenResponse](ts.t, rec)
	return resp.Token, resp.Profile.ID
}

func (ts *testServer) createEvent(token string, maxVolunteers int) eventResponse {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/events", token, eventRequest{
		Title:         "Beach clean",
		Description:   "Bring gloves",
		Date:          time.Now().AddDate(0, 0, 7).Format(dateLayout),
		Time:          "10:00",
		Location:      "Pier 3",
		City:          "Berlin",
		MaxVolunteers: maxVolunteers,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[eventResponse](ts.t, rec)
}

func TestRegistrationFlow(t *testing.T) {
	ts := newTestServer(t)
	orgToken, _ := ts.signUp("organizer")
	aliceToken, _ := ts.signUp("volunteer")
	bobToken, _ := ts.signUp("volunteer")

	event := ts.createEvent(orgToken, 1)
	assert.Equal(t, 1, event.SpotsLeft)
	require.NotNil(t, event.Time)
	assert.Equal(t, "10:00", *event.Time)

	rec := ts.do(http.MethodPost, "/events/"+event.ID+"/register", aliceToken, registerRequest{Message: "count me in"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[registrationResponse](t, rec)
	assert.Equal(t, "pending", string(reg.Status))

	rec = ts.do(http.MethodGet, "/api/notifications/count", orgToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/registrations/"+reg.ID+"/decision", aliceToken, decisionRequest{Decision: "approve"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, "/registrations/"+reg.ID+"/decision", orgToken, decisionRequest{Decision: "approve"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/notifications/latest", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode[latestResponse](t, rec)
	assert.Equal(t, 1, latest.Count)
	require.Len(t, latest.Notifications, 1)
	n := latest.Notifications[0]
	assert.Equal(t, "application_approved", string(n.Type))
	assert.Equal(t, "✅", n.Icon)
	require.NotNil(t, n.URL)
	assert.Equal(t, "/events/"+event.ID+"/", *n.URL)
	assert.Regexp(t, regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}$`), n.CreatedAt)

	rec = ts.do(http.MethodPost, "/events/"+event.ID+"/register", bobToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "spots are taken")

	rec = ts.do(http.MethodGet, "/events/"+event.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[eventDetailResponse](t, rec)
	assert.True(t, detail.Event.IsFull)
	assert.False(t, detail.CanRegister)
	assert.Len(t, detail.Registrations, 1)
}

func TestLatestUnread_RawShape(t *testing.T) {
	ts := newTestServer(t)
	orgToken, _ := ts.signUp("organizer")
	volToken, _ := ts.signUp("volunteer")
	event := ts.createEvent(orgToken, 3)

	rec := ts.do(http.MethodPost, "/events/"+event.ID+"/register", volToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/api/notifications/latest", orgToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.EqualValues(t, 1, raw["count"])
	items, ok := raw["notifications"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	for _, key := range []string{"id", "type", "title", "message", "icon", "created_at", "url"} {
		assert.Contains(t, item, key)
	}
	assert.Equal(t, "new_application", item["type"])
	assert.Equal(t, "📬", item["icon"])
}

func TestNotifications_MarkReadAndAll(t *testing.T) {
	ts := newTestServer(t)
	orgToken, _ := ts.signUp("organizer")
	volToken, _ := ts.signUp("volunteer")
	otherToken, _ := ts.signUp("volunteer")

	for i := 0; i < 2; i++ {
		event := ts.createEvent(orgToken, 3)
		rec := ts.do(http.MethodPost, "/events/"+event.ID+"/register", volToken, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(http.MethodGet, "/notifications?filter=unread", orgToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[notificationListResponse](t, rec)
	require.Len(t, list.Notifications, 2)
	assert.Equal(t, 2, list.UnreadCount)

	id := list.Notifications[0].ID
	rec = ts.do(http.MethodPost, "/notifications/"+id+"/read", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/notifications/"+id+"/read", orgToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, "/api/notifications/count", orgToken, nil)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())

	for i := 0; i < 2; i++ {
		rec = ts.do(http.MethodPost, "/notifications/read-all", orgToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		rec = ts.do(http.MethodGet, "/api/notifications/count", orgToken, nil)
		assert.JSONEq(t, `{"count":0}`, rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/notifications/count", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/notifications/count", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	username := "login_" + gofakeit.LetterN(8)
	password := gofakeit.Password(true, true, true, false, false, 12)

	rec := ts.do(http.MethodPost, "/accounts", "", accountRequest{
		Username: username, Email: gofakeit.Email(), Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/accounts", "", accountRequest{
		Username: username, Email: gofakeit.Email(), Password: password,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/login", "", loginRequest{Username: username, Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[tokenResponse](t, rec)
	assert.Equal(t, "volunteer", string(resp.Profile.Role))

	rec = ts.do(http.MethodGet, "/profile", resp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, username, decode[profileResponse](t, rec).Username)
}

func TestCreateEvent_RoleAndValidation(t *testing.T) {
	ts := newTestServer(t)
	volToken, _ := ts.signUp("volunteer")
	orgToken, _ := ts.signUp("organizer")

	valid := eventRequest{
		Title: "Tree planting", Description: "spades provided", Date: "2099-04-01",
		Location: "Park", MaxVolunteers: 4,
	}
	rec := ts.do(http.MethodPost, "/events", volToken, valid)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	invalid := valid
	invalid.Date = "01/04/2099"
	rec = ts.do(http.MethodPost, "/events", orgToken, invalid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	invalid = valid
	invalid.MaxVolunteers = 0
	rec = ts.do(http.MethodPost, "/events", orgToken, invalid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	series := seriesRequest{eventRequest: valid, RRule: "FREQ=WEEKLY;COUNT=3"}
	rec = ts.do(http.MethodPost, "/events/series", orgToken, series)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]eventResponse](t, rec), 3)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodGet, "/events", "", nil)

	rec := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/events",status="200"} 1`), body)
}

func TestUnknownIDs(t *testing.T) {
	ts := newTestServer(t)
	orgToken, _ := ts.signUp("organizer")

	rec := ts.do(http.MethodGet, "/events/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/events?skill=foo", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]eventResponse](t, rec))

	rec = ts.do(http.MethodPost, "/events", orgToken, eventRequest{
		Title: "Tree planting", Description: "spades provided", Date: "2099-04-01",
		Location: "Park", MaxVolunteers: 4, SkillIDs: []string{"no-such-skill"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
