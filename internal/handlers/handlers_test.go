package handlers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kanban-board-api/internal/backend"
	"kanban-board-api/internal/handlers"
	"kanban-board-api/internal/models"
	"kanban-board-api/internal/realtime"
	"kanban-board-api/internal/routes"
	"kanban-board-api/internal/store"
	"kanban-board-api/internal/syncbridge"
	"kanban-board-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	router *gin.Engine
	db     *gorm.DB
	svc    *backend.Service
	store  *store.Store
	feed   *realtime.Feed
	bridge *syncbridge.Bridge
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	feed := realtime.NewFeed()
	svc := backend.NewService(db, feed)
	st := store.New(svc)

	e := &env{
		router: routes.Setup(handlers.New(svc, st, feed)),
		db:     db,
		svc:    svc,
		store:  st,
		feed:   feed,
		bridge: syncbridge.New(st, svc, feed),
	}
	return e
}

// refresh reinstalls the store snapshot so store-backed endpoints see the
// latest committed rows without running the feed loop in the background.
func (e *env) refresh(t *testing.T) {
	t.Helper()
	require.NoError(t, e.bridge.LoadInitial(context.Background()))
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login signs in (creating the profile lazily on first use) and returns the
// bearer token plus the profile.
func (e *env) login(t *testing.T, email, password, fullName string) (string, models.Profile) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/login", "", gin.H{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.Profile
}

func (e *env) seedBoard(t *testing.T) (models.Team, models.Project) {
	t.Helper()
	ctx := context.Background()
	team, err := e.svc.CreateTeam(ctx, models.Team{Name: "Avionics"})
	require.NoError(t, err)
	project, err := e.svc.CreateProject(ctx, models.Project{Name: "Engine Control", TeamID: team.ID})
	require.NoError(t, err)
	return team, project
}

func signPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decodeBody(t, w, &resp)
	require.Equal(t, "ok", resp["status"])
}
