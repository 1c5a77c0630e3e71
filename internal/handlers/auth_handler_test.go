package handlers_test

import (
	"net/http"
	"sync"
	"testing"

	"kanban-board-api/internal/handlers"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestLogin_CreatesProfileOnFirstSignIn(t *testing.T) {
	e := newEnv(t)

	token, profile := e.login(t, "alex@example.com", "pw", "Alex")
	require.NotEmpty(t, profile.ID)
	require.Equal(t, "alex@example.com", profile.Email)
	require.Equal(t, "Alex", profile.FullName)

	// The hash never leaves the server.
	w := e.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "password")
}

func TestLogin_SecondSignInReusesProfile(t *testing.T) {
	e := newEnv(t)

	_, first := e.login(t, "alex@example.com", "pw", "Alex")
	_, second := e.login(t, "alex@example.com", "pw", "Alex")
	require.Equal(t, first.ID, second.ID)
}

func TestLogin_ConcurrentFirstSignInsShareOneProfile(t *testing.T) {
	e := newEnv(t)

	const attempts = 4
	var wg sync.WaitGroup
	codes := make([]int, attempts)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			w := e.do(t, http.MethodPost, "/api/login", "", gin.H{
				"email":     "race@example.com",
				"password":  "pw",
				"full_name": "Racer",
			})
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		require.Equal(t, http.StatusOK, code)
	}

	var count int64
	require.NoError(t, e.db.Model(&models.Profile{}).
		Where("email = ?", "race@example.com").
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alex@example.com", "correct", "Alex")

	w := e.do(t, http.MethodPost, "/api/login", "", gin.H{
		"email":    "alex@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingFieldsRejected(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alex@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "not-an-email", "password": "pw"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")

	w := e.do(t, http.MethodPut, "/api/profile", token, gin.H{
		"full_name":  "Alex Chen",
		"avatar_url": "https://example.com/alex.png",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var profile models.Profile
	decodeBody(t, w, &profile)
	require.Equal(t, "Alex Chen", profile.FullName)
	require.Equal(t, "https://example.com/alex.png", profile.AvatarURL)
}

func TestGetAllUsers(t *testing.T) {
	e := newEnv(t)
	token, _ := e.login(t, "alex@example.com", "pw", "Alex")
	e.login(t, "sam@example.com", "pw", "Sam")

	w := e.do(t, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Users []models.Profile `json:"users"`
		Count int              `json:"count"`
	}
	decodeBody(t, w, &resp)
	require.Equal(t, 2, resp.Count)
}

func TestLoginResponseShape(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/login", "", gin.H{
		"email":     "alex@example.com",
		"password":  "pw",
		"full_name": "Alex",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.LoginResponse
	decodeBody(t, w, &resp)
	require.Equal(t, "Login successful", resp.Message)
	require.NotEmpty(t, resp.Token)
}
