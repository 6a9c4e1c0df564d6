package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "recipeserv/src/app"
)

const (
	createUserURL = "/user/create/"
	tokenURL      = "/user/token/"
	meURL         = "/user/me/"
	logoutURL     = "/user/logout/"
)

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func TestPublicUserAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateValidUser", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, createUserURL, gin.H{
			"email": "test@example.com", "password": "testpass123", "name": "Test Name",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		body := decode[map[string]any](t, w)
		assert.Equal(t, "test@example.com", body["email"])
		assert.Equal(t, "Test Name", body["name"])
		assert.NotContains(t, body, "password")

		user, err := env.handler.users.GetUserByEmail(ctx, "test@example.com")
		require.NoError(t, err)
		assert.True(t, user.CheckPassword("testpass123"))
	})

	t.Run("UserExists", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser("test@example.com")
		w := env.do(http.MethodPost, createUserURL, gin.H{
			"email": "test@example.com", "password": "testpass123",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("PasswordTooShort", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, createUserURL, gin.H{
			"email": "test@example.com", "password": "pw",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[errorBody](t, w)
		assert.Equal(t, "error", body.Message)
		assert.Contains(t, body.Error, "password")

		_, err := env.handler.users.GetUserByEmail(ctx, "test@example.com")
		assert.ErrorIs(t, err, app.ErrNotFound)
	})

	t.Run("PasswordTooLong", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, createUserURL, gin.H{
			"email": "long@example.com", "password": strings.Repeat("p", 80),
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[errorBody](t, w).Error, "password")

		_, err := env.handler.users.GetUserByEmail(ctx, "long@example.com")
		assert.ErrorIs(t, err, app.ErrNotFound)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, createUserURL, gin.H{"email": "not-an-email", "password": "testpass123"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CreateToken", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser("test@example.com")
		w := env.do(http.MethodPost, tokenURL, gin.H{"email": "test@example.com", "password": "testpass123"}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode[tokenResponse](t, w)
		require.NotEmpty(t, body.Token)
		assert.Equal(t, http.StatusOK, env.do(http.MethodGet, meURL, nil, body.Token).Code)
	})

	t.Run("TokenBadCredentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser("test@example.com")
		w := env.do(http.MethodPost, tokenURL, gin.H{"email": "test@example.com", "password": "wrong"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), "token\"")
	})

	t.Run("TokenNoUser", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(http.MethodPost, tokenURL, gin.H{"email": "test@example.com", "password": "testpass123"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("TokenMissingField", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser("test@example.com")
		w := env.do(http.MethodPost, tokenURL, gin.H{"email": "test@example.com", "password": ""}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MeRequiresAuth", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, meURL, nil, "").Code)
	})
}

func TestPrivateUserAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("RetrieveProfile", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("test@example.com")
		w := env.do(http.MethodGet, meURL, nil, env.token(user))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userResponse{Email: "test@example.com", Name: "Test Name"}, decode[userResponse](t, w))
	})

	t.Run("PostNotAllowed", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("test@example.com")
		w := env.do(http.MethodPost, meURL, gin.H{}, env.token(user))
		assert.NotEqual(t, http.StatusOK, w.Code)
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("test@example.com")
		w := env.do(http.MethodPatch, meURL, gin.H{"name": "new name", "password": "newpassword123"}, env.token(user))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "new name", decode[userResponse](t, w).Name)

		stored, err := env.handler.users.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "new name", stored.Name)
		assert.True(t, stored.CheckPassword("newpassword123"))
	})

	t.Run("UpdatePasswordTooLong", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("test@example.com")
		w := env.do(http.MethodPatch, meURL, gin.H{"password": strings.Repeat("p", 80)}, env.token(user))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		stored, err := env.handler.users.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, stored.CheckPassword("testpass123"))
	})

	t.Run("PutNeedsName", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("test@example.com")
		w := env.do(http.MethodPut, meURL, gin.H{"password": "newpassword123"}, env.token(user))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("LogoutRevokesToken", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("test@example.com")
		token := env.token(user)

		assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, logoutURL, nil, token).Code)
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, meURL, nil, token).Code)
	})

	t.Run("InactiveUserRejected", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("test@example.com")
		token := env.token(user)
		require.NoError(t, env.handler.users.DB.Model(&app.User{}).
			Where("id = ?", user.ID).Update("is_active", false).Error)

		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, meURL, nil, token).Code)
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
