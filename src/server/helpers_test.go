package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	app "recipeserv/src/app"
	cfg "recipeserv/src/configuration"
	db "recipeserv/src/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	t       *testing.T
	config  *cfg.Properties
	db      *gorm.DB
	handler *Handler
	router  *gin.Engine
	storage *app.LocalStorage
}

func testConfig(t *testing.T) *cfg.Properties {
	t.Helper()
	config, err := cfg.ParseProperties(map[string]string{
		"AUTH_JWT_SECRET":   testSecret,
		"DB_DRIVER":         "sqlite",
		"DB_DSN":            ":memory:",
		"STORAGE_LOCAL_DIR": t.TempDir(),
	})
	require.NoError(t, err)
	return config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config := testConfig(t)

	database, err := db.OpenDatabase(config.DB)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(database) })

	storage, err := app.NewLocalStorage(config.Storage.LocalDir, config.Storage.PublicURL)
	require.NoError(t, err)
	handler, err := NewHandler(config, database, db.NewInMemoryTokenStore(), storage)
	require.NoError(t, err)

	return &testEnv{
		t:       t,
		config:  config,
		db:      database,
		handler: handler,
		router:  NewRouter(config, handler, nil),
		storage: storage,
	}
}

func (e *testEnv) createUser(email string) *app.User {
	e.t.Helper()
	user, err := e.handler.users.CreateUser(context.Background(), email, "testpass123", "Test Name")
	require.NoError(e.t, err)
	return user
}

func (e *testEnv) token(user *app.User) string {
	e.t.Helper()
	token, err := e.handler.issueToken(context.Background(), user)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
