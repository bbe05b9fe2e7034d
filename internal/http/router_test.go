package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	apphttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret-router-test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Env:                "test",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:       4096,
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	tokens := auth.NewManager(testSecret, "taskhub", "taskhub-clients", time.Hour)
	authSvc := service.NewAuthService(memory.NewUsersRepo(), tokens, prom)
	taskSvc := service.NewTaskService(memory.NewTasksRepo(), cache.New(time.Minute), prom)

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return apphttp.NewRouter(log, cfg, apphttp.Deps{
		Auth:     &apphttp.AuthDeps{Workflow: authSvc, Verifier: authSvc},
		Tasks:    taskSvc,
		Prom:     prom,
		Gatherer: reg,
	})
}

type client struct {
	t     *testing.T
	r     http.Handler
	token string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body=%s", w.Body.String())
	return out
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type taskBody struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	IsCompleted bool   `json:"isCompleted"`
	UserID      string `json:"userId"`
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func register(t *testing.T, r http.Handler, username string) *client {
	t.Helper()

	c := &client{t: t, r: r}
	w := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":        username,
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[authBody](t, w)
	require.NotEmpty(t, body.Token)
	assert.Equal(t, username, body.User.Username)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	c.token = body.Token
	return c
}

func TestRouter_TaskLifecycle(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice")

	// login issues a fresh token that works the same way
	login := alice.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, login.Code, login.Body.String())
	alice.token = decode[authBody](t, login).Token

	created := alice.do(http.MethodPost, "/api/tasks", map[string]any{
		"title":    "Buy milk",
		"category": "Errand",
		"userId":   "forged",
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	tk := decode[taskBody](t, created)
	assert.NotEqual(t, "forged", tk.UserID)
	assert.Equal(t, "/api/tasks/"+tk.ID, created.Header().Get("Location"))

	list := alice.do(http.MethodGet, "/api/tasks?category=errand", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode[[]taskBody](t, list), 1)

	cats := alice.do(http.MethodGet, "/api/tasks/categories", nil)
	require.Equal(t, http.StatusOK, cats.Code)
	assert.Equal(t, []string{"Errand"}, decode[[]string](t, cats))

	updated := alice.do(http.MethodPut, "/api/tasks/"+tk.ID, map[string]any{
		"title":       "Buy milk",
		"category":    "Errand",
		"isCompleted": true,
	})
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	assert.True(t, decode[taskBody](t, updated).IsCompleted)

	del := alice.do(http.MethodDelete, "/api/tasks/"+tk.ID, nil)
	assert.Equal(t, http.StatusNoContent, del.Code)

	gone := alice.do(http.MethodGet, "/api/tasks/"+tk.ID, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestRouter_CrossUserAccessIsNotFound(t *testing.T) {
	r := newTestRouter(t)
	alice := register(t, r, "alice")
	bob := register(t, r, "bob")

	created := alice.do(http.MethodPost, "/api/tasks", map[string]any{"title": "private", "category": "home"})
	require.Equal(t, http.StatusCreated, created.Code)
	id := decode[taskBody](t, created).ID

	get := bob.do(http.MethodGet, "/api/tasks/"+id, nil)
	put := bob.do(http.MethodPut, "/api/tasks/"+id, map[string]any{"title": "mine now", "category": "home"})
	del := bob.do(http.MethodDelete, "/api/tasks/"+id, nil)
	missing := bob.do(http.MethodGet, "/api/tasks/00000000-0000-0000-0000-000000000000", nil)

	for _, w := range []*httptest.ResponseRecorder{get, put, del, missing} {
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decode[errorBody](t, w).Error.Code)
	}

	// not-yours and missing are indistinguishable
	assert.JSONEq(t,
		stripRequestID(t, get.Body.Bytes()),
		stripRequestID(t, missing.Body.Bytes()))

	list := bob.do(http.MethodGet, "/api/tasks", nil)
	assert.Empty(t, decode[[]taskBody](t, list))

	// alice's task survived
	still := alice.do(http.MethodGet, "/api/tasks/"+id, nil)
	require.Equal(t, http.StatusOK, still.Code)
	assert.Equal(t, "private", decode[taskBody](t, still).Title)
}

func stripRequestID(t *testing.T, raw []byte) string {
	t.Helper()
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	delete(body["error"], "requestId")
	out, err := json.Marshal(body)
	require.NoError(t, err)
	return string(out)
}

func TestRouter_RequiresToken(t *testing.T) {
	r := newTestRouter(t)
	anon := &client{t: t, r: r}

	for _, path := range []string{"/api/tasks", "/api/tasks/categories"} {
		w := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized", decode[errorBody](t, w).Error.Code)
	}

	anon.token = "not-a-jwt"
	w := anon.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a token from another deployment is rejected
	foreign, _, err := auth.NewManager("some-other-secret-some-other-secret", "taskhub", "taskhub-clients", time.Hour).Issue("u", "eve")
	require.NoError(t, err)
	anon.token = foreign
	w = anon.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RegisterAndLoginErrors(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "alice")
	anon := &client{t: t, r: r}

	dup := anon.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "password": "secret1", "confirmPassword": "secret1",
	})
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Equal(t, "username_taken", decode[errorBody](t, dup).Error.Code)

	wrong := anon.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "wrong1"})
	unknown := anon.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "nobody", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, stripRequestID(t, wrong.Body.Bytes()), stripRequestID(t, unknown.Body.Bytes()))
}

func TestRouter_RequiresJSONContentType(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("username=alice"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_TokenCheckedBeforeBody(t *testing.T) {
	r := newTestRouter(t)

	// no token, no content type
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString("title=x"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode[errorBody](t, w).Error.Code)

	// no token, oversized body
	anon := &client{t: t, r: r}
	big := anon.do(http.MethodPost, "/api/tasks", map[string]string{
		"title": string(bytes.Repeat([]byte("t"), 8192)), "category": "work",
	})
	assert.Equal(t, http.StatusUnauthorized, big.Code)

	// with a token the content type is still enforced
	alice := register(t, r, "alice")
	req = httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString("title=x"))
	req.Header.Set("Authorization", "Bearer "+alice.token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	r := newTestRouter(t)
	anon := &client{t: t, r: r}

	w := anon.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": string(bytes.Repeat([]byte("a"), 8192)),
		"password": "secret1",
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "payload_too_large", decode[errorBody](t, w).Error.Code)

	// without a declared length the cap applies while the body is decoded
	body := `{"username":"` + string(bytes.Repeat([]byte("a"), 8192)) + `","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", io.NopCloser(bytes.NewBufferString(body)))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")

	streamed := httptest.NewRecorder()
	r.ServeHTTP(streamed, req)
	assert.Equal(t, http.StatusBadRequest, streamed.Code)
	assert.Contains(t, streamed.Body.String(), "body_too_large")
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)
	anon := &client{t: t, r: r}

	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/readyz", nil).Code)

	register(t, r, "alice")

	metrics := anon.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "taskhub_http_requests_total")
	assert.Contains(t, metrics.Body.String(), `taskhub_auth_attempts_total{op="register",result="success"} 1`)
}

func TestRouter_SecurityHeadersAndRequestID(t *testing.T) {
	r := newTestRouter(t)
	anon := &client{t: t, r: r}

	w := anon.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	id := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, id)
	assert.Equal(t, id, decode[errorBody](t, w).Error.RequestID)
}
