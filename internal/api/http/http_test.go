package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/donna-backend/internal/auth"
	"github.com/GoSim-25-26J-441/donna-backend/internal/logging"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

type runner bool

func (r runner) Running() bool { return bool(r) }

type chatter struct {
	conv string
	err  error
}

func (c *chatter) Chat(ctx context.Context, conversation, text string) (string, error) {
	c.conv = conversation
	if c.err != nil {
		return "", c.err
	}
	return "You rang? " + text + " " + logging.RequestID(ctx), nil
}

func router(h *HealthHandler, chat *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	h.RegisterRoutes(r)
	if chat != nil {
		chat.Register(r)
	}
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	r := router(NewHealthHandler("donna", "1.0.0", WithDB(pinger{}), WithRedis(pinger{err: errors.New("down")})), nil)

	w := get(r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "donna", resp.Service)
	assert.Equal(t, "up", resp.DB)
	assert.Equal(t, "down", resp.Redis)

	resp = HealthResponse{}
	require.NoError(t, json.Unmarshal(get(router(NewHealthHandler("donna", "1"), nil), "/health").Body.Bytes(), &resp))
	assert.Equal(t, "disabled", resp.DB)
}

func TestRootAndStatus(t *testing.T) {
	r := router(NewHealthHandler("donna", "1.0.0", WithBot(runner(true)), WithScheduler(runner(false))), nil)

	assert.JSONEq(t, `{"name":"donna","status":"running","version":"1.0.0"}`, get(r, "/").Body.String())
	assert.JSONEq(t,
		`{"status":"operational","telegram_bot":true,"scheduler_running":false,"version":"1.0.0"}`,
		get(r, "/status").Body.String())
}

func TestChat(t *testing.T) {
	agent := &chatter{}
	r := router(NewHealthHandler("donna", "1"), NewChatHandler(agent))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-Id", "rid-7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response":"You rang? hi rid-7","conversation_id":"api"}`, w.Body.String())
	assert.Equal(t, "rid-7", w.Header().Get("X-Request-Id"))

	post(`{"message":"hi","conversation_id":"web:1"}`)
	assert.Equal(t, "web:1", agent.conv)

	withUID := gin.New()
	withUID.Use(func(c *gin.Context) { auth.SetOwner(c, "owner-1", "") })
	NewChatHandler(agent).Register(withUID)
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	withUID.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "api:owner-1", agent.conv)

	assert.Equal(t, http.StatusBadRequest, post(`{"message":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)

	agent.err = errors.New("openai down")
	w = post(`{"message":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"assistant unavailable"}`, w.Body.String())
}
