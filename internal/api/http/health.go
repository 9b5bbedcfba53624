package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db,omitempty"`
	Redis     string    `json:"redis,omitempty"`
}

// Pinger is satisfied by pgxpool.Pool and the redis ping adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Runner reports whether a background loop (bot, scheduler) is active.
type Runner interface {
	Running() bool
}

type HealthHandler struct {
	serviceName string
	version     string
	db          Pinger
	redis       Pinger
	bot         Runner
	scheduler   Runner
}

type HealthOption func(*HealthHandler)

func WithDB(p Pinger) HealthOption        { return func(h *HealthHandler) { h.db = p } }
func WithRedis(p Pinger) HealthOption     { return func(h *HealthHandler) { h.redis = p } }
func WithBot(r Runner) HealthOption       { return func(h *HealthHandler) { h.bot = r } }
func WithScheduler(r Runner) HealthOption { return func(h *HealthHandler) { h.scheduler = r } }

func NewHealthHandler(serviceName, version string, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		serviceName: serviceName,
		version:     version,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func running(r Runner) bool {
	return r != nil && r.Running()
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    h.serviceName,
		"status":  "running",
		"version": h.version,
	})
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        ping(c.Request.Context(), h.db),
		Redis:     ping(c.Request.Context(), h.redis),
	})
}

func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "operational",
		"telegram_bot":      running(h.bot),
		"scheduler_running": running(h.scheduler),
		"version":           h.version,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/status", h.Status)
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
