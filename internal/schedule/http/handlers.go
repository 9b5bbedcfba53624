package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule/service"
)

// Handler bundles the dependencies for schedule endpoints.
type Handler struct {
	svc *service.ScheduleService
}

func New(svc *service.ScheduleService) *Handler {
	return &Handler{svc: svc}
}

// Register registers the schedule, rotation and template routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/schedule", h.GetSchedule)
	rg.GET("/schedule/tomorrow", h.GetTomorrow)
	rg.POST("/schedule/:date/approve", h.Approve)
	rg.PATCH("/schedule/:date", h.Update)
	rg.GET("/rotation", h.Rotation)
	rg.GET("/template", h.GetTemplate)
	rg.PUT("/template", h.PutTemplate)
}

func scheduleResponse(c *gin.Context, status int, s *schedule.DailySchedule) {
	c.JSON(status, gin.H{"schedule": s, "rendered": schedule.Render(*s)})
}

func (h *Handler) GetSchedule(c *gin.Context) {
	date, err := h.svc.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var s *schedule.DailySchedule
	if c.Query("regenerate") == "true" {
		s, err = h.svc.Generate(c.Request.Context(), date)
	} else {
		s, err = h.svc.ForDate(c.Request.Context(), date)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build schedule"})
		return
	}
	scheduleResponse(c, http.StatusOK, s)
}

func (h *Handler) GetTomorrow(c *gin.Context) {
	s, err := h.svc.Tomorrow(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build schedule"})
		return
	}
	scheduleResponse(c, http.StatusOK, s)
}

func (h *Handler) Approve(c *gin.Context) {
	date, err := h.svc.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.svc.Approve(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve schedule"})
		return
	}
	scheduleResponse(c, http.StatusOK, s)
}

func (h *Handler) Update(c *gin.Context) {
	date, err := h.svc.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req service.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := h.svc.Update(c.Request.Context(), date, req)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrBlockNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	scheduleResponse(c, http.StatusOK, s)
}

func (h *Handler) Rotation(c *gin.Context) {
	slots := 0
	if v := c.Query("slots"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "slots must be a non-negative integer"})
			return
		}
		slots = n
	}

	picks, err := h.svc.Rotation(c.Request.Context(), slots)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to select rotation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": picks})
}

func (h *Handler) GetTemplate(c *gin.Context) {
	t, err := h.svc.Template(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": t})
}

func (h *Handler) PutTemplate(c *gin.Context) {
	var t schedule.WeeklyTemplate
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := t.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.ReplaceTemplate(c.Request.Context(), &t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save template"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": t})
}
