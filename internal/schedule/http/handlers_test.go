package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule/repository"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule/service"
)

type projectList []domain.Project

func (p projectList) List(ctx context.Context) ([]domain.Project, error) { return p, nil }

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	projects := projectList{
		{ID: "sigmavue", Name: "Sigmavue", Path: "/sv", Daily: true},
		{ID: "acme", Name: "Acme", Path: "/acme", Priority: 1},
		{ID: "bolt", Name: "Bolt", Path: "/bolt", Priority: 2},
		{ID: "cove", Name: "Cove", Path: "/cove", Priority: 3},
	}
	files := repository.NewFileLoader(t.TempDir())
	gen := schedule.NewAssembler(projects, files, nil)
	svc := service.NewScheduleService(gen, nil, nil, files, time.UTC)

	r := gin.New()
	New(svc).Register(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGetSchedule(t *testing.T) {
	r := setupRouter(t)

	rr := do(r, http.MethodGet, "/api/v1/schedule?date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Schedule schedule.DailySchedule `json:"schedule"`
		Rendered string                 `json:"rendered"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Monday", resp.Schedule.Weekday)
	assert.Contains(t, resp.Rendered, "Gym (90 min)")

	rr = do(r, http.MethodGet, "/api/v1/schedule?date=yesterday-ish", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRotation(t *testing.T) {
	r := setupRouter(t)

	rr := do(r, http.MethodGet, "/api/v1/rotation?slots=3", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Projects []domain.Project `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Projects, 3)
	assert.Equal(t, "acme", resp.Projects[0].ID)

	rr = do(r, http.MethodGet, "/api/v1/rotation?slots=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateSchedule(t *testing.T) {
	r := setupRouter(t)

	rr := do(r, http.MethodPatch, "/api/v1/schedule/2024-01-01", service.UpdateRequest{Action: service.ActionRemoveBlock, ProjectID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(r, http.MethodPatch, "/api/v1/schedule/2024-01-01", service.UpdateRequest{Action: "dance"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(r, http.MethodPatch, "/api/v1/schedule/2024-01-01", service.UpdateRequest{Action: service.ActionAddCall, Start: "1:00 PM", End: "1:30 PM"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Call: Call")
}

func TestTemplateRoutes(t *testing.T) {
	r := setupRouter(t)

	rr := do(r, http.MethodGet, "/api/v1/template", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "sigmavue")

	tmpl := schedule.DefaultTemplate()
	tmpl.WorkBlocks = tmpl.WorkBlocks[:1]
	rr = do(r, http.MethodPut, "/api/v1/template", tmpl)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(r, http.MethodGet, "/api/v1/rotation", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"projects":[]}`, rr.Body.String())

	bad := schedule.DefaultTemplate()
	bad.WorkBlocks[0].Kind = "nap"
	rr = do(r, http.MethodPut, "/api/v1/template", bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestApprove(t *testing.T) {
	r := setupRouter(t)

	rr := do(r, http.MethodPost, "/api/v1/schedule/2024-01-02/approve", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"approved":true`)
}
