package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/service"
)

type memStore struct {
	projects []domain.Project
}

func (m *memStore) List(ctx context.Context) ([]domain.Project, error) { return m.projects, nil }

func (m *memStore) Get(ctx context.Context, idOrName string) (*domain.Project, error) {
	for i := range m.projects {
		if m.projects[i].ID == idOrName || strings.EqualFold(m.projects[i].Name, idOrName) {
			p := m.projects[i]
			return &p, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (m *memStore) Create(ctx context.Context, in domain.NewProject) (*domain.Project, error) {
	p := domain.Project{ID: in.ID, Name: in.Name, Path: in.Path, Type: in.Type, Priority: in.Priority, PRDStatusPath: in.PRDStatusPath}
	m.projects = append(m.projects, p)
	return &p, nil
}

func (m *memStore) UpdateLastWorked(ctx context.Context, id string, at time.Time) error {
	for i := range m.projects {
		if m.projects[i].ID == id {
			m.projects[i].LastWorked = &at
			return nil
		}
	}
	return domain.ErrProjectNotFound
}

func setup(t *testing.T) (*gin.Engine, *memStore, string) {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".prd-status.json"),
		[]byte(`{"prds":[{"id":"PRD-1","name":"Billing","status":"in_progress"}]}`), 0o644))

	store := &memStore{projects: []domain.Project{
		{ID: "acme", Name: "Acme", Path: dir, PRDStatusPath: ".prd-status.json", Priority: 1},
		{ID: "bolt", Name: "Bolt", Path: "/bolt", Priority: 2},
	}}
	r := gin.New()
	New(service.NewProjectService(store)).Register(r.Group("/api/v1/projects"))
	return r, store, dir
}

func TestListProjects(t *testing.T) {
	r, _, _ := setup(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		OK       bool             `json:"ok"`
		Projects []domain.Project `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Len(t, resp.Projects, 2)
}

func TestPRDStatus(t *testing.T) {
	r, _, _ := setup(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/projects/acme/prd", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "PRD-1: Billing")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/projects/bolt/prd", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/projects/ghost/prd", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMarkWorked(t *testing.T) {
	r, store, _ := setup(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/projects/Bolt/worked", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, store.projects[1].LastWorked)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/projects/ghost/worked", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestScanProject(t *testing.T) {
	r, store, dir := setup(t)

	newDir := filepath.Join(t.TempDir(), "Cove")
	require.NoError(t, os.MkdirAll(newDir, 0o755))

	body, _ := json.Marshal(map[string]string{"path": newDir})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, store.projects, 3)
	assert.Equal(t, 3, store.projects[2].Priority)

	body, _ = json.Marshal(map[string]string{"path": dir})
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
