package routes

import (
	"github.com/gin-gonic/gin"

	httpapi "github.com/GoSim-25-26J-441/donna-backend/internal/api/http"
	projecthttp "github.com/GoSim-25-26J-441/donna-backend/internal/projects/http"
	projectsvc "github.com/GoSim-25-26J-441/donna-backend/internal/projects/service"
	schedulehttp "github.com/GoSim-25-26J-441/donna-backend/internal/schedule/http"
	schedulesvc "github.com/GoSim-25-26J-441/donna-backend/internal/schedule/service"
	taskhttp "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/http"
	tasksvc "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/service"
)

// V1Deps holds the services behind /api/v1. Nil services leave their
// routes unregistered.
type V1Deps struct {
	Schedules *schedulesvc.ScheduleService
	Projects  *projectsvc.ProjectService
	Tasks     *tasksvc.TaskService
	Agent     httpapi.Chatter
	Guard     gin.HandlerFunc
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")
	if dep.Guard != nil {
		api.Use(dep.Guard)
	}

	if dep.Schedules != nil {
		schedulehttp.New(dep.Schedules).Register(api)
	}
	if dep.Projects != nil {
		projecthttp.New(dep.Projects).Register(api.Group("/projects"))
	}
	if dep.Tasks != nil {
		taskhttp.New(dep.Tasks).Register(api.Group("/tasks"))
	}
	if dep.Agent != nil {
		httpapi.NewChatHandler(dep.Agent).Register(api)
	}
}
