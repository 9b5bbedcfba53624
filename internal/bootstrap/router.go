package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/GoSim-25-26J-441/donna-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/donna-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/donna-backend/internal/api/http/routes"
	"github.com/GoSim-25-26J-441/donna-backend/internal/calendly"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string

	Health  []httpapi.HealthOption
	Webhook *calendly.WebhookHandler
	V1      routes.V1Deps
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(dep.CORSOrigins))
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Health...)
	healthHandler.RegisterRoutes(r)

	if dep.Webhook != nil {
		dep.Webhook.Register(r)
	}

	routes.RegisterV1(r, dep.V1)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	if wildcard {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
