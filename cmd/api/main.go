package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/config"
	httpapi "github.com/GoSim-25-26J-441/donna-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/donna-backend/internal/api/http/routes"
	"github.com/GoSim-25-26J-441/donna-backend/internal/auth"
	authmw "github.com/GoSim-25-26J-441/donna-backend/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/donna-backend/internal/bootstrap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.Close()

	if err := app.StartBackground(ctx); err != nil {
		log.Fatalf("background: %v", err)
	}

	health := []httpapi.HealthOption{
		httpapi.WithDB(app.Pool),
	}
	if app.Redis != nil {
		health = append(health, httpapi.WithRedis(bootstrap.RedisPinger{Client: app.Redis}))
	}
	if app.Bot != nil {
		health = append(health, httpapi.WithBot(app.Bot))
	}
	if app.Scheduler != nil {
		health = append(health, httpapi.WithScheduler(app.Scheduler))
	}

	v1 := routes.V1Deps{
		Schedules: app.Schedules,
		Projects:  app.Projects,
		Tasks:     app.Tasks,
	}
	if app.Agent != nil {
		v1.Agent = app.Agent
	}
	if cfg.Firebase.CredentialsPath != "" {
		client, err := auth.OpenVerifier(ctx, &cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		v1.Guard = authmw.OwnerGuard(client, cfg.Firebase.OwnerUID)
	} else {
		log.Println("[auth] FIREBASE_CREDENTIALS_PATH not set, /api/v1 is unauthenticated")
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "donna",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		Health:      health,
		Webhook:     app.WebhookHandler(),
		V1:          v1,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
