package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/donna-backend/config"
	"github.com/GoSim-25-26J-441/donna-backend/internal/bootstrap"
)

// worker runs the scheduled jobs and the Telegram bot without the HTTP API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.Close()

	if app.Notifier == nil {
		log.Fatal("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required for the worker")
	}
	if err := app.StartBackground(ctx); err != nil {
		log.Fatalf("background: %v", err)
	}

	log.Println("worker running")
	<-ctx.Done()
	log.Println("worker stopping")
}
