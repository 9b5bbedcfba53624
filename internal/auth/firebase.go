package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/GoSim-25-26J-441/donna-backend/config"
)

var ErrNoCredentials = errors.New("firebase credentials path not set")

// OpenVerifier returns the Firebase client that checks the owner's ID
// tokens on /api/v1.
func OpenVerifier(ctx context.Context, cfg *config.FirebaseConfig) (*auth.Client, error) {
	path := strings.TrimSpace(cfg.CredentialsPath)
	if path == "" {
		return nil, ErrNoCredentials
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(path))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return client, nil
}
