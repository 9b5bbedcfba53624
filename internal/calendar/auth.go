package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("google calendar not configured")

// LoadToken reads an OAuth2 token saved by an earlier consent flow.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// persistingSource writes refreshed tokens back to disk.
type persistingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	path string
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := SaveToken(p.path, tok); err != nil {
			log.Printf("[calendar] failed to persist refreshed token: %v", err)
		}
	}
	return tok, nil
}

// NewService builds a Calendar API client from the OAuth client credentials
// file and the stored user token.
func NewService(ctx context.Context, credentialsPath, tokenPath string, opts ...option.ClientOption) (*gcal.Service, error) {
	if credentialsPath == "" || tokenPath == "" {
		return nil, ErrNotConfigured
	}
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(creds, gcal.CalendarScope, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	tok, err := LoadToken(tokenPath)
	if err != nil {
		return nil, err
	}

	src := &persistingSource{src: conf.TokenSource(ctx, tok), path: tokenPath, last: tok.AccessToken}
	opts = append([]option.ClientOption{option.WithTokenSource(src)}, opts...)

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return svc, nil
}
