package calendly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.calendly.com"

var ErrNotConfigured = errors.New("calendly not configured")

// HTTPDoer is satisfied by *http.Client and by test doubles.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type User struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

type Event struct {
	URI       string    `json:"uri"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type Invitee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Call is a scheduled event with its first invitee.
type Call struct {
	Event
	Invitee *Invitee `json:"invitee,omitempty"`
}

type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
	limiter *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }
func WithHTTP(d HTTPDoer) Option  { return func(c *Client) { c.http = d } }

func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Configured() bool { return c != nil && c.token != "" }

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := endpoint
	if !strings.HasPrefix(u, "http") {
		u = c.baseURL + endpoint
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendly %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("calendly %s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("calendly decode: %w", err)
	}
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out struct {
		Resource User `json:"resource"`
	}
	if err := c.get(ctx, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.Resource, nil
}

// ScheduledEvents lists active events for the user starting in [from, to).
func (c *Client) ScheduledEvents(ctx context.Context, userURI string, from, to time.Time) ([]Event, error) {
	q := url.Values{}
	q.Set("user", userURI)
	q.Set("min_start_time", from.UTC().Format(time.RFC3339))
	q.Set("max_start_time", to.UTC().Format(time.RFC3339))
	q.Set("status", "active")
	q.Set("sort", "start_time:asc")

	var out struct {
		Collection []Event `json:"collection"`
	}
	if err := c.get(ctx, "/scheduled_events", q, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

func (c *Client) Invitees(ctx context.Context, eventURI string) ([]Invitee, error) {
	var out struct {
		Collection []Invitee `json:"collection"`
	}
	if err := c.get(ctx, strings.TrimRight(eventURI, "/")+"/invitees", nil, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

// Upcoming returns the calls in the next days, each with its first invitee
// when it can be fetched.
func (c *Client) Upcoming(ctx context.Context, from time.Time, days int) ([]Call, error) {
	if days <= 0 {
		days = 7
	}
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	events, err := c.ScheduledEvents(ctx, user.URI, from, from.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	out := make([]Call, 0, len(events))
	for _, e := range events {
		call := Call{Event: e}
		if inv, err := c.Invitees(ctx, e.URI); err == nil && len(inv) > 0 {
			call.Invitee = &inv[0]
		}
		out = append(out, call)
	}
	return out, nil
}
