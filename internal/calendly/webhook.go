package calendly

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

const (
	SignatureHeader = "Calendly-Webhook-Signature"
	EventCreated    = "invitee.created"
	EventCanceled   = "invitee.canceled"
	maxWebhookBody  = 1 << 20
	defaultCallLen  = 30 * time.Minute
)

// Notifier delivers a message to the owner.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// CallBook puts booked calls on the day's schedule and takes canceled ones off.
type CallBook interface {
	BookCall(ctx context.Context, title string, start, end time.Time) (*schedule.DailySchedule, error)
	CancelCall(ctx context.Context, start time.Time) (*schedule.DailySchedule, error)
}

// VerifySignature checks a hex HMAC-SHA256 of the body. An empty secret
// disables the check.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Name           string   `json:"name"`
		Email          string   `json:"email"`
		Invitee        *Invitee `json:"invitee,omitempty"`
		ScheduledEvent *Event   `json:"scheduled_event,omitempty"`
	} `json:"payload"`
}

// InviteeName prefers the nested invitee and falls back to the flat fields
// Calendly sends in v2 payloads.
func (p *WebhookPayload) InviteeName() (string, string) {
	name, email := p.Payload.Name, p.Payload.Email
	if p.Payload.Invitee != nil {
		if p.Payload.Invitee.Name != "" {
			name = p.Payload.Invitee.Name
		}
		if p.Payload.Invitee.Email != "" {
			email = p.Payload.Invitee.Email
		}
	}
	if name == "" {
		name = "Someone"
	}
	if email == "" {
		email = "unknown"
	}
	return name, email
}

// Message renders the owner notification for a webhook event.
func Message(p *WebhookPayload, loc *time.Location) string {
	name, email := p.InviteeName()
	switch p.Event {
	case EventCreated:
		eventName, when := "a call", "TBD"
		if ev := p.Payload.ScheduledEvent; ev != nil {
			if ev.Name != "" {
				eventName = ev.Name
			}
			if !ev.StartTime.IsZero() {
				when = ev.StartTime.In(loc).Format("Monday, January 02 at 3:04 PM")
			}
		}
		return fmt.Sprintf("New call booked\n\nEvent: %s\nWith: %s (%s)\nWhen: %s\n\nYour schedule for that day will be rebuilt around it.",
			eventName, name, email, when)
	case EventCanceled:
		return fmt.Sprintf("Call canceled\n\n%s canceled their call. It's off your schedule.", name)
	default:
		return "Calendly event: " + p.Event
	}
}

type WebhookHandler struct {
	secret   string
	notifier Notifier
	calls    CallBook
	loc      *time.Location
}

// NewWebhookHandler builds the handler. A nil notifier or call book skips
// that side of the handling.
func NewWebhookHandler(secret string, notifier Notifier, calls CallBook, loc *time.Location) *WebhookHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &WebhookHandler{secret: secret, notifier: notifier, calls: calls, loc: loc}
}

func (h *WebhookHandler) Register(r gin.IRoutes) {
	r.POST("/webhooks/calendly", h.Handle)
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if !VerifySignature(body, c.GetHeader(SignatureHeader), h.secret) {
		log.Printf("[calendly] invalid webhook signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if p.Event == "" {
		p.Event = "unknown"
	}
	log.Printf("[calendly] received webhook: %s", p.Event)

	ctx := c.Request.Context()
	h.updateSchedule(ctx, &p)
	if h.notifier != nil {
		if err := h.notifier.Notify(ctx, Message(&p, h.loc)); err != nil {
			log.Printf("[calendly] notify failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "event": p.Event})
}

func (h *WebhookHandler) updateSchedule(ctx context.Context, p *WebhookPayload) {
	ev := p.Payload.ScheduledEvent
	if h.calls == nil || ev == nil || ev.StartTime.IsZero() {
		return
	}
	var err error
	switch p.Event {
	case EventCreated:
		end := ev.EndTime
		if !end.After(ev.StartTime) {
			end = ev.StartTime.Add(defaultCallLen)
		}
		name, _ := p.InviteeName()
		title := "Call"
		if ev.Name != "" {
			title = ev.Name
		}
		_, err = h.calls.BookCall(ctx, title+" with "+name, ev.StartTime, end)
	case EventCanceled:
		_, err = h.calls.CancelCall(ctx, ev.StartTime)
		if errors.Is(err, schedule.ErrBlockNotFound) {
			err = nil
		}
	}
	if err != nil {
		log.Printf("[calendly] schedule update for %s failed: %v", p.Event, err)
	}
}
