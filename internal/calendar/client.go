package calendar

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

// Prefix marks every event this service manages.
const Prefix = "[Donna]"

// Google Calendar colour ids per block category.
const (
	ColorPersonal = "9"
	ColorPrimary  = "11"
	ColorBreak    = "8"
	ColorRotation = "10"
	ColorEvening  = "6"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"-"`
	Link        string    `json:"link,omitempty"`
	Calendly    bool      `json:"calendly,omitempty"`
}

type Client struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
	now        func() time.Time
}

func NewClient(svc *gcal.Service, calendarID string, loc *time.Location) *Client {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{svc: svc, calendarID: calendarID, loc: loc, now: time.Now}
}

func (c *Client) Location() *time.Location { return c.loc }

func toEvent(e *gcal.Event, loc *time.Location) Event {
	out := Event{
		ID:          e.Id,
		Title:       e.Summary,
		Location:    e.Location,
		Description: e.Description,
		Link:        e.HtmlLink,
	}
	if out.Title == "" {
		out.Title = "No Title"
	}
	if e.Start != nil {
		if e.Start.DateTime != "" {
			out.Start, _ = time.Parse(time.RFC3339, e.Start.DateTime)
		} else if e.Start.Date != "" {
			out.Start, _ = time.ParseInLocation("2006-01-02", e.Start.Date, loc)
			out.AllDay = true
		}
	}
	if e.End != nil {
		if e.End.DateTime != "" {
			out.End, _ = time.Parse(time.RFC3339, e.End.DateTime)
		} else if e.End.Date != "" {
			out.End, _ = time.ParseInLocation("2006-01-02", e.End.Date, loc)
		}
	}
	out.Calendly = strings.Contains(strings.ToLower(e.Summary), "calendly") ||
		strings.Contains(strings.ToLower(e.Description), "calendly")
	return out
}

// Between lists single events that start in [from, to), ordered by start time.
func (c *Client) Between(ctx context.Context, from, to time.Time) ([]Event, error) {
	res, err := c.svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]Event, 0, len(res.Items))
	for _, e := range res.Items {
		out = append(out, toEvent(e, c.loc))
	}
	return out, nil
}

func (c *Client) dayBounds(day time.Time) (time.Time, time.Time) {
	d := day.In(c.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1)
}

func (c *Client) EventsOn(ctx context.Context, day time.Time) ([]Event, error) {
	from, to := c.dayBounds(day)
	return c.Between(ctx, from, to)
}

func (c *Client) TodayEvents(ctx context.Context) ([]Event, error) {
	return c.EventsOn(ctx, c.now())
}

// StartingWithin returns timed events starting between now and now+d.
func (c *Client) StartingWithin(ctx context.Context, d time.Duration) ([]Event, error) {
	now := c.now()
	events, err := c.Between(ctx, now, now.Add(d))
	if err != nil {
		return nil, err
	}
	out := events[:0]
	for _, e := range events {
		if !e.AllDay && !e.Start.Before(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

type TimeBlockInput struct {
	Title       string         `json:"title"`
	Date        time.Time      `json:"date"`
	Start       schedule.Clock `json:"start_time"`
	End         schedule.Clock `json:"end_time"`
	Description string         `json:"description,omitempty"`
	ColorID     string         `json:"color,omitempty"`
}

func (c *Client) CreateTimeBlock(ctx context.Context, in TimeBlockInput) (*Event, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if in.End <= in.Start {
		return nil, fmt.Errorf("end time must be after start time")
	}
	date := in.Date
	if date.IsZero() {
		date = c.now()
	}
	ev := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Start:       c.dateTime(schedule.At(date, in.Start, c.loc)),
		End:         c.dateTime(schedule.At(date, in.End, c.loc)),
		ColorId:     in.ColorID,
	}
	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	out := toEvent(created, c.loc)
	return &out, nil
}

func (c *Client) dateTime(t time.Time) *gcal.EventDateTime {
	return &gcal.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: c.loc.String()}
}

// ClearManaged deletes every recurring event whose title starts with Prefix.
func (c *Client) ClearManaged(ctx context.Context) (int, error) {
	deleted := 0
	call := c.svc.Events.List(c.calendarID).Q(Prefix).SingleEvents(false)
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, e := range page.Items {
			if !strings.HasPrefix(e.Summary, Prefix) {
				continue
			}
			if err := c.svc.Events.Delete(c.calendarID, e.Id).Context(ctx).Do(); err != nil {
				return fmt.Errorf("delete %s: %w", e.Id, err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("clear events: %w", err)
	}
	return deleted, nil
}

type SyncOptions struct {
	Morning       bool `json:"include_morning"`
	Work          bool `json:"include_work"`
	Evening       bool `json:"include_evening"`
	ClearExisting bool `json:"clear_existing"`
}

func DefaultSyncOptions() SyncOptions {
	return SyncOptions{Morning: true, Work: true, ClearExisting: true}
}

type SyncResult struct {
	Cleared int      `json:"cleared"`
	Created []string `json:"created"`
	Failed  []string `json:"failed,omitempty"`
}

// SyncTemplate writes the weekly template as recurring events.
func (c *Client) SyncTemplate(ctx context.Context, tmpl *schedule.WeeklyTemplate, opts SyncOptions) (*SyncResult, error) {
	res := &SyncResult{Created: []string{}}
	if opts.ClearExisting {
		n, err := c.ClearManaged(ctx)
		if err != nil {
			return nil, err
		}
		res.Cleared = n
	}

	for _, ev := range RecurringEvents(tmpl, opts, c.now(), c.loc) {
		if _, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do(); err != nil {
			log.Printf("[calendar] failed to create %q: %v", ev.Summary, err)
			res.Failed = append(res.Failed, ev.Summary)
			continue
		}
		res.Created = append(res.Created, ev.Summary)
	}
	return res, nil
}

// RRule builds a weekly recurrence; no days means every day.
func RRule(days []string) string {
	codes := make([]string, 0, 7)
	for _, d := range days {
		d = strings.ToLower(strings.TrimSpace(d))
		if len(d) >= 2 {
			codes = append(codes, strings.ToUpper(d[:2]))
		}
	}
	if len(codes) == 0 {
		codes = []string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}
	}
	return "RRULE:FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
}

// RecurringEvents maps template blocks to recurring events anchored on the
// given day.
func RecurringEvents(tmpl *schedule.WeeklyTemplate, opts SyncOptions, anchor time.Time, loc *time.Location) []*gcal.Event {
	var out []*gcal.Event
	add := func(title string, start, end schedule.Clock, days []string, color string) {
		s := schedule.At(anchor, start, loc)
		e := schedule.At(anchor, end, loc)
		if !e.After(s) {
			e = e.AddDate(0, 0, 1)
		}
		out = append(out, &gcal.Event{
			Summary:    Prefix + " " + title,
			Start:      &gcal.EventDateTime{DateTime: s.Format(time.RFC3339), TimeZone: loc.String()},
			End:        &gcal.EventDateTime{DateTime: e.Format(time.RFC3339), TimeZone: loc.String()},
			Recurrence: []string{RRule(days)},
			ColorId:    color,
			Reminders:  &gcal.EventReminders{UseDefault: false, ForceSendFields: []string{"UseDefault"}},
		})
	}

	if opts.Morning {
		for _, b := range tmpl.PersonalBlocks {
			add(b.Title, b.Time, b.End(), b.Days, ColorPersonal)
		}
	}
	if opts.Work {
		rotation := 0
		for _, b := range tmpl.WorkBlocks {
			switch b.Kind {
			case schedule.KindFixed:
				title := b.Title
				if title == "" {
					title = b.ProjectID + " Deep Work"
				}
				add(title, b.Start, b.End, nil, ColorPrimary)
			case schedule.KindBreak:
				add("Break", b.Start, b.End, nil, ColorBreak)
			case schedule.KindRotation:
				rotation++
				add(fmt.Sprintf("Project Rotation %d", rotation), b.Start, b.End, nil, ColorRotation)
			}
		}
	}
	if opts.Evening {
		for _, b := range tmpl.EveningBlocks {
			add(b.Title, b.Start, b.End, nil, ColorEvening)
		}
	}
	return out
}
