package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

type fakeCalendar struct {
	mu       sync.Mutex
	events   []*gcal.Event
	inserted []*gcal.Event
	deleted  []string
	queries  []string
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/events"):
		f.queries = append(f.queries, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(&gcal.Events{Items: f.events})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/events"):
		var ev gcal.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		ev.Id = "new"
		ev.HtmlLink = "https://calendar.example/new"
		f.inserted = append(f.inserted, &ev)
		_ = json.NewEncoder(w).Encode(&ev)
	case r.Method == http.MethodDelete:
		f.deleted = append(f.deleted, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeCalendar) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gcal.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	c := NewClient(svc, "", loc)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, loc) }
	return c
}

func TestRRule(t *testing.T) {
	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR", RRule([]string{"monday", "Wednesday", "friday"}))
	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR,SA,SU", RRule(nil))
}

func TestRecurringEvents(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, loc)

	evs := RecurringEvents(schedule.DefaultTemplate(), SyncOptions{Morning: true, Work: true}, anchor, loc)
	require.Len(t, evs, 9)

	gym := evs[1]
	assert.Equal(t, "[Donna] Gym", gym.Summary)
	assert.Equal(t, ColorPersonal, gym.ColorId)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR"}, gym.Recurrence)
	assert.Equal(t, "2024-01-01T08:00:00-05:00", gym.Start.DateTime)
	assert.Equal(t, "2024-01-01T09:30:00-05:00", gym.End.DateTime)

	primary := evs[5]
	assert.Equal(t, "[Donna] sigmavue Deep Work", primary.Summary)
	assert.Equal(t, ColorPrimary, primary.ColorId)
	assert.Equal(t, ColorBreak, evs[6].ColorId)
	assert.Equal(t, "[Donna] Project Rotation 2", evs[8].Summary)
	assert.Equal(t, ColorRotation, evs[8].ColorId)

	evening := RecurringEvents(schedule.DefaultTemplate(), SyncOptions{Evening: true}, anchor, loc)
	require.Len(t, evening, 2)
	assert.Equal(t, ColorEvening, evening[0].ColorId)
}

func TestTodayEvents(t *testing.T) {
	fake := &fakeCalendar{events: []*gcal.Event{
		{Id: "1", Summary: "Intro call (Calendly)", Start: &gcal.EventDateTime{DateTime: "2024-01-01T13:00:00-05:00"}, End: &gcal.EventDateTime{DateTime: "2024-01-01T13:30:00-05:00"}},
		{Id: "2", Start: &gcal.EventDateTime{Date: "2024-01-01"}, End: &gcal.EventDateTime{Date: "2024-01-02"}},
	}}
	c := newTestClient(t, fake)

	events, err := c.TodayEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Calendly)
	assert.Equal(t, "No Title", events[1].Title)
	assert.True(t, events[1].AllDay)
	assert.Contains(t, fake.queries[0], "singleEvents=true")
	assert.Contains(t, fake.queries[0], "timeMin=2024-01-01T00%3A00%3A00-05%3A00")
}

func TestStartingWithin_SkipsAllDay(t *testing.T) {
	fake := &fakeCalendar{events: []*gcal.Event{
		{Id: "1", Summary: "Call", Start: &gcal.EventDateTime{DateTime: "2024-01-01T09:10:00-05:00"}},
		{Id: "2", Summary: "Holiday", Start: &gcal.EventDateTime{Date: "2024-01-01"}},
	}}
	c := newTestClient(t, fake)

	events, err := c.StartingWithin(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Call", events[0].Title)
}

func TestCreateTimeBlock(t *testing.T) {
	fake := &fakeCalendar{}
	c := newTestClient(t, fake)

	ev, err := c.CreateTimeBlock(context.Background(), TimeBlockInput{
		Title: "Sigmavue: PRD-7",
		Start: schedule.MustClock("14:00"),
		End:   schedule.MustClock("15:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://calendar.example/new", ev.Link)
	require.Len(t, fake.inserted, 1)
	assert.Equal(t, "2024-01-01T14:00:00-05:00", fake.inserted[0].Start.DateTime)
	assert.Equal(t, "America/New_York", fake.inserted[0].Start.TimeZone)

	_, err = c.CreateTimeBlock(context.Background(), TimeBlockInput{Title: "x", Start: schedule.MustClock("14:00"), End: schedule.MustClock("13:00")})
	assert.Error(t, err)
}

func TestSyncTemplate_ClearsManagedEvents(t *testing.T) {
	fake := &fakeCalendar{events: []*gcal.Event{
		{Id: "a", Summary: "[Donna] Gym"},
		{Id: "b", Summary: "Dentist [Donna] mention"},
	}}
	c := newTestClient(t, fake)

	res, err := c.SyncTemplate(context.Background(), schedule.DefaultTemplate(), DefaultSyncOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cleared)
	assert.Equal(t, []string{"a"}, fake.deleted)
	assert.Len(t, res.Created, 9)
	assert.Empty(t, res.Failed)
}

func TestPersistingSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	src := &persistingSource{
		src:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fresh", TokenType: "Bearer"}),
		path: path,
		last: "stale",
	}
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	saved, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)

	_, err = NewService(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	_ = os.Remove(path)
}
