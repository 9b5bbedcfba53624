package jobs

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/calendar"
	"github.com/GoSim-25-26J-441/donna-backend/internal/calendly"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/reviews"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

var ny, _ = time.LoadLocation("America/New_York")

type notifier struct {
	texts    []string
	captions []string
}

func (n *notifier) Notify(ctx context.Context, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

func (n *notifier) NotifyVoice(ctx context.Context, audio []byte, caption string) error {
	n.captions = append(n.captions, caption)
	return nil
}

type schedules struct{ tmplErr error }

func (schedules) Today() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, ny) }

func (schedules) Generate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error) {
	s := schedule.Assemble(date, schedule.DefaultTemplate(), []domain.Project{
		{ID: "sigmavue", Name: "Sigmavue", Daily: true, Priority: 1},
		{ID: "sss", Name: "SSS", Priority: 2},
	}, nil, nil)
	return &s, nil
}

func (f schedules) ForDate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error) {
	return f.Generate(ctx, date)
}

func (f schedules) Template(ctx context.Context) (*schedule.WeeklyTemplate, error) {
	if f.tmplErr != nil {
		return nil, f.tmplErr
	}
	return schedule.DefaultTemplate(), nil
}

type speaker struct{ fail bool }

func (speaker) Configured() bool { return true }
func (s speaker) Note(ctx context.Context, text string) ([]byte, error) {
	if s.fail {
		return nil, errors.New("tts down")
	}
	return []byte("note"), nil
}
func (s speaker) Brief(ctx context.Context, text string) ([]byte, error) {
	return []byte("brief"), nil
}

type archive struct{ kinds []string }

func (a *archive) Put(ctx context.Context, kind string, audio []byte) (string, error) {
	a.kinds = append(a.kinds, kind)
	return "voice/" + kind, nil
}

type events struct{ list []calendar.Event }

func (e events) StartingWithin(ctx context.Context, d time.Duration) ([]calendar.Event, error) {
	return e.list, nil
}

// slowEvents blocks until released so a job can be caught mid-run.
type slowEvents struct {
	entered chan struct{}
	release chan struct{}
	at      time.Time
	once    sync.Once
}

func (e *slowEvents) StartingWithin(ctx context.Context, d time.Duration) ([]calendar.Event, error) {
	e.once.Do(func() { close(e.entered) })
	<-e.release
	return []calendar.Event{{ID: "e1", Title: "Standup", Start: e.at}}, nil
}

type calls struct{ list []calendly.Call }

func (c calls) Upcoming(ctx context.Context, from time.Time, days int) ([]calendly.Call, error) {
	return c.list, nil
}

type reviewer struct{}

func (reviewer) Weekly(ctx context.Context) (*reviews.WeeklyReview, error) {
	return &reviews.WeeklyReview{}, nil
}

func (reviewer) Ahead(ctx context.Context) (*reviews.WeekAhead, error) {
	return &reviews.WeekAhead{}, nil
}

type attention struct{}

func (attention) NeedingAttention(ctx context.Context, days int) ([]domain.Project, error) {
	return []domain.Project{{Name: "Academy"}}, nil
}

func cfg() Config {
	return Config{MorningBrief: "05:00", EveningSummary: "21:00", EventCheckMinutes: 15, CalendlySyncHours: 3}
}

func TestReminderBlocks(t *testing.T) {
	var names []string
	for _, b := range ReminderBlocks(schedule.DefaultTemplate()) {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"primary", "break_1", "rotation_1"}, names)
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(cfg(), ny, Deps{
		Notifier: &notifier{}, Schedules: schedules{tmplErr: errors.New("no db")},
		Events: events{}, Calls: calls{}, Reviews: reviewer{},
	})
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	assert.Equal(t, []string{
		"morning brief", "evening summary",
		"reminder primary", "reminder break_1", "reminder rotation_1",
		"event check", "calendly sync", "weekly review", "week ahead",
	}, s.Jobs())
	s.Stop()
	assert.False(t, s.Running())

	minimal := NewScheduler(cfg(), ny, Deps{Notifier: &notifier{}, Schedules: schedules{}})
	require.NoError(t, minimal.Start(context.Background()))
	assert.Len(t, minimal.Jobs(), 5)
	minimal.Stop()
}

func TestStartAfterStop_DoesNotDuplicateJobs(t *testing.T) {
	s := NewScheduler(cfg(), ny, Deps{Notifier: &notifier{}, Schedules: schedules{}, Events: events{}})
	require.NoError(t, s.Start(context.Background()))
	first := s.Jobs()
	s.Stop()

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Equal(t, first, s.Jobs())
	assert.Len(t, s.cron.Entries(), len(first))
}

func TestStop_WaitsForRunningEventCheckWithoutRedis(t *testing.T) {
	src := &slowEvents{entered: make(chan struct{}), release: make(chan struct{}), at: time.Now().Add(time.Minute)}
	n := &notifier{}
	s := NewScheduler(cfg(), ny, Deps{Notifier: n, Schedules: schedules{}, Events: src})
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.add("* * * * * *", "fast event check", s.CheckEvents))

	select {
	case <-src.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("event check never ran")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	time.Sleep(50 * time.Millisecond)
	close(src.release)

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return while an event check was finishing")
	}
	assert.False(t, s.Running())
	assert.Len(t, n.texts, 1)
}

func TestStart_InvalidTime(t *testing.T) {
	c := cfg()
	c.MorningBrief = "25:00"
	err := NewScheduler(c, ny, Deps{Notifier: &notifier{}, Schedules: schedules{}}).Start(context.Background())
	assert.ErrorContains(t, err, "morning brief time")
}

func TestMorningBrief(t *testing.T) {
	n := &notifier{}
	a := &archive{}
	s := NewScheduler(cfg(), ny, Deps{Notifier: n, Schedules: schedules{}, Speaker: speaker{}, Archive: a})

	require.NoError(t, s.MorningBrief(context.Background()))
	require.Len(t, n.texts, 1)
	assert.True(t, strings.HasPrefix(n.texts[0], "Rise and shine. It's Donna."))
	assert.Contains(t, n.texts[0], "Monday, January 01, 2024")
	assert.Contains(t, n.texts[0], "/approve")
	assert.Equal(t, []string{"Your morning brief. Now go execute."}, n.captions)
	assert.Equal(t, []string{"morning-brief"}, a.kinds)
}

func TestEveningSummary_VoiceFailureStillSendsText(t *testing.T) {
	n := &notifier{}
	s := NewScheduler(cfg(), ny, Deps{Notifier: n, Schedules: schedules{}, Speaker: speaker{fail: true}})

	require.NoError(t, s.EveningSummary(context.Background()))
	require.Len(t, n.texts, 1)
	assert.Contains(t, n.texts[0], "Tuesday, January 02, 2024")
	assert.Empty(t, n.captions)
}

func TestReviews(t *testing.T) {
	n := &notifier{}
	s := NewScheduler(cfg(), ny, Deps{Notifier: n, Schedules: schedules{}, Reviews: reviewer{}})
	require.NoError(t, s.WeeklyReview(context.Background()))
	require.NoError(t, s.WeekAhead(context.Background()))
	require.Len(t, n.texts, 2)
	assert.True(t, strings.HasPrefix(n.texts[0], "📊 *Weekly Review*"))
	assert.True(t, strings.HasPrefix(n.texts[1], "📅 *Week Ahead*"))
}

func TestRemind(t *testing.T) {
	n := &notifier{}
	s := NewScheduler(cfg(), ny, Deps{Notifier: n, Schedules: schedules{}, Projects: attention{}})
	ctx := context.Background()
	blocks := ReminderBlocks(schedule.DefaultTemplate())

	for _, b := range blocks {
		require.NoError(t, s.Remind(ctx, b))
	}
	require.Len(t, n.texts, 3)
	assert.Contains(t, n.texts[0], "*Sigmavue Time*")
	assert.Contains(t, n.texts[0], "It's 12:00 PM.")
	assert.Contains(t, n.texts[1], "You have 30 minutes.")
	assert.Contains(t, n.texts[2], "Today it's SSS.")
	assert.Contains(t, n.texts[2], "Needing attention: Academy")
	assert.Contains(t, n.texts[2], "Focus for 90 minutes.")

	missing := schedule.WorkBlock{Name: "gone", Kind: schedule.KindFixed, Start: schedule.MustClock("9:00 AM")}
	require.NoError(t, s.Remind(ctx, missing))
	assert.Len(t, n.texts, 3)
}

func TestCheckEvents_Deduplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	now := time.Date(2024, 1, 1, 9, 50, 0, 0, ny)
	n := &notifier{}
	s := NewScheduler(cfg(), ny, Deps{
		Notifier: n, Schedules: schedules{}, Redis: rdb,
		Events: events{list: []calendar.Event{{ID: "e1", Title: "Standup", Start: now.Add(10 * time.Minute)}}},
	})
	s.now = func() time.Time { return now }

	require.NoError(t, s.CheckEvents(context.Background()))
	require.NoError(t, s.CheckEvents(context.Background()))
	require.Len(t, n.texts, 1)
	assert.Equal(t, "📅 *Standup* starts at 10:00 AM (in 10 min)", n.texts[0])
	assert.True(t, mr.Exists("donna:notified:event:e1:"+strconv.FormatInt(now.Add(10*time.Minute).Unix(), 10)))
}

func TestCheckEvents_MemoryFallback(t *testing.T) {
	n := &notifier{}
	s := NewScheduler(cfg(), ny, Deps{
		Notifier: n, Schedules: schedules{},
		Events: events{list: []calendar.Event{{ID: "e1", Title: "Standup", Start: time.Now().Add(time.Minute)}}},
	})
	require.NoError(t, s.CheckEvents(context.Background()))
	require.NoError(t, s.CheckEvents(context.Background()))
	assert.Len(t, n.texts, 1)
}

func TestSyncCalendly(t *testing.T) {
	n := &notifier{}
	call := calendly.Call{Event: calendly.Event{
		Name:      "Intro call",
		StartTime: time.Date(2024, 1, 1, 13, 0, 0, 0, ny),
		EndTime:   time.Date(2024, 1, 1, 13, 30, 0, 0, ny),
	}}
	s := NewScheduler(cfg(), ny, Deps{Notifier: n, Schedules: schedules{}, Calls: calls{list: []calendly.Call{call}}})

	require.NoError(t, s.SyncCalendly(context.Background()))
	require.Len(t, n.texts, 1)
	assert.Contains(t, n.texts[0], "Intro call at 1:00 PM overlaps Sigmavue (12:00 PM - 3:00 PM)")

	n.texts = nil
	s.deps.Calls = calls{}
	require.NoError(t, s.SyncCalendly(context.Background()))
	assert.Empty(t, n.texts)
}
