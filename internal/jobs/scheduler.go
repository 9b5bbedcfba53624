package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/GoSim-25-26J-441/donna-backend/internal/calendar"
	"github.com/GoSim-25-26J-441/donna-backend/internal/calendly"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/reviews"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

const jobTimeout = 5 * time.Minute

type Notifier interface {
	Notify(ctx context.Context, text string) error
	NotifyVoice(ctx context.Context, audio []byte, caption string) error
}

type Schedules interface {
	Today() time.Time
	Generate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error)
	ForDate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error)
	Template(ctx context.Context) (*schedule.WeeklyTemplate, error)
}

type Speaker interface {
	Configured() bool
	Note(ctx context.Context, text string) ([]byte, error)
	Brief(ctx context.Context, text string) ([]byte, error)
}

type Archiver interface {
	Put(ctx context.Context, kind string, audio []byte) (string, error)
}

type EventSource interface {
	StartingWithin(ctx context.Context, d time.Duration) ([]calendar.Event, error)
}

type CallSource interface {
	Upcoming(ctx context.Context, from time.Time, days int) ([]calendly.Call, error)
}

type Reviewer interface {
	Weekly(ctx context.Context) (*reviews.WeeklyReview, error)
	Ahead(ctx context.Context) (*reviews.WeekAhead, error)
}

type Attention interface {
	NeedingAttention(ctx context.Context, days int) ([]domain.Project, error)
}

// Deps wires the jobs to their sources. Notifier and Schedules are required;
// jobs whose other source is nil are not scheduled.
type Deps struct {
	Notifier  Notifier
	Schedules Schedules
	Speaker   Speaker
	Archive   Archiver
	Events    EventSource
	Calls     CallSource
	Reviews   Reviewer
	Projects  Attention
	Redis     *redis.Client
}

type Config struct {
	MorningBrief      string // HH:MM
	EveningSummary    string // HH:MM
	EventCheckMinutes int
	CalendlySyncHours int
}

type Scheduler struct {
	cfg  Config
	deps Deps
	loc  *time.Location
	now  func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
	jobs []string
	on   bool

	seenMu sync.Mutex
	seen   map[string]time.Time
}

func NewScheduler(cfg Config, loc *time.Location, deps Deps) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if cfg.EventCheckMinutes <= 0 {
		cfg.EventCheckMinutes = 15
	}
	if cfg.CalendlySyncHours <= 0 {
		cfg.CalendlySyncHours = 3
	}
	return &Scheduler{
		cfg:  cfg,
		deps: deps,
		loc:  loc,
		now:  time.Now,
		seen: map[string]time.Time{},
	}
}

func (s *Scheduler) newCron() *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cron.PrintfLogger(log.Default()))),
	)
}

func daily(hhmm string) (string, error) {
	c, err := schedule.ParseClock(hhmm)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0 %d %d * * *", c.Minute(), c.Hour()), nil
}

func (s *Scheduler) add(spec, name string, fn func(ctx context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs = append(s.jobs, name)
	return nil
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	start := time.Now()
	if err := fn(ctx); err != nil {
		log.Printf("[jobs] %s failed: %v", name, err)
		return
	}
	log.Printf("[jobs] %s done in %s", name, time.Since(start).Round(time.Millisecond))
}

// Start registers every job on a fresh cron and starts it. Starting again
// after Stop registers the jobs once more, not twice.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.on {
		return nil
	}
	s.cron = s.newCron()
	s.jobs = nil

	morning, err := daily(s.cfg.MorningBrief)
	if err != nil {
		return fmt.Errorf("morning brief time: %w", err)
	}
	evening, err := daily(s.cfg.EveningSummary)
	if err != nil {
		return fmt.Errorf("evening summary time: %w", err)
	}
	if err := s.add(morning, "morning brief", s.MorningBrief); err != nil {
		return err
	}
	if err := s.add(evening, "evening summary", s.EveningSummary); err != nil {
		return err
	}

	tmpl, err := s.deps.Schedules.Template(ctx)
	if err != nil {
		log.Printf("[jobs] template unavailable, using default reminders: %v", err)
		tmpl = schedule.DefaultTemplate()
	}
	for _, wb := range ReminderBlocks(tmpl) {
		wb := wb
		spec := fmt.Sprintf("0 %d %d * * *", wb.Start.Minute(), wb.Start.Hour())
		if err := s.add(spec, "reminder "+wb.Name, func(ctx context.Context) error { return s.Remind(ctx, wb) }); err != nil {
			return err
		}
	}

	if s.deps.Events != nil {
		if err := s.add(fmt.Sprintf("0 */%d * * * *", s.cfg.EventCheckMinutes), "event check", s.CheckEvents); err != nil {
			return err
		}
	}
	if s.deps.Calls != nil {
		if err := s.add(fmt.Sprintf("@every %dh", s.cfg.CalendlySyncHours), "calendly sync", s.SyncCalendly); err != nil {
			return err
		}
	}
	if s.deps.Reviews != nil {
		if err := s.add("0 0 19 * * 0", "weekly review", s.WeeklyReview); err != nil {
			return err
		}
		if err := s.add("0 0 5 * * 1", "week ahead", s.WeekAhead); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.on = true
	log.Printf("[jobs] scheduler started in %s with %d jobs", s.loc, len(s.jobs))
	return nil
}

// Stop halts the cron loop and waits for running jobs. The lock is released
// before waiting since running jobs may need it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.on {
		s.mu.Unlock()
		return
	}
	s.on = false
	done := s.cron.Stop()
	s.mu.Unlock()

	<-done.Done()
	log.Println("[jobs] scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Jobs lists the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.jobs...)
}

// ReminderBlocks picks the template blocks that get a start reminder:
// fixed blocks, breaks and the first rotation block.
func ReminderBlocks(tmpl *schedule.WeeklyTemplate) []schedule.WorkBlock {
	var out []schedule.WorkBlock
	rotation := false
	for _, wb := range tmpl.WorkBlocks {
		switch wb.Kind {
		case schedule.KindFixed, schedule.KindBreak:
			out = append(out, wb)
		case schedule.KindRotation:
			if !rotation {
				out = append(out, wb)
				rotation = true
			}
		}
	}
	return out
}

// markSent records a notification key and reports whether it was new.
func (s *Scheduler) markSent(ctx context.Context, key string, ttl time.Duration) bool {
	if s.deps.Redis != nil {
		ok, err := s.deps.Redis.SetNX(ctx, "donna:notified:"+key, 1, ttl).Result()
		if err == nil {
			return ok
		}
		log.Printf("[jobs] redis dedupe failed, using memory: %v", err)
	}
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	now := s.now()
	for k, exp := range s.seen {
		if now.After(exp) {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = now.Add(ttl)
	return true
}
