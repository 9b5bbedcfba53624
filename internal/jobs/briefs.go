package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/calendly"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	"github.com/GoSim-25-26J-441/donna-backend/internal/voice"
)

const voiceLimit = 1000

const morningFooter = `---

Now, before you start questioning my decisions:
• /approve - Smart move. Lock it in.
• /adjust - If you must. But I was right.
• /braindump - Got ideas? I'm listening.
• /voice - Hear me say it.

Don't be late. I hate late.`

const eveningFooter = `---

Now go rest. You'll need it. I've got a full day lined up for you.

• /adjust - Change tomorrow? Fine, but make it quick.
• /braindump - Last minute thoughts? Get them out now.

Good night. Don't make me come find you in the morning.`

func (s *Scheduler) today() time.Time {
	return s.deps.Schedules.Today()
}

// MorningBrief generates today's schedule and sends it with a voice brief.
func (s *Scheduler) MorningBrief(ctx context.Context) error {
	sched, err := s.deps.Schedules.Generate(ctx, s.today())
	if err != nil {
		return fmt.Errorf("generate today: %w", err)
	}
	rendered := schedule.Render(*sched)
	text := "Rise and shine. It's Donna.\n\n" +
		"I've already optimized your day, checked Calendly for conflicts, and made sure the priority block gets the attention it deserves. You're welcome.\n\n" +
		rendered + "\n\n" + morningFooter
	if err := s.deps.Notifier.Notify(ctx, text); err != nil {
		return err
	}
	s.speak(ctx, "morning-brief", rendered, "Your morning brief. Now go execute.", true)
	return nil
}

// EveningSummary plans tomorrow and sends it.
func (s *Scheduler) EveningSummary(ctx context.Context) error {
	tomorrow := s.today().AddDate(0, 0, 1)
	sched, err := s.deps.Schedules.Generate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("generate tomorrow: %w", err)
	}
	rendered := schedule.Render(*sched)
	text := "Alright, that's enough for today.\n\nI've already planned tomorrow. Obviously.\n\n" + rendered + "\n\n" + eveningFooter
	if err := s.deps.Notifier.Notify(ctx, text); err != nil {
		return err
	}
	s.speak(ctx, "evening-summary",
		"Alright, that's enough for today. I've already planned tomorrow. "+rendered+" Good night.",
		"Tomorrow, planned.", false)
	return nil
}

func (s *Scheduler) WeeklyReview(ctx context.Context) error {
	w, err := s.deps.Reviews.Weekly(ctx)
	if err != nil {
		return err
	}
	md := w.Markdown()
	if err := s.deps.Notifier.Notify(ctx, "📊 *Weekly Review*\n\n"+md); err != nil {
		return err
	}
	s.speak(ctx, "weekly-review", "Here's your weekly review. "+truncate(md, voiceLimit), "Weekly review.", false)
	return nil
}

func (s *Scheduler) WeekAhead(ctx context.Context) error {
	w, err := s.deps.Reviews.Ahead(ctx)
	if err != nil {
		return err
	}
	md := w.Markdown()
	if err := s.deps.Notifier.Notify(ctx, "📅 *Week Ahead*\n\n"+md); err != nil {
		return err
	}
	s.speak(ctx, "week-ahead", "Here's what's coming up this week. "+truncate(md, voiceLimit), "The week ahead.", false)
	return nil
}

// speak follows a text notification with a voice note. Voice failures are
// logged; the text has already been delivered.
func (s *Scheduler) speak(ctx context.Context, kind, text, caption string, brief bool) {
	sp := s.deps.Speaker
	if sp == nil || !sp.Configured() {
		return
	}
	var (
		audio []byte
		err   error
	)
	if brief {
		audio, err = sp.Brief(ctx, text)
	} else {
		audio, err = sp.Note(ctx, text)
	}
	if err != nil {
		log.Printf("[jobs] %s voice failed: %v", kind, err)
		return
	}
	if err := s.deps.Notifier.NotifyVoice(ctx, audio, caption); err != nil {
		log.Printf("[jobs] %s voice send failed: %v", kind, err)
	}
	if s.deps.Archive != nil {
		if key, err := s.deps.Archive.Put(ctx, kind, audio); err == nil {
			log.Printf("[jobs] archived %s as %s", kind, key)
		} else if !errors.Is(err, voice.ErrNotConfigured) {
			log.Printf("[jobs] %s archive failed: %v", kind, err)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Remind announces the start of a work block on today's schedule.
func (s *Scheduler) Remind(ctx context.Context, wb schedule.WorkBlock) error {
	sched, err := s.deps.Schedules.ForDate(ctx, s.today())
	if err != nil {
		return err
	}
	var block *schedule.TimeBlock
	for i := range sched.TimeBlocks {
		if sched.TimeBlocks[i].Name == wb.Name {
			block = &sched.TimeBlocks[i]
			break
		}
	}
	at := wb.Start.String()
	minutes := int(wb.End) - int(wb.Start)

	var text string
	switch wb.Kind {
	case schedule.KindFixed:
		if block == nil {
			log.Printf("[jobs] %s is not on today's schedule, no reminder", wb.Name)
			return nil
		}
		text = fmt.Sprintf("⏰ *%s Time*\n\nIt's %s. Your non-negotiable %s block starts now.\n\nFocus. No distractions. I'm watching.",
			block.Title, at, block.Title)
	case schedule.KindBreak:
		if block == nil {
			return nil
		}
		text = fmt.Sprintf("☕ *Break Time*\n\nIt's %s. Step away from the screen.\n\nYou have %d minutes. Use them wisely.", at, minutes)
	default:
		focus := "All projects are up to date. Pick your favorite."
		if block != nil {
			focus = "Today it's " + block.Title + "."
			if block.Detail != "" {
				focus += "\n" + block.Detail
			}
		}
		if s.deps.Projects != nil {
			if stale, err := s.deps.Projects.NeedingAttention(ctx, 3); err == nil && len(stale) > 0 {
				names := make([]string, len(stale))
				for i, p := range stale {
					names[i] = p.Name
				}
				focus += "\n\nNeeding attention: " + strings.Join(names, ", ")
			}
		}
		text = fmt.Sprintf("🔄 *Rotation Block Started*\n\nIt's %s. Time for project rotation.\n\n%s\n\nFocus for %d minutes. You got this.", at, focus, minutes)
	}
	return s.deps.Notifier.Notify(ctx, text)
}

// CheckEvents warns about calendar events starting within the check window.
// Each event is announced once.
func (s *Scheduler) CheckEvents(ctx context.Context) error {
	window := time.Duration(s.cfg.EventCheckMinutes) * time.Minute
	events, err := s.deps.Events.StartingWithin(ctx, window)
	if err != nil {
		return err
	}
	for _, e := range events {
		key := fmt.Sprintf("event:%s:%d", e.ID, e.Start.Unix())
		if !s.markSent(ctx, key, 24*time.Hour) {
			continue
		}
		mins := int(e.Start.Sub(s.now()).Round(time.Minute).Minutes())
		text := fmt.Sprintf("📅 *%s* starts at %s", e.Title, e.Start.In(s.loc).Format("3:04 PM"))
		if mins > 0 {
			text += fmt.Sprintf(" (in %d min)", mins)
		}
		if e.Link != "" {
			text += "\n" + e.Link
		}
		if err := s.deps.Notifier.Notify(ctx, text); err != nil {
			return err
		}
	}
	return nil
}

// SyncCalendly checks the coming week's calls against today's schedule and
// reports overlaps with work blocks.
func (s *Scheduler) SyncCalendly(ctx context.Context) error {
	calls, err := s.deps.Calls.Upcoming(ctx, s.now(), 7)
	if err != nil {
		return err
	}
	log.Printf("[calendly] %d upcoming calls", len(calls))
	sched, err := s.deps.Schedules.ForDate(ctx, s.today())
	if err != nil {
		return err
	}
	conflicts := calendly.Conflicts(calls, *sched, s.loc)
	if len(conflicts) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("⚠️ Schedule Conflict Detected\n")
	for _, c := range conflicts {
		fmt.Fprintf(&b, "\n- %s at %s overlaps %s (%s - %s)",
			c.Call.Name, c.Call.StartTime.In(s.loc).Format("3:04 PM"), c.Block.Title, c.Block.Start, c.Block.End)
	}
	b.WriteString("\n\nCalls win. Use /adjust if you want me to move things.")
	return s.deps.Notifier.Notify(ctx, b.String())
}
