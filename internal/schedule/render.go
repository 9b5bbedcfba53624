package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Render formats the schedule as markdown.
func Render(s DailySchedule) string {
	var b strings.Builder

	heading := s.Date
	if d, err := s.Day(); err == nil {
		heading = d.Format("Monday, January 02, 2006")
	}
	fmt.Fprintf(&b, "# Schedule for %s\n", heading)
	if s.Approved {
		b.WriteString("\n_Approved_\n")
	}

	personal := blocksOf(s, BlockPersonal)
	if len(personal) > 0 {
		b.WriteString("\n## Morning Routine\n\n")
		for _, tb := range personal {
			fmt.Fprintf(&b, "- **%s** - %s\n", tb.Start, tb.Title)
		}
	}

	work := s.WorkBlocks()
	if len(work) > 0 {
		b.WriteString("\n## Work Blocks\n")
		for _, tb := range work {
			if tb.Type == BlockMarker {
				fmt.Fprintf(&b, "\n_%s_\n", tb.Title)
				continue
			}
			title := tb.Title
			if tb.Type == BlockCall {
				title = "Call: " + title
			}
			fmt.Fprintf(&b, "\n### %s - %s: %s\n", tb.Start, tb.End, title)
			if tb.Detail != "" {
				fmt.Fprintf(&b, "  → %s\n", tb.Detail)
			}
		}
	}

	evening := blocksOf(s, BlockEvening)
	if len(evening) > 0 {
		b.WriteString("\n## Evening\n\n")
		for _, tb := range evening {
			fmt.Fprintf(&b, "- **%s** - %s\n", tb.Start, tb.Title)
		}
	}

	if len(s.SignalTasks) > 0 {
		b.WriteString("\n## Top 3 Signal Tasks\n\n")
		for i, t := range s.SignalTasks {
			fmt.Fprintf(&b, "%d. %s\n", i+1, t)
		}
	}

	if strings.TrimSpace(s.Notes) != "" {
		fmt.Fprintf(&b, "\n## Notes\n\n%s\n", strings.TrimSpace(s.Notes))
	}

	return strings.TrimRight(b.String(), "\n")
}

func blocksOf(s DailySchedule, t BlockType) []TimeBlock {
	var out []TimeBlock
	for _, b := range s.TimeBlocks {
		if b.Type == t {
			out = append(out, b)
		}
	}
	return out
}

// At returns the absolute instant of a clock on the schedule's date.
func At(date time.Time, c Clock, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, loc)
}
