package calendly

import (
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

type Conflict struct {
	Call  Call               `json:"call"`
	Block schedule.TimeBlock `json:"block"`
}

// Conflicts pairs each call on the schedule's day with the work and break
// blocks it overlaps.
func Conflicts(calls []Call, s schedule.DailySchedule, loc *time.Location) []Conflict {
	day, err := s.Day()
	if err != nil {
		return nil
	}
	var out []Conflict
	for _, c := range calls {
		start := c.StartTime.In(loc)
		end := c.EndTime.In(loc)
		if start.Format(schedule.DateLayout) != s.Date {
			continue
		}
		for _, b := range s.TimeBlocks {
			if b.Type != schedule.BlockWork && b.Type != schedule.BlockBreak {
				continue
			}
			bs := schedule.At(day, b.Start, loc)
			be := schedule.At(day, b.End, loc)
			if start.Before(be) && bs.Before(end) {
				out = append(out, Conflict{Call: c, Block: b})
			}
		}
	}
	return out
}
