package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

// MinutesPerDay bounds a Clock; valid clocks are below it.
const MinutesPerDay = 24 * 60

// ParseClock accepts "3:30 PM", "3:30PM", "3:30pm" and 24h "15:30".
func ParseClock(s string) (Clock, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("empty clock")
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(raw, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(raw, "PM"):
		meridiem = "PM"
	}
	raw = strings.TrimSpace(strings.TrimSuffix(raw, meridiem))

	parts := strings.Split(raw, ":")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	m := 0
	if len(parts) == 2 {
		m, err = strconv.Atoi(parts[1])
		if err != nil || m < 0 || m > 59 {
			return 0, fmt.Errorf("invalid clock %q", s)
		}
	}

	switch meridiem {
	case "":
		if h < 0 || h > 23 {
			return 0, fmt.Errorf("invalid clock %q", s)
		}
	default:
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("invalid clock %q", s)
		}
		h %= 12
		if meridiem == "PM" {
			h += 12
		}
	}
	return Clock(h*60 + m), nil
}

func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add returns the clock shifted by the given minutes, wrapping at midnight.
func (c Clock) Add(minutes int) Clock {
	v := (int(c) + minutes) % MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}
	return Clock(v)
}

// String renders the clock as "3:30 PM".
func (c Clock) String() string {
	h := c.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, c.Minute(), suffix)
}

// HHMM renders the clock in 24h form.
func (c Clock) HHMM() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
