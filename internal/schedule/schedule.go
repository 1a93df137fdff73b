// internal/schedule/schedule.go
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stagger bounds between consecutive recipients in one batch.
const (
	staggerBaseSec   = 30
	staggerJitterSec = 90
)

// Source supplies the stagger jitter. *math/rand.Rand satisfies it;
// tests inject a fixed source so send times are reproducible.
type Source interface {
	Float64() float64
}

// Window is a daily local-time send range.
type Window struct {
	StartHour, StartMin int
	EndHour, EndMin     int
}

// ParseWindow parses "HH:MM" start/end strings into a Window.
func ParseWindow(start, end string) (Window, error) {
	sh, sm, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start %q: %w", start, err)
	}
	eh, em, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end %q: %w", end, err)
	}
	return Window{StartHour: sh, StartMin: sm, EndHour: eh, EndMin: em}, nil
}

func parseClock(s string) (hour, min int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour")
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("bad minute")
	}
	return hour, min, nil
}

// ComputeSendTime staggers the batch position index away from base and
// clamps the result into the campaign's business window in loc:
// before the window snaps forward to the window start the same day, at or
// past the end snaps to the window start the next day, and weekends are
// skipped keeping the snapped time of day.
func ComputeSendTime(base time.Time, index int, w Window, loc *time.Location, rng Source) time.Time {
	stagger := float64(index) * (staggerBaseSec + rng.Float64()*staggerJitterSec)
	t := base.Add(time.Duration(stagger * float64(time.Second))).In(loc)

	startMins := w.StartHour*60 + w.StartMin
	endMins := w.EndHour*60 + w.EndMin
	curMins := t.Hour()*60 + t.Minute()

	if curMins < startMins {
		t = atClock(t, w.StartHour, w.StartMin)
	} else if curMins >= endMins {
		t = atClock(t.AddDate(0, 0, 1), w.StartHour, w.StartMin)
	}

	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func atClock(t time.Time, hour, min int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, min, 0, 0, t.Location())
}
