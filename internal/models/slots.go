package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	clockLayout = "15:04"

	minutesPerDay = 24 * 60
)

// WallClock is a time of day in minutes since midnight.
type WallClock int

// ParseWallClock accepts "HH:MM" and the "HH:MM:SS" form Postgres returns for time columns.
func ParseWallClock(s string) (WallClock, error) {
	s = strings.TrimSpace(s)
	layout := clockLayout
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, ValidationError("invalid time %q, expected HH:MM", s)
	}
	return WallClock(t.Hour()*60 + t.Minute()), nil
}

func (w WallClock) Hour() int   { return int(w) / 60 }
func (w WallClock) Minute() int { return int(w) % 60 }

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour(), w.Minute())
}

// AddMinutes rolls minutes into hours and wraps past midnight onto the same
// clock face. Callers that need a same-day slot must check the result is after w.
func (w WallClock) AddMinutes(minutes int) WallClock {
	total := (int(w) + minutes) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return WallClock(total)
}

// ComputeEndTime returns start + durationMinutes formatted as HH:MM.
func ComputeEndTime(start string, durationMinutes int) (string, error) {
	s, err := ParseWallClock(start)
	if err != nil {
		return "", err
	}
	if durationMinutes <= 0 {
		return "", ValidationError("duration must be positive")
	}
	return s.AddMinutes(durationMinutes).String(), nil
}

// ParseBookingDate validates a YYYY-MM-DD calendar date.
func ParseBookingDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ValidationError("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Slot is a same-day [Start, End) interval.
type Slot struct {
	Start WallClock
	End   WallClock
}

func NewSlot(start, end WallClock) (Slot, error) {
	if start >= end {
		return Slot{}, ValidationError("slot must start before it ends on the same day (%s-%s)", start, end)
	}
	return Slot{Start: start, End: end}, nil
}

func ParseSlot(start, end string) (Slot, error) {
	s, err := ParseWallClock(start)
	if err != nil {
		return Slot{}, err
	}
	e, err := ParseWallClock(end)
	if err != nil {
		return Slot{}, err
	}
	return NewSlot(s, e)
}

// ConflictsWith reports whether the proposed slot p collides with an existing booking.
// Touching intervals do not conflict.
func (p Slot) ConflictsWith(existing Slot) bool {
	s, e := existing.Start, existing.End
	startsInside := p.Start >= s && p.Start < e
	endsInside := p.End > s && p.End <= e
	covers := p.Start <= s && p.End >= e
	return startsInside || endsInside || covers
}

func (p Slot) String() string {
	return p.Start.String() + "-" + p.End.String()
}
