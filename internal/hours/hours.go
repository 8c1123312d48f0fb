// Package hours decides whether human operators are on duty.
package hours

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is used when no zone is configured.
const DefaultTimezone = "America/Sao_Paulo"

var ErrInvalidSchedule = errors.New("invalid business hours")

// Window is a staffed interval [Open, Close) in whole local hours.
type Window struct {
	Open  int
	Close int
}

// Contains reports whether hour falls inside the window.
func (w Window) Contains(hour int) bool {
	return w.Open <= hour && hour < w.Close
}

// Schedule maps each weekday to its window; nil means closed all day.
type Schedule [7]*Window

// DefaultSchedule: Monday 18-22, Tuesday to Thursday closed, Friday 10-22,
// weekends 9-18.
func DefaultSchedule() Schedule {
	return Schedule{
		time.Sunday:    {Open: 9, Close: 18},
		time.Monday:    {Open: 18, Close: 22},
		time.Tuesday:   nil,
		time.Wednesday: nil,
		time.Thursday:  nil,
		time.Friday:    {Open: 10, Close: 22},
		time.Saturday:  {Open: 9, Close: 18},
	}
}

// DayConfig is the configuration shape of one weekday.
type DayConfig struct {
	Closed bool `mapstructure:"closed"`
	Open   int  `mapstructure:"open"`
	Close  int  `mapstructure:"close"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseSchedule builds a Schedule from per-weekday configuration keyed by
// English weekday name. Days that are not listed keep the default schedule.
func ParseSchedule(days map[string]DayConfig) (Schedule, error) {
	s := DefaultSchedule()
	for name, day := range days {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return Schedule{}, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, name)
		}
		if day.Closed {
			s[wd] = nil
			continue
		}
		if day.Open < 0 || day.Close > 24 || day.Open >= day.Close {
			return Schedule{}, fmt.Errorf("%w: %s %d-%d", ErrInvalidSchedule, name, day.Open, day.Close)
		}
		s[wd] = &Window{Open: day.Open, Close: day.Close}
	}
	return s, nil
}

// Gate answers whether the club is staffed at a given instant.
type Gate struct {
	schedule Schedule
	location *time.Location
	now      func() time.Time
}

// NewGate creates a gate for schedule in the named IANA zone.
func NewGate(schedule Schedule, timezone string) (*Gate, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Gate{
		schedule: schedule,
		location: loc,
		now:      time.Now,
	}, nil
}

// WithClock returns a copy of g reading the wall clock from now.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	cp := *g
	cp.now = now
	return &cp
}

// Location returns the zone the schedule is expressed in.
func (g *Gate) Location() *time.Location {
	return g.location
}

// IsStaffed reports whether t falls in the staffed window of its weekday in
// the gate's zone. The closing hour itself is not staffed.
func (g *Gate) IsStaffed(t time.Time) bool {
	local := t.In(g.location)
	w := g.schedule[local.Weekday()]
	if w == nil {
		return false
	}
	return w.Contains(local.Hour())
}

// StaffedNow applies IsStaffed to the gate's clock.
func (g *Gate) StaffedNow() bool {
	return g.IsStaffed(g.now())
}
