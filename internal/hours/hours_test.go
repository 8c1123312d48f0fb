package hours

import (
	"errors"
	"testing"
	"time"
)

func mustGate(t *testing.T, s Schedule, tz string) *Gate {
	t.Helper()
	g, err := NewGate(s, tz)
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}
	return g
}

func TestIsStaffed_HalfOpenBoundaries(t *testing.T) {
	var s Schedule
	s[time.Friday] = &Window{Open: 10, Close: 22}
	g := mustGate(t, s, "UTC")

	// 2026-01-02 is a Friday.
	tests := []struct {
		hour int
		want bool
	}{
		{9, false},
		{10, true},
		{21, true},
		{22, false},
	}
	for _, tt := range tests {
		at := time.Date(2026, 1, 2, tt.hour, 30, 0, 0, time.UTC)
		if got := g.IsStaffed(at); got != tt.want {
			t.Errorf("IsStaffed(%02d:30) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestIsStaffed_ClosedDay(t *testing.T) {
	g := mustGate(t, DefaultSchedule(), "UTC")

	// 2026-01-06 is a Tuesday.
	if g.IsStaffed(time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Tuesday should be closed")
	}
}

func TestIsStaffed_ProjectsIntoZone(t *testing.T) {
	g := mustGate(t, DefaultSchedule(), "America/Sao_Paulo")

	// Saturday 2026-01-03 20:30 UTC is 17:30 in Sao Paulo (UTC-3): staffed.
	if !g.IsStaffed(time.Date(2026, 1, 3, 20, 30, 0, 0, time.UTC)) {
		t.Errorf("Saturday 17:30 local should be staffed")
	}
	// Saturday 2026-01-03 21:30 UTC is 18:30 local: closed.
	if g.IsStaffed(time.Date(2026, 1, 3, 21, 30, 0, 0, time.UTC)) {
		t.Errorf("Saturday 18:30 local should not be staffed")
	}
	// Tuesday 2026-01-06 01:00 UTC is Monday 22:00 local: closing hour.
	if g.IsStaffed(time.Date(2026, 1, 6, 1, 0, 0, 0, time.UTC)) {
		t.Errorf("Monday 22:00 local should not be staffed")
	}
	// Tuesday 2026-01-06 00:59 UTC is Monday 21:59 local.
	if !g.IsStaffed(time.Date(2026, 1, 6, 0, 59, 0, 0, time.UTC)) {
		t.Errorf("Monday 21:59 local should be staffed")
	}
}

func TestStaffedNow_UsesClock(t *testing.T) {
	g := mustGate(t, DefaultSchedule(), "UTC")
	fixed := time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC)

	if !g.WithClock(func() time.Time { return fixed }).StaffedNow() {
		t.Errorf("StaffedNow() = false at Friday 11:00")
	}
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule(map[string]DayConfig{
		"Tuesday": {Open: 14, Close: 20},
		"sunday":  {Closed: true},
	})
	if err != nil {
		t.Fatalf("ParseSchedule() error = %v", err)
	}
	if w := s[time.Tuesday]; w == nil || w.Open != 14 || w.Close != 20 {
		t.Errorf("Tuesday = %+v, want 14-20", w)
	}
	if s[time.Sunday] != nil {
		t.Errorf("Sunday should be closed")
	}
	if w := s[time.Friday]; w == nil || w.Open != 10 {
		t.Errorf("unlisted Friday should keep the default, got %+v", w)
	}
}

func TestParseSchedule_Invalid(t *testing.T) {
	cases := map[string]map[string]DayConfig{
		"unknown day":    {"funday": {Open: 9, Close: 10}},
		"inverted":       {"monday": {Open: 20, Close: 10}},
		"past midnight":  {"monday": {Open: 20, Close: 25}},
		"empty interval": {"monday": {Open: 10, Close: 10}},
	}
	for name, days := range cases {
		if _, err := ParseSchedule(days); !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("%s: error = %v, want ErrInvalidSchedule", name, err)
		}
	}
}

func TestNewGate_BadZone(t *testing.T) {
	if _, err := NewGate(DefaultSchedule(), "Mars/Olympus"); err == nil {
		t.Fatal("NewGate() with unknown zone should fail")
	}
}
