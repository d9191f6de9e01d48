package session

import (
	"time"

	"github.com/pkg/errors"
)

// Window selects the slice of session history a computation runs over.
type Window string

const (
	WindowAllTime   Window = "all"
	WindowThisWeek  Window = "week"
	WindowThisMonth Window = "month"
)

var ErrUnknownWindow = errors.New("unknown window")

// ParseWindow maps a query/CLI value to a Window. An empty value means all time.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "", WindowAllTime:
		return WindowAllTime, nil
	case WindowThisWeek:
		return WindowThisWeek, nil
	case WindowThisMonth:
		return WindowThisMonth, nil
	}
	return "", errors.Wrap(ErrUnknownWindow, s)
}

// Start returns the inclusive lower bound of the window relative to now,
// normalized to midnight in now's location. The zero time means unbounded.
//
// Weeks are Monday-anchored; months start on the 1st.
func (w Window) Start(now time.Time) time.Time {
	switch w {
	case WindowThisWeek:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return midnight.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
	case WindowThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}
}

// Contains reports whether t falls within [w.Start(now), now].
func (w Window) Contains(t, now time.Time) bool {
	if t.After(now) {
		return false
	}
	start := w.Start(now)
	if start.IsZero() {
		return true
	}
	return !t.Before(start)
}
