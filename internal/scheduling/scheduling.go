// Package scheduling holds the pure rules for doctor schedules: check-in and
// check-out guards, bulk date-range expansion, and working-status derivation.
package scheduling

import (
	"errors"
	"fmt"
	"time"

	"clinic-app-server/internal/models"
)

var (
	ErrAlreadyCheckedIn  = errors.New("doctor has already checked in")
	ErrAlreadyCheckedOut = errors.New("doctor has already checked out")
	ErrNotCheckedIn      = errors.New("doctor has not checked in")
	ErrNotToday          = errors.New("schedule is not for today")
	ErrScheduleCancelled = errors.New("schedule has been cancelled")
	ErrInvalidDateRange  = errors.New("start date is after end date")
)

// CheckIn stamps the check-in time on a schedule. It fails if the schedule is
// cancelled, is not for today, or already has a check-in. The input value is
// returned unchanged on failure.
func CheckIn(s models.DoctorSchedule, now time.Time) (models.DoctorSchedule, error) {
	if s.Status == models.ScheduleCancelled {
		return s, ErrScheduleCancelled
	}
	if !sameDay(s.Date, now) {
		return s, ErrNotToday
	}
	if s.CheckInTime != nil {
		return s, ErrAlreadyCheckedIn
	}
	s.CheckInTime = &now
	s.Status = DeriveStatus(s, now)
	return s, nil
}

// CheckOut stamps the check-out time. A check-out requires a prior check-in
// and is subject to the same today/cancelled guards as CheckIn.
func CheckOut(s models.DoctorSchedule, now time.Time) (models.DoctorSchedule, error) {
	if s.Status == models.ScheduleCancelled {
		return s, ErrScheduleCancelled
	}
	if !sameDay(s.Date, now) {
		return s, ErrNotToday
	}
	if s.CheckInTime == nil {
		return s, ErrNotCheckedIn
	}
	if s.CheckOutTime != nil {
		return s, ErrAlreadyCheckedOut
	}
	s.CheckOutTime = &now
	s.Status = DeriveStatus(s, now)
	return s, nil
}

// ExpandDateRange returns one date per calendar day from start through end,
// inclusive of both endpoints, in ascending order. A reversed range is an
// error rather than an empty sequence so bulk schedule creation cannot
// silently produce nothing.
func ExpandDateRange(start, end time.Time) ([]time.Time, error) {
	startDay := StartOfDay(start)
	endDay := StartOfDay(end)
	if startDay.After(endDay) {
		return nil, ErrInvalidDateRange
	}

	var dates []time.Time
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// DeriveStatus recomputes a schedule's working status from its check-in and
// check-out stamps relative to its scheduled times. The UI polls an endpoint
// that applies this to every schedule of the day.
func DeriveStatus(s models.DoctorSchedule, now time.Time) models.ScheduleStatus {
	if s.Status == models.ScheduleCancelled {
		return models.ScheduleCancelled
	}

	if s.CheckOutTime != nil {
		if clockOf(*s.CheckOutTime) < clockMinutes(s.EndTime, models.DefaultShiftEnd) {
			return models.ScheduleLeftEarly
		}
		return models.ScheduleCompleted
	}

	if s.CheckInTime != nil {
		if clockOf(*s.CheckInTime) > clockMinutes(s.StartTime, models.DefaultShiftStart) {
			return models.ScheduleLate
		}
		return models.ScheduleInProgress
	}

	if StartOfDay(s.Date).Before(StartOfDay(now)) {
		return models.ScheduleAbsent
	}
	return models.ScheduleScheduled
}

// ParseClock parses a "HH:MM" or "HH:MM:SS" label into minutes since midnight.
func ParseClock(label string) (int, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(label, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(label, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid clock label %q", label)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid clock label %q", label)
	}
	return h*60 + m, nil
}

func clockMinutes(label, fallback string) int {
	if minutes, err := ParseClock(label); err == nil {
		return minutes
	}
	minutes, _ := ParseClock(fallback)
	return minutes
}

func clockOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns midnight of t's calendar day in t's location. Truncating
// against the clock epoch instead would shift the day boundary by the zone
// offset.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
