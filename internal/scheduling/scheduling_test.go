package scheduling

import (
	"errors"
	"testing"
	"time"

	"clinic-app-server/internal/models"
)

var today = time.Date(2025, 3, 14, 7, 55, 0, 0, time.UTC)

func scheduleFor(date time.Time) models.DoctorSchedule {
	return models.DoctorSchedule{
		DoctorID:  3,
		Date:      date,
		Status:    models.ScheduleScheduled,
		StartTime: "08:00:00",
		EndTime:   "16:30:00",
	}
}

func TestCheckInHappyPath(t *testing.T) {
	s, err := CheckIn(scheduleFor(today), today)
	if err != nil {
		t.Fatal(err)
	}
	if s.CheckInTime == nil || !s.CheckInTime.Equal(today) {
		t.Errorf("CheckInTime = %v, want %v", s.CheckInTime, today)
	}
	if s.Status != models.ScheduleInProgress {
		t.Errorf("status = %q, want in_progress", s.Status)
	}
}

func TestCheckInGuards(t *testing.T) {
	t.Run("twice fails", func(t *testing.T) {
		s, err := CheckIn(scheduleFor(today), today)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := CheckIn(s, today); !errors.Is(err, ErrAlreadyCheckedIn) {
			t.Errorf("got %v, want ErrAlreadyCheckedIn", err)
		}
	})

	t.Run("wrong day fails", func(t *testing.T) {
		s := scheduleFor(today.AddDate(0, 0, 1))
		if _, err := CheckIn(s, today); !errors.Is(err, ErrNotToday) {
			t.Errorf("got %v, want ErrNotToday", err)
		}
	})

	t.Run("cancelled schedule fails", func(t *testing.T) {
		s := scheduleFor(today)
		s.Status = models.ScheduleCancelled
		if _, err := CheckIn(s, today); !errors.Is(err, ErrScheduleCancelled) {
			t.Errorf("got %v, want ErrScheduleCancelled", err)
		}
	})
}

func TestCheckOutGuards(t *testing.T) {
	t.Run("before check-in fails", func(t *testing.T) {
		if _, err := CheckOut(scheduleFor(today), today); !errors.Is(err, ErrNotCheckedIn) {
			t.Errorf("got %v, want ErrNotCheckedIn", err)
		}
	})

	t.Run("twice fails", func(t *testing.T) {
		s, err := CheckIn(scheduleFor(today), today)
		if err != nil {
			t.Fatal(err)
		}
		end := today.Add(9 * time.Hour)
		s, err = CheckOut(s, end)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := CheckOut(s, end); !errors.Is(err, ErrAlreadyCheckedOut) {
			t.Errorf("got %v, want ErrAlreadyCheckedOut", err)
		}
	})
}

func TestExpandDateRange(t *testing.T) {
	d := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("single day", func(t *testing.T) {
		dates, err := ExpandDateRange(d, d)
		if err != nil {
			t.Fatal(err)
		}
		if len(dates) != 1 || !dates[0].Equal(d) {
			t.Errorf("got %v, want exactly [%v]", dates, d)
		}
	})

	t.Run("one week ascending", func(t *testing.T) {
		dates, err := ExpandDateRange(d, d.AddDate(0, 0, 6))
		if err != nil {
			t.Fatal(err)
		}
		if len(dates) != 7 {
			t.Fatalf("got %d dates, want 7", len(dates))
		}
		for i, date := range dates {
			if want := d.AddDate(0, 0, i); !date.Equal(want) {
				t.Errorf("dates[%d] = %v, want %v", i, date, want)
			}
		}
	})

	t.Run("crosses month boundary", func(t *testing.T) {
		start := time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)
		dates, err := ExpandDateRange(start, start.AddDate(0, 0, 3))
		if err != nil {
			t.Fatal(err)
		}
		if len(dates) != 4 || dates[3].Month() != time.April {
			t.Errorf("got %v, want four dates ending in April", dates)
		}
	})

	t.Run("reversed range rejected", func(t *testing.T) {
		if _, err := ExpandDateRange(d.AddDate(0, 0, 1), d); !errors.Is(err, ErrInvalidDateRange) {
			t.Errorf("got %v, want ErrInvalidDateRange", err)
		}
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		dates, err := ExpandDateRange(d.Add(23*time.Hour), d.Add(30*time.Minute))
		if err != nil {
			t.Fatalf("same calendar day should not be a reversed range: %v", err)
		}
		if len(dates) != 1 {
			t.Errorf("got %d dates, want 1", len(dates))
		}
	})
}

func TestDeriveStatus(t *testing.T) {
	at := func(hour, minute int) *time.Time {
		ts := time.Date(2025, 3, 14, hour, minute, 0, 0, time.UTC)
		return &ts
	}

	tests := []struct {
		name   string
		mutate func(*models.DoctorSchedule)
		now    time.Time
		want   models.ScheduleStatus
	}{
		{"untouched future schedule", func(s *models.DoctorSchedule) {}, today, models.ScheduleScheduled},
		{"no show on a past day", func(s *models.DoctorSchedule) {
			s.Date = today.AddDate(0, 0, -1)
		}, today, models.ScheduleAbsent},
		{"on-time check-in", func(s *models.DoctorSchedule) {
			s.CheckInTime = at(7, 55)
		}, today, models.ScheduleInProgress},
		{"late check-in", func(s *models.DoctorSchedule) {
			s.CheckInTime = at(8, 20)
		}, today, models.ScheduleLate},
		{"early check-out", func(s *models.DoctorSchedule) {
			s.CheckInTime = at(7, 55)
			s.CheckOutTime = at(15, 0)
		}, today, models.ScheduleLeftEarly},
		{"full shift", func(s *models.DoctorSchedule) {
			s.CheckInTime = at(7, 55)
			s.CheckOutTime = at(16, 30)
		}, today, models.ScheduleCompleted},
		{"cancelled sticks", func(s *models.DoctorSchedule) {
			s.Status = models.ScheduleCancelled
			s.CheckInTime = at(7, 55)
		}, today, models.ScheduleCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scheduleFor(today)
			tt.mutate(&s)
			if got := DeriveStatus(s, tt.now); got != tt.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		label   string
		want    int
		wantErr bool
	}{
		{"08:00:00", 480, false},
		{"16:30:00", 990, false},
		{"08:00", 480, false},
		{"23:59:59", 1439, false},
		{"24:00", 0, true},
		{"08:60", 0, true},
		{"08:00:99", 0, true},
		{"08:00:-1", 0, true},
		{"garbage", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.label)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.label)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.label, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestStartOfDayKeepsLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	at := time.Date(2026, time.March, 5, 1, 30, 0, 0, loc)

	got := StartOfDay(at)
	want := time.Date(2026, time.March, 5, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfDay(%v) = %v, want %v", at, got, want)
	}
	if got.Location() != loc {
		t.Errorf("StartOfDay changed location to %v", got.Location())
	}

	// 01:30 local is still the previous day when measured against the UTC
	// epoch, so a 24h Truncate would land on the wrong boundary.
	if truncated := at.Truncate(24 * time.Hour); got.Equal(truncated) {
		t.Errorf("expected local midnight, got epoch-aligned %v", truncated)
	}
}

func TestStartOfDayOrdersCalendarDays(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	lateYesterday := time.Date(2026, time.March, 4, 23, 59, 0, 0, loc)
	earlyToday := time.Date(2026, time.March, 5, 0, 1, 0, 0, loc)

	if !StartOfDay(lateYesterday).Before(StartOfDay(earlyToday)) {
		t.Error("expected yesterday's midnight to come before today's")
	}
	if StartOfDay(earlyToday).Before(StartOfDay(earlyToday.Add(time.Hour))) {
		t.Error("expected times on the same day to share a midnight")
	}
}
