package domain

import (
	"testing"
	"time"
)

func TestWeekdayIndex(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 0},  // Monday
		{time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), 2},  // Wednesday
		{time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), 5},  // Saturday
		{time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), 6},  // Sunday
	}
	for _, tt := range tests {
		if got := WeekdayIndex(tt.date); got != tt.want {
			t.Fatalf("WeekdayIndex(%s) = %d, want %d", tt.date.Format(DateLayout), got, tt.want)
		}
	}
}

func TestParseWallClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseWallClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseWallClock(%q) expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseWallClock(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseWallClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestResolveDayCapacity(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	rules := []WeeklyRule{
		{TeacherID: 1, Weekday: 0, StartTime: "09:00", EndTime: "18:00", IsOpen: true},
		{TeacherID: 1, Weekday: 1, StartTime: "09:00", EndTime: "18:00", IsOpen: false},
	}

	t.Run("weekly rule applies", func(t *testing.T) {
		c := ResolveDayCapacity(monday, rules, nil)
		if !c.Open || c.StartTime != "09:00" || c.EndTime != "18:00" {
			t.Fatalf("capacity = %+v", c)
		}
	})

	t.Run("closed rule yields closed day", func(t *testing.T) {
		tuesday := monday.AddDate(0, 0, 1)
		if c := ResolveDayCapacity(tuesday, rules, nil); c.Open {
			t.Fatalf("expected closed day, got %+v", c)
		}
	})

	t.Run("no rule for weekday yields closed day", func(t *testing.T) {
		if c := ResolveDayCapacity(sunday, rules, nil); c.Open {
			t.Fatalf("expected closed Sunday, got %+v", c)
		}
	})

	t.Run("special day replaces the rule entirely", func(t *testing.T) {
		specials := []SpecialDay{{
			TeacherID:   1,
			Date:        "2026-03-02",
			StartTime:   "10:00",
			EndTime:     "14:00",
			IsActive:    true,
			BookedSlots: []string{"10:00-11:00"},
		}}
		c := ResolveDayCapacity(monday, rules, specials)
		if !c.Open || c.StartTime != "10:00" || c.EndTime != "14:00" {
			t.Fatalf("capacity = %+v", c)
		}
		if len(c.FixedSlots) != 1 || c.FixedSlots[0] != "10:00-11:00" {
			t.Fatalf("fixed slots = %v", c.FixedSlots)
		}
	})

	t.Run("special day opens an otherwise closed weekday", func(t *testing.T) {
		specials := []SpecialDay{{
			TeacherID: 1,
			Date:      "2026-03-08",
			StartTime: "10:00",
			EndTime:   "12:00",
			IsActive:  true,
		}}
		c := ResolveDayCapacity(sunday, rules, specials)
		if !c.Open {
			t.Fatalf("expected special day to open Sunday, got %+v", c)
		}
	})

	t.Run("inactive special day closes an open weekday", func(t *testing.T) {
		specials := []SpecialDay{{
			TeacherID: 1,
			Date:      "2026-03-02",
			StartTime: "09:00",
			EndTime:   "18:00",
			IsActive:  false,
		}}
		if c := ResolveDayCapacity(monday, rules, specials); c.Open {
			t.Fatalf("expected closed day, got %+v", c)
		}
	})
}

func TestBuildDaySkeletons(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	wednesday := monday.AddDate(0, 0, 2)

	rules := []WeeklyRule{
		{TeacherID: 1, Weekday: 0, StartTime: "09:00", EndTime: "18:00", IsOpen: true},
		{TeacherID: 1, Weekday: 1, StartTime: "09:00", EndTime: "18:00", IsOpen: true},
		{TeacherID: 1, Weekday: 2, StartTime: "09:00", EndTime: "18:00", IsOpen: true},
	}

	t.Run("inverted range errors", func(t *testing.T) {
		if _, err := BuildDaySkeletons(wednesday, monday, rules, nil, nil, loc); err == nil {
			t.Fatal("expected error for inverted range")
		}
	})

	t.Run("one skeleton per day inclusive", func(t *testing.T) {
		days, err := BuildDaySkeletons(monday, wednesday, rules, nil, nil, loc)
		if err != nil {
			t.Fatalf("BuildDaySkeletons error: %v", err)
		}
		if len(days) != 3 {
			t.Fatalf("len(days) = %d, want 3", len(days))
		}
		for _, d := range days {
			if !d.IsActive {
				t.Fatalf("day %s expected active", d.Date.Format(DateLayout))
			}
		}
	})

	t.Run("blackout forces inactive but keeps the window", func(t *testing.T) {
		blackouts := []UnavailablePeriod{{
			TeacherID: 1,
			StartTime: time.Date(2026, 3, 3, 0, 0, 0, 0, loc),
			EndTime:   time.Date(2026, 3, 3, 23, 59, 0, 0, loc),
		}}
		days, err := BuildDaySkeletons(monday, wednesday, rules, nil, blackouts, loc)
		if err != nil {
			t.Fatalf("BuildDaySkeletons error: %v", err)
		}
		tuesday := days[1]
		if tuesday.IsActive {
			t.Fatal("expected blackout day inactive")
		}
		if tuesday.StartTime != "09:00" || tuesday.EndTime != "18:00" {
			t.Fatalf("blackout day window = %s-%s, want 09:00-18:00", tuesday.StartTime, tuesday.EndTime)
		}
		if days[0].IsActive != true || days[2].IsActive != true {
			t.Fatal("neighboring days should stay active")
		}
	})

	t.Run("blackout wins over an active special day", func(t *testing.T) {
		specials := []SpecialDay{{
			TeacherID: 1,
			Date:      "2026-03-03",
			StartTime: "10:00",
			EndTime:   "16:00",
			IsActive:  true,
		}}
		blackouts := []UnavailablePeriod{{
			TeacherID: 1,
			StartTime: time.Date(2026, 3, 2, 12, 0, 0, 0, loc),
			EndTime:   time.Date(2026, 3, 4, 12, 0, 0, 0, loc),
		}}
		days, err := BuildDaySkeletons(monday, wednesday, rules, specials, blackouts, loc)
		if err != nil {
			t.Fatalf("BuildDaySkeletons error: %v", err)
		}
		for _, d := range days {
			if d.IsActive {
				t.Fatalf("day %s expected inactive under blackout span", d.Date.Format(DateLayout))
			}
		}
		if days[1].StartTime != "10:00" {
			t.Fatalf("special day window should survive the blackout, got %s", days[1].StartTime)
		}
	})
}

func TestFreeSlotsForDay(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	t.Run("closed day yields empty slice", func(t *testing.T) {
		slots, err := FreeSlotsForDay(monday, DayCapacity{}, nil, loc)
		if err != nil {
			t.Fatalf("FreeSlotsForDay error: %v", err)
		}
		if slots == nil || len(slots) != 0 {
			t.Fatalf("slots = %v, want empty non-nil", slots)
		}
	})

	t.Run("busy session removes exactly its slots", func(t *testing.T) {
		capacity := DayCapacity{Open: true, StartTime: "09:00", EndTime: "18:00"}
		busy := []Interval{{
			Start: time.Date(2026, 3, 2, 12, 0, 0, 0, loc),
			End:   time.Date(2026, 3, 2, 13, 0, 0, 0, loc),
		}}
		slots, err := FreeSlotsForDay(monday, capacity, busy, loc)
		if err != nil {
			t.Fatalf("FreeSlotsForDay error: %v", err)
		}
		if len(slots) != 8 {
			t.Fatalf("len(slots) = %d, want 8", len(slots))
		}
	})

	t.Run("partial overlap eats both touched slots", func(t *testing.T) {
		capacity := DayCapacity{Open: true, StartTime: "09:00", EndTime: "12:00"}
		busy := []Interval{{
			Start: time.Date(2026, 3, 2, 9, 30, 0, 0, loc),
			End:   time.Date(2026, 3, 2, 10, 30, 0, 0, loc),
		}}
		slots, err := FreeSlotsForDay(monday, capacity, busy, loc)
		if err != nil {
			t.Fatalf("FreeSlotsForDay error: %v", err)
		}
		if len(slots) != 1 {
			t.Fatalf("len(slots) = %d, want 1 (%v)", len(slots), slots)
		}
		if slots[0].Start.Hour() != 10 || slots[0].Start.Minute() != 30 {
			t.Fatalf("slot start = %v, want 10:30", slots[0].Start)
		}
	})

	t.Run("window shorter than a slot yields nothing", func(t *testing.T) {
		capacity := DayCapacity{Open: true, StartTime: "09:00", EndTime: "09:30"}
		slots, err := FreeSlotsForDay(monday, capacity, nil, loc)
		if err != nil {
			t.Fatalf("FreeSlotsForDay error: %v", err)
		}
		if len(slots) != 0 {
			t.Fatalf("len(slots) = %d, want 0", len(slots))
		}
	})
}
