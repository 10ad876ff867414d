package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Weekday indexes run Monday=0 through Sunday=6, matching the stored rows.
const (
	WeekdayMonday = 0
	WeekdaySunday = 6
)

// WeeklyRule is a teacher's default open/closed window for one weekday.
// At most one row exists per (teacher_id, weekday).
type WeeklyRule struct {
	bun.BaseModel `bun:"table:weekly_rules"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	TeacherID int64     `bun:"teacher_id,notnull"`
	Weekday   int       `bun:"weekday,notnull"`
	StartTime string    `bun:"start_time,notnull"`
	EndTime   string    `bun:"end_time,notnull"`
	IsOpen    bool      `bun:"is_open,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (r *WeeklyRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return touchTimestamps(query, &r.ID, &r.CreatedAt, &r.UpdatedAt)
}

// SpecialDay replaces the weekly rule entirely for one calendar date.
// BookedSlots carries literal "HH:MM-HH:MM" strings that the teacher marked
// off when creating the day; the aggregator renders them as unavailable
// placeholder entries.
type SpecialDay struct {
	bun.BaseModel `bun:"table:special_days"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	TeacherID   int64     `bun:"teacher_id,notnull"`
	Date        string    `bun:"date,notnull"`
	StartTime   string    `bun:"start_time,notnull"`
	EndTime     string    `bun:"end_time,notnull"`
	IsActive    bool      `bun:"is_active,notnull"`
	BookedSlots []string  `bun:"booked_slots,array"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (d *SpecialDay) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return touchTimestamps(query, &d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// UnavailablePeriod is an absolute blackout range. It is subtracted from
// availability regardless of weekly rules or special days.
type UnavailablePeriod struct {
	bun.BaseModel `bun:"table:unavailable_periods"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	TeacherID int64     `bun:"teacher_id,notnull"`
	StartTime time.Time `bun:"start_time,notnull"`
	EndTime   time.Time `bun:"end_time,notnull"`
	Reason    string    `bun:"reason"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (p *UnavailablePeriod) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return touchTimestamps(query, &p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func touchTimestamps(query bun.Query, id *uuid.UUID, createdAt, updatedAt *time.Time) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if *id == uuid.Nil {
			v, err := uuid.NewV7()
			if err != nil {
				return err
			}
			*id = v
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
	return nil
}

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// ParseWallClock converts a zero-padded "HH:MM" string into minutes since
// midnight.
func ParseWallClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// ValidateWindow checks that both bounds parse and that the window is not
// empty or inverted.
func ValidateWindow(start, end string) error {
	s, err := ParseWallClock(start)
	if err != nil {
		return err
	}
	e, err := ParseWallClock(end)
	if err != nil {
		return err
	}
	if e <= s {
		return errors.New("end_time must be after start_time")
	}
	return nil
}

// WindowOnDate materializes a wall-clock window on a concrete date in the
// given location. The result is half-open [start, end).
func WindowOnDate(date time.Time, startHM, endHM string, loc *time.Location) (Interval, error) {
	s, err := ParseWallClock(startHM)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseWallClock(endHM)
	if err != nil {
		return Interval{}, err
	}
	y, m, d := date.Date()
	return Interval{
		Start: time.Date(y, m, d, s/60, s%60, 0, 0, loc),
		End:   time.Date(y, m, d, e/60, e%60, 0, 0, loc),
	}, nil
}

// WeekdayIndex maps a time.Time onto the Monday-based index used by
// weekly rules.
func WeekdayIndex(t time.Time) int {
	wd := t.Weekday()
	if wd == time.Sunday {
		return WeekdaySunday
	}
	return int(wd) - 1
}
