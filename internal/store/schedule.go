package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"tutorium/backend/internal/domain"
)

// RulePatch holds the mutable fields of a weekly rule. Nil means unchanged.
type RulePatch struct {
	StartTime *string
	EndTime   *string
	IsOpen    *bool
}

// SpecialDayPatch holds the mutable fields of a special day.
type SpecialDayPatch struct {
	StartTime   *string
	EndTime     *string
	IsActive    *bool
	BookedSlots *[]string
}

// ScheduleRepository persists the three availability layers. Date arguments
// are "YYYY-MM-DD" strings; range scans on dates are inclusive on both ends.
type ScheduleRepository interface {
	CreateRule(ctx context.Context, rule domain.WeeklyRule) (domain.WeeklyRule, error)
	GetRule(ctx context.Context, teacherID int64, weekday int) (domain.WeeklyRule, error)
	ListRules(ctx context.Context, teacherID int64) ([]domain.WeeklyRule, error)
	UpdateRule(ctx context.Context, teacherID int64, weekday int, patch RulePatch) (domain.WeeklyRule, error)

	CreateSpecialDay(ctx context.Context, day domain.SpecialDay) (domain.SpecialDay, error)
	ListSpecialDays(ctx context.Context, teacherID int64, fromDate, toDate string) ([]domain.SpecialDay, error)
	UpdateSpecialDay(ctx context.Context, id uuid.UUID, patch SpecialDayPatch) (domain.SpecialDay, error)
	DeleteSpecialDay(ctx context.Context, id uuid.UUID) error

	CreateUnavailablePeriod(ctx context.Context, period domain.UnavailablePeriod) (domain.UnavailablePeriod, error)
	// ListUnavailablePeriods returns periods intersecting [from, to]:
	// end >= from AND start <= to.
	ListUnavailablePeriods(ctx context.Context, teacherID int64, from, to time.Time) ([]domain.UnavailablePeriod, error)
	DeleteUnavailablePeriod(ctx context.Context, teacherID int64, id uuid.UUID) error
}
