package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutorium/backend/internal/apperrors"
	"tutorium/backend/internal/domain"
	"tutorium/backend/internal/store"
)

// Service owns the CRUD surface of the three availability layers. All
// window and date validation happens here, at the boundary; the stores
// trust their inputs.
type Service struct {
	repo store.ScheduleRepository
	log  *zap.Logger
}

func NewService(repo store.ScheduleRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log.With(zap.String("component", "service.schedule"))}
}

func validationError(msg string) error {
	return apperrors.Clone(apperrors.ErrValidation, msg)
}

type CreateRuleInput struct {
	TeacherID int64
	Weekday   int
	StartTime string
	EndTime   string
	IsOpen    bool
}

func (s *Service) CreateRule(ctx context.Context, in CreateRuleInput) (domain.WeeklyRule, error) {
	if in.TeacherID <= 0 {
		return domain.WeeklyRule{}, validationError("teacher_id is required")
	}
	if in.Weekday < domain.WeekdayMonday || in.Weekday > domain.WeekdaySunday {
		return domain.WeeklyRule{}, validationError("weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	if err := domain.ValidateWindow(in.StartTime, in.EndTime); err != nil {
		return domain.WeeklyRule{}, validationError(err.Error())
	}

	rule, err := s.repo.CreateRule(ctx, domain.WeeklyRule{
		TeacherID: in.TeacherID,
		Weekday:   in.Weekday,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		IsOpen:    in.IsOpen,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.WeeklyRule{}, apperrors.Clone(apperrors.ErrConflict, "weekly rule for this weekday already exists, use the update endpoint")
		}
		return domain.WeeklyRule{}, err
	}

	s.log.Info("weekly rule created",
		zap.Int64("teacher_id", rule.TeacherID),
		zap.Int("weekday", rule.Weekday),
		zap.Bool("is_open", rule.IsOpen),
	)
	return rule, nil
}

func (s *Service) GetRule(ctx context.Context, teacherID int64, weekday int) (domain.WeeklyRule, error) {
	if weekday < domain.WeekdayMonday || weekday > domain.WeekdaySunday {
		return domain.WeeklyRule{}, validationError("weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	rule, err := s.repo.GetRule(ctx, teacherID, weekday)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.WeeklyRule{}, apperrors.Clone(apperrors.ErrNotFound, "weekly rule not found")
		}
		return domain.WeeklyRule{}, err
	}
	return rule, nil
}

func (s *Service) ListRules(ctx context.Context, teacherID int64) ([]domain.WeeklyRule, error) {
	return s.repo.ListRules(ctx, teacherID)
}

func (s *Service) UpdateRule(ctx context.Context, teacherID int64, weekday int, patch store.RulePatch) (domain.WeeklyRule, error) {
	if weekday < domain.WeekdayMonday || weekday > domain.WeekdaySunday {
		return domain.WeeklyRule{}, validationError("weekday must be between 0 (Monday) and 6 (Sunday)")
	}

	if patch.StartTime != nil || patch.EndTime != nil {
		current, err := s.repo.GetRule(ctx, teacherID, weekday)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.WeeklyRule{}, apperrors.Clone(apperrors.ErrNotFound, "weekly rule not found")
			}
			return domain.WeeklyRule{}, err
		}
		start, end := current.StartTime, current.EndTime
		if patch.StartTime != nil {
			start = *patch.StartTime
		}
		if patch.EndTime != nil {
			end = *patch.EndTime
		}
		if err := domain.ValidateWindow(start, end); err != nil {
			return domain.WeeklyRule{}, validationError(err.Error())
		}
	}

	rule, err := s.repo.UpdateRule(ctx, teacherID, weekday, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.WeeklyRule{}, apperrors.Clone(apperrors.ErrNotFound, "weekly rule not found")
		}
		return domain.WeeklyRule{}, err
	}
	return rule, nil
}

type CreateSpecialDayInput struct {
	TeacherID   int64
	Date        string
	StartTime   string
	EndTime     string
	IsActive    bool
	BookedSlots []string
}

func (s *Service) CreateSpecialDay(ctx context.Context, in CreateSpecialDayInput) (domain.SpecialDay, error) {
	if in.TeacherID <= 0 {
		return domain.SpecialDay{}, validationError("teacher_id is required")
	}
	if _, err := time.Parse(domain.DateLayout, in.Date); err != nil {
		return domain.SpecialDay{}, validationError("invalid date, expected YYYY-MM-DD")
	}
	if err := domain.ValidateWindow(in.StartTime, in.EndTime); err != nil {
		return domain.SpecialDay{}, validationError(err.Error())
	}
	for _, slot := range in.BookedSlots {
		if err := validateFixedSlot(slot); err != nil {
			return domain.SpecialDay{}, validationError(err.Error())
		}
	}

	day, err := s.repo.CreateSpecialDay(ctx, domain.SpecialDay{
		TeacherID:   in.TeacherID,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsActive:    in.IsActive,
		BookedSlots: in.BookedSlots,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.SpecialDay{}, apperrors.Clone(apperrors.ErrConflict, "a special day already exists for this date")
		}
		return domain.SpecialDay{}, err
	}

	s.log.Info("special day created",
		zap.Int64("teacher_id", day.TeacherID),
		zap.String("date", day.Date),
	)
	return day, nil
}

func (s *Service) ListSpecialDays(ctx context.Context, teacherID int64, fromDate, toDate string) ([]domain.SpecialDay, error) {
	if err := validateDateRange(fromDate, toDate); err != nil {
		return nil, err
	}
	return s.repo.ListSpecialDays(ctx, teacherID, fromDate, toDate)
}

func (s *Service) UpdateSpecialDay(ctx context.Context, id uuid.UUID, patch store.SpecialDayPatch) (domain.SpecialDay, error) {
	if patch.StartTime != nil {
		if _, err := domain.ParseWallClock(*patch.StartTime); err != nil {
			return domain.SpecialDay{}, validationError(err.Error())
		}
	}
	if patch.EndTime != nil {
		if _, err := domain.ParseWallClock(*patch.EndTime); err != nil {
			return domain.SpecialDay{}, validationError(err.Error())
		}
	}
	if patch.BookedSlots != nil {
		for _, slot := range *patch.BookedSlots {
			if err := validateFixedSlot(slot); err != nil {
				return domain.SpecialDay{}, validationError(err.Error())
			}
		}
	}

	day, err := s.repo.UpdateSpecialDay(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SpecialDay{}, apperrors.Clone(apperrors.ErrNotFound, "special day not found")
		}
		return domain.SpecialDay{}, err
	}
	return day, nil
}

func (s *Service) DeleteSpecialDay(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSpecialDay(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.Clone(apperrors.ErrNotFound, "special day not found")
		}
		return err
	}
	return nil
}

type CreateUnavailablePeriodInput struct {
	TeacherID int64
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}

func (s *Service) CreateUnavailablePeriod(ctx context.Context, in CreateUnavailablePeriodInput) (domain.UnavailablePeriod, error) {
	if in.TeacherID <= 0 {
		return domain.UnavailablePeriod{}, validationError("teacher_id is required")
	}
	if !in.EndTime.After(in.StartTime) {
		return domain.UnavailablePeriod{}, validationError("end_time must be after start_time")
	}

	period, err := s.repo.CreateUnavailablePeriod(ctx, domain.UnavailablePeriod{
		TeacherID: in.TeacherID,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Reason:    in.Reason,
	})
	if err != nil {
		return domain.UnavailablePeriod{}, err
	}

	s.log.Info("unavailable period created",
		zap.Int64("teacher_id", period.TeacherID),
		zap.Time("start_time", period.StartTime),
		zap.Time("end_time", period.EndTime),
	)
	return period, nil
}

func (s *Service) ListUnavailablePeriods(ctx context.Context, teacherID int64, from, to time.Time) ([]domain.UnavailablePeriod, error) {
	if to.Before(from) {
		return nil, validationError("date range inverted")
	}
	return s.repo.ListUnavailablePeriods(ctx, teacherID, from.UTC(), to.UTC())
}

func (s *Service) DeleteUnavailablePeriod(ctx context.Context, teacherID int64, id uuid.UUID) error {
	if err := s.repo.DeleteUnavailablePeriod(ctx, teacherID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.Clone(apperrors.ErrNotFound, "unavailable period not found")
		}
		return err
	}
	return nil
}

func validateDateRange(fromDate, toDate string) error {
	from, err := time.Parse(domain.DateLayout, fromDate)
	if err != nil {
		return validationError("invalid start date, expected YYYY-MM-DD")
	}
	to, err := time.Parse(domain.DateLayout, toDate)
	if err != nil {
		return validationError("invalid end date, expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return validationError("date range inverted")
	}
	return nil
}

func validateFixedSlot(slot string) error {
	if len(slot) != 11 || slot[5] != '-' {
		return fmt.Errorf("invalid booked slot %q, expected HH:MM-HH:MM", slot)
	}
	return domain.ValidateWindow(slot[:5], slot[6:])
}
