package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"tutorium/backend/internal/domain"
	"tutorium/backend/internal/store"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type ScheduleRepo struct {
	db *bun.DB
}

func NewScheduleRepo(db *bun.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) CreateRule(ctx context.Context, rule domain.WeeklyRule) (domain.WeeklyRule, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTeacherCalendar(ctx, tx, rule.TeacherID); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&rule).Exec(ctx)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WeeklyRule{}, store.ErrConflict
		}
		return domain.WeeklyRule{}, err
	}
	return rule, nil
}

func (r *ScheduleRepo) GetRule(ctx context.Context, teacherID int64, weekday int) (domain.WeeklyRule, error) {
	var rule domain.WeeklyRule
	err := r.db.NewSelect().
		Model(&rule).
		Where("teacher_id = ?", teacherID).
		Where("weekday = ?", weekday).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WeeklyRule{}, store.ErrNotFound
		}
		return domain.WeeklyRule{}, err
	}
	return rule, nil
}

func (r *ScheduleRepo) ListRules(ctx context.Context, teacherID int64) ([]domain.WeeklyRule, error) {
	var rules []domain.WeeklyRule
	err := r.db.NewSelect().
		Model(&rules).
		Where("teacher_id = ?", teacherID).
		OrderExpr("weekday ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ScheduleRepo) UpdateRule(ctx context.Context, teacherID int64, weekday int, patch store.RulePatch) (domain.WeeklyRule, error) {
	var out domain.WeeklyRule
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTeacherCalendar(ctx, tx, teacherID); err != nil {
			return err
		}

		var rule domain.WeeklyRule
		err := tx.NewSelect().
			Model(&rule).
			Where("teacher_id = ?", teacherID).
			Where("weekday = ?", weekday).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}

		if patch.StartTime != nil {
			rule.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			rule.EndTime = *patch.EndTime
		}
		if patch.IsOpen != nil {
			rule.IsOpen = *patch.IsOpen
		}

		if _, err := tx.NewUpdate().Model(&rule).WherePK().Exec(ctx); err != nil {
			return err
		}
		out = rule
		return nil
	})
	if err != nil {
		return domain.WeeklyRule{}, err
	}
	return out, nil
}

func (r *ScheduleRepo) CreateSpecialDay(ctx context.Context, day domain.SpecialDay) (domain.SpecialDay, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTeacherCalendar(ctx, tx, day.TeacherID); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&day).Exec(ctx)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.SpecialDay{}, store.ErrConflict
		}
		return domain.SpecialDay{}, err
	}
	return day, nil
}

func (r *ScheduleRepo) ListSpecialDays(ctx context.Context, teacherID int64, fromDate, toDate string) ([]domain.SpecialDay, error) {
	var days []domain.SpecialDay
	err := r.db.NewSelect().
		Model(&days).
		Where("teacher_id = ?", teacherID).
		Where("date >= ?", fromDate).
		Where("date <= ?", toDate).
		OrderExpr("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return days, nil
}

func (r *ScheduleRepo) UpdateSpecialDay(ctx context.Context, id uuid.UUID, patch store.SpecialDayPatch) (domain.SpecialDay, error) {
	var day domain.SpecialDay
	err := r.db.NewSelect().
		Model(&day).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SpecialDay{}, store.ErrNotFound
		}
		return domain.SpecialDay{}, err
	}

	if patch.StartTime != nil {
		day.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		day.EndTime = *patch.EndTime
	}
	if patch.IsActive != nil {
		day.IsActive = *patch.IsActive
	}
	if patch.BookedSlots != nil {
		day.BookedSlots = *patch.BookedSlots
	}

	if _, err := r.db.NewUpdate().Model(&day).WherePK().Exec(ctx); err != nil {
		return domain.SpecialDay{}, err
	}
	return day, nil
}

func (r *ScheduleRepo) DeleteSpecialDay(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.SpecialDay)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *ScheduleRepo) CreateUnavailablePeriod(ctx context.Context, period domain.UnavailablePeriod) (domain.UnavailablePeriod, error) {
	if _, err := r.db.NewInsert().Model(&period).Exec(ctx); err != nil {
		return domain.UnavailablePeriod{}, err
	}
	return period, nil
}

func (r *ScheduleRepo) ListUnavailablePeriods(ctx context.Context, teacherID int64, from, to time.Time) ([]domain.UnavailablePeriod, error) {
	var periods []domain.UnavailablePeriod
	err := r.db.NewSelect().
		Model(&periods).
		Where("teacher_id = ?", teacherID).
		Where("end_time >= ?", from).
		Where("start_time <= ?", to).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return periods, nil
}

func (r *ScheduleRepo) DeleteUnavailablePeriod(ctx context.Context, teacherID int64, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.UnavailablePeriod)(nil)).
		Where("teacher_id = ?", teacherID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
