package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tutorium/backend/internal/domain"
	"tutorium/backend/internal/store"
)

func ruleColumns() []string {
	return []string{"id", "teacher_id", "weekday", "start_time", "end_time", "is_open", "created_at", "updated_at"}
}

func TestGetRule_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM "weekly_rules"`).WillReturnRows(sqlmock.NewRows(ruleColumns()))

	_, err := repo.GetRule(context.Background(), 1, 0)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetRule_ScansRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepo(db)

	now := time.Now().UTC()
	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM "weekly_rules"`).WillReturnRows(
		sqlmock.NewRows(ruleColumns()).
			AddRow(id, int64(1), 0, "09:00", "18:00", true, now, now),
	)

	rule, err := repo.GetRule(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("GetRule error: %v", err)
	}
	if rule.ID != id || rule.StartTime != "09:00" || rule.EndTime != "18:00" || !rule.IsOpen {
		t.Fatalf("rule = %+v", rule)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRule_DuplicateWeekdayMapsToConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "weekly_rules"`).WillReturnError(
		&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "weekly_rules_teacher_weekday_key"},
	)
	mock.ExpectRollback()

	_, err := repo.CreateRule(context.Background(), domain.WeeklyRule{
		TeacherID: 1,
		Weekday:   0,
		StartTime: "09:00",
		EndTime:   "18:00",
		IsOpen:    true,
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSpecialDay_DuplicateDateMapsToConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "special_days"`).WillReturnError(
		&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "special_days_teacher_date_key"},
	)
	mock.ExpectRollback()

	_, err := repo.CreateSpecialDay(context.Background(), domain.SpecialDay{
		TeacherID: 1,
		Date:      "2026-03-02",
		StartTime: "09:00",
		EndTime:   "18:00",
		IsActive:  true,
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListUnavailablePeriods_QueryShape(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepo(db)

	// Intersection scan: end_time >= from AND start_time <= to, so periods
	// merely touching the range edge are still returned.
	mock.ExpectQuery(`SELECT .+ FROM "unavailable_periods" .*end_time >=.*start_time <=`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "teacher_id", "start_time", "end_time", "reason", "created_at", "updated_at"}),
	)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	periods, err := repo.ListUnavailablePeriods(context.Background(), 1, from, to)
	if err != nil {
		t.Fatalf("ListUnavailablePeriods error: %v", err)
	}
	if len(periods) != 0 {
		t.Fatalf("len(periods) = %d, want 0", len(periods))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteUnavailablePeriod_ScopedToTeacher(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectExec(`DELETE FROM "unavailable_periods" .*teacher_id =`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteUnavailablePeriod(context.Background(), 1, uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
