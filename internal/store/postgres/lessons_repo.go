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

const sessionOverlapConstraint = "sessions_no_overlap"

type LessonRepo struct {
	db *bun.DB
}

func NewLessonRepo(db *bun.DB) *LessonRepo {
	return &LessonRepo{db: db}
}

func (r *LessonRepo) CreateLesson(ctx context.Context, lesson domain.Lesson) (domain.Lesson, error) {
	if _, err := r.db.NewInsert().Model(&lesson).Exec(ctx); err != nil {
		return domain.Lesson{}, err
	}
	return lesson, nil
}

func (r *LessonRepo) GetLesson(ctx context.Context, id uuid.UUID) (domain.Lesson, error) {
	var lesson domain.Lesson
	err := r.db.NewSelect().
		Model(&lesson).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Lesson{}, store.ErrLessonNotFound
		}
		return domain.Lesson{}, err
	}
	return lesson, nil
}

func (r *LessonRepo) ListLessons(ctx context.Context, teacherID *int64) ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	q := r.db.NewSelect().Model(&lessons).OrderExpr("created_at ASC")
	if teacherID != nil {
		q = q.Where("teacher_id = ?", *teacherID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *LessonRepo) UpdateLesson(ctx context.Context, id uuid.UUID, patch store.LessonPatch) (domain.Lesson, error) {
	lesson, err := r.GetLesson(ctx, id)
	if err != nil {
		return domain.Lesson{}, err
	}

	if patch.Title != nil {
		lesson.Title = *patch.Title
	}
	if patch.Description != nil {
		lesson.Description = *patch.Description
	}
	if patch.LessonType != nil {
		lesson.LessonType = *patch.LessonType
	}
	if patch.Language != nil {
		lesson.Language = *patch.Language
	}
	if patch.Level != nil {
		lesson.Level = *patch.Level
	}

	if _, err := r.db.NewUpdate().Model(&lesson).WherePK().Exec(ctx); err != nil {
		return domain.Lesson{}, err
	}
	return lesson, nil
}

func (r *LessonRepo) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Lesson)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// CreateSession is the booking conflict guard. The overlap scan and the
// insert run inside one transaction holding the teacher's advisory lock, so
// two concurrent bookings for the same window cannot both pass the check.
// The sessions_no_overlap exclusion constraint backs the same invariant at
// the schema level.
func (r *LessonRepo) CreateSession(ctx context.Context, lessonID uuid.UUID, start, end time.Time) (domain.Session, error) {
	lesson, err := r.GetLesson(ctx, lessonID)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		LessonID:  lessonID,
		TeacherID: lesson.TeacherID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Status:    domain.SessionStatusScheduled,
	}

	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTeacherCalendar(ctx, tx, lesson.TeacherID); err != nil {
			return err
		}

		taken, err := hasOverlappingSession(ctx, tx, lesson.TeacherID, session.StartTime, session.EndTime, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return store.ErrSchedulingConflict
		}

		_, err = tx.NewInsert().Model(&session).Exec(ctx)
		return mapSessionInsertErr(err)
	})
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (r *LessonRepo) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	var session domain.Session
	err := r.db.NewSelect().
		Model(&session).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, store.ErrNotFound
		}
		return domain.Session{}, err
	}
	return session, nil
}

func (r *LessonRepo) UpdateSession(ctx context.Context, id uuid.UUID, patch store.SessionPatch) (domain.Session, error) {
	var out domain.Session
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var session domain.Session
		err := tx.NewSelect().
			Model(&session).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}

		windowChanged := false
		if patch.StartTime != nil && !patch.StartTime.Equal(session.StartTime) {
			session.StartTime = patch.StartTime.UTC()
			windowChanged = true
		}
		if patch.EndTime != nil && !patch.EndTime.Equal(session.EndTime) {
			session.EndTime = patch.EndTime.UTC()
			windowChanged = true
		}
		if patch.Status != nil {
			session.Status = *patch.Status
		}

		// A single-bound patch can invert the window against the stored
		// opposite bound; catch it here instead of on the check constraint.
		if !session.EndTime.After(session.StartTime) {
			return store.ErrInvalidSessionWindow
		}

		if windowChanged {
			if err := lockTeacherCalendar(ctx, tx, session.TeacherID); err != nil {
				return err
			}
			taken, err := hasOverlappingSession(ctx, tx, session.TeacherID, session.StartTime, session.EndTime, session.ID)
			if err != nil {
				return err
			}
			if taken {
				return store.ErrSchedulingConflict
			}
		}

		if _, err := tx.NewUpdate().Model(&session).WherePK().Exec(ctx); err != nil {
			return mapSessionInsertErr(err)
		}
		out = session
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (r *LessonRepo) DeleteSession(ctx context.Context, id uuid.UUID) error {
	// Removal only shrinks busy time, so no other session needs re-checking.
	res, err := r.db.NewDelete().
		Model((*domain.Session)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *LessonRepo) ListSessionsByTeacherAndRange(ctx context.Context, teacherID int64, start, end time.Time) ([]domain.BookedSession, error) {
	var sessions []domain.Session
	err := r.db.NewSelect().
		Model(&sessions).
		Where("teacher_id = ?", teacherID).
		Where("start_time < ?", end).
		Where("end_time > ?", start).
		OrderExpr("start_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []domain.BookedSession{}, nil
	}

	lessonIDs := make([]uuid.UUID, 0, len(sessions))
	seen := make(map[uuid.UUID]struct{}, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.LessonID]; ok {
			continue
		}
		seen[s.LessonID] = struct{}{}
		lessonIDs = append(lessonIDs, s.LessonID)
	}

	var lessons []domain.Lesson
	err = r.db.NewSelect().
		Model(&lessons).
		Where("id IN (?)", bun.In(lessonIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	lessonByID := make(map[uuid.UUID]domain.Lesson, len(lessons))
	for _, l := range lessons {
		lessonByID[l.ID] = l
	}

	var participants []domain.Participant
	err = r.db.NewSelect().
		Model(&participants).
		Where("lesson_id IN (?)", bun.In(lessonIDs)).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	firstParticipant := make(map[uuid.UUID]domain.Participant, len(participants))
	for _, p := range participants {
		if _, ok := firstParticipant[p.LessonID]; !ok {
			firstParticipant[p.LessonID] = p
		}
	}

	out := make([]domain.BookedSession, 0, len(sessions))
	for _, s := range sessions {
		bs := domain.BookedSession{
			Session: s,
			Lesson:  lessonByID[s.LessonID],
		}
		if p, ok := firstParticipant[s.LessonID]; ok {
			bs.Booked = true
			ref := &domain.BookingRef{}
			if p.StudentID != nil {
				ref.Kind = domain.BookingKindStudent
				ref.StudentID = p.StudentID
			} else if p.GroupID != nil {
				ref.Kind = domain.BookingKindGroup
				ref.GroupID = p.GroupID
			}
			bs.BookedBy = ref
		}
		out = append(out, bs)
	}
	return out, nil
}

func (r *LessonRepo) AddParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	if _, err := r.db.NewInsert().Model(&p).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.Participant{}, store.ErrConflict
		}
		return domain.Participant{}, err
	}
	return p, nil
}

func (r *LessonRepo) GetParticipant(ctx context.Context, id uuid.UUID) (domain.Participant, error) {
	var p domain.Participant
	err := r.db.NewSelect().
		Model(&p).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Participant{}, store.ErrNotFound
		}
		return domain.Participant{}, err
	}
	return p, nil
}

func (r *LessonRepo) SetParticipantConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) (domain.Participant, error) {
	p, err := r.GetParticipant(ctx, id)
	if err != nil {
		return domain.Participant{}, err
	}

	p.IsConfirmed = confirmed
	if confirmed {
		now := time.Now().UTC()
		p.ConfirmationDate = &now
	} else {
		p.ConfirmationDate = nil
	}

	if _, err := r.db.NewUpdate().Model(&p).WherePK().Exec(ctx); err != nil {
		return domain.Participant{}, err
	}
	return p, nil
}

func (r *LessonRepo) RemoveParticipant(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Participant)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *LessonRepo) ListParticipantsForLesson(ctx context.Context, lessonID uuid.UUID) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.NewSelect().
		Model(&participants).
		Where("lesson_id = ?", lessonID).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *LessonRepo) AddAttendance(ctx context.Context, a domain.Attendance) (domain.Attendance, error) {
	if _, err := r.db.NewInsert().Model(&a).Exec(ctx); err != nil {
		return domain.Attendance{}, err
	}
	return a, nil
}

func (r *LessonRepo) ListAttendance(ctx context.Context, lessonID uuid.UUID) ([]domain.Attendance, error) {
	var rows []domain.Attendance
	err := r.db.NewSelect().
		Model(&rows).
		Where("lesson_id = ?", lessonID).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// hasOverlappingSession scans for a strictly overlapping non-cancelled
// session: touching endpoints do not conflict, and cancelled sessions no
// longer block their window.
func hasOverlappingSession(ctx context.Context, tx bun.Tx, teacherID int64, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*domain.Session)(nil)).
		Where("teacher_id = ?", teacherID).
		Where("start_time < ?", end).
		Where("end_time > ?", start).
		Where("status != ?", domain.SessionStatusCancelled)
	if excludeID != uuid.Nil {
		q = q.Where("id != ?", excludeID)
	}
	return q.Exists(ctx)
}

func mapSessionInsertErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == sessionOverlapConstraint {
		return store.ErrSchedulingConflict
	}
	return err
}
