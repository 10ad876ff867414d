package lessons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutorium/backend/internal/apperrors"
	"tutorium/backend/internal/domain"
	"tutorium/backend/internal/store"
)

const maxSessionDuration = 24 * time.Hour

// Service owns lessons, sessions and participants. Session creation and
// window updates go through the repository's conflict guard.
type Service struct {
	repo store.LessonRepository
	log  *zap.Logger
}

func NewService(repo store.LessonRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log.With(zap.String("component", "service.lessons"))}
}

func validationError(msg string) error {
	return apperrors.Clone(apperrors.ErrValidation, msg)
}

type CreateLessonInput struct {
	Title       string
	Description string
	LessonType  domain.LessonType
	Language    string
	Level       string
	TeacherID   int64
}

func (s *Service) CreateLesson(ctx context.Context, in CreateLessonInput) (domain.Lesson, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Lesson{}, validationError("title is required")
	}
	if !in.LessonType.Valid() {
		return domain.Lesson{}, validationError("lesson_type must be INDIVIDUAL, GROUP or TRIAL")
	}
	if in.TeacherID <= 0 {
		return domain.Lesson{}, validationError("teacher_id is required")
	}

	lesson, err := s.repo.CreateLesson(ctx, domain.Lesson{
		Title:       title,
		Description: in.Description,
		LessonType:  in.LessonType,
		Language:    in.Language,
		Level:       in.Level,
		TeacherID:   in.TeacherID,
	})
	if err != nil {
		return domain.Lesson{}, err
	}

	s.log.Info("lesson created",
		zap.String("lesson_id", lesson.ID.String()),
		zap.Int64("teacher_id", lesson.TeacherID),
	)
	return lesson, nil
}

func (s *Service) GetLesson(ctx context.Context, id uuid.UUID) (domain.Lesson, error) {
	lesson, err := s.repo.GetLesson(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrLessonNotFound) {
			return domain.Lesson{}, apperrors.ErrLessonNotFound
		}
		return domain.Lesson{}, err
	}
	return lesson, nil
}

func (s *Service) ListLessons(ctx context.Context, teacherID *int64) ([]domain.Lesson, error) {
	return s.repo.ListLessons(ctx, teacherID)
}

func (s *Service) UpdateLesson(ctx context.Context, id uuid.UUID, patch store.LessonPatch) (domain.Lesson, error) {
	if patch.LessonType != nil && !patch.LessonType.Valid() {
		return domain.Lesson{}, validationError("lesson_type must be INDIVIDUAL, GROUP or TRIAL")
	}
	lesson, err := s.repo.UpdateLesson(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrLessonNotFound) {
			return domain.Lesson{}, apperrors.ErrLessonNotFound
		}
		return domain.Lesson{}, err
	}
	return lesson, nil
}

func (s *Service) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteLesson(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrLessonNotFound) {
			return apperrors.ErrLessonNotFound
		}
		return err
	}
	return nil
}

type CreateSessionInput struct {
	LessonID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (domain.Session, error) {
	if in.LessonID == uuid.Nil {
		return domain.Session{}, validationError("lesson_id is required")
	}
	start := in.StartTime.UTC()
	end := in.EndTime.UTC()
	if !end.After(start) {
		return domain.Session{}, validationError("end_time must be after start_time")
	}
	if end.Sub(start) > maxSessionDuration {
		return domain.Session{}, validationError("duration too long")
	}

	session, err := s.repo.CreateSession(ctx, in.LessonID, start, end)
	if err != nil {
		if errors.Is(err, store.ErrLessonNotFound) {
			return domain.Session{}, apperrors.ErrLessonNotFound
		}
		if errors.Is(err, store.ErrSchedulingConflict) {
			s.log.Info("session create conflict",
				zap.String("lesson_id", in.LessonID.String()),
				zap.Time("start_time", start),
				zap.Time("end_time", end),
			)
			return domain.Session{}, apperrors.ErrSchedulingConflict
		}
		return domain.Session{}, err
	}

	s.log.Info("session created",
		zap.String("session_id", session.ID.String()),
		zap.Int64("teacher_id", session.TeacherID),
		zap.Time("start_time", session.StartTime),
		zap.Time("end_time", session.EndTime),
	)
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, apperrors.Clone(apperrors.ErrNotFound, "session not found")
		}
		return domain.Session{}, err
	}
	return session, nil
}

func (s *Service) UpdateSession(ctx context.Context, id uuid.UUID, patch store.SessionPatch) (domain.Session, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Session{}, validationError("invalid session status")
	}
	if patch.StartTime != nil && patch.EndTime != nil && !patch.EndTime.After(*patch.StartTime) {
		return domain.Session{}, validationError("end_time must be after start_time")
	}

	session, err := s.repo.UpdateSession(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, apperrors.Clone(apperrors.ErrNotFound, "session not found")
		}
		if errors.Is(err, store.ErrInvalidSessionWindow) {
			return domain.Session{}, validationError("end_time must be after start_time")
		}
		if errors.Is(err, store.ErrSchedulingConflict) {
			return domain.Session{}, apperrors.ErrSchedulingConflict
		}
		return domain.Session{}, err
	}
	return session, nil
}

func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.Clone(apperrors.ErrNotFound, "session not found")
		}
		return err
	}
	return nil
}

func (s *Service) ListSessionsByTeacherAndRange(ctx context.Context, teacherID int64, start, end time.Time) ([]domain.BookedSession, error) {
	if teacherID <= 0 {
		return nil, validationError("teacher_id is required")
	}
	if !end.After(start) {
		return nil, validationError("end must be after start")
	}
	return s.repo.ListSessionsByTeacherAndRange(ctx, teacherID, start.UTC(), end.UTC())
}

type AddParticipantInput struct {
	LessonID    uuid.UUID
	StudentID   *uuid.UUID
	GroupID     *int64
	IsConfirmed bool
}

func (s *Service) AddParticipant(ctx context.Context, in AddParticipantInput) (domain.Participant, error) {
	if in.LessonID == uuid.Nil {
		return domain.Participant{}, validationError("lesson_id is required")
	}
	if (in.StudentID == nil) == (in.GroupID == nil) {
		return domain.Participant{}, validationError("provide exactly one of student_id or group_id")
	}

	p := domain.Participant{
		LessonID:    in.LessonID,
		StudentID:   in.StudentID,
		GroupID:     in.GroupID,
		IsConfirmed: in.IsConfirmed,
	}
	if in.IsConfirmed {
		now := time.Now().UTC()
		p.ConfirmationDate = &now
	}

	out, err := s.repo.AddParticipant(ctx, p)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Participant{}, apperrors.Clone(apperrors.ErrConflict, "participant already enrolled in this lesson")
		}
		return domain.Participant{}, err
	}
	return out, nil
}

func (s *Service) SetParticipantConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) (domain.Participant, error) {
	p, err := s.repo.SetParticipantConfirmed(ctx, id, confirmed)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Participant{}, apperrors.Clone(apperrors.ErrNotFound, "participant not found")
		}
		return domain.Participant{}, err
	}
	return p, nil
}

func (s *Service) RemoveParticipant(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.RemoveParticipant(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.Clone(apperrors.ErrNotFound, "participant not found")
		}
		return err
	}
	return nil
}

func (s *Service) ListParticipantsForLesson(ctx context.Context, lessonID uuid.UUID) ([]domain.Participant, error) {
	return s.repo.ListParticipantsForLesson(ctx, lessonID)
}

type AddAttendanceInput struct {
	LessonID  uuid.UUID
	StudentID uuid.UUID
	Status    string
	JoinTime  *time.Time
	LeaveTime *time.Time
}

func (s *Service) AddAttendance(ctx context.Context, in AddAttendanceInput) (domain.Attendance, error) {
	if in.LessonID == uuid.Nil || in.StudentID == uuid.Nil {
		return domain.Attendance{}, validationError("lesson_id and student_id are required")
	}
	switch in.Status {
	case "present", "absent", "late":
	default:
		return domain.Attendance{}, validationError("status must be present, absent or late")
	}

	return s.repo.AddAttendance(ctx, domain.Attendance{
		LessonID:  in.LessonID,
		StudentID: in.StudentID,
		Status:    in.Status,
		JoinTime:  in.JoinTime,
		LeaveTime: in.LeaveTime,
	})
}

func (s *Service) ListAttendance(ctx context.Context, lessonID uuid.UUID) ([]domain.Attendance, error) {
	return s.repo.ListAttendance(ctx, lessonID)
}
