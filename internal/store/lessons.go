package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"tutorium/backend/internal/domain"
)

// LessonPatch holds the mutable fields of a lesson. Nil means unchanged.
type LessonPatch struct {
	Title       *string
	Description *string
	LessonType  *domain.LessonType
	Language    *string
	Level       *string
}

// SessionPatch holds the mutable fields of a session. Changing the window
// re-runs the conflict check under the same per-teacher lock as creation.
type SessionPatch struct {
	StartTime *time.Time
	EndTime   *time.Time
	Status    *domain.SessionStatus
}

// LessonRepository persists lessons, their sessions and participants.
//
// CreateSession is the booking conflict guard: it resolves the lesson's
// teacher, locks that teacher's calendar for the duration of the
// transaction, scans for strictly overlapping non-cancelled sessions and
// only then inserts. It returns ErrLessonNotFound when the lesson is absent
// and ErrSchedulingConflict when the window is taken.
type LessonRepository interface {
	CreateLesson(ctx context.Context, lesson domain.Lesson) (domain.Lesson, error)
	GetLesson(ctx context.Context, id uuid.UUID) (domain.Lesson, error)
	ListLessons(ctx context.Context, teacherID *int64) ([]domain.Lesson, error)
	UpdateLesson(ctx context.Context, id uuid.UUID, patch LessonPatch) (domain.Lesson, error)
	DeleteLesson(ctx context.Context, id uuid.UUID) error

	CreateSession(ctx context.Context, lessonID uuid.UUID, start, end time.Time) (domain.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (domain.Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, patch SessionPatch) (domain.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	// ListSessionsByTeacherAndRange returns sessions overlapping
	// [start, end), each annotated with its lesson and booking party.
	ListSessionsByTeacherAndRange(ctx context.Context, teacherID int64, start, end time.Time) ([]domain.BookedSession, error)

	AddParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (domain.Participant, error)
	SetParticipantConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) (domain.Participant, error)
	RemoveParticipant(ctx context.Context, id uuid.UUID) error
	ListParticipantsForLesson(ctx context.Context, lessonID uuid.UUID) ([]domain.Participant, error)

	AddAttendance(ctx context.Context, a domain.Attendance) (domain.Attendance, error)
	ListAttendance(ctx context.Context, lessonID uuid.UUID) ([]domain.Attendance, error)
}
