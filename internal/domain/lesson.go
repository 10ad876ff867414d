package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "SCHEDULED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusCancelled  SessionStatus = "CANCELLED"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusInProgress, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

type LessonType string

const (
	LessonTypeIndividual LessonType = "INDIVIDUAL"
	LessonTypeGroup      LessonType = "GROUP"
	LessonTypeTrial      LessonType = "TRIAL"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeIndividual, LessonTypeGroup, LessonTypeTrial:
		return true
	}
	return false
}

// Lesson is the definition a session instantiates. It is owned by exactly
// one teacher.
type Lesson struct {
	bun.BaseModel `bun:"table:lessons"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	Title       string     `bun:"title,notnull"`
	Description string     `bun:"description"`
	LessonType  LessonType `bun:"lesson_type,notnull"`
	Language    string     `bun:"language,notnull"`
	Level       string     `bun:"level,notnull"`
	TeacherID   int64      `bun:"teacher_id,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
}

func (l *Lesson) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return touchTimestamps(query, &l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Session is one concrete bookable time instance of a lesson. TeacherID is
// denormalized from the parent lesson at insert so the overlap scan and the
// sessions_no_overlap constraint stay per teacher without a join.
//
// Invariant: for one teacher, no two non-cancelled sessions overlap on the
// half-open [StartTime, EndTime) range.
type Session struct {
	bun.BaseModel `bun:"table:lesson_sessions"`

	ID        uuid.UUID     `bun:"id,pk,type:uuid"`
	LessonID  uuid.UUID     `bun:"lesson_id,notnull,type:uuid"`
	TeacherID int64         `bun:"teacher_id,notnull"`
	StartTime time.Time     `bun:"start_time,notnull"`
	EndTime   time.Time     `bun:"end_time,notnull"`
	Status    SessionStatus `bun:"status,notnull"`
	CreatedAt time.Time     `bun:"created_at,notnull"`
	UpdatedAt time.Time     `bun:"updated_at,notnull"`
}

func (s *Session) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return touchTimestamps(query, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Participant attaches a student or a group to a lesson. Exactly one of
// StudentID / GroupID is set, enforced by check constraints.
type Participant struct {
	bun.BaseModel `bun:"table:lesson_participants"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid"`
	LessonID         uuid.UUID  `bun:"lesson_id,notnull,type:uuid"`
	StudentID        *uuid.UUID `bun:"student_id,type:uuid"`
	GroupID          *int64     `bun:"group_id"`
	IsConfirmed      bool       `bun:"is_confirmed,notnull"`
	ConfirmationDate *time.Time `bun:"confirmation_date"`
	CreatedAt        time.Time  `bun:"created_at,notnull"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull"`
}

func (p *Participant) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return touchTimestamps(query, &p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Attendance records whether a student showed up for a lesson.
type Attendance struct {
	bun.BaseModel `bun:"table:lesson_attendance"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	LessonID  uuid.UUID  `bun:"lesson_id,notnull,type:uuid"`
	StudentID uuid.UUID  `bun:"student_id,notnull,type:uuid"`
	Status    string     `bun:"status,notnull"`
	JoinTime  *time.Time `bun:"join_time"`
	LeaveTime *time.Time `bun:"leave_time"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
	UpdatedAt time.Time  `bun:"updated_at,notnull"`
}

func (a *Attendance) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return touchTimestamps(query, &a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// BookingKind distinguishes who booked a session.
type BookingKind string

const (
	BookingKindStudent BookingKind = "student"
	BookingKindGroup   BookingKind = "group"
)

// BookingRef identifies the booking party of a session, resolved from the
// lesson's participants.
type BookingRef struct {
	Kind      BookingKind
	StudentID *uuid.UUID
	GroupID   *int64
}

// BookedSession is a session annotated with its booking state. The
// annotation is a join over lesson participants, not stored state.
type BookedSession struct {
	Session  Session
	Lesson   Lesson
	Booked   bool
	BookedBy *BookingRef
}
