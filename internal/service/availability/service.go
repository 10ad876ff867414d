package availability

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutorium/backend/internal/apperrors"
	"tutorium/backend/internal/directory"
	"tutorium/backend/internal/domain"
	"tutorium/backend/internal/store"
)

// EntryStatusUnavailable marks placeholder entries rendered from a special
// day's fixed "HH:MM-HH:MM" slot strings. They are display-only and never
// correspond to a stored session.
const EntryStatusUnavailable = "UNAVAILABLE"

// Service merges the schedule layers with booked sessions into the views
// clients consume: free bookable slots for one day, or the full per-day
// calendar for a range.
type Service struct {
	schedules store.ScheduleRepository
	lessons   store.LessonRepository
	dir       directory.Directory
	log       *zap.Logger
}

func NewService(schedules store.ScheduleRepository, lessons store.LessonRepository, dir directory.Directory, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		schedules: schedules,
		lessons:   lessons,
		dir:       dir,
		log:       log.With(zap.String("component", "service.availability")),
	}
}

func validationError(msg string) error {
	return apperrors.Clone(apperrors.ErrValidation, msg)
}

// ResolveLocation validates an optional IANA timezone name. Wall-clock
// windows are interpreted in this location; empty means UTC.
func ResolveLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, validationError("invalid tz, expected an IANA timezone name")
	}
	return loc, nil
}

// FreeSlots returns the offerable one-hour slots for one teacher and date.
// A closed day is an empty list, not an error.
func (s *Service) FreeSlots(ctx context.Context, teacherID int64, dateStr string, loc *time.Location) ([]domain.TimeSlot, error) {
	if teacherID <= 0 {
		return nil, validationError("teacher_id is required")
	}
	date, err := time.ParseInLocation(domain.DateLayout, dateStr, loc)
	if err != nil {
		return nil, validationError("invalid date, expected YYYY-MM-DD")
	}

	specials, err := s.schedules.ListSpecialDays(ctx, teacherID, dateStr, dateStr)
	if err != nil {
		return nil, err
	}

	var rules []domain.WeeklyRule
	rule, err := s.schedules.GetRule(ctx, teacherID, domain.WeekdayIndex(date))
	switch {
	case err == nil:
		rules = append(rules, rule)
	case errors.Is(err, store.ErrNotFound):
		// Absent rule means a closed day unless a special day opens it.
	default:
		return nil, err
	}

	capacity := domain.ResolveDayCapacity(date, rules, specials)
	if !capacity.Open {
		return []domain.TimeSlot{}, nil
	}

	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)

	busy, err := s.busyIntervals(ctx, teacherID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return domain.FreeSlotsForDay(date, capacity, busy, loc)
}

func (s *Service) busyIntervals(ctx context.Context, teacherID int64, from, to time.Time) ([]domain.Interval, error) {
	periods, err := s.schedules.ListUnavailablePeriods(ctx, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	sessions, err := s.lessons.ListSessionsByTeacherAndRange(ctx, teacherID, from, to)
	if err != nil {
		return nil, err
	}

	busy := make([]domain.Interval, 0, len(periods)+len(sessions))
	for _, p := range periods {
		busy = append(busy, domain.Interval{Start: p.StartTime, End: p.EndTime})
	}
	for _, bs := range sessions {
		if bs.Session.Status == domain.SessionStatusCancelled {
			continue
		}
		busy = append(busy, domain.Interval{Start: bs.Session.StartTime, End: bs.Session.EndTime})
	}
	return busy, nil
}

// BookedByView names the booking party of an entry. Name is best-effort:
// a failed directory lookup leaves it empty.
type BookedByView struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LessonView is the lesson summary embedded in calendar entries.
type LessonView struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	LessonType  string    `json:"lesson_type"`
	Language    string    `json:"language"`
	Level       string    `json:"level"`
	TeacherID   int64     `json:"teacher_id"`
}

// EntryView is one calendar entry: a real session or an UNAVAILABLE
// placeholder from a special day's fixed slots.
type EntryView struct {
	ID        *uuid.UUID    `json:"id"`
	LessonID  *uuid.UUID    `json:"lesson_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Status    string        `json:"status"`
	Booked    bool          `json:"booked"`
	BookedBy  *BookedByView `json:"booked_by,omitempty"`
	Lesson    *LessonView   `json:"lesson,omitempty"`
}

// DayView is one calendar day with its resolved window and entries.
type DayView struct {
	Date      string      `json:"date"`
	IsActive  bool        `json:"is_active"`
	StartTime string      `json:"start_time,omitempty"`
	EndTime   string      `json:"end_time,omitempty"`
	Entries   []EntryView `json:"entries"`
}

// ScheduleView is the full per-day calendar for a teacher over a range.
type ScheduleView struct {
	TeacherID int64     `json:"teacher_id"`
	Days      []DayView `json:"days"`
}

// FullSchedule assembles the per-day calendar over an inclusive date range.
// The merge itself is pure; only the display-name enrichment talks to other
// services, and it degrades to blank names rather than failing.
func (s *Service) FullSchedule(ctx context.Context, teacherID int64, startStr, endStr string, loc *time.Location) (ScheduleView, error) {
	if teacherID <= 0 {
		return ScheduleView{}, validationError("teacher_id is required")
	}
	start, err := time.ParseInLocation(domain.DateLayout, startStr, loc)
	if err != nil {
		return ScheduleView{}, validationError("invalid start date, expected YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(domain.DateLayout, endStr, loc)
	if err != nil {
		return ScheduleView{}, validationError("invalid end date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return ScheduleView{}, validationError("date range inverted")
	}

	rules, err := s.schedules.ListRules(ctx, teacherID)
	if err != nil {
		return ScheduleView{}, err
	}
	specials, err := s.schedules.ListSpecialDays(ctx, teacherID, startStr, endStr)
	if err != nil {
		return ScheduleView{}, err
	}

	rangeEnd := end.AddDate(0, 0, 1)
	blackouts, err := s.schedules.ListUnavailablePeriods(ctx, teacherID, start, rangeEnd)
	if err != nil {
		return ScheduleView{}, err
	}

	skeletons, err := domain.BuildDaySkeletons(start, end, rules, specials, blackouts, loc)
	if err != nil {
		return ScheduleView{}, err
	}

	sessions, err := s.lessons.ListSessionsByTeacherAndRange(ctx, teacherID, start, rangeEnd)
	if err != nil {
		return ScheduleView{}, err
	}

	entriesByDate := make(map[string][]EntryView, len(skeletons))
	for _, bs := range sessions {
		entry := s.sessionEntry(ctx, bs)
		key := bs.Session.StartTime.In(loc).Format(domain.DateLayout)
		entriesByDate[key] = append(entriesByDate[key], entry)
	}

	days := make([]DayView, 0, len(skeletons))
	for _, sk := range skeletons {
		key := sk.Date.Format(domain.DateLayout)

		entries := make([]EntryView, 0, len(sk.FixedSlots)+len(entriesByDate[key]))
		for _, slot := range sk.FixedSlots {
			entry, ok := fixedSlotEntry(sk.Date, slot, loc)
			if !ok {
				s.log.Warn("skipping malformed fixed slot",
					zap.Int64("teacher_id", teacherID),
					zap.String("date", key),
					zap.String("slot", slot),
				)
				continue
			}
			entries = append(entries, entry)
		}
		entries = append(entries, entriesByDate[key]...)
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].StartTime.Before(entries[j].StartTime)
		})

		days = append(days, DayView{
			Date:      key,
			IsActive:  sk.IsActive,
			StartTime: sk.StartTime,
			EndTime:   sk.EndTime,
			Entries:   entries,
		})
	}

	return ScheduleView{TeacherID: teacherID, Days: days}, nil
}

func (s *Service) sessionEntry(ctx context.Context, bs domain.BookedSession) EntryView {
	sessionID := bs.Session.ID
	lessonID := bs.Session.LessonID
	entry := EntryView{
		ID:        &sessionID,
		LessonID:  &lessonID,
		StartTime: bs.Session.StartTime,
		EndTime:   bs.Session.EndTime,
		Status:    string(bs.Session.Status),
		Booked:    bs.Booked,
	}

	if bs.Lesson.ID != uuid.Nil {
		entry.Lesson = &LessonView{
			ID:          bs.Lesson.ID,
			Title:       bs.Lesson.Title,
			Description: bs.Lesson.Description,
			LessonType:  string(bs.Lesson.LessonType),
			Language:    bs.Lesson.Language,
			Level:       bs.Lesson.Level,
			TeacherID:   bs.Lesson.TeacherID,
		}
	}

	if bs.BookedBy != nil {
		entry.BookedBy = s.resolveBookedBy(ctx, bs.BookedBy)
	}
	return entry
}

// resolveBookedBy enriches a booking reference with a display name. Lookup
// failures are swallowed: the calendar renders with a blank name instead of
// bubbling an upstream error into the whole request.
func (s *Service) resolveBookedBy(ctx context.Context, ref *domain.BookingRef) *BookedByView {
	view := &BookedByView{Kind: string(ref.Kind)}
	switch {
	case ref.StudentID != nil:
		view.ID = ref.StudentID.String()
		if s.dir != nil {
			if name, err := s.dir.StudentName(ctx, *ref.StudentID); err == nil {
				view.Name = name
			}
		}
	case ref.GroupID != nil:
		view.ID = formatInt64(*ref.GroupID)
		if s.dir != nil {
			if name, err := s.dir.GroupName(ctx, *ref.GroupID); err == nil {
				view.Name = name
			}
		}
	}
	return view
}

func fixedSlotEntry(date time.Time, slot string, loc *time.Location) (EntryView, bool) {
	if len(slot) != 11 || slot[5] != '-' {
		return EntryView{}, false
	}
	window, err := domain.WindowOnDate(date, slot[:5], slot[6:], loc)
	if err != nil || window.IsEmpty() {
		return EntryView{}, false
	}
	return EntryView{
		StartTime: window.Start,
		EndTime:   window.End,
		Status:    EntryStatusUnavailable,
	}, true
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
