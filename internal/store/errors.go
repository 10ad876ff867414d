package store

import "errors"

var (
	ErrConflict           = errors.New("conflict")
	ErrSchedulingConflict = errors.New("scheduling conflict")
	ErrNotFound           = errors.New("not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	// ErrInvalidSessionWindow is returned when a session patch would leave
	// end_time at or before start_time once merged with the stored row.
	ErrInvalidSessionWindow = errors.New("invalid session window")
)
