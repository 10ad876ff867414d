package http

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tutorium/backend/internal/domain"
)

// RegisterValidators installs the custom binding validators. Call once at
// startup before building the router.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseWallClock(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(domain.DateLayout, fl.Field().String())
			return err == nil
		})
	}
}

type createRuleRequest struct {
	Weekday   *int   `json:"weekday" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
	IsOpen    *bool  `json:"is_open"`
}

type updateRuleRequest struct {
	StartTime *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string `json:"end_time" binding:"omitempty,hhmm"`
	IsOpen    *bool   `json:"is_open"`
}

type createSpecialDayRequest struct {
	Date        string   `json:"date" binding:"required,dateonly"`
	StartTime   string   `json:"start_time" binding:"required,hhmm"`
	EndTime     string   `json:"end_time" binding:"required,hhmm"`
	IsActive    *bool    `json:"is_active"`
	BookedSlots []string `json:"booked_slots"`
}

type updateSpecialDayRequest struct {
	StartTime   *string   `json:"start_time" binding:"omitempty,hhmm"`
	EndTime     *string   `json:"end_time" binding:"omitempty,hhmm"`
	IsActive    *bool     `json:"is_active"`
	BookedSlots *[]string `json:"booked_slots"`
}

type createUnavailablePeriodRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Reason    string    `json:"reason"`
}

type createLessonRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	LessonType  string `json:"lesson_type" binding:"required,oneof=INDIVIDUAL GROUP TRIAL"`
	Language    string `json:"language"`
	Level       string `json:"level"`
	TeacherID   int64  `json:"teacher_id" binding:"required,gt=0"`
}

type updateLessonRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	LessonType  *string `json:"lesson_type" binding:"omitempty,oneof=INDIVIDUAL GROUP TRIAL"`
	Language    *string `json:"language"`
	Level       *string `json:"level"`
}

type createSessionRequest struct {
	LessonID  string    `json:"lesson_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type updateSessionRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    *string    `json:"status" binding:"omitempty,oneof=SCHEDULED IN_PROGRESS COMPLETED CANCELLED"`
}

type addParticipantRequest struct {
	StudentID   *string `json:"student_id" binding:"omitempty,uuid"`
	GroupID     *int64  `json:"group_id"`
	IsConfirmed bool    `json:"is_confirmed"`
}

type confirmParticipantRequest struct {
	IsConfirmed *bool `json:"is_confirmed" binding:"required"`
}

type addAttendanceRequest struct {
	StudentID string     `json:"student_id" binding:"required,uuid"`
	Status    string     `json:"status" binding:"required,oneof=present absent late"`
	JoinTime  *time.Time `json:"join_time"`
	LeaveTime *time.Time `json:"leave_time"`
}
