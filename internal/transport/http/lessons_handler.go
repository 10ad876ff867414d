package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tutorium/backend/internal/apperrors"
	"tutorium/backend/internal/domain"
	lessonservice "tutorium/backend/internal/service/lessons"
	"tutorium/backend/internal/store"
)

// LessonsHandler exposes lesson, session, participant and attendance
// endpoints. Session creation is the write path guarded against overlaps.
type LessonsHandler struct {
	service *lessonservice.Service
}

func NewLessonsHandler(svc *lessonservice.Service) *LessonsHandler {
	return &LessonsHandler{service: svc}
}

func (h *LessonsHandler) CreateLesson(c *gin.Context) {
	var req createLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	lesson, err := h.service.CreateLesson(c.Request.Context(), lessonservice.CreateLessonInput{
		Title:       req.Title,
		Description: req.Description,
		LessonType:  domain.LessonType(req.LessonType),
		Language:    req.Language,
		Level:       req.Level,
		TeacherID:   req.TeacherID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, lesson)
}

func (h *LessonsHandler) GetLesson(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lesson, err := h.service.GetLesson(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, lesson)
}

func (h *LessonsHandler) ListLessons(c *gin.Context) {
	var teacherID *int64
	if raw := c.Query("teacher_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid teacher_id"))
			return
		}
		teacherID = &id
	}

	lessons, err := h.service.ListLessons(c.Request.Context(), teacherID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, lessons)
}

func (h *LessonsHandler) UpdateLesson(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	patch := store.LessonPatch{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		Level:       req.Level,
	}
	if req.LessonType != nil {
		lt := domain.LessonType(*req.LessonType)
		patch.LessonType = &lt
	}

	lesson, err := h.service.UpdateLesson(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, lesson)
}

func (h *LessonsHandler) DeleteLesson(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteLesson(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *LessonsHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid lesson_id"))
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), lessonservice.CreateSessionInput{
		LessonID:  lessonID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, session)
}

func (h *LessonsHandler) GetSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	session, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, session)
}

func (h *LessonsHandler) UpdateSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	patch := store.SessionPatch{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Status != nil {
		st := domain.SessionStatus(*req.Status)
		patch.Status = &st
	}

	session, err := h.service.UpdateSession(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, session)
}

func (h *LessonsHandler) DeleteSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSession(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *LessonsHandler) ListSessionsByTeacher(c *gin.Context) {
	teacherID, err := strconv.ParseInt(c.Query("teacher_id"), 10, 64)
	if err != nil || teacherID <= 0 {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid teacher_id"))
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid start, expected RFC3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid end, expected RFC3339 timestamp"))
		return
	}

	sessions, err := h.service.ListSessionsByTeacherAndRange(c.Request.Context(), teacherID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, sessions)
}

func (h *LessonsHandler) AddParticipant(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var studentID *uuid.UUID
	if req.StudentID != nil {
		id, err := uuid.Parse(*req.StudentID)
		if err != nil {
			respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid student_id"))
			return
		}
		studentID = &id
	}

	participant, err := h.service.AddParticipant(c.Request.Context(), lessonservice.AddParticipantInput{
		LessonID:    lessonID,
		StudentID:   studentID,
		GroupID:     req.GroupID,
		IsConfirmed: req.IsConfirmed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, participant)
}

func (h *LessonsHandler) ListParticipants(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	participants, err := h.service.ListParticipantsForLesson(c.Request.Context(), lessonID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, participants)
}

func (h *LessonsHandler) ConfirmParticipant(c *gin.Context) {
	id, ok := uuidParam(c, "participantId")
	if !ok {
		return
	}
	var req confirmParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	participant, err := h.service.SetParticipantConfirmed(c.Request.Context(), id, *req.IsConfirmed)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, participant)
}

func (h *LessonsHandler) RemoveParticipant(c *gin.Context) {
	id, ok := uuidParam(c, "participantId")
	if !ok {
		return
	}
	if err := h.service.RemoveParticipant(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *LessonsHandler) AddAttendance(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req addAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid student_id"))
		return
	}

	attendance, err := h.service.AddAttendance(c.Request.Context(), lessonservice.AddAttendanceInput{
		LessonID:  lessonID,
		StudentID: studentID,
		Status:    req.Status,
		JoinTime:  req.JoinTime,
		LeaveTime: req.LeaveTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, attendance)
}

func (h *LessonsHandler) ListAttendance(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	records, err := h.service.ListAttendance(c.Request.Context(), lessonID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, records)
}
