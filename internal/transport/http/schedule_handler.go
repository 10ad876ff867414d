package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tutorium/backend/internal/apperrors"
	scheduleservice "tutorium/backend/internal/service/schedule"
	"tutorium/backend/internal/store"
)

// ScheduleHandler exposes the weekly rule, special day and unavailable
// period endpoints.
type ScheduleHandler struct {
	service *scheduleservice.Service
}

func NewScheduleHandler(svc *scheduleservice.Service) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

func teacherIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("teacherId"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid teacher id"))
		return 0, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ScheduleHandler) CreateRule(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	isOpen := true
	if req.IsOpen != nil {
		isOpen = *req.IsOpen
	}
	rule, err := h.service.CreateRule(c.Request.Context(), scheduleservice.CreateRuleInput{
		TeacherID: teacherID,
		Weekday:   *req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsOpen:    isOpen,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, rule)
}

func (h *ScheduleHandler) ListRules(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	rules, err := h.service.ListRules(c.Request.Context(), teacherID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rules)
}

func (h *ScheduleHandler) GetRule(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	weekday, err := strconv.Atoi(c.Param("weekday"))
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid weekday"))
		return
	}
	rule, err := h.service.GetRule(c.Request.Context(), teacherID, weekday)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rule)
}

func (h *ScheduleHandler) UpdateRule(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	weekday, err := strconv.Atoi(c.Param("weekday"))
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid weekday"))
		return
	}
	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), teacherID, weekday, store.RulePatch{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsOpen:    req.IsOpen,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rule)
}

func (h *ScheduleHandler) CreateSpecialDay(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	var req createSpecialDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	day, err := h.service.CreateSpecialDay(c.Request.Context(), scheduleservice.CreateSpecialDayInput{
		TeacherID:   teacherID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsActive:    isActive,
		BookedSlots: req.BookedSlots,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, day)
}

func (h *ScheduleHandler) ListSpecialDays(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "from and to query parameters are required"))
		return
	}
	days, err := h.service.ListSpecialDays(c.Request.Context(), teacherID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, days)
}

func (h *ScheduleHandler) UpdateSpecialDay(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateSpecialDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	day, err := h.service.UpdateSpecialDay(c.Request.Context(), id, store.SpecialDayPatch{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsActive:    req.IsActive,
		BookedSlots: req.BookedSlots,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, day)
}

func (h *ScheduleHandler) DeleteSpecialDay(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSpecialDay(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

func (h *ScheduleHandler) CreateUnavailablePeriod(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	var req createUnavailablePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	period, err := h.service.CreateUnavailablePeriod(c.Request.Context(), scheduleservice.CreateUnavailablePeriodInput{
		TeacherID: teacherID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, period)
}

func (h *ScheduleHandler) ListUnavailablePeriods(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid from, expected RFC3339 timestamp"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "invalid to, expected RFC3339 timestamp"))
		return
	}

	periods, err := h.service.ListUnavailablePeriods(c.Request.Context(), teacherID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, periods)
}

func (h *ScheduleHandler) DeleteUnavailablePeriod(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteUnavailablePeriod(c.Request.Context(), teacherID, id); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}
