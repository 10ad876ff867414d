package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorium/backend/internal/apperrors"
	availabilityservice "tutorium/backend/internal/service/availability"
)

// AvailabilityHandler exposes the read-only calendar views.
type AvailabilityHandler struct {
	service *availabilityservice.Service
}

func NewAvailabilityHandler(svc *availabilityservice.Service) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

func (h *AvailabilityHandler) FreeSlots(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "date query parameter is required"))
		return
	}
	loc, err := availabilityservice.ResolveLocation(c.Query("tz"))
	if err != nil {
		respondError(c, err)
		return
	}

	slots, err := h.service.FreeSlots(c.Request.Context(), teacherID, date, loc)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, slots)
}

func (h *AvailabilityHandler) FullSchedule(c *gin.Context) {
	teacherID, ok := teacherIDParam(c)
	if !ok {
		return
	}
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		respondError(c, apperrors.Clone(apperrors.ErrValidation, "start and end query parameters are required"))
		return
	}
	loc, err := availabilityservice.ResolveLocation(c.Query("tz"))
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.service.FullSchedule(c.Request.Context(), teacherID, start, end, loc)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}
