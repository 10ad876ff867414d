package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tutorium/backend/internal/apperrors"
)

// Envelope is the common response contract: exactly one of Data or Error.
type Envelope struct {
	Data  any              `json:"data,omitempty"`
	Error *apperrors.Error `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	respond(c, http.StatusCreated, data)
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// respondError converts any error to the envelope shape. Unknown errors are
// masked as 500 INTERNAL_ERROR by apperrors.FromError.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

func bindError(c *gin.Context, err error) {
	respondError(c, apperrors.Wrap(err, apperrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
}
