package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig bundles everything the HTTP surface needs.
type RouterConfig struct {
	Env       string
	JWTSecret string
	Logger    *zap.Logger
	Metrics   *HTTPMetrics

	Schedule     *ScheduleHandler
	Lessons      *LessonsHandler
	Availability *AvailabilityHandler
}

// NewRouter builds the gin engine with middleware and all API routes.
// Read-only availability views stay public; mutating routes require auth
// when a JWT secret is configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger))
	}
	r.Use(Metrics(cfg.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	authed := func() gin.HandlerFunc {
		if cfg.JWTSecret == "" {
			if cfg.Logger != nil {
				cfg.Logger.Warn("jwt secret not configured, mutating routes are unauthenticated")
			}
			return func(c *gin.Context) { c.Next() }
		}
		return Auth(cfg.JWTSecret)
	}()

	api := r.Group("/api/v1")

	teachers := api.Group("/teachers/:teacherId")
	{
		teachers.GET("/free-slots", cfg.Availability.FreeSlots)
		teachers.GET("/schedule/full", cfg.Availability.FullSchedule)

		teachers.POST("/weekly-rules", authed, cfg.Schedule.CreateRule)
		teachers.GET("/weekly-rules", cfg.Schedule.ListRules)
		teachers.GET("/weekly-rules/:weekday", cfg.Schedule.GetRule)
		teachers.PUT("/weekly-rules/:weekday", authed, cfg.Schedule.UpdateRule)

		teachers.POST("/special-days", authed, cfg.Schedule.CreateSpecialDay)
		teachers.GET("/special-days", cfg.Schedule.ListSpecialDays)
		teachers.PUT("/special-days/:id", authed, cfg.Schedule.UpdateSpecialDay)
		teachers.DELETE("/special-days/:id", authed, cfg.Schedule.DeleteSpecialDay)

		teachers.POST("/unavailable-periods", authed, cfg.Schedule.CreateUnavailablePeriod)
		teachers.GET("/unavailable-periods", cfg.Schedule.ListUnavailablePeriods)
		teachers.DELETE("/unavailable-periods/:id", authed, cfg.Schedule.DeleteUnavailablePeriod)
	}

	lessons := api.Group("/lessons")
	{
		lessons.POST("", authed, cfg.Lessons.CreateLesson)
		lessons.GET("", cfg.Lessons.ListLessons)
		lessons.GET("/:id", cfg.Lessons.GetLesson)
		lessons.PUT("/:id", authed, cfg.Lessons.UpdateLesson)
		lessons.DELETE("/:id", authed, cfg.Lessons.DeleteLesson)

		lessons.POST("/:id/participants", authed, cfg.Lessons.AddParticipant)
		lessons.GET("/:id/participants", cfg.Lessons.ListParticipants)

		lessons.POST("/:id/attendance", authed, cfg.Lessons.AddAttendance)
		lessons.GET("/:id/attendance", cfg.Lessons.ListAttendance)
	}

	participants := api.Group("/participants")
	{
		participants.PUT("/:participantId/confirm", authed, cfg.Lessons.ConfirmParticipant)
		participants.DELETE("/:participantId", authed, cfg.Lessons.RemoveParticipant)
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", authed, cfg.Lessons.CreateSession)
		sessions.GET("/by-teacher", cfg.Lessons.ListSessionsByTeacher)
		sessions.GET("/:id", cfg.Lessons.GetSession)
		sessions.PUT("/:id", authed, cfg.Lessons.UpdateSession)
		sessions.DELETE("/:id", authed, cfg.Lessons.DeleteSession)
	}

	return r
}
