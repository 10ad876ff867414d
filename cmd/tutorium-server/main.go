package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tutorium/backend/internal/config"
	"tutorium/backend/internal/directory"
	"tutorium/backend/internal/logger"
	"tutorium/backend/internal/service/availability"
	"tutorium/backend/internal/service/lessons"
	"tutorium/backend/internal/service/schedule"
	"tutorium/backend/internal/store/postgres"
	httptransport "tutorium/backend/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("config load failed", zap.Error(err))
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("logger init failed", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", "tutorium-server"))

	log.Info("starting", zap.String("http_addr", cfg.HTTPAddr()), zap.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogFields(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		log.Fatal("database connection failed", append([]zap.Field{zap.Error(err)}, databaseLogFields(cfg.DatabaseURL)...)...)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}()

	scheduleRepo := postgres.NewScheduleRepo(db)
	lessonRepo := postgres.NewLessonRepo(db)

	dir := directory.NewClient(cfg.AuthServiceURL, cfg.GroupsServiceURL, cfg.DirectoryTimeout, cfg.DirectoryCacheTTL, log)

	scheduleSvc := schedule.NewService(scheduleRepo, log)
	lessonSvc := lessons.NewService(lessonRepo, log)
	availabilitySvc := availability.NewService(scheduleRepo, lessonRepo, dir, log)

	metrics := httptransport.NewHTTPMetrics()
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Env:          cfg.Env,
		JWTSecret:    cfg.JWTSecret,
		Logger:       log,
		Metrics:      metrics,
		Schedule:     httptransport.NewScheduleHandler(scheduleSvc),
		Lessons:      httptransport.NewLessonsHandler(lessonSvc),
		Availability: httptransport.NewAvailabilityHandler(availabilitySvc),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("http server started", zap.String("http_addr", cfg.HTTPAddr()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed; closing", zap.Error(err))
			_ = srv.Close()
		} else {
			log.Info("http server stopped")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server stopped with error", zap.Error(err))
		}
	}
}

func databaseLogFields(databaseURL string) []zap.Field {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []zap.Field{zap.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []zap.Field{
		zap.String("db_host", host),
		zap.String("db_port", port),
		zap.String("db_name", name),
	}
}
