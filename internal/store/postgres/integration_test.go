package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"tutorium/backend/internal/domain"
	"tutorium/backend/internal/store"
)

// The integration test needs a reachable postgres with rights to create
// schemas and the btree_gist extension. Each run works in a throwaway
// schema so parallel CI jobs do not collide.
func TestPostgresIntegration_BookingConflictGuard(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("TUTORIUM_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("TUTORIUM_TEST_DATABASE_URL not set")
	}

	admin, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = Close(admin) })

	schema := "tutorium_test_" + randomHex(t, 8)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if _, err := admin.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema error: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(cleanupCtx)
	})

	// A second pool scoped to the test schema; public stays on the path so
	// the btree_gist operator classes resolve.
	scopedURL := databaseURL
	sep := "?"
	if strings.Contains(scopedURL, "?") {
		sep = "&"
	}
	scopedURL += sep + "search_path=" + schema + ",public"

	db, err := Open(scopedURL, PoolConfig{MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("Open scoped error: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("applyMigrations error: %v", err)
	}

	lessonRepo := NewLessonRepo(db)
	scheduleRepo := NewScheduleRepo(db)

	lesson, err := lessonRepo.CreateLesson(ctx, domain.Lesson{
		Title:      "Algebra",
		LessonType: domain.LessonTypeIndividual,
		Language:   "en",
		Level:      "B2",
		TeacherID:  42,
	})
	if err != nil {
		t.Fatalf("CreateLesson error: %v", err)
	}

	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	s1, err := lessonRepo.CreateSession(ctx, lesson.ID, start, end)
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if s1.TeacherID != 42 {
		t.Fatalf("session teacher = %d, want denormalized 42", s1.TeacherID)
	}

	// Strict overlap is refused.
	if _, err := lessonRepo.CreateSession(ctx, lesson.ID, start.Add(30*time.Minute), end.Add(30*time.Minute)); err != store.ErrSchedulingConflict {
		t.Fatalf("overlap err = %v, want ErrSchedulingConflict", err)
	}

	// Touching endpoints are allowed.
	s2, err := lessonRepo.CreateSession(ctx, lesson.ID, end, end.Add(time.Hour))
	if err != nil {
		t.Fatalf("touching CreateSession error: %v", err)
	}

	// A cancelled session frees its window.
	cancelled := domain.SessionStatusCancelled
	if _, err := lessonRepo.UpdateSession(ctx, s2.ID, store.SessionPatch{Status: &cancelled}); err != nil {
		t.Fatalf("cancel UpdateSession error: %v", err)
	}
	if _, err := lessonRepo.CreateSession(ctx, lesson.ID, end, end.Add(time.Hour)); err != nil {
		t.Fatalf("rebook after cancel error: %v", err)
	}

	// Unknown lesson propagates as a distinct error.
	if _, err := lessonRepo.CreateSession(ctx, uuid.New(), start.Add(5*time.Hour), start.Add(6*time.Hour)); err != store.ErrLessonNotFound {
		t.Fatalf("unknown lesson err = %v, want ErrLessonNotFound", err)
	}

	// Booking annotation joins the first participant.
	studentID := uuid.New()
	if _, err := lessonRepo.AddParticipant(ctx, domain.Participant{
		LessonID:  lesson.ID,
		StudentID: &studentID,
	}); err != nil {
		t.Fatalf("AddParticipant error: %v", err)
	}
	booked, err := lessonRepo.ListSessionsByTeacherAndRange(ctx, 42, start.Add(-time.Hour), end.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListSessionsByTeacherAndRange error: %v", err)
	}
	if len(booked) != 3 {
		t.Fatalf("len(booked) = %d, want 3", len(booked))
	}
	if !booked[0].Booked || booked[0].BookedBy == nil || booked[0].BookedBy.StudentID == nil || *booked[0].BookedBy.StudentID != studentID {
		t.Fatalf("booking annotation = %+v", booked[0])
	}

	// One weekly rule per (teacher, weekday).
	rule := domain.WeeklyRule{TeacherID: 42, Weekday: 0, StartTime: "09:00", EndTime: "18:00", IsOpen: true}
	if _, err := scheduleRepo.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule error: %v", err)
	}
	if _, err := scheduleRepo.CreateRule(ctx, rule); err != store.ErrConflict {
		t.Fatalf("duplicate rule err = %v, want ErrConflict", err)
	}

	// One special day per (teacher, date).
	day := domain.SpecialDay{TeacherID: 42, Date: "2026-03-02", StartTime: "10:00", EndTime: "16:00", IsActive: true}
	if _, err := scheduleRepo.CreateSpecialDay(ctx, day); err != nil {
		t.Fatalf("CreateSpecialDay error: %v", err)
	}
	if _, err := scheduleRepo.CreateSpecialDay(ctx, day); err != store.ErrConflict {
		t.Fatalf("duplicate special day err = %v, want ErrConflict", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type mig struct {
		name string
		path string
	}
	migs := make([]mig, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		migs = append(migs, mig{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].name < migs[j].name })

	for _, m := range migs {
		b, err := os.ReadFile(m.path)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if normalized, ok := normalizeExtensionStatement(stmt); ok {
				stmt = normalized
			}
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("%s: %w", m.name, err)
			}
		}
	}

	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

// normalizeExtensionStatement pins btree_gist into public so every test
// schema on the search path can see its operator classes.
func normalizeExtensionStatement(stmt string) (string, bool) {
	s := strings.TrimSpace(stmt)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "CREATE EXTENSION") {
		return "", false
	}
	if !strings.Contains(upper, "BTREE_GIST") {
		return "", false
	}
	if strings.Contains(upper, " SCHEMA ") {
		return "", false
	}
	return s + " SCHEMA public", true
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
