package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barbearia/backend/internal/domain"
	"barbearia/backend/internal/store"
)

func TestPostgresIntegration_AgendaSemantics(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("BARBEARIA_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("BARBEARIA_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "barbearia_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(cleanupCtx)
	})

	serviceID := uuid.MustParse("00000000-0000-0000-0000-000000000101")

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema + ", public").Exec(ctx); err != nil {
			return err
		}
		if err := applyMigrations(ctx, tx); err != nil {
			return err
		}

		svc := domain.Service{ID: serviceID, Name: "Corte", PriceCents: 4500, DurationMinutes: 30, Active: true}
		if _, err := tx.NewInsert().Model(&svc).Exec(ctx); err != nil {
			return err
		}

		a := agendaTx{tx: tx}

		start := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
		end := start.Add(30 * time.Minute)

		a1, err := a.CreateAppointment(ctx, domain.Appointment{
			ID:          uuid.MustParse("00000000-0000-0000-0000-000000000901"),
			ClientName:  "João",
			ClientPhone: "11 99999-0000",
			ServiceID:   serviceID,
			StartTime:   start,
			EndTime:     end,
		})
		if err != nil {
			return err
		}
		if a1.Status != domain.AppointmentStatusPending {
			return fmt.Errorf("status = %q, want pending", a1.Status)
		}

		// Partial overlap loses to the exclusion constraint.
		_, err = a.CreateAppointment(ctx, domain.Appointment{
			ID:          uuid.MustParse("00000000-0000-0000-0000-000000000902"),
			ClientName:  "Maria",
			ClientPhone: "11 98888-0000",
			ServiceID:   serviceID,
			StartTime:   start.Add(15 * time.Minute),
			EndTime:     end.Add(15 * time.Minute),
		})
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("overlap err = %v, want %v", err, store.ErrConflict)
		}

		// Touching windows are fine.
		a2, err := a.CreateAppointment(ctx, domain.Appointment{
			ID:          uuid.MustParse("00000000-0000-0000-0000-000000000903"),
			ClientName:  "Maria",
			ClientPhone: "11 98888-0000",
			ServiceID:   serviceID,
			StartTime:   end,
			EndTime:     end.Add(30 * time.Minute),
		})
		if err != nil {
			return err
		}

		// Replaying the same insert with the same derived id returns the
		// existing row.
		replay, err := a.CreateAppointment(ctx, domain.Appointment{
			ID:          a1.ID,
			ClientName:  "João",
			ClientPhone: "11 99999-0000",
			ServiceID:   serviceID,
			StartTime:   start,
			EndTime:     end,
		})
		if err != nil {
			return err
		}
		if replay.ID != a1.ID {
			return fmt.Errorf("replay id = %s, want %s", replay.ID, a1.ID)
		}

		// Same id, different payload.
		_, err = a.CreateAppointment(ctx, domain.Appointment{
			ID:          a1.ID,
			ClientName:  "Outro",
			ClientPhone: "11 97777-0000",
			ServiceID:   serviceID,
			StartTime:   start,
			EndTime:     end,
		})
		if !errors.Is(err, store.ErrIdempotencyConflict) {
			return fmt.Errorf("idempotency err = %v, want %v", err, store.ErrIdempotencyConflict)
		}

		rows, err := a.ListAppointments(ctx, start.Add(-time.Minute), end.Add(time.Hour), true)
		if err != nil {
			return err
		}
		if len(rows) != 2 {
			return fmt.Errorf("len(rows) = %d, want 2", len(rows))
		}

		// Canceling frees the slot for a new booking.
		if _, err := a.UpdateAppointmentStatus(ctx, a1.ID, domain.AppointmentStatusCanceled); err != nil {
			return err
		}
		rebooked, err := a.CreateAppointment(ctx, domain.Appointment{
			ID:          uuid.MustParse("00000000-0000-0000-0000-000000000904"),
			ClientName:  "Pedro",
			ClientPhone: "11 96666-0000",
			ServiceID:   serviceID,
			StartTime:   start,
			EndTime:     end,
		})
		if err != nil {
			return fmt.Errorf("rebook after cancel err = %v", err)
		}
		if rebooked.ID == a1.ID {
			return fmt.Errorf("rebook reused canceled id")
		}

		// Canceled is terminal.
		_, err = a.UpdateAppointmentStatus(ctx, a1.ID, domain.AppointmentStatusConfirmed)
		if !errors.Is(err, store.ErrInvalidTransition) {
			return fmt.Errorf("transition err = %v, want %v", err, store.ErrInvalidTransition)
		}

		// Same-status update is a no-op, not an error.
		same, err := a.UpdateAppointmentStatus(ctx, a2.ID, domain.AppointmentStatusPending)
		if err != nil {
			return err
		}
		if same.Status != domain.AppointmentStatusPending {
			return fmt.Errorf("status = %q, want pending", same.Status)
		}

		_, err = a.GetAppointment(ctx, uuid.MustParse("00000000-0000-0000-0000-00000000dead"))
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get missing err = %v, want %v", err, store.ErrNotFound)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

// TestPostgresIntegration_ConcurrentBookingRace exercises the case the
// availability snapshot cannot prevent: two clients race for the same slot
// and exactly one wins.
func TestPostgresIntegration_ConcurrentBookingRace(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("BARBEARIA_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("BARBEARIA_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(admin)
	})

	schema := "barbearia_race_" + randomHex(t, 8)
	if _, err := admin.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(cleanupCtx)
	})

	// A second pool pinned to the throwaway schema, so concurrent repo calls
	// all land there.
	db, err := Open(ctx, withSearchPath(databaseURL, schema), PoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	serviceID := uuid.MustParse("00000000-0000-0000-0000-000000000102")
	svc := domain.Service{ID: serviceID, Name: "Corte", PriceCents: 4500, DurationMinutes: 30, Active: true}
	if _, err := db.NewInsert().Model(&svc).Exec(ctx); err != nil {
		t.Fatalf("insert service: %v", err)
	}

	repo := NewAppointmentRepo(db)
	start := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

	const racers = 2
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, domain.Appointment{
				ClientName:  fmt.Sprintf("Cliente %d", i),
				ClientPhone: fmt.Sprintf("11 9000%d-0000", i),
				ServiceID:   serviceID,
				StartTime:   start,
				EndTime:     start.Add(30 * time.Minute),
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected racer error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d, want 1 and 1", wins, conflicts)
	}
}

func withSearchPath(databaseURL, schema string) string {
	option := "options=-csearch_path%3D" + schema + ",public"
	if strings.Contains(databaseURL, "?") {
		return databaseURL + "&" + option
	}
	return databaseURL + "?" + option
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
				return err
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

func extractGooseUp(sqlText string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sqlText, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sqlText[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

// The extension lives in public; creating it inside the throwaway schema
// would break the tstzrange exclusion operator lookup.
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

func splitSQLStatements(sqlText string) []string {
	parts := strings.Split(sqlText, ";")
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
