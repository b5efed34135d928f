package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/reimburse/internal/services/claims/filter"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCloseNilSafe(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	putUser(t, store, "user-1", "E001")
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("get user after reopen: %v", err)
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := openTempStore(t)
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	input := storage.User{
		ID:           "user-1",
		EmployeeCode: " E001 ",
		EmployeeName: "Asha Rao",
		Designation:  "Analyst",
		Department:   "Ops",
		PasswordHash: "hash",
		CreatedAt:    created,
	}
	if err := store.CreateUser(context.Background(), input); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := store.GetUserByEmployeeCode(context.Background(), "E001")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.ID != "user-1" || got.EmployeeName != "Asha Rao" || got.Department != "Ops" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created) {
		t.Fatalf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, created)
	}
}

func TestCreateUserDuplicateCode(t *testing.T) {
	store := openTempStore(t)
	putUser(t, store, "user-1", "E001")

	err := store.CreateUser(context.Background(), storage.User{
		ID: "user-2", EmployeeCode: "E001", EmployeeName: "B", PasswordHash: "hash",
	})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestCreateUserValidates(t *testing.T) {
	store := openTempStore(t)
	for _, u := range []storage.User{
		{EmployeeCode: "E1", PasswordHash: "h"},
		{ID: "u", PasswordHash: "h"},
		{ID: "u", EmployeeCode: "E1"},
	} {
		if err := store.CreateUser(context.Background(), u); err == nil {
			t.Fatalf("expected error for %+v", u)
		}
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := openTempStore(t)
	if _, err := store.GetUser(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.GetUserByEmployeeCode(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := openTempStore(t)
	putUser(t, store, "user-1", "E001")
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	for _, s := range []storage.Session{
		{ID: "live", UserID: "user-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
		{ID: "stale", UserID: "user-1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{ID: "edge", UserID: "user-1", CreatedAt: now.Add(-time.Hour), ExpiresAt: now},
	} {
		if err := store.CreateSession(context.Background(), s); err != nil {
			t.Fatalf("create session %s: %v", s.ID, err)
		}
	}

	got, err := store.GetSession(context.Background(), "live")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != "user-1" || !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected session: %+v", got)
	}

	removed, err := store.DeleteExpiredSessions(context.Background(), now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if _, err := store.GetSession(context.Background(), "stale"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected stale session gone, got %v", err)
	}

	if err := store.DeleteSession(context.Background(), "live"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if err := store.DeleteSession(context.Background(), "live"); err != nil {
		t.Fatalf("delete session twice: %v", err)
	}
	if _, err := store.GetSession(context.Background(), "live"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	session := storage.Session{ExpiresAt: now}
	if !session.Expired(now) {
		t.Fatal("expected session expiring now to be expired")
	}
	if session.Expired(now.Add(-time.Millisecond)) {
		t.Fatal("expected session to be live before expiry")
	}
}

func TestCancelledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.GetUser(ctx, "user-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claims.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func putUser(t *testing.T, store *Store, userID, code string) {
	t.Helper()
	err := store.CreateUser(context.Background(), storage.User{
		ID:           userID,
		EmployeeCode: code,
		EmployeeName: "Employee " + code,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", userID, err)
	}
}

// clock returns a store clock that advances one second per call.
func clock(store *Store, start time.Time) {
	current := start
	store.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

var noFilter = filter.SQLCondition{}
