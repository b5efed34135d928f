// Package sqlite provides the SQLite-backed claims storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/reimburse/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
	"github.com/louisbranch/reimburse/internal/services/claims/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists claims state in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite claims store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateUser inserts an employee account. A taken employee code returns
// storage.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, u storage.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	u.ID = strings.TrimSpace(u.ID)
	u.EmployeeCode = strings.TrimSpace(u.EmployeeCode)
	u.EmployeeName = strings.TrimSpace(u.EmployeeName)
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if u.EmployeeCode == "" {
		return fmt.Errorf("employee code is required")
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (
		   id, employee_code, employee_name, designation, department,
		   password_hash, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.EmployeeCode,
		u.EmployeeName,
		strings.TrimSpace(u.Designation),
		strings.TrimSpace(u.Department),
		u.PasswordHash,
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns one user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.User{}, fmt.Errorf("user id is required")
	}
	return s.scanUser(s.sqlDB.QueryRowContext(ctx, selectUser+` WHERE id = ?`, userID))
}

// GetUserByEmployeeCode returns the user registered under code.
func (s *Store) GetUserByEmployeeCode(ctx context.Context, code string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return storage.User{}, fmt.Errorf("employee code is required")
	}
	return s.scanUser(s.sqlDB.QueryRowContext(ctx, selectUser+` WHERE employee_code = ?`, code))
}

const selectUser = `SELECT id, employee_code, employee_name, designation, department,
        password_hash, created_at, updated_at
   FROM users`

func (s *Store) scanUser(row *sql.Row) (storage.User, error) {
	var u storage.User
	var createdAt, updatedAt int64
	err := row.Scan(
		&u.ID,
		&u.EmployeeCode,
		&u.EmployeeName,
		&u.Designation,
		&u.Department,
		&u.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// CreateSession inserts a session row.
func (s *Store) CreateSession(ctx context.Context, session storage.Session) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	session.ID = strings.TrimSpace(session.ID)
	session.UserID = strings.TrimSpace(session.UserID)
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if session.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if session.ExpiresAt.IsZero() {
		return fmt.Errorf("session expiry is required")
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		toMillis(session.CreatedAt),
		toMillis(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns one session by ID, expired or not.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.Session, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Session{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.Session{}, fmt.Errorf("session id is required")
	}
	var session storage.Session
	var createdAt, expiresAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`,
		sessionID,
	).Scan(&session.ID, &session.UserID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	return session, nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions expiring at or before now and
// reports how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
