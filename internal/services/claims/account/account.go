// Package account registers employees and manages their sign-in sessions.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/platform/id"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

// SessionTTL is how long a session lasts unless configured otherwise.
const SessionTTL = 7 * 24 * time.Hour

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// User is the public view of an account.
type User struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	EmployeeName string `json:"employee_name"`
	Designation  string `json:"designation,omitempty"`
	Department   string `json:"department,omitempty"`
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	EmployeeCode string `json:"employee_code"`
	EmployeeName string `json:"employee_name"`
	Designation  string `json:"designation"`
	Department   string `json:"department"`
	Password     string `json:"password"`
}

// Session is a signed-in user with their bearer token.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// Store is the persistence the service needs.
type Store interface {
	storage.UserStore
	storage.SessionStore
}

// Service registers users and issues, validates and revokes sessions.
type Service struct {
	store  Store
	tokens *Tokens
	ttl    time.Duration
	cost   int
	now    func() time.Time
	newID  func() (string, error)
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL overrides SessionTTL. Non-positive values are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock sets the time source for sessions and tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService returns an account service that signs tokens with secret.
func NewService(store Store, secret []byte, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	s := &Service{
		store:  store,
		ttl:    SessionTTL,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		newID:  id.NewID,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	tokens, err := NewTokens(secret, s.now)
	if err != nil {
		return nil, err
	}
	s.tokens = tokens
	return s, nil
}

// SessionTTL reports the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	record, err := s.create(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.startSession(ctx, record)
}

// Create adds an account without signing it in.
func (s *Service) Create(ctx context.Context, in RegisterInput) (User, error) {
	record, err := s.create(ctx, in)
	if err != nil {
		return User{}, err
	}
	return toUser(record), nil
}

func (s *Service) create(ctx context.Context, in RegisterInput) (storage.User, error) {
	in.EmployeeCode = strings.TrimSpace(in.EmployeeCode)
	in.EmployeeName = strings.TrimSpace(in.EmployeeName)
	switch {
	case in.EmployeeCode == "":
		return storage.User{}, apperrors.New(apperrors.CodeEmployeeCodeRequired, "Employee code is required")
	case in.EmployeeName == "":
		return storage.User{}, apperrors.New(apperrors.CodeEmployeeNameRequired, "Employee name is required")
	case in.Password == "":
		return storage.User{}, apperrors.New(apperrors.CodePasswordRequired, "Password is required")
	case utf8.RuneCountInString(in.Password) < MinPasswordLength:
		return storage.User{}, apperrors.New(
			apperrors.CodePasswordTooShort,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
		)
	case len(in.Password) > MaxPasswordBytes:
		return storage.User{}, apperrors.New(
			apperrors.CodePasswordTooLong,
			fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes),
		)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}
	userID, err := s.newID()
	if err != nil {
		return storage.User{}, fmt.Errorf("user id: %w", err)
	}
	now := s.now().UTC()
	record := storage.User{
		ID:           userID,
		EmployeeCode: in.EmployeeCode,
		EmployeeName: in.EmployeeName,
		Designation:  strings.TrimSpace(in.Designation),
		Department:   strings.TrimSpace(in.Department),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.User{}, apperrors.Wrap(apperrors.CodeEmployeeCodeTaken, "Employee code already registered", err)
		}
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("account registered", zap.String("user_id", userID))
	return record, nil
}

// Login signs in with an employee code and password. Unknown codes and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, employeeCode, password string) (Session, error) {
	invalid := apperrors.New(apperrors.CodeInvalidCredentials, "Invalid employee code or password")
	employeeCode = strings.TrimSpace(employeeCode)
	if employeeCode == "" || password == "" {
		return Session{}, invalid
	}
	record, err := s.store.GetUserByEmployeeCode(ctx, employeeCode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, invalid
		}
		return Session{}, fmt.Errorf("get user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return Session{}, invalid
	}
	return s.startSession(ctx, record)
}

// Logout ends the session behind token. Invalid, expired and already
// revoked tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}
	if err := s.store.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves token to its user. The token must verify and its
// session must still exist and be unexpired.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return User{}, err
	}
	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, apperrors.New(apperrors.CodeUnauthenticated, "Session not found")
		}
		return User{}, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != claims.UserID {
		return User{}, apperrors.New(apperrors.CodeUnauthenticated, "Session does not match token")
	}
	if session.Expired(s.now()) {
		return User{}, apperrors.New(apperrors.CodeSessionExpired, "Session has expired")
	}
	record, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, apperrors.New(apperrors.CodeUnauthenticated, "User not found")
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return toUser(record), nil
}

// SessionID returns the session named by a valid token.
func (s *Service) SessionID(token string) (string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

func (s *Service) startSession(ctx context.Context, record storage.User) (Session, error) {
	sessionID, err := s.newID()
	if err != nil {
		return Session{}, fmt.Errorf("session id: %w", err)
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	if err := s.store.CreateSession(ctx, storage.Session{
		ID:        sessionID,
		UserID:    record.ID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	token, err := s.tokens.Issue(record.ID, sessionID, expiresAt)
	if err != nil {
		return Session{}, err
	}
	return Session{User: toUser(record), Token: token, ExpiresAt: expiresAt}, nil
}

func toUser(record storage.User) User {
	return User{
		ID:           record.ID,
		EmployeeCode: record.EmployeeCode,
		EmployeeName: record.EmployeeName,
		Designation:  record.Designation,
		Department:   record.Department,
	}
}
