// Package storage defines persistence contracts for the claims service.
package storage

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/services/claims/filter"
)

var (
	// ErrNotFound indicates a requested record is missing or belongs to
	// another user.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// DefaultDraftName is used when a draft is saved without a name. The browser
// autosaves under it, so repeated autosaves replace one row.
const DefaultDraftName = "auto_save"

// User is an employee account.
type User struct {
	ID           string
	EmployeeCode string
	EmployeeName string
	Designation  string
	Department   string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is one signed-in browser or client.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Draft is a saved, possibly incomplete claim. FormData and ReceiptsData are
// raw JSON documents owned by the client.
type Draft struct {
	ID           string
	UserID       string
	Name         string
	FormData     string
	ReceiptsData string
	GrandTotal   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DraftSummary is a draft listing row without its payload.
type DraftSummary struct {
	ID         string
	Name       string
	GrandTotal string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Template is a reusable claim skeleton.
type Template struct {
	ID           string
	UserID       string
	Name         string
	FormData     string
	ReceiptsData string
	CreatedAt    time.Time
}

// Merchant is a merchant name learned from a user's corrections.
type Merchant struct {
	UserID     string
	Name       string
	Category   string
	LastAmount string
	Location   string
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserStore persists employee accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, userID string) (User, error)
	GetUserByEmployeeCode(ctx context.Context, code string) (User, error)
}

// SessionStore persists sign-in sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, sessionID string) (Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// DraftStore persists claim drafts.
type DraftStore interface {
	SaveDraft(ctx context.Context, d Draft) (Draft, error)
	GetDraft(ctx context.Context, userID, draftID string) (Draft, error)
	ListDrafts(ctx context.Context, userID string, cond filter.SQLCondition) ([]DraftSummary, error)
	DeleteDraft(ctx context.Context, userID, draftID string) error
}

// TemplateStore persists claim templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t Template) error
	GetTemplate(ctx context.Context, userID, templateID string) (Template, error)
	ListTemplates(ctx context.Context, userID string) ([]Template, error)
	DeleteTemplate(ctx context.Context, userID, templateID string) error
}

// MerchantStore persists learned merchants.
type MerchantStore interface {
	LearnMerchant(ctx context.Context, m Merchant) error
	ListMerchants(ctx context.Context, userID string) ([]Merchant, error)
}

// Store is every claims persistence contract in one handle.
type Store interface {
	UserStore
	SessionStore
	DraftStore
	TemplateStore
	MerchantStore
}
