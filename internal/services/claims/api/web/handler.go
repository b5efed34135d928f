// Package web serves the claims JSON API, the HTML shell page and the
// embedded browser client.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/louisbranch/reimburse/internal/claim/sheet"
	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/platform/id"
	"github.com/louisbranch/reimburse/internal/platform/telemetry/metrics"
	"github.com/louisbranch/reimburse/internal/receipt"
	"github.com/louisbranch/reimburse/internal/services/claims/account"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/httpx"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/requestmeta"
	"github.com/louisbranch/reimburse/internal/services/claims/static"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
	"github.com/louisbranch/reimburse/internal/services/claims/templates"
)

// Body limits. Drafts carry receipt images as data URLs.
const (
	maxJSONBody  = 1 << 20
	maxDraftBody = 16 << 20
)

// Accounts signs employees in and resolves session tokens.
type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (account.Session, error)
	Login(ctx context.Context, employeeCode, password string) (account.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (account.User, error)
}

// Extractor reads receipts.
type Extractor interface {
	Extract(ctx context.Context, in receipt.Input) (receipt.Result, error)
}

// Store is the persistence the API needs beyond accounts.
type Store interface {
	storage.DraftStore
	storage.TemplateStore
	storage.MerchantStore
}

// Config wires a Handler.
type Config struct {
	Accounts  Accounts
	Store     Store
	Extractor Extractor
	// Company is printed on generated spreadsheets.
	Company sheet.Company
	Metrics *metrics.Registry
	Logger  *zap.Logger
	Scheme  requestmeta.SchemePolicy
	// AssetVersion is appended to client asset URLs.
	AssetVersion string
}

// Handler serves every claims route.
type Handler struct {
	accounts  Accounts
	store     Store
	extractor Extractor
	company   sheet.Company
	metrics   *metrics.Registry
	logger    *zap.Logger
	scheme    requestmeta.SchemePolicy
	page      templates.Page
	newID     func() (string, error)
}

// NewHandler validates cfg and builds a Handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Accounts == nil {
		return nil, fmt.Errorf("accounts are required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	company := cfg.Company
	if company == (sheet.Company{}) {
		company = sheet.DefaultCompany()
	}
	return &Handler{
		accounts:  cfg.Accounts,
		store:     cfg.Store,
		extractor: cfg.Extractor,
		company:   company,
		metrics:   cfg.Metrics,
		logger:    logger,
		scheme:    cfg.Scheme,
		page: templates.Page{
			CompanyName:  company.Name,
			AssetVersion: cfg.AssetVersion,
		},
		newID: id.NewID,
	}, nil
}

// Routes returns the full route table wrapped in the request middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", templ.Handler(templates.ClaimPage(h.page)))
	mux.Handle("GET /static/", http.StripPrefix("/static/", static.Handler()))
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.requireUser(h.handleLogout))
	mux.HandleFunc("GET /api/auth/me", h.requireUser(h.handleMe))

	mux.HandleFunc("POST /api/drafts", h.requireUser(h.handleSaveDraft))
	mux.HandleFunc("GET /api/drafts", h.requireUser(h.handleListDrafts))
	mux.HandleFunc("GET /api/drafts/{id}", h.requireUser(h.handleGetDraft))
	mux.HandleFunc("DELETE /api/drafts/{id}", h.requireUser(h.handleDeleteDraft))

	mux.HandleFunc("POST /api/templates", h.requireUser(h.handleCreateTemplate))
	mux.HandleFunc("GET /api/templates", h.requireUser(h.handleListTemplates))
	mux.HandleFunc("GET /api/templates/{id}", h.requireUser(h.handleGetTemplate))
	mux.HandleFunc("DELETE /api/templates/{id}", h.requireUser(h.handleDeleteTemplate))

	mux.HandleFunc("POST /api/receipts/extract", h.requireUser(h.handleExtractReceipt))
	mux.HandleFunc("POST /api/ocr/learn", h.requireUser(h.handleLearnMerchant))

	mux.HandleFunc("POST /api/claims/totals", h.requireUser(h.handleClaimTotals))
	mux.HandleFunc("POST /api/generate-excel", h.requireUser(h.handleGenerateExcel))

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.Observe(h.logger, h.metrics),
		httpx.RecoverPanic(h.logger),
	)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail writes err and logs it when it is not a domain error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(httpx.RequestIDHeader)),
			zap.Error(err),
		)
	}
	httpx.WriteError(w, err)
}
