package web

import (
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/platform/requestctx"
	"github.com/louisbranch/reimburse/internal/services/claims/account"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/httpx"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/requestmeta"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/sessioncookie"
)

type loginRequest struct {
	EmployeeCode string `json:"employee_code"`
	Password     string `json:"password"`
}

type sessionResponse struct {
	Success bool         `json:"success"`
	User    account.User `json:"user"`
	Token   string       `json:"token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	session, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.startSession(w, r, session)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	session, err := h.accounts.Login(r.Context(), in.EmployeeCode, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.startSession(w, r, session)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, session account.Session) {
	sessioncookie.Write(w, r, session.Token, session.ExpiresAt, h.scheme)
	_ = httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		User:    session.User,
		Token:   session.Token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := requestToken(r)
	if err := h.accounts.Logout(r.Context(), token); err != nil {
		h.fail(w, r, err)
		return
	}
	sessioncookie.Clear(w, r, h.scheme)
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r)
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]account.User{"user": user})
}

// requestToken prefers a bearer token over the session cookie and reports
// whether the cookie was used.
func requestToken(r *http.Request) (token string, fromCookie bool) {
	if token, ok := requestmeta.BearerToken(r); ok {
		return token, false
	}
	if token, ok := sessioncookie.Read(r); ok {
		return token, true
	}
	return "", false
}

// requireUser authenticates the request before next runs. Cookie sessions
// must prove same origin on unsafe methods; bearer tokens cannot be sent by
// a foreign page.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := requestToken(r)
		if strings.TrimSpace(token) == "" {
			h.fail(w, r, apperrors.New(apperrors.CodeUnauthenticated, "Authentication required"))
			return
		}
		if fromCookie && !requestmeta.IsSafeMethod(r.Method) && !requestmeta.HasSameOriginProof(r, h.scheme) {
			h.fail(w, r, apperrors.New(apperrors.CodeCrossOrigin, "Cross-origin request rejected"))
			return
		}
		user, err := h.accounts.Authenticate(r.Context(), token)
		if err != nil {
			if fromCookie {
				sessioncookie.Clear(w, r, h.scheme)
			}
			h.fail(w, r, err)
			return
		}
		ctx := withUser(requestctx.WithUserID(r.Context(), user.ID), user)
		next(w, r.WithContext(ctx))
	}
}
