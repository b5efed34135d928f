package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/reimburse/internal/claim"
	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/platform/requestctx"
	"github.com/louisbranch/reimburse/internal/services/claims/filter"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/httpx"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

type saveDraftRequest struct {
	DraftName    string          `json:"draft_name"`
	DraftID      string          `json:"draft_id"`
	FormData     json.RawMessage `json:"form_data"`
	ReceiptsData json.RawMessage `json:"receipts_data"`
}

type draftSummary struct {
	ID         string    `json:"id"`
	DraftName  string    `json:"draft_name"`
	GrandTotal string    `json:"grand_total"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type draftResponse struct {
	ID           string          `json:"id"`
	DraftName    string          `json:"draft_name"`
	FormData     json.RawMessage `json:"form_data"`
	ReceiptsData json.RawMessage `json:"receipts_data"`
	GrandTotal   string          `json:"grand_total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var in saveDraftRequest
	if err := httpx.DecodeJSON(w, r, maxDraftBody, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	form, err := claimFromForm(in.FormData)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	draft, err := h.store.SaveDraft(r.Context(), storage.Draft{
		ID:           strings.TrimSpace(in.DraftID),
		UserID:       requestctx.UserIDFromContext(r.Context()),
		Name:         strings.TrimSpace(in.DraftName),
		FormData:     string(in.FormData),
		ReceiptsData: receiptsJSON(in.ReceiptsData),
		GrandTotal:   form.Totals().Grand.StringFixed(2),
	})
	if err != nil {
		h.fail(w, r, draftStoreError(err))
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "draft_id": draft.ID})
}

func (h *Handler) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	cond, err := filter.ParseDraftFilter(r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	drafts, err := h.store.ListDrafts(r.Context(), requestctx.UserIDFromContext(r.Context()), cond)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]draftSummary, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, draftSummary{
			ID:         d.ID,
			DraftName:  d.Name,
			GrandTotal: d.GrandTotal,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"drafts": out})
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.store.GetDraft(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, draftStoreError(err))
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"draft": draftResponse{
		ID:           draft.ID,
		DraftName:    draft.Name,
		FormData:     json.RawMessage(draft.FormData),
		ReceiptsData: json.RawMessage(draft.ReceiptsData),
		GrandTotal:   draft.GrandTotal,
		CreatedAt:    draft.CreatedAt,
		UpdatedAt:    draft.UpdatedAt,
	}})
}

func (h *Handler) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteDraft(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, draftStoreError(err))
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// claimFromForm requires a JSON object and reads it as a claim. Fields the
// claim does not know are kept in the stored document but ignored here.
func claimFromForm(raw json.RawMessage) (claim.Claim, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return claim.Claim{}, apperrors.New(apperrors.CodeDraftDataMissing, "Form data is required")
	}
	var form claim.Claim
	if err := json.Unmarshal(trimmed, &form); err != nil {
		return claim.Claim{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Form data must be a claim object", err)
	}
	return form, nil
}

func receiptsJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "[]"
	}
	return string(trimmed)
}

func draftStoreError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, "Draft not found", err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.Wrap(apperrors.CodeDraftNameTaken, "A draft with this name already exists", err)
	default:
		return err
	}
}
