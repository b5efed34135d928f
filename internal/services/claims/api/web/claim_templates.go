package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/platform/requestctx"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/httpx"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

type createTemplateRequest struct {
	TemplateName string          `json:"template_name"`
	FormData     json.RawMessage `json:"form_data"`
	ReceiptsData json.RawMessage `json:"receipts_data"`
}

type templateResponse struct {
	ID           string          `json:"id"`
	TemplateName string          `json:"template_name"`
	FormData     json.RawMessage `json:"form_data,omitempty"`
	ReceiptsData json.RawMessage `json:"receipts_data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in createTemplateRequest
	if err := httpx.DecodeJSON(w, r, maxDraftBody, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	name := strings.TrimSpace(in.TemplateName)
	if name == "" {
		h.fail(w, r, apperrors.New(apperrors.CodeTemplateNameMissing, "Template name is required"))
		return
	}
	if _, err := claimFromForm(in.FormData); err != nil {
		h.fail(w, r, err)
		return
	}
	templateID, err := h.newID()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	err = h.store.CreateTemplate(r.Context(), storage.Template{
		ID:           templateID,
		UserID:       requestctx.UserIDFromContext(r.Context()),
		Name:         name,
		FormData:     string(in.FormData),
		ReceiptsData: receiptsJSON(in.ReceiptsData),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "template_id": templateID})
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListTemplates(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]templateResponse, 0, len(records))
	for _, record := range records {
		out = append(out, templateResponse{
			ID:           record.ID,
			TemplateName: record.Name,
			CreatedAt:    record.CreatedAt,
		})
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"templates": out})
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetTemplate(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, templateStoreError(err))
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"template": templateResponse{
		ID:           record.ID,
		TemplateName: record.Name,
		FormData:     json.RawMessage(record.FormData),
		ReceiptsData: json.RawMessage(record.ReceiptsData),
		CreatedAt:    record.CreatedAt,
	}})
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTemplate(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, templateStoreError(err))
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func templateStoreError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "Template not found", err)
	}
	return err
}
