package web

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/louisbranch/reimburse/internal/claim"
	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
	"github.com/louisbranch/reimburse/internal/platform/requestctx"
	"github.com/louisbranch/reimburse/internal/receipt"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/httpx"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

type extractRequest struct {
	FileName string `json:"file_name"`
	Text     string `json:"text"`
	// Section and Claim are optional: when a claim is sent back the
	// extracted row is appended to it.
	Section string       `json:"section,omitempty"`
	Claim   *claim.Claim `json:"claim,omitempty"`
}

type extractedReceipt struct {
	Category   string            `json:"category"`
	Merchant   string            `json:"merchant"`
	Amount     float64           `json:"amount"`
	Date       string            `json:"date"`
	Confidence int               `json:"confidence"`
	Details    map[string]string `json:"details"`
}

type learnRequest struct {
	MerchantName string       `json:"merchant_name"`
	Category     string       `json:"category"`
	Amount       claim.Amount `json:"amount"`
	Location     string       `json:"location"`
}

func (h *Handler) handleExtractReceipt(w http.ResponseWriter, r *http.Request) {
	var in extractRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(in.Text) == "" {
		h.fail(w, r, apperrors.New(apperrors.CodeReceiptTextMissing, "Receipt text is required"))
		return
	}
	section, err := claim.ParseSection(in.Section)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	userID := requestctx.UserIDFromContext(ctx)
	merchants, err := h.store.ListMerchants(ctx, userID)
	if err != nil {
		// Learned hints only sharpen the merchant guess.
		h.logger.Warn("list learned merchants", zap.String("user_id", userID), zap.Error(err))
	}
	result, err := h.extractor.Extract(ctx, receipt.Input{
		Text:           in.Text,
		FileName:       in.FileName,
		KnownMerchants: knownMerchants(merchants),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response := map[string]any{"extracted": toExtracted(result)}
	if in.Claim != nil {
		updated := *in.Claim
		if err := updated.ApplyReceipt(section, result); err != nil {
			h.fail(w, r, err)
			return
		}
		response["claim"] = updated
	}
	_ = httpx.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) handleLearnMerchant(w http.ResponseWriter, r *http.Request) {
	var in learnRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	name := strings.TrimSpace(in.MerchantName)
	if name == "" {
		h.fail(w, r, apperrors.New(apperrors.CodeMerchantMissing, "Merchant name is required"))
		return
	}
	err := h.store.LearnMerchant(r.Context(), storage.Merchant{
		UserID:     requestctx.UserIDFromContext(r.Context()),
		Name:       name,
		Category:   strings.TrimSpace(in.Category),
		LastAmount: in.Amount.Value().StringFixed(2),
		Location:   strings.TrimSpace(in.Location),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func knownMerchants(merchants []storage.Merchant) []receipt.KnownMerchant {
	if len(merchants) == 0 {
		return nil
	}
	known := make([]receipt.KnownMerchant, 0, len(merchants))
	for _, m := range merchants {
		known = append(known, receipt.KnownMerchant{Name: m.Name, Category: receipt.Category(m.Category)})
	}
	return known
}

func toExtracted(result receipt.Result) extractedReceipt {
	details := result.Details
	if details == nil {
		details = map[string]string{}
	}
	return extractedReceipt{
		Category:   result.Category.String(),
		Merchant:   result.Merchant,
		Amount:     result.Amount.InexactFloat64(),
		Date:       result.Date,
		Confidence: result.Confidence,
		Details:    details,
	}
}
