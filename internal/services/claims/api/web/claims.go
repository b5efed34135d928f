package web

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/louisbranch/reimburse/internal/claim"
	"github.com/louisbranch/reimburse/internal/claim/sheet"
	"github.com/louisbranch/reimburse/internal/platform/otel"
	"github.com/louisbranch/reimburse/internal/platform/requestctx"
	"github.com/louisbranch/reimburse/internal/services/claims/platform/httpx"
)

var tracer = otel.Tracer("github.com/louisbranch/reimburse/internal/services/claims/api/web")

type sectionTotals struct {
	Journeys      string `json:"journeys"`
	Hotels        string `json:"hotels"`
	Conveyance    string `json:"conveyance"`
	DAClaimed     string `json:"da_claimed"`
	OtherExpenses string `json:"other_expenses"`
}

type totalsDisplay struct {
	GrandTotal string `json:"grand_total"`
}

type totalsResponse struct {
	Totals        sectionTotals `json:"totals"`
	GrandTotal    string        `json:"grand_total"`
	AmountInWords string        `json:"amount_in_words"`
	Display       totalsDisplay `json:"display"`
}

func (h *Handler) handleClaimTotals(w http.ResponseWriter, r *http.Request) {
	var c claim.Claim
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	totals := c.Totals()
	_ = httpx.WriteJSON(w, http.StatusOK, totalsResponse{
		Totals: sectionTotals{
			Journeys:      fixed(totals.Journeys),
			Hotels:        fixed(totals.Hotels),
			Conveyance:    fixed(totals.Conveyance),
			DAClaimed:     fixed(totals.DailyAllowance),
			OtherExpenses: fixed(totals.Other),
		},
		GrandTotal:    fixed(totals.Grand),
		AmountInWords: c.Words(),
		Display:       totalsDisplay{GrandTotal: claim.DisplayRupees(totals.Grand)},
	})
}

func (h *Handler) handleGenerateExcel(w http.ResponseWriter, r *http.Request) {
	var c claim.Claim
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &c); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, span := tracer.Start(r.Context(), "claims.GenerateSpreadsheet")
	defer span.End()

	buf, err := sheet.Render(c, sheet.Options{Company: h.company})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render spreadsheet")
		h.fail(w, r.WithContext(ctx), err)
		return
	}
	span.SetAttributes(attribute.Int("sheet.bytes", buf.Len()))
	h.metrics.SpreadsheetGenerated()
	h.logger.Info("spreadsheet generated",
		zap.String("user_id", requestctx.UserIDFromContext(ctx)),
		zap.String("period", c.PeriodOfClaim),
		zap.Int("bytes", buf.Len()),
	)

	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": sheet.Filename(c)}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
