package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestObserveRequestCountsByLabels(t *testing.T) {
	r := New()
	r.ObserveRequest("/api/drafts", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	r.ObserveRequest("/api/drafts", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	r.ObserveRequest("/api/drafts", http.MethodGet, http.StatusNotFound, time.Millisecond)

	body := scrape(t, r)
	for _, want := range []string{
		`reimburse_http_requests_total{method="GET",route="/api/drafts",status="200"} 2`,
		`reimburse_http_requests_total{method="GET",route="/api/drafts",status="404"} 1`,
		`reimburse_http_request_duration_seconds_count{route="/api/drafts"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in exposition:\n%s", want, body)
		}
	}
}

func TestSpreadsheetGenerated(t *testing.T) {
	r := New()
	r.SpreadsheetGenerated()
	r.SpreadsheetGenerated()
	if body := scrape(t, r); !strings.Contains(body, "reimburse_claim_spreadsheets_total 2") {
		t.Fatalf("expected spreadsheet counter of 2, got:\n%s", body)
	}
}

func TestObserveExtraction(t *testing.T) {
	r := New()
	r.ObserveExtraction("Hotel", 90)
	if body := scrape(t, r); !strings.Contains(body, `reimburse_receipt_confidence_count{category="Hotel"} 1`) {
		t.Fatalf("expected confidence sample in exposition, got:\n%s", body)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	r.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
	r.ObserveExtraction("Hotel", 90)
	r.SpreadsheetGenerated()
}

func TestGathererIncludesRuntimeCollectors(t *testing.T) {
	families, err := New().Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == "go_goroutines" {
			return
		}
	}
	t.Fatal("expected go_goroutines metric")
}
