package receipt

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const uberReceipt = "Your trip with Uber\nFare: ₹ 350.50\n12/05/24"

func TestScriptHookRefinesResult(t *testing.T) {
	hook, err := NewScriptHook(`
function refine(r)
  if r.merchant == "Uber" then
    r.details.from = "Airport"
    r.details.km = 12
    r.amount = r.amount + 50
  end
  return r
end
`)
	if err != nil {
		t.Fatalf("new script hook: %v", err)
	}

	got, err := NewExtractor(nil, WithHook(hook)).Extract(context.Background(), Input{Text: uberReceipt})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !got.Amount.Equal(amount("400.5")) {
		t.Fatalf("amount = %s, want 400.5", got.Amount)
	}
	if got.Details["from"] != "Airport" || got.Details["km"] != "12" {
		t.Fatalf("details = %v", got.Details)
	}
	if got.Details["to"] != "" {
		t.Fatalf("expected to to stay empty, got %q", got.Details["to"])
	}
	if got.Confidence != 100 {
		t.Fatalf("confidence = %d, want 100", got.Confidence)
	}
}

func TestScriptHookNilKeepsResult(t *testing.T) {
	hook, err := NewScriptHook(`function refine(r) return nil end`)
	if err != nil {
		t.Fatalf("new script hook: %v", err)
	}
	base := Result{Category: CategoryTaxi, Merchant: "Uber", Amount: amount("350.50")}
	got, err := hook.Refine(context.Background(), base)
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if got.Merchant != "Uber" || !got.Amount.Equal(base.Amount) {
		t.Fatalf("unexpected change: %+v", got)
	}
}

func TestScriptHookUnchangedAmountKeepsPrecision(t *testing.T) {
	hook, err := NewScriptHook(`function refine(r) r.category = "Restaurant" return r end`)
	if err != nil {
		t.Fatalf("new script hook: %v", err)
	}
	base := Result{Category: CategoryGeneral, Amount: amount("0.10")}
	got, err := hook.Refine(context.Background(), base)
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if got.Category != CategoryRestaurant {
		t.Fatalf("category = %q", got.Category)
	}
	if got.Amount.String() != base.Amount.String() {
		t.Fatalf("amount = %s, want %s", got.Amount, base.Amount)
	}
}

func TestScriptHookErrorsLeaveResultUnchanged(t *testing.T) {
	hook, err := NewScriptHook(`function refine(r) error("boom") end`)
	if err != nil {
		t.Fatalf("new script hook: %v", err)
	}
	got, err := NewExtractor(nil, WithHook(hook)).Extract(context.Background(), Input{Text: uberReceipt})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Merchant != "Uber" || got.Confidence != 100 {
		t.Fatalf("unexpected result after failing hook: %+v", got)
	}

	if _, err := hook.Refine(context.Background(), Result{}); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestScriptHookRejectsNonTableReturn(t *testing.T) {
	hook, err := NewScriptHook(`function refine(r) return 42 end`)
	if err != nil {
		t.Fatalf("new script hook: %v", err)
	}
	if _, err := hook.Refine(context.Background(), Result{}); err == nil {
		t.Fatal("expected error for non-table return")
	}
}

const loopingRefine = `function refine(r)
	if r.merchant == "loop" then
		while true do end
	end
	r.date = "01/01/2024"
	return r
end`

func TestScriptHookStopsRunawayRefine(t *testing.T) {
	hook, err := NewScriptHook(loopingRefine)
	if err != nil {
		t.Fatalf("new script hook: %v", err)
	}
	hook.maxSteps = 100_000

	base := Result{Merchant: "loop", Date: "05/05/2024"}
	got, err := hook.Refine(context.Background(), base)
	if !errors.Is(err, ErrRefineBudget) {
		t.Fatalf("err = %v, want %v", err, ErrRefineBudget)
	}
	if got.Date != base.Date {
		t.Fatalf("date = %q, want unchanged %q", got.Date, base.Date)
	}

	got, err = hook.Refine(context.Background(), Result{Merchant: "Uber"})
	if err != nil {
		t.Fatalf("refine after budget stop: %v", err)
	}
	if got.Date != "01/01/2024" {
		t.Fatalf("date = %q, want 01/01/2024", got.Date)
	}
}

func TestScriptHookStopsOnContextDone(t *testing.T) {
	hook, err := NewScriptHook(loopingRefine)
	if err != nil {
		t.Fatalf("new script hook: %v", err)
	}
	hook.maxSteps = math.MaxInt

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := hook.Refine(ctx, Result{Merchant: "loop"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestNewScriptHookRequiresRefine(t *testing.T) {
	if _, err := NewScriptHook(`local x = 1`); err == nil {
		t.Fatal("expected error when refine is missing")
	}
	if _, err := NewScriptHook(`function refine(`); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refine.lua")
	if err := os.WriteFile(path, []byte(`function refine(r) r.date = "01/01/2024" return r end`), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	hook, err := LoadScript(path)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	got, err := hook.Refine(context.Background(), Result{})
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if got.Date != "01/01/2024" {
		t.Fatalf("date = %q", got.Date)
	}

	if _, err := LoadScript(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Fatal("expected error for missing script")
	}
}
