package receipt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func amount(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestExtractByCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		expected Result
	}{
		{
			name: "gst invoice",
			input: Input{Text: strings.Join([]string{
				"ABC Traders Pvt Ltd",
				"12 MG Road",
				"Bengaluru",
				"GSTIN: 29ABCDE1234F1Z5",
				"Tax Invoice No: INV-2024/001",
				"Date: 15/03/2024",
				"Total: ₹1,180.00",
			}, "\n")},
			expected: Result{
				Category:   CategoryGSTInvoice,
				Merchant:   "ABC Traders Pvt Ltd 12 MG Road Bengaluru",
				Amount:     amount("1180"),
				Date:       "15/03/2024",
				Confidence: 100,
				Details: map[string]string{
					"invoiceNo": "INV-2024/001",
					"gstin":     "29ABCDE1234F1Z5",
					"tax":       "0",
				},
			},
		},
		{
			name: "hotel uses room charge when no total",
			input: Input{Text: strings.Join([]string{
				"Hotel Grand Palace",
				"  Connaught Place, New Delhi  ",
				"",
				"Room Charge: 4,500",
				"Check-in 01-04-2024",
			}, "\n")},
			expected: Result{
				Category:   CategoryHotel,
				Merchant:   "Hotel Grand Palace Connaught Place, New Delhi",
				Amount:     amount("4500"),
				Date:       "01-04-2024",
				Confidence: 100,
				Details:    map[string]string{"nights": "0", "roomType": ""},
			},
		},
		{
			name:  "taxi names uber",
			input: Input{Text: "Your trip with Uber\nFare: ₹ 350.50\n12/05/24"},
			expected: Result{
				Category:   CategoryTaxi,
				Merchant:   "Uber",
				Amount:     amount("350.50"),
				Date:       "12/05/24",
				Confidence: 100,
				Details:    map[string]string{"from": "", "to": ""},
			},
		},
		{
			name:  "ola needs a word boundary",
			input: Input{Text: "Chocolate shop\nTotal 250"},
			expected: Result{
				Category:   CategoryGeneral,
				Merchant:   "Chocolate shop",
				Amount:     amount("250"),
				Confidence: 70,
				Details:    map[string]string{},
			},
		},
		{
			name:  "ola ride",
			input: Input{Text: "Ola ride receipt\nTotal: 180"},
			expected: Result{
				Category:   CategoryTaxi,
				Merchant:   "Ola",
				Amount:     amount("180"),
				Confidence: 80,
				Details:    map[string]string{"from": "", "to": ""},
			},
		},
		{
			name:  "file hint without text",
			input: Input{FileName: "Cab_Receipt.JPG"},
			expected: Result{
				Category:   CategoryTaxi,
				Amount:     decimal.Zero,
				Confidence: 10,
				Details:    map[string]string{"from": "", "to": ""},
			},
		},
		{
			name:  "restaurant net amount",
			input: Input{Text: "Cafe Mocha\nNet Amount 420\n"},
			expected: Result{
				Category:   CategoryRestaurant,
				Merchant:   "Cafe Mocha",
				Amount:     amount("420"),
				Confidence: 70,
				Details:    map[string]string{},
			},
		},
		{
			name:  "first matching pattern wins even on subtotal",
			input: Input{Text: "Cafe Mocha\nSubtotal 200\nGrand Total: 236.00"},
			expected: Result{
				Category:   CategoryRestaurant,
				Merchant:   "Cafe Mocha",
				Amount:     amount("200"),
				Confidence: 70,
				Details:    map[string]string{},
			},
		},
		{
			name:  "general takes largest amount above ten",
			input: Input{Text: "Stationery Mart\nQty 2\nPaid ₹1,250.75\nRef 99"},
			expected: Result{
				Category:   CategoryGeneral,
				Merchant:   "Stationery Mart",
				Amount:     amount("1250.75"),
				Confidence: 70,
				Details:    map[string]string{},
			},
		},
		{
			name:  "unparseable capture falls through",
			input: Input{Text: "GST bill\nTotal: ,\nAmount: 99"},
			expected: Result{
				Category:   CategoryGSTInvoice,
				Merchant:   "GST bill Total: , Amount: 99",
				Amount:     amount("99"),
				Confidence: 80,
				Details:    map[string]string{"invoiceNo": "", "gstin": "", "tax": "0"},
			},
		},
		{
			name: "empty text",
			expected: Result{
				Category: CategoryGeneral,
				Amount:   decimal.Zero,
				Details:  map[string]string{},
			},
		},
	}

	extractor := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.Extract(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got, decimalEqual); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractTruncatesMerchant(t *testing.T) {
	line := strings.Repeat("Ü", 60)
	got, err := NewExtractor(nil).Extract(context.Background(), Input{Text: line + "\n500"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n := len([]rune(got.Merchant)); n != 50 {
		t.Fatalf("merchant has %d runes, want 50", n)
	}
}

func TestExtractKnownMerchantOverridesDetection(t *testing.T) {
	in := Input{
		Text: "HALDIRAM SNACKS\nTotal 540\n12/02/2024",
		KnownMerchants: []KnownMerchant{
			{Name: "xy", Category: CategoryTaxi},
			{Name: "Haldiram", Category: CategoryRestaurant},
		},
	}
	got, err := NewExtractor(nil).Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Category != CategoryRestaurant || got.Merchant != "Haldiram" {
		t.Fatalf("got category %q merchant %q", got.Category, got.Merchant)
	}
	if !got.Amount.Equal(amount("540")) {
		t.Fatalf("amount = %s, want 540", got.Amount)
	}
	if got.Confidence != 90 {
		t.Fatalf("confidence = %d, want 90", got.Confidence)
	}
}

func TestExtractKnownMerchantWithUnknownCategoryKeepsDetection(t *testing.T) {
	in := Input{
		Text:           "Hotel Sunrise\nTotal 900",
		KnownMerchants: []KnownMerchant{{Name: "Sunrise", Category: "Spa"}},
	}
	got, err := NewExtractor(nil).Extract(context.Background(), in)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Category != CategoryHotel || got.Merchant != "Sunrise" {
		t.Fatalf("got category %q merchant %q", got.Category, got.Merchant)
	}
}

func TestMatchKnownCountsRunes(t *testing.T) {
	text := "पान भंडार\nकुल 120"
	if got, ok := matchKnown(text, []KnownMerchant{{Name: "पा", Category: CategoryRestaurant}}); ok {
		t.Fatalf("two-rune name matched: %+v", got)
	}
	got, ok := matchKnown(text, []KnownMerchant{{Name: " पान ", Category: CategoryRestaurant}})
	if !ok || got.Name != "पान" {
		t.Fatalf("got %+v ok=%v, want पान", got, ok)
	}
}

func TestExtractHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExtractor(nil).Extract(ctx, Input{Text: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

type recordingObserver struct {
	mu         sync.Mutex
	categories []string
	scores     []int
}

func (o *recordingObserver) ObserveExtraction(category string, confidence int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.categories = append(o.categories, category)
	o.scores = append(o.scores, confidence)
}

func TestExtractReportsToObserver(t *testing.T) {
	observer := &recordingObserver{}
	extractor := NewExtractor(nil, WithObserver(observer))
	if _, err := extractor.Extract(context.Background(), Input{Text: "Cafe Mocha\nTotal 420"}); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if diff := cmp.Diff([]string{"Restaurant"}, observer.categories); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{70}, observer.scores); diff != "" {
		t.Fatalf("scores (-want +got):\n%s", diff)
	}
}

type stubHook struct {
	refine func(Result) (Result, error)
}

func (h stubHook) Refine(_ context.Context, r Result) (Result, error) {
	return h.refine(r)
}

func TestExtractHookFailureKeepsResult(t *testing.T) {
	hook := stubHook{refine: func(r Result) (Result, error) {
		r.Merchant = "changed"
		return r, errors.New("boom")
	}}
	got, err := NewExtractor(nil, WithHook(hook)).Extract(context.Background(), Input{Text: "Cafe Mocha\nTotal 420"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Merchant != "Cafe Mocha" {
		t.Fatalf("merchant = %q, want unchanged", got.Merchant)
	}
}

func TestExtractRescoresAfterHook(t *testing.T) {
	hook := stubHook{refine: func(r Result) (Result, error) {
		r.Amount = amount("-5")
		r.Date = "01/01/2025"
		r.Details = nil
		return r, nil
	}}
	got, err := NewExtractor(nil, WithHook(hook)).Extract(context.Background(), Input{Text: "Cafe Mocha\nTotal 420"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !got.Amount.IsZero() {
		t.Fatalf("amount = %s, want zero after negative hook output", got.Amount)
	}
	if got.Details == nil {
		t.Fatal("expected details map to be restored")
	}
	if got.Confidence != 50 {
		t.Fatalf("confidence = %d, want 50", got.Confidence)
	}
}

func TestSetPoliciesIgnoresNil(t *testing.T) {
	extractor := NewExtractor(nil)
	before := extractor.Policies()
	extractor.SetPolicies(nil)
	if extractor.Policies() != before {
		t.Fatal("nil policy set should not replace the active set")
	}
}

func TestLines(t *testing.T) {
	got := Lines("  first \n\n\t\nsecond\r\n third")
	want := []string{"first", "second", "third"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Lines (-want +got):\n%s", diff)
	}
	if got := Lines(""); len(got) != 0 {
		t.Fatalf("expected no lines, got %v", got)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   int
	}{
		{name: "empty", want: 0},
		{name: "short merchant", result: Result{Merchant: "Abc"}, want: 0},
		{name: "merchant", result: Result{Merchant: "Abcd"}, want: 30},
		{name: "amount", result: Result{Amount: amount("0.01")}, want: 40},
		{name: "date", result: Result{Date: "1/1/24"}, want: 20},
		{name: "details", result: Result{Details: map[string]string{"tax": ""}}, want: 10},
		{name: "empty details map", result: Result{Details: map[string]string{}}, want: 0},
		{
			name: "everything",
			result: Result{
				Merchant: "Uber",
				Amount:   amount("10"),
				Date:     "1/1/24",
				Details:  map[string]string{"from": ""},
			},
			want: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confidence(tt.result); got != tt.want {
				t.Fatalf("Confidence() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "1,234.50", want: "1234.5", ok: true},
		{raw: "1234.", want: "1234", ok: true},
		{raw: "007", want: "7", ok: true},
		{raw: ",", ok: false},
		{raw: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.raw)
		if ok != tt.ok {
			t.Fatalf("parseAmount(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
		}
		if ok && !got.Equal(amount(tt.want)) {
			t.Fatalf("parseAmount(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}
