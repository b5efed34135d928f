// Package receipt turns OCR text from a receipt into structured expense data.
//
// Extraction is heuristic: a category is detected from keywords and file-name
// hints, then that category's policy reads the merchant, the first amount
// pattern that matches, the first date and any declared details. A fixed
// rubric scores how much was found.
package receipt

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/reimburse/internal/platform/otel"
)

// maxMerchantRunes bounds merchant names taken from receipt text.
const maxMerchantRunes = 50

// Input is one OCR'd receipt.
type Input struct {
	Text     string
	FileName string
	// KnownMerchants are names the user has confirmed before, most used first.
	KnownMerchants []KnownMerchant
}

// KnownMerchant is a merchant name learned from a user correction.
type KnownMerchant struct {
	Name     string
	Category Category
}

// Result is the structured data read from a receipt.
type Result struct {
	Category   Category
	Merchant   string
	Amount     decimal.Decimal
	Date       string
	Confidence int
	Details    map[string]string
}

// Hook adjusts a result after the policy has run and before it is scored.
type Hook interface {
	Refine(ctx context.Context, result Result) (Result, error)
}

// Observer records extraction outcomes.
type Observer interface {
	ObserveExtraction(category string, confidence int)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHook installs a refine hook.
func WithHook(hook Hook) Option {
	return func(e *Extractor) {
		e.hook = hook
	}
}

// WithLogger sets the logger used for hook failures and policy reloads.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver records every extraction's confidence.
func WithObserver(observer Observer) Option {
	return func(e *Extractor) {
		e.observer = observer
	}
}

// Extractor applies a policy set to receipts. It is safe for concurrent use;
// the policy set can be swapped while extractions are running.
type Extractor struct {
	policies atomic.Pointer[PolicySet]
	hook     Hook
	observer Observer
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewExtractor builds an extractor over policies, or the built-in policies
// when nil.
func NewExtractor(policies *PolicySet, opts ...Option) *Extractor {
	if policies == nil {
		policies = DefaultPolicies()
	}
	e := &Extractor{
		logger: zap.NewNop(),
		tracer: otel.Tracer("github.com/louisbranch/reimburse/internal/receipt"),
	}
	e.policies.Store(policies)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policies returns the active policy set.
func (e *Extractor) Policies() *PolicySet {
	return e.policies.Load()
}

// SetPolicies swaps the active policy set. Nil is ignored.
func (e *Extractor) SetPolicies(policies *PolicySet) {
	if policies != nil {
		e.policies.Store(policies)
	}
}

// Extract reads in with the active policies. The only error is a done context.
func (e *Extractor) Extract(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ctx, span := e.tracer.Start(ctx, "receipt.Extract")
	defer span.End()

	set := e.policies.Load()
	result := set.apply(in)

	if e.hook != nil {
		refined, err := e.hook.Refine(ctx, result)
		if err != nil {
			e.logger.Warn("refine hook failed",
				zap.String("category", result.Category.String()),
				zap.Error(err))
		} else {
			result = normalize(refined)
		}
	}
	result.Confidence = Confidence(result)

	span.SetAttributes(
		attribute.String("receipt.category", result.Category.String()),
		attribute.Int("receipt.confidence", result.Confidence),
	)
	if e.observer != nil {
		e.observer.ObserveExtraction(result.Category.String(), result.Confidence)
	}
	return result, nil
}

func (s *PolicySet) apply(in Input) Result {
	lines := Lines(in.Text)

	policy := s.detect(in.Text, in.FileName)
	merchant := ""
	if known, ok := matchKnown(in.Text, in.KnownMerchants); ok {
		if p, declared := s.byName[known.Category]; declared {
			policy = p
		}
		merchant = truncateRunes(known.Name, maxMerchantRunes)
	} else if len(lines) > 0 {
		merchant = policy.merchant(in.Text, lines)
	}

	return Result{
		Category: policy.category,
		Merchant: merchant,
		Amount:   policy.amount(in.Text),
		Date:     firstCapture(s.date, in.Text),
		Details:  policy.readDetails(in.Text),
	}
}

// minKnownMerchantRunes keeps very short learned names from matching
// everywhere.
const minKnownMerchantRunes = 3

func matchKnown(text string, known []KnownMerchant) (KnownMerchant, bool) {
	if len(known) == 0 {
		return KnownMerchant{}, false
	}
	lower := strings.ToLower(text)
	for _, merchant := range known {
		name := strings.TrimSpace(merchant.Name)
		if utf8.RuneCountInString(name) < minKnownMerchantRunes {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			merchant.Name = name
			return merchant, true
		}
	}
	return KnownMerchant{}, false
}

func (p *compiledPolicy) merchant(text string, lines []string) string {
	if p.fixed != "" {
		for _, known := range p.known {
			if known.pattern.MatchString(text) {
				return known.name
			}
		}
		return p.fixed
	}
	n := min(p.lines, len(lines))
	return truncateRunes(strings.Join(lines[:n], " "), maxMerchantRunes)
}

func (p *compiledPolicy) amount(text string) decimal.Decimal {
	for _, re := range p.amounts {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if value, ok := parseAmount(match[1]); ok {
			return value
		}
	}
	if p.largest == nil {
		return decimal.Zero
	}
	largest := decimal.Zero
	for _, match := range p.largest.FindAllStringSubmatch(text, -1) {
		value, ok := parseAmount(match[1])
		if ok && value.GreaterThan(p.minAmount) && value.GreaterThan(largest) {
			largest = value
		}
	}
	return largest
}

func (p *compiledPolicy) readDetails(text string) map[string]string {
	details := make(map[string]string, len(p.details))
	for _, detail := range p.details {
		value := detail.fallback
		if detail.pattern != nil {
			if match := firstCapture(detail.pattern, text); match != "" {
				value = match
			}
		}
		details[detail.name] = value
	}
	return details
}

// parseAmount reads a captured number with thousands separators removed.
// Captures that hold no digits do not parse.
func parseAmount(raw string) (decimal.Decimal, bool) {
	value := strings.ReplaceAll(raw, ",", "")
	value = strings.TrimSuffix(value, ".")
	if value == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(value)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount, true
}

func firstCapture(re *regexp.Regexp, text string) string {
	match := re.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// normalize restores invariants a hook may have broken.
func normalize(result Result) Result {
	if result.Amount.IsNegative() {
		result.Amount = decimal.Zero
	}
	if result.Details == nil {
		result.Details = map[string]string{}
	}
	result.Merchant = truncateRunes(result.Merchant, maxMerchantRunes)
	return result
}

// Lines splits text on newlines, trims each line and drops empty ones.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Confidence scores a result out of 100: 30 for a merchant longer than three
// characters, 40 for a positive amount, 20 for a date and 10 for any details.
func Confidence(result Result) int {
	score := 0
	if len([]rune(result.Merchant)) > 3 {
		score += 30
	}
	if result.Amount.IsPositive() {
		score += 40
	}
	if result.Date != "" {
		score += 20
	}
	if len(result.Details) > 0 {
		score += 10
	}
	return min(score, 100)
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
