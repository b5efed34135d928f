package receipt

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed policies.yaml
var defaultPolicies []byte

// PolicyFile is the YAML document holding every extraction policy.
type PolicyFile struct {
	DatePattern string   `yaml:"date_pattern"`
	Fallback    Category `yaml:"fallback"`
	Policies    []Policy `yaml:"policies"`
}

// Policy describes how receipts of one category are recognised and read.
type Policy struct {
	Category       Category       `yaml:"category"`
	Keywords       []string       `yaml:"keywords"`
	FileHints      []string       `yaml:"file_hints"`
	Merchant       MerchantRule   `yaml:"merchant"`
	AmountPatterns []string       `yaml:"amount_patterns"`
	LargestAmount  *LargestAmount `yaml:"largest_amount"`
	Details        []DetailRule   `yaml:"details"`
}

// MerchantRule names the merchant either from the leading lines of the
// receipt or from a fixed label with optional keyword overrides.
type MerchantRule struct {
	Lines int         `yaml:"lines"`
	Fixed string      `yaml:"fixed"`
	Known []KnownName `yaml:"known"`
}

// KnownName replaces a fixed merchant label when Pattern matches the text.
type KnownName struct {
	Pattern string `yaml:"pattern"`
	Name    string `yaml:"name"`
}

// LargestAmount scans every number in the text and keeps the largest one
// strictly above MinAmount.
type LargestAmount struct {
	Pattern   string `yaml:"pattern"`
	MinAmount string `yaml:"min_amount"`
}

// DetailRule declares a category-specific detail. The key is always present
// in results; Default is used when Pattern is empty or does not match.
type DetailRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Default string `yaml:"default"`
}

// PolicySet is a compiled, immutable set of policies safe for concurrent use.
type PolicySet struct {
	ordered  []*compiledPolicy
	fallback *compiledPolicy
	byName   map[Category]*compiledPolicy
	date     *regexp.Regexp
}

type compiledPolicy struct {
	category  Category
	keywords  []*regexp.Regexp
	fileHints []string
	lines     int
	fixed     string
	known     []compiledKnown
	amounts   []*regexp.Regexp
	largest   *regexp.Regexp
	minAmount decimal.Decimal
	details   []compiledDetail
}

type compiledKnown struct {
	pattern *regexp.Regexp
	name    string
}

type compiledDetail struct {
	name     string
	pattern  *regexp.Regexp
	fallback string
}

// DefaultPolicies returns the built-in policy set.
func DefaultPolicies() *PolicySet {
	set, err := LoadPolicies(bytes.NewReader(defaultPolicies))
	if err != nil {
		panic(fmt.Sprintf("receipt: built-in policies: %v", err))
	}
	return set
}

// LoadPolicyFile reads and compiles a policy file from disk.
func LoadPolicyFile(path string) (*PolicySet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy file: %w", err)
	}
	defer file.Close()
	set, err := LoadPolicies(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadPolicies decodes and compiles a YAML policy document.
func LoadPolicies(r io.Reader) (*PolicySet, error) {
	var doc PolicyFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode policies: %w", err)
	}
	return Compile(doc)
}

// Compile validates a decoded policy document.
func Compile(doc PolicyFile) (*PolicySet, error) {
	if len(doc.Policies) == 0 {
		return nil, fmt.Errorf("no policies declared")
	}
	datePattern := strings.TrimSpace(doc.DatePattern)
	if datePattern == "" {
		return nil, fmt.Errorf("date_pattern is required")
	}
	date, err := compileCapture(datePattern)
	if err != nil {
		return nil, fmt.Errorf("date_pattern: %w", err)
	}

	set := &PolicySet{
		byName: make(map[Category]*compiledPolicy, len(doc.Policies)),
		date:   date,
	}
	for i, policy := range doc.Policies {
		compiled, err := compilePolicy(policy)
		if err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i, policy.Category, err)
		}
		if _, dup := set.byName[compiled.category]; dup {
			return nil, fmt.Errorf("policy %d: duplicate category %q", i, compiled.category)
		}
		set.byName[compiled.category] = compiled
		if compiled.category == doc.Fallback {
			set.fallback = compiled
			continue
		}
		set.ordered = append(set.ordered, compiled)
	}
	if set.fallback == nil {
		return nil, fmt.Errorf("fallback category %q has no policy", doc.Fallback)
	}
	return set, nil
}

func compilePolicy(policy Policy) (*compiledPolicy, error) {
	category := Category(strings.TrimSpace(string(policy.Category)))
	if category == "" {
		return nil, fmt.Errorf("category is required")
	}
	compiled := &compiledPolicy{
		category: category,
		lines:    policy.Merchant.Lines,
		fixed:    policy.Merchant.Fixed,
	}
	if compiled.lines < 0 {
		return nil, fmt.Errorf("merchant lines must not be negative")
	}
	if compiled.lines == 0 && compiled.fixed == "" {
		return nil, fmt.Errorf("merchant needs lines or fixed")
	}

	for _, keyword := range policy.Keywords {
		re, err := regexp.Compile("(?i)" + keyword)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", keyword, err)
		}
		compiled.keywords = append(compiled.keywords, re)
	}
	for _, hint := range policy.FileHints {
		if hint = strings.ToLower(strings.TrimSpace(hint)); hint != "" {
			compiled.fileHints = append(compiled.fileHints, hint)
		}
	}
	for _, known := range policy.Merchant.Known {
		re, err := regexp.Compile("(?i)" + known.Pattern)
		if err != nil {
			return nil, fmt.Errorf("known merchant %q: %w", known.Name, err)
		}
		compiled.known = append(compiled.known, compiledKnown{pattern: re, name: known.Name})
	}
	for _, pattern := range policy.AmountPatterns {
		re, err := compileCapture(pattern)
		if err != nil {
			return nil, fmt.Errorf("amount pattern %q: %w", pattern, err)
		}
		compiled.amounts = append(compiled.amounts, re)
	}
	if policy.LargestAmount != nil {
		re, err := compileCapture(policy.LargestAmount.Pattern)
		if err != nil {
			return nil, fmt.Errorf("largest_amount: %w", err)
		}
		compiled.largest = re
		if value := strings.TrimSpace(policy.LargestAmount.MinAmount); value != "" {
			floor, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("largest_amount min_amount: %w", err)
			}
			compiled.minAmount = floor
		}
	}
	if len(compiled.amounts) == 0 && compiled.largest == nil {
		return nil, fmt.Errorf("amount_patterns or largest_amount is required")
	}

	seen := make(map[string]struct{}, len(policy.Details))
	for _, detail := range policy.Details {
		name := strings.TrimSpace(detail.Name)
		if name == "" {
			return nil, fmt.Errorf("detail name is required")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate detail %q", name)
		}
		seen[name] = struct{}{}
		cd := compiledDetail{name: name, fallback: detail.Default}
		if detail.Pattern != "" {
			re, err := compileCapture(detail.Pattern)
			if err != nil {
				return nil, fmt.Errorf("detail %q: %w", name, err)
			}
			cd.pattern = re
		}
		compiled.details = append(compiled.details, cd)
	}
	return compiled, nil
}

// compileCapture compiles a case-insensitive pattern that must expose at
// least one capture group.
func compileCapture(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("pattern %q has no capture group", pattern)
	}
	return re, nil
}

// Detect picks the category for text, consulting the lower-cased file name
// for hints. Policies are tried in declared order; the fallback wins when
// nothing matches.
func (s *PolicySet) Detect(text, fileName string) Category {
	return s.detect(text, fileName).category
}

func (s *PolicySet) detect(text, fileName string) *compiledPolicy {
	lowerName := strings.ToLower(fileName)
	for _, policy := range s.ordered {
		if policy.matches(text, lowerName) {
			return policy
		}
	}
	return s.fallback
}

func (p *compiledPolicy) matches(text, lowerName string) bool {
	for _, keyword := range p.keywords {
		if keyword.MatchString(text) {
			return true
		}
	}
	if lowerName == "" {
		return false
	}
	for _, hint := range p.fileHints {
		if strings.Contains(lowerName, hint) {
			return true
		}
	}
	return false
}

// Has reports whether the set declares category.
func (s *PolicySet) Has(category Category) bool {
	_, ok := s.byName[category]
	return ok
}

// Categories lists every declared category, detection order first and the
// fallback last.
func (s *PolicySet) Categories() []Category {
	out := make([]Category, 0, len(s.ordered)+1)
	for _, policy := range s.ordered {
		out = append(out, policy.category)
	}
	return append(out, s.fallback.category)
}
