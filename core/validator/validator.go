package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dmitrymomot/portalguard/core/sanitizer"
)

// Levels used in Result.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// SanitizationMarker is always the first entry of Metadata.RulesApplied.
const SanitizationMarker = "sanitization"

// extraSanitizePasses is added to the input length to bound the
// sanitization loop; each changing pass shortens the value.
const extraSanitizePasses = 8

// ValidationError is a failed error-severity rule.
type ValidationError struct {
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ValidationWarning is a failed warning or info rule.
type ValidationWarning struct {
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type Metadata struct {
	OriginalLength  int           `json:"original_length"`
	SanitizedLength int           `json:"sanitized_length"`
	RulesApplied    []string      `json:"rules_applied"`
	ProcessingTime  time.Duration `json:"processing_time"`
	// ContentHash is the hex SHA-256 of SanitizedValue, for change
	// detection only.
	ContentHash string `json:"content_hash"`
}

type Result struct {
	IsValid        bool                `json:"is_valid"`
	SanitizedValue string              `json:"sanitized_value"`
	Errors         []ValidationError   `json:"errors,omitempty"`
	Warnings       []ValidationWarning `json:"warnings,omitempty"`
	Metadata       Metadata            `json:"metadata"`
}

// Validator sanitizes a value with a fixed policy and runs every rule
// against the result. It is immutable and safe for concurrent use.
type Validator struct {
	rules  []Rule
	tags   []string
	attrs  []string
	policy *bluemonday.Policy
	strict bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithRules appends rules in evaluation order.
func WithRules(rules ...Rule) Option {
	return func(v *Validator) {
		v.rules = append(v.rules, rules...)
	}
}

// WithAllowedTags keeps the given HTML tags during sanitization. Without
// it every tag is removed and only text is kept.
func WithAllowedTags(tags ...string) Option {
	return func(v *Validator) {
		v.tags = append([]string(nil), tags...)
	}
}

// WithAllowedAttributes keeps the given attributes on allowed tags.
func WithAllowedAttributes(attrs ...string) Option {
	return func(v *Validator) {
		v.attrs = append([]string(nil), attrs...)
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if len(v.tags) == 0 {
		v.policy = sanitizer.StrictPolicy()
		v.strict = true
	} else {
		v.policy = sanitizer.AllowlistPolicy(v.tags, v.attrs)
	}
	return v
}

// Rules returns the registered rules in evaluation order.
func (v *Validator) Rules() []Rule {
	return slices.Clone(v.rules)
}

// Extend returns a new Validator with rules appended after the existing ones.
func (v *Validator) Extend(rules ...Rule) *Validator {
	return New(
		WithRules(append(slices.Clone(v.rules), rules...)...),
		WithAllowedTags(v.tags...),
		WithAllowedAttributes(v.attrs...),
	)
}

// Validate sanitizes input, then evaluates every rule in order without
// short-circuiting. A panic raised by a rule yields a single error result
// with an empty SanitizedValue.
func (v *Validator) Validate(input string) (res Result) {
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res = Result{
				Errors: []ValidationError{{
					Rule:     "VALIDATION_FAILURE",
					Message:  fmt.Sprintf("Validation failed: %v", p),
					Severity: LevelHigh,
				}},
				Metadata: Metadata{
					OriginalLength: utf8.RuneCountInString(input),
					RulesApplied:   []string{SanitizationMarker},
					ProcessingTime: time.Since(start),
					ContentHash:    contentHash(""),
				},
			}
		}
	}()

	sanitized := v.sanitize(input)

	applied := make([]string, 0, len(v.rules)+1)
	applied = append(applied, SanitizationMarker)

	for _, rule := range v.rules {
		applied = append(applied, rule.Name)
		if rule.Test(sanitized) {
			continue
		}
		switch rule.Severity {
		case SeverityWarning:
			res.Warnings = append(res.Warnings, ValidationWarning{Rule: rule.Name, Message: rule.Message, Severity: LevelMedium})
		case SeverityInfo:
			res.Warnings = append(res.Warnings, ValidationWarning{Rule: rule.Name, Message: rule.Message, Severity: LevelLow})
		default:
			res.Errors = append(res.Errors, ValidationError{Rule: rule.Name, Message: rule.Message, Severity: LevelHigh})
		}
	}

	res.IsValid = len(res.Errors) == 0
	res.SanitizedValue = sanitized
	res.Metadata = Metadata{
		OriginalLength:  utf8.RuneCountInString(input),
		SanitizedLength: utf8.RuneCountInString(sanitized),
		RulesApplied:    applied,
		ProcessingTime:  time.Since(start),
		ContentHash:     contentHash(sanitized),
	}
	return res
}

// sanitize removes script content and runs the HTML policy until the value
// is stable. The strict policy output is unescaped back to plain text, one
// entity level per pass. A value that never settles yields "".
func (v *Validator) sanitize(s string) string {
	for range len(s) + extraSanitizePasses {
		next := sanitizer.RemoveScripts(s)
		next = v.policy.Sanitize(next)
		if v.strict {
			next = html.UnescapeString(next)
		}
		if next == s {
			return s
		}
		s = next
	}
	return ""
}

func contentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
