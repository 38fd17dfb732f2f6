package sanitizer

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// extraPasses is added to the input length to bound the fixed-point loop.
// Every changing pass shortens the decoded value, so the bound is only
// reached by input that never converges, which then fails closed.
const extraPasses = 8

// ViolationUnstable is reported when the built-in stages do not converge.
const ViolationUnstable = "Input did not stabilize and was discarded"

// Sanitizer applies the text pipeline with an immutable Config. It is safe
// for concurrent use; create one at startup and pass it to callers.
type Sanitizer struct {
	cfg    Config
	policy *bluemonday.Policy
}

// New creates a Sanitizer. Options override DefaultConfig.
func New(opts ...Option) *Sanitizer {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Sanitizer{cfg: cfg, policy: policyFor(cfg)}
}

// Config returns a copy of the sanitizer configuration.
func (s *Sanitizer) Config() Config {
	return s.cfg.clone()
}

// With returns a new Sanitizer derived from s with opts applied on top.
func (s *Sanitizer) With(opts ...Option) *Sanitizer {
	cfg := s.cfg.clone()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Sanitizer{cfg: cfg, policy: policyFor(cfg)}
}

func policyFor(cfg Config) *bluemonday.Policy {
	if len(cfg.AllowedTags) == 0 {
		return nil
	}
	return newPolicy(cfg.AllowedTags, cfg.AllowedAttributes)
}

// resolve applies per-call options without touching the sanitizer.
func (s *Sanitizer) resolve(opts []Option) (Config, *bluemonday.Policy) {
	if len(opts) == 0 {
		return s.cfg, s.policy
	}
	cfg := s.cfg.clone()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg, policyFor(cfg)
}

// Text sanitizes free text. Stages run in this order: truncation, Unicode
// normalization, dangerous pattern removal, entity decoding and a second
// removal, HTML escaping or allowlist sanitization, output bound, whitespace
// handling. Those stages repeat until the value is stable, so sanitizing a
// sanitized value returns it unchanged. Custom validators run last.
func (s *Sanitizer) Text(input any, opts ...Option) Result {
	cfg, policy := s.resolve(opts)

	if isNil(input) {
		return emptyResult(cfg.AllowEmptyValues)
	}

	original := toString(input)
	current := original
	var violations []string

	converged := false
	for range len(original) + extraPasses {
		next, v := cleanPass(current, cfg, policy)
		violations = append(violations, v...)
		converged = next == current
		current = next
		if converged {
			break
		}
	}
	if !converged {
		return Result{
			WasModified: original != "",
			Violations:  append(violations, ViolationUnstable),
		}
	}

	for i, fn := range cfg.CustomValidators {
		out, err := applyCustom(fn, current)
		if err != nil {
			violations = append(violations, fmt.Sprintf("Custom validator %d failed: %v", i+1, err))
			continue
		}
		current = out
	}

	return Result{
		Sanitized:   current,
		WasModified: current != original,
		Violations:  violations,
		IsValid:     len(violations) == 0,
	}
}

func cleanPass(s string, cfg Config, policy *bluemonday.Policy) (string, []string) {
	var violations []string

	maxLen := maxLengthOf(cfg)

	if truncated := MaxLength(s, maxLen); truncated != s {
		s = truncated
		violations = append(violations, fmt.Sprintf("Input truncated to %d characters", maxLen))
	}

	s = RemoveControlChars(norm.NFKC.String(s))

	s, v := removePatterns(s, dangerousPatterns)
	violations = append(violations, v...)

	// Encoded payloads become visible only after decoding.
	s = RemoveControlChars(norm.NFKC.String(decodeEntities(s)))
	s, v = removePatterns(s, dangerousPatterns)
	violations = append(violations, v...)

	if policy != nil {
		s = policy.Sanitize(s)
	} else {
		s = EscapeHTML(s)
	}

	if bounded := cutPartialEntity(MaxLength(s, maxLen)); bounded != s {
		s = bounded
		violations = append(violations, fmt.Sprintf("Output truncated to %d characters", maxLen))
	}

	if cfg.StripWhitespace {
		if !cfg.PreserveNewlines {
			s = CollapseWhitespace(s)
		}
		s = strings.TrimSpace(s)
	}

	return s, violations
}

func applyCustom(fn CustomValidator, s string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(s)
}

// decodeEntities unescapes until nothing changes so multiply encoded
// payloads are fully exposed to pattern removal. Each changing pass removes
// ASCII entity text, so len(s) passes always suffice.
func decodeEntities(s string) string {
	for range len(s) + 1 {
		next := UnescapeHTML(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	p, ok := v.(*string)
	return ok && p == nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case fmt.Stringer:
		return t.String()
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(v)
	}
}
