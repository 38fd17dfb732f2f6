package sanitizer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+'\-]+@[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?)*\.[a-z]{2,}$`)

// Phone digit bounds (E.164 allows up to 15).
const (
	phoneMinDigits = 10
	phoneMaxDigits = 15
)

// IsValidEmail reports whether s is a syntactically valid address. Case is
// ignored.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(strings.ToLower(s))
}

// Email runs Text with a 254 rune bound, lower-cases the result and checks
// the address format. The format check sees the unescaped value, so an
// apostrophe in the local part survives as is. An invalid address yields an
// empty value.
func (s *Sanitizer) Email(input any, opts ...Option) Result {
	res := s.Text(input, append([]Option{WithMaxLength(EmailMaxLength)}, opts...)...)
	if isNil(input) {
		return res
	}

	email := strings.ToLower(UnescapeHTML(res.Sanitized))
	if !emailRegex.MatchString(email) {
		return Result{
			WasModified: toString(input) != "",
			Violations:  append(res.Violations, ViolationInvalidEmail),
		}
	}

	res.Sanitized = email
	res.WasModified = email != toString(input)
	return res
}

// Phone keeps digits, '+', spaces, hyphens and parentheses. Removing other
// characters is informational; the value is valid when it holds between 10
// and 15 digits.
func (s *Sanitizer) Phone(input any, opts ...Option) Result {
	cfg, _ := s.resolve(opts)
	if isNil(input) {
		return emptyResult(cfg.AllowEmptyValues)
	}

	original := toString(input)
	normalized := norm.NFKC.String(original)
	kept := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '+', r == ' ', r == '-', r == '(', r == ')':
			return r
		}
		return -1
	}, normalized)

	var violations []string
	if kept != normalized {
		violations = append(violations, "Removed invalid phone characters")
	}

	kept = strings.TrimSpace(CollapseWhitespace(kept))
	if n := len(KeepDigits(kept)); n < phoneMinDigits || n > phoneMaxDigits {
		return Result{
			WasModified: original != "",
			Violations:  append(violations, ViolationInvalidPhone),
		}
	}

	return Result{
		Sanitized:   kept,
		WasModified: kept != original,
		Violations:  violations,
		IsValid:     true,
	}
}

// NumberOptions bounds and rounds a number. Nil fields are not applied.
type NumberOptions struct {
	Min      *float64
	Max      *float64
	Decimals *int
}

// NumberResult carries the parsed value next to the sanitized string.
type NumberResult struct {
	Result
	Value float64 `json:"value"`
}

// Ptr returns a pointer to v, for NumberOptions literals.
func Ptr[T any](v T) *T {
	return &v
}

// Number keeps digits, '.' and a leading '-', then parses the value.
// Clamping to Min/Max invalidates the result; stripping characters and
// rounding to Decimals are informational.
func (s *Sanitizer) Number(input any, n NumberOptions, opts ...Option) NumberResult {
	cfg, _ := s.resolve(opts)
	if isNil(input) {
		return NumberResult{Result: emptyResult(cfg.AllowEmptyValues)}
	}

	original := toString(input)
	value, stripped, err := parseNumber(input)
	if err != nil {
		return NumberResult{Result: Result{
			WasModified: original != "",
			Violations:  []string{ViolationInvalidNum},
		}}
	}

	var violations []string
	fatal := false
	if stripped {
		violations = append(violations, "Removed non-numeric characters")
	}

	if n.Min != nil && value < *n.Min {
		value = *n.Min
		fatal = true
		violations = append(violations, fmt.Sprintf("Value increased to minimum (%s)", formatFloat(*n.Min, -1)))
	}
	if n.Max != nil && value > *n.Max {
		value = *n.Max
		fatal = true
		violations = append(violations, fmt.Sprintf("Value decreased to maximum (%s)", formatFloat(*n.Max, -1)))
	}

	decimals := -1
	if n.Decimals != nil && *n.Decimals >= 0 {
		decimals = *n.Decimals
		p := math.Pow(10, float64(decimals))
		if rounded := math.Round(value*p) / p; rounded != value {
			value = rounded
			violations = append(violations, fmt.Sprintf("Value rounded to %d decimal places", decimals))
		}
	}

	out := formatFloat(value, decimals)
	return NumberResult{
		Result: Result{
			Sanitized:   out,
			WasModified: out != original,
			Violations:  violations,
			IsValid:     !fatal,
		},
		Value: value,
	}
}

// parseNumber accepts native numeric types as is and cleans everything else.
func parseNumber(input any) (value float64, stripped bool, err error) {
	switch v := input.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int32:
		value = float64(v)
	case int64:
		value = float64(v)
	case uint:
		value = float64(v)
	case uint32:
		value = float64(v)
	case uint64:
		value = float64(v)
	default:
		raw := strings.TrimSpace(norm.NFKC.String(toString(input)))
		clean := leadingNumber(cleanNumber(raw))
		stripped = clean != raw
		if clean == "" || clean == "-" {
			return 0, stripped, strconv.ErrSyntax
		}
		value, err = strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0, stripped, err
		}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, stripped, strconv.ErrRange
	}
	return value, stripped, nil
}

func cleanNumber(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leadingNumber keeps the longest numeric prefix, so "1.2.3" becomes "1.2".
func leadingNumber(s string) string {
	first := strings.IndexByte(s, '.')
	if first < 0 {
		return s
	}
	if second := strings.IndexByte(s[first+1:], '.'); second >= 0 {
		return s[:first+1+second]
	}
	return s
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// pathCharsReplacer drops characters that are unsafe in file names on
// common platforms.
var pathCharsReplacer = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "", "|", "", "?", "", "*", "", "\x00", "",
)

// Path removes traversal sequences, the characters < > : " | ? * and NUL
// bytes. It does not judge whether the path is absolute or relative.
func (s *Sanitizer) Path(input any, opts ...Option) Result {
	cfg, _ := s.resolve(opts)
	if isNil(input) {
		return emptyResult(cfg.AllowEmptyValues)
	}

	original := toString(input)
	var violations []string

	out := original
	if bounded := MaxLength(out, maxLengthOf(cfg)); bounded != out {
		out = bounded
		violations = append(violations, fmt.Sprintf("Input truncated to %d characters", maxLengthOf(cfg)))
	}

	// Character removal can join "..<" + "/" into a new traversal, so both
	// steps repeat until stable.
	for range maxRemovalRounds {
		next, v := removePatterns(out, []pattern{{category: CategoryPathTraversal, re: pathTraversalRegex}})
		violations = append(violations, v...)
		if cleaned := pathCharsReplacer.Replace(next); cleaned != next {
			next = cleaned
			violations = append(violations, "Removed invalid path characters")
		}
		if next == out {
			break
		}
		out = next
	}

	if cfg.StripWhitespace {
		out = strings.TrimSpace(out)
	}

	return Result{
		Sanitized:   out,
		WasModified: out != original,
		Violations:  violations,
		IsValid:     len(violations) == 0,
	}
}

func maxLengthOf(cfg Config) int {
	if cfg.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return cfg.MaxLength
}
