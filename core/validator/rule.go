package validator

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrymomot/portalguard/core/sanitizer"
)

// Severity decides where a failed rule is reported.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rule is an immutable named check. Test returns true when the value passes.
type Rule struct {
	Name     string
	Test     func(value string) bool
	Message  string
	Severity Severity
}

// WithSeverity returns a copy of r with severity s.
func (r Rule) WithSeverity(s Severity) Rule {
	r.Severity = s
	return r
}

// WithMessage returns a copy of r with message m.
func (r Rule) WithMessage(m string) Rule {
	r.Message = m
	return r
}

// Required fails on empty or whitespace-only values.
func Required() Rule {
	return Rule{
		Name:     "REQUIRED",
		Test:     func(v string) bool { return strings.TrimSpace(v) != "" },
		Message:  "This field is required",
		Severity: SeverityError,
	}
}

// MinLength fails when the value has fewer than n characters.
func MinLength(n int) Rule {
	return Rule{
		Name:     fmt.Sprintf("MIN_LENGTH(%d)", n),
		Test:     func(v string) bool { return utf8.RuneCountInString(v) >= n },
		Message:  fmt.Sprintf("Must be at least %d characters", n),
		Severity: SeverityError,
	}
}

// MaxLength fails when the value has more than n characters.
func MaxLength(n int) Rule {
	return Rule{
		Name:     fmt.Sprintf("MAX_LENGTH(%d)", n),
		Test:     func(v string) bool { return utf8.RuneCountInString(v) <= n },
		Message:  fmt.Sprintf("Must be at most %d characters", n),
		Severity: SeverityError,
	}
}

func categoryRule(name, message string, c sanitizer.Category) Rule {
	return Rule{
		Name:     name,
		Test:     func(v string) bool { return !sanitizer.Matches(v, c) },
		Message:  message,
		Severity: SeverityError,
	}
}

func NoScriptTags() Rule {
	return categoryRule("NO_SCRIPT_TAGS", "Script tags are not allowed", sanitizer.CategoryScriptTag)
}

func NoEventHandlers() Rule {
	return categoryRule("NO_EVENT_HANDLERS", "Event handlers are not allowed", sanitizer.CategoryEventHandler)
}

func NoJavaScriptProtocol() Rule {
	return categoryRule("NO_JAVASCRIPT_PROTOCOL", "JavaScript URLs are not allowed", sanitizer.CategoryJavaScriptURL)
}

// NoSQLInjection flags SQL keywords. It is a warning by default since
// keywords appear in ordinary text.
func NoSQLInjection() Rule {
	r := categoryRule("NO_SQL_INJECTION", "Input contains SQL keywords", sanitizer.CategorySQLKeyword)
	r.Severity = SeverityWarning
	return r
}

func EmailFormat() Rule {
	return Rule{
		Name:     "EMAIL_FORMAT",
		Test:     sanitizer.IsValidEmail,
		Message:  "Invalid email format",
		Severity: SeverityError,
	}
}

// URLFormat accepts absolute http and https URLs with a host.
func URLFormat() Rule {
	return Rule{
		Name:     "URL_FORMAT",
		Test:     isHTTPURL,
		Message:  "Invalid URL format",
		Severity: SeverityError,
	}
}

func isHTTPURL(v string) bool {
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func HasUppercase() Rule {
	return runeRule("HAS_UPPERCASE", "Must contain an uppercase letter", unicode.IsUpper)
}

func HasLowercase() Rule {
	return runeRule("HAS_LOWERCASE", "Must contain a lowercase letter", unicode.IsLower)
}

func HasDigit() Rule {
	return runeRule("HAS_DIGIT", "Must contain a digit", unicode.IsDigit)
}

func HasSpecialChar() Rule {
	return runeRule("HAS_SPECIAL_CHAR", "Must contain a special character", func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

func runeRule(name, message string, fn func(rune) bool) Rule {
	return Rule{
		Name:     name,
		Test:     func(v string) bool { return strings.IndexFunc(v, fn) >= 0 },
		Message:  message,
		Severity: SeverityError,
	}
}

// Pattern passes when re matches the value.
func Pattern(name string, re *regexp.Regexp, message string) Rule {
	return Rule{
		Name:     name,
		Test:     re.MatchString,
		Message:  message,
		Severity: SeverityError,
	}
}
