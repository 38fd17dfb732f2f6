package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// htmlEscaper uses the fixed entity map for & < > " ' /.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// EscapeHTML escapes & < > " ' / so the value is inert in HTML text and
// attribute contexts.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// UnescapeHTML decodes HTML entities.
func UnescapeHTML(s string) string {
	return html.UnescapeString(s)
}

// newPolicy builds an allowlist policy. Text content of stripped elements is
// kept; only the allowed tags and attributes survive.
func newPolicy(tags, attrs []string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	if len(tags) > 0 {
		p.AllowElements(tags...)
		if len(attrs) > 0 {
			p.AllowAttrs(attrs...).OnElements(tags...)
		}
	}
	return p
}

// StrictPolicy returns a policy that removes every tag and keeps text.
func StrictPolicy() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

// AllowlistPolicy returns a policy keeping only tags and attrs.
func AllowlistPolicy(tags, attrs []string) *bluemonday.Policy {
	return newPolicy(tags, attrs)
}

// cutPartialEntity drops a trailing entity that truncation split.
func cutPartialEntity(s string) string {
	i := strings.LastIndexByte(s, '&')
	if i >= 0 && !strings.Contains(s[i:], ";") {
		return s[:i]
	}
	return s
}
