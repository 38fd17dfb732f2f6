package sanitizer

import (
	"regexp"
	"strings"
)

// Category names a class of dangerous content. Violations are reported as
// "Removed <category>".
type Category string

// Dangerous pattern categories in removal order.
const (
	CategoryScriptTag     Category = "script tag"
	CategoryEventHandler  Category = "event handler"
	CategoryJavaScriptURL Category = "javascript protocol"
	CategoryDataURL       Category = "data protocol"
	CategoryVBScriptURL   Category = "vbscript protocol"
	CategorySQLKeyword    Category = "SQL keyword"
	CategoryPathTraversal Category = "path traversal"
	CategoryHTMLEntity    Category = "suspicious HTML entity"
)

type pattern struct {
	category Category
	re       *regexp.Regexp
	// keep reports matches that must survive removal.
	keep func(match string) bool
}

var (
	scriptBlockRegex   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTagRegex     = regexp.MustCompile(`(?i)</?script\b[^>]*>?`)
	eventHandlerRegex  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	javascriptRegex    = regexp.MustCompile(`(?i)javascript\s*:`)
	dataURLRegex       = regexp.MustCompile(`(?i)\bdata\s*:`)
	vbscriptRegex      = regexp.MustCompile(`(?i)vbscript\s*:`)
	sqlKeywordRegex    = regexp.MustCompile(`(?i)\b(?:select|insert|update|delete|drop|create|alter|exec|union)\b`)
	pathTraversalRegex = regexp.MustCompile(`\.\.[/\\]`)
	numericEntityRegex = regexp.MustCompile(`(?i)&#x?[0-9a-f]+;?`)
)

// Entities emitted by the escaper and the HTML allowlist policy. They are the
// only numeric entities allowed to survive, which keeps re-sanitization stable.
var safeEntities = map[string]bool{
	"&#x27;": true,
	"&#x2f;": true,
	"&#39;":  true,
	"&#34;":  true,
}

var dangerousPatterns = []pattern{
	{category: CategoryScriptTag, re: scriptBlockRegex},
	{category: CategoryScriptTag, re: scriptTagRegex},
	{category: CategoryEventHandler, re: eventHandlerRegex},
	{category: CategoryJavaScriptURL, re: javascriptRegex},
	{category: CategoryDataURL, re: dataURLRegex},
	{category: CategoryVBScriptURL, re: vbscriptRegex},
	{category: CategorySQLKeyword, re: sqlKeywordRegex},
	{category: CategoryPathTraversal, re: pathTraversalRegex},
	{
		category: CategoryHTMLEntity,
		re:       numericEntityRegex,
		keep: func(m string) bool {
			return safeEntities[strings.ToLower(m)]
		},
	},
}

// scriptPatterns is the fixed policy used by the validator: script content,
// inline handlers and script-capable URL schemes.
var scriptPatterns = []pattern{
	{category: CategoryScriptTag, re: scriptBlockRegex},
	{category: CategoryScriptTag, re: scriptTagRegex},
	{category: CategoryEventHandler, re: eventHandlerRegex},
	{category: CategoryJavaScriptURL, re: javascriptRegex},
	{category: CategoryVBScriptURL, re: vbscriptRegex},
}

const maxRemovalRounds = 10

// removePatterns deletes every match of patterns, repeating until nothing
// matches so that removals cannot splice a new match together. It returns one
// violation per removed match.
func removePatterns(s string, patterns []pattern) (string, []string) {
	var violations []string
	for range maxRemovalRounds {
		changed := false
		for _, p := range patterns {
			s = p.re.ReplaceAllStringFunc(s, func(m string) string {
				if p.keep != nil && p.keep(m) {
					return m
				}
				changed = true
				violations = append(violations, "Removed "+string(p.category))
				return ""
			})
		}
		if !changed {
			break
		}
	}
	return s, violations
}

// RemoveDangerous strips every dangerous pattern category from s.
func RemoveDangerous(s string) string {
	out, _ := removePatterns(s, dangerousPatterns)
	return out
}

// RemoveScripts strips script tags, inline event handlers and
// javascript:/vbscript: URLs, leaving other content alone.
func RemoveScripts(s string) string {
	out, _ := removePatterns(s, scriptPatterns)
	return out
}

// ContainsDangerous reports whether s holds content RemoveDangerous would strip.
func ContainsDangerous(s string) bool {
	out, _ := removePatterns(s, dangerousPatterns)
	return out != s
}

// Detect returns the categories matched in s without modifying it.
func Detect(s string) []Category {
	var found []Category
	seen := make(map[Category]bool)
	for _, p := range dangerousPatterns {
		if seen[p.category] {
			continue
		}
		for _, m := range p.re.FindAllString(s, -1) {
			if p.keep != nil && p.keep(m) {
				continue
			}
			seen[p.category] = true
			found = append(found, p.category)
			break
		}
	}
	return found
}

// Matches reports whether s holds content of category c.
func Matches(s string, c Category) bool {
	for _, p := range dangerousPatterns {
		if p.category != c {
			continue
		}
		for _, m := range p.re.FindAllString(s, -1) {
			if p.keep == nil || !p.keep(m) {
				return true
			}
		}
	}
	return false
}
