package sanitizer

import (
	"maps"
	"slices"
)

// Default limits.
const (
	DefaultMaxLength = 1000
	EmailMaxLength   = 254
)

// Config controls the text sanitization pipeline. A Sanitizer holds one
// Config for its lifetime; per-call options derive a copy.
type Config struct {
	// AllowedTags switches the HTML stage from escaping to allowlist
	// sanitization when non-empty.
	AllowedTags []string
	// AllowedAttributes are kept on allowed tags.
	AllowedAttributes []string
	// MaxLength bounds the sanitized value in runes.
	MaxLength int
	// StripWhitespace trims both ends.
	StripWhitespace bool
	// PreserveNewlines disables collapsing whitespace runs to one space.
	PreserveNewlines bool
	// AllowEmptyValues makes nil input valid.
	AllowEmptyValues bool
	// CustomValidators run in order after the built-in stages.
	CustomValidators []CustomValidator
	// TagSanitizers extends the names accepted in `sanitize` struct tags.
	TagSanitizers map[string]func(string) string
}

// CustomValidator transforms an already sanitized value. A returned error is
// recorded as a violation and the value before the call is kept.
type CustomValidator func(value string) (string, error)

// DefaultConfig returns the configuration used by New without options.
func DefaultConfig() Config {
	return Config{
		MaxLength:       DefaultMaxLength,
		StripWhitespace: true,
	}
}

func (c Config) clone() Config {
	c.AllowedTags = slices.Clone(c.AllowedTags)
	c.AllowedAttributes = slices.Clone(c.AllowedAttributes)
	c.CustomValidators = slices.Clone(c.CustomValidators)
	c.TagSanitizers = maps.Clone(c.TagSanitizers)
	return c
}

// Option configures a Sanitizer or overrides its Config for a single call.
type Option func(*Config)

// WithAllowedTags enables allowlist HTML sanitization for the given tags.
func WithAllowedTags(tags ...string) Option {
	return func(c *Config) {
		c.AllowedTags = append([]string(nil), tags...)
	}
}

// WithAllowedAttributes sets the attributes kept on allowed tags.
func WithAllowedAttributes(attrs ...string) Option {
	return func(c *Config) {
		c.AllowedAttributes = append([]string(nil), attrs...)
	}
}

// WithMaxLength sets the maximum length in runes. Non-positive values are ignored.
func WithMaxLength(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxLength = n
		}
	}
}

// WithStripWhitespace toggles trimming.
func WithStripWhitespace(strip bool) Option {
	return func(c *Config) {
		c.StripWhitespace = strip
	}
}

// WithPreserveNewlines toggles whitespace collapsing.
func WithPreserveNewlines(preserve bool) Option {
	return func(c *Config) {
		c.PreserveNewlines = preserve
	}
}

// WithAllowEmptyValues makes nil input valid.
func WithAllowEmptyValues(allow bool) Option {
	return func(c *Config) {
		c.AllowEmptyValues = allow
	}
}

// WithCustomValidators appends custom validators.
func WithCustomValidators(fns ...CustomValidator) Option {
	return func(c *Config) {
		c.CustomValidators = append(slices.Clone(c.CustomValidators), fns...)
	}
}

// WithTagSanitizer registers fn under name for Struct. Built-in tag names
// cannot be overridden.
func WithTagSanitizer(name string, fn func(string) string) Option {
	return func(c *Config) {
		if fn == nil {
			return
		}
		tags := maps.Clone(c.TagSanitizers)
		if tags == nil {
			tags = make(map[string]func(string) string)
		}
		tags[name] = fn
		c.TagSanitizers = tags
	}
}
