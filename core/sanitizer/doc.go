// Package sanitizer cleans untrusted portal input before it is stored or
// echoed back. It removes dangerous content (script tags, inline event
// handlers, script-capable URL schemes, SQL keywords, path traversal,
// suspicious numeric entities), escapes or allowlist-sanitizes HTML and
// reports every change as a violation.
//
// # Text
//
// A Sanitizer holds an immutable Config. Create it once and share it:
//
//	s := sanitizer.New(sanitizer.WithMaxLength(500))
//
//	res := s.Text(`<script>alert(1)</script>Hello`)
//	// res.Sanitized == "Hello", res.IsValid == false,
//	// res.Violations == []string{"Removed script tag"}
//
// Per-call options derive a copy of the Config:
//
//	res = s.Text(bio, sanitizer.WithAllowedTags("b", "i", "a"), sanitizer.WithAllowedAttributes("href"))
//
// With no allowed tags the characters & < > " ' / are escaped. With allowed
// tags, HTML goes through a bluemonday allowlist policy that keeps text
// content of removed elements.
//
// The built-in stages repeat until the value stops changing, so
// Text(Text(x).Sanitized) returns the same value with no violations.
//
// # Typed values
//
//	s.Email("USER@EXAMPLE.COM")       // "user@example.com"
//	s.Phone("+1-555-123-4567")        // valid, 11 digits
//	s.Number("250", sanitizer.NumberOptions{Max: sanitizer.Ptr(200.0)})
//	s.Path("../../etc/passwd")        // "etc/passwd"
//
// # Objects and structs
//
//	res := s.Object(form, map[string]sanitizer.FieldConfig{
//		"email": {Type: sanitizer.FieldEmail},
//		"phone": {Type: sanitizer.FieldPhone},
//	})
//
//	type Signup struct {
//		Email string `sanitize:"trim,email"`
//		Bio   string `sanitize:"text,max:500"`
//	}
//	violations, err := s.Struct(&signup)
//
// Package-level helpers (SanitizeText, SanitizeEmail, ...) use Default().
//
// The dangerous-pattern set is a blocklist and cannot catch every
// obfuscation; escaping and the allowlist policy keep the output inert.
package sanitizer
