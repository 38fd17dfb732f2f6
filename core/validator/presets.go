package validator

// Limits used by the presets.
const (
	EmailMaxLength       = 254
	PasswordMinLength    = 8
	PasswordMaxLength    = 128
	URLMaxLength         = 2048
	HTMLContentMaxLength = 10000
)

// HTMLContentTags are kept by ForHTMLContent.
var HTMLContentTags = []string{
	"p", "br", "strong", "em", "b", "i", "u", "a",
	"ul", "ol", "li", "blockquote", "code", "pre",
}

// ForTextInput bounds free text and rejects script content.
func ForTextInput(maxLength int) *Validator {
	return New(WithRules(
		MaxLength(maxLength),
		NoScriptTags(),
		NoEventHandlers(),
		NoJavaScriptProtocol(),
		NoSQLInjection(),
	))
}

func ForEmail() *Validator {
	return New(WithRules(
		Required(),
		MaxLength(EmailMaxLength),
		EmailFormat(),
	))
}

// ForPassword requires length bounds. Character classes are advisory.
func ForPassword() *Validator {
	return New(WithRules(
		Required(),
		MinLength(PasswordMinLength),
		MaxLength(PasswordMaxLength),
		HasUppercase().WithSeverity(SeverityWarning),
		HasLowercase().WithSeverity(SeverityWarning),
		HasDigit().WithSeverity(SeverityWarning),
		HasSpecialChar().WithSeverity(SeverityInfo),
	))
}

func ForURL() *Validator {
	return New(WithRules(
		Required(),
		MaxLength(URLMaxLength),
		URLFormat(),
		NoJavaScriptProtocol(),
	))
}

// ForHTMLContent keeps basic formatting tags and links.
func ForHTMLContent() *Validator {
	return New(
		WithAllowedTags(HTMLContentTags...),
		WithAllowedAttributes("href", "title"),
		WithRules(
			MaxLength(HTMLContentMaxLength),
			NoScriptTags(),
			NoEventHandlers(),
			NoJavaScriptProtocol(),
		),
	)
}
