package sanitizer

// defaultSanitizer backs the package-level helpers. It is never reconfigured;
// per-call options derive a copy of its Config.
var defaultSanitizer = New()

// Default returns the sanitizer used by the package-level helpers.
func Default() *Sanitizer {
	return defaultSanitizer
}

// SanitizeText is Default().Text.
func SanitizeText(input any, opts ...Option) Result {
	return defaultSanitizer.Text(input, opts...)
}

// SanitizeEmail is Default().Email.
func SanitizeEmail(input any, opts ...Option) Result {
	return defaultSanitizer.Email(input, opts...)
}

// SanitizePhone is Default().Phone.
func SanitizePhone(input any, opts ...Option) Result {
	return defaultSanitizer.Phone(input, opts...)
}

// SanitizeNumber is Default().Number.
func SanitizeNumber(input any, n NumberOptions, opts ...Option) NumberResult {
	return defaultSanitizer.Number(input, n, opts...)
}

// SanitizePath is Default().Path.
func SanitizePath(input any, opts ...Option) Result {
	return defaultSanitizer.Path(input, opts...)
}

// SanitizeObject is Default().Object.
func SanitizeObject(obj map[string]any, fields map[string]FieldConfig) ObjectResult {
	return defaultSanitizer.Object(obj, fields)
}

// SanitizeStruct is Default().Struct.
func SanitizeStruct(v any) (map[string][]string, error) {
	return defaultSanitizer.Struct(v)
}
