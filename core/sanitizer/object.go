package sanitizer

// FieldType selects the sanitizer applied to an object field.
type FieldType string

// Supported field types. An empty FieldType means FieldText.
const (
	FieldText   FieldType = "text"
	FieldEmail  FieldType = "email"
	FieldPhone  FieldType = "phone"
	FieldNumber FieldType = "number"
	FieldPath   FieldType = "path"
)

// FieldConfig configures one key of Object.
type FieldConfig struct {
	Type    FieldType
	Options []Option
	// Number is used when Type is FieldNumber.
	Number NumberOptions
}

// ObjectResult aggregates per-field results. Violations only holds keys
// that produced at least one violation.
type ObjectResult struct {
	Sanitized  map[string]any      `json:"sanitized"`
	Violations map[string][]string `json:"violations,omitempty"`
	IsValid    bool                `json:"is_valid"`
}

// Object sanitizes every configured key present in obj. Missing keys are
// skipped rather than defaulted; unconfigured keys are copied unchanged.
// The input map is not modified.
func (s *Sanitizer) Object(obj map[string]any, fields map[string]FieldConfig) ObjectResult {
	res := ObjectResult{
		Sanitized:  make(map[string]any, len(obj)),
		Violations: make(map[string][]string),
		IsValid:    true,
	}

	for k, v := range obj {
		res.Sanitized[k] = v
	}

	for key, fc := range fields {
		value, ok := obj[key]
		if !ok {
			continue
		}

		r := s.Field(value, fc)
		res.Sanitized[key] = r.Sanitized
		if len(r.Violations) > 0 {
			res.Violations[key] = r.Violations
		}
		res.IsValid = res.IsValid && r.IsValid
	}

	return res
}

// Field dispatches value to the sanitizer matching fc.Type. Unknown types
// fall back to Text.
func (s *Sanitizer) Field(value any, fc FieldConfig) Result {
	switch fc.Type {
	case FieldEmail:
		return s.Email(value, fc.Options...)
	case FieldPhone:
		return s.Phone(value, fc.Options...)
	case FieldNumber:
		return s.Number(value, fc.Number, fc.Options...).Result
	case FieldPath:
		return s.Path(value, fc.Options...)
	default:
		return s.Text(value, fc.Options...)
	}
}
