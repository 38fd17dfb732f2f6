package validator

import (
	"errors"
	"strings"
)

var ErrNotStructPointer = errors.New("validator: must pass a pointer to struct")

// FieldError describes a failed struct field rule. TranslationKey and
// TranslationValues let callers localize Message.
type FieldError struct {
	Field             string         `json:"field"`
	Message           string         `json:"message"`
	TranslationKey    string         `json:"translation_key,omitempty"`
	TranslationValues map[string]any `json:"translation_values,omitempty"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is returned by ValidateStruct.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationErrors) Add(fe FieldError) {
	*e = append(*e, fe)
}

func (e ValidationErrors) IsEmpty() bool {
	return len(e) == 0
}

// Has reports whether field has at least one error.
func (e ValidationErrors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Fields groups messages by field path.
func (e ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string)
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}
