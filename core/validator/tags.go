package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// TagFunc checks one field for a `validate` tag rule. It returns nil when
// the value passes.
type TagFunc func(field string, value reflect.Value, params []string) *FieldError

var (
	registryMu sync.RWMutex
	registry   = map[string]TagFunc{
		"required":    requiredTag,
		"min":         minTag,
		"max":         maxTag,
		"email":       ruleTag(EmailFormat(), "validation.email"),
		"url":         ruleTag(URLFormat(), "validation.url"),
		"no_script":   ruleTag(NoScriptTags(), "validation.no_script"),
		"no_handlers": ruleTag(NoEventHandlers(), "validation.no_handlers"),
		"no_js":       ruleTag(NoJavaScriptProtocol(), "validation.no_js"),
		"no_sql":      ruleTag(NoSQLInjection(), "validation.no_sql"),
		"uppercase":   ruleTag(HasUppercase(), "validation.uppercase"),
		"lowercase":   ruleTag(HasLowercase(), "validation.lowercase"),
		"digit":       ruleTag(HasDigit(), "validation.digit"),
		"special":     ruleTag(HasSpecialChar(), "validation.special"),
		"regex":       regexTag,
	}
)

// RegisterTag adds or replaces a `validate` tag rule.
func RegisterTag(name string, fn TagFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// ValidateStruct validates the struct v points to using
// `validate:"required;min:3;max:20;email"` tags. Nested structs and
// pointers are walked. It returns ValidationErrors keyed by field path.
func ValidateStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotStructPointer
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return ErrNotStructPointer
	}

	var errs ValidationErrors
	if err := validateStructRecursive(rv, "", &errs); err != nil {
		return err
	}

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func validateStructRecursive(rv reflect.Value, prefix string, errs *ValidationErrors) error {
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}

		sf := rt.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "-" {
			continue
		}

		path := sf.Name
		if prefix != "" {
			path = prefix + "." + sf.Name
		}

		if field.Kind() == reflect.Struct && tag == "" {
			if err := validateStructRecursive(field, path, errs); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Pointer {
			switch {
			case field.IsNil():
				if tag != "" {
					if err := validateField(path, field, tag, errs); err != nil {
						return err
					}
				}
			case field.Elem().Kind() == reflect.Struct && tag == "":
				if err := validateStructRecursive(field.Elem(), path, errs); err != nil {
					return err
				}
			case tag != "":
				if err := validateField(path, field.Elem(), tag, errs); err != nil {
					return err
				}
			}
			continue
		}

		if tag == "" {
			continue
		}
		if err := validateField(path, field, tag, errs); err != nil {
			return err
		}
	}

	return nil
}

func validateField(path string, field reflect.Value, tag string, errs *ValidationErrors) error {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, raw := range strings.Split(tag, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		name, paramStr, _ := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)

		var params []string
		if paramStr = strings.TrimSpace(paramStr); paramStr != "" {
			// regex patterns may contain commas
			if name == "regex" {
				params = []string{paramStr}
			} else {
				params = strings.Split(paramStr, ",")
				for i := range params {
					params[i] = strings.TrimSpace(params[i])
				}
			}
		}

		fn, ok := registry[name]
		if !ok {
			return fmt.Errorf("validator: unknown rule %q on %s", name, path)
		}
		if fe := fn(path, field, params); fe != nil {
			errs.Add(*fe)
		}
	}

	return nil
}

// ruleTag adapts a string Rule. Empty values pass; pair with required.
func ruleTag(r Rule, key string) TagFunc {
	return func(field string, value reflect.Value, _ []string) *FieldError {
		if value.Kind() != reflect.String || value.String() == "" {
			return nil
		}
		if r.Test(value.String()) {
			return nil
		}
		return &FieldError{
			Field:             field,
			Message:           r.Message,
			TranslationKey:    key,
			TranslationValues: map[string]any{"field": field},
		}
	}
}

func requiredTag(field string, value reflect.Value, _ []string) *FieldError {
	var ok bool
	switch value.Kind() {
	case reflect.String:
		ok = strings.TrimSpace(value.String()) != ""
	case reflect.Slice, reflect.Map, reflect.Array:
		ok = value.Len() > 0
	case reflect.Pointer, reflect.Interface:
		ok = !value.IsNil()
	default:
		ok = !value.IsZero()
	}
	if ok {
		return nil
	}
	return &FieldError{
		Field:             field,
		Message:           "field is required",
		TranslationKey:    "validation.required",
		TranslationValues: map[string]any{"field": field},
	}
}

func minTag(field string, value reflect.Value, params []string) *FieldError {
	return boundTag(field, value, params, "min", func(got, limit float64) bool { return got >= limit })
}

func maxTag(field string, value reflect.Value, params []string) *FieldError {
	return boundTag(field, value, params, "max", func(got, limit float64) bool { return got <= limit })
}

// boundTag compares string length in characters, collection length or the
// numeric value against params[0].
func boundTag(field string, value reflect.Value, params []string, kind string, ok func(got, limit float64) bool) *FieldError {
	if len(params) < 1 {
		return nil
	}
	limit, err := strconv.ParseFloat(params[0], 64)
	if err != nil {
		return nil
	}

	var got float64
	var msg, key string
	switch value.Kind() {
	case reflect.String:
		got = float64(len([]rune(value.String())))
		msg = fmt.Sprintf("must be %s %s characters", boundWord(kind), params[0])
		key = "validation." + kind + "_length"
	case reflect.Slice, reflect.Array, reflect.Map:
		got = float64(value.Len())
		msg = fmt.Sprintf("must have %s %s items", boundWord(kind), params[0])
		key = "validation." + kind + "_items"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		got = float64(value.Int())
		msg = fmt.Sprintf("must be %s %s", boundWord(kind), params[0])
		key = "validation." + kind
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		got = float64(value.Uint())
		msg = fmt.Sprintf("must be %s %s", boundWord(kind), params[0])
		key = "validation." + kind
	case reflect.Float32, reflect.Float64:
		got = value.Float()
		msg = fmt.Sprintf("must be %s %s", boundWord(kind), params[0])
		key = "validation." + kind
	default:
		return nil
	}

	if ok(got, limit) {
		return nil
	}
	return &FieldError{
		Field:             field,
		Message:           msg,
		TranslationKey:    key,
		TranslationValues: map[string]any{"field": field, kind: params[0]},
	}
}

func boundWord(kind string) string {
	if kind == "min" {
		return "at least"
	}
	return "at most"
}

var (
	regexCacheMu sync.Mutex
	regexCache   = map[string]*regexp.Regexp{}
)

func regexTag(field string, value reflect.Value, params []string) *FieldError {
	if value.Kind() != reflect.String || len(params) < 1 || value.String() == "" {
		return nil
	}

	regexCacheMu.Lock()
	re, ok := regexCache[params[0]]
	if !ok {
		var err error
		re, err = regexp.Compile(params[0])
		if err != nil {
			regexCacheMu.Unlock()
			return &FieldError{Field: field, Message: "invalid pattern", TranslationKey: "validation.regex"}
		}
		regexCache[params[0]] = re
	}
	regexCacheMu.Unlock()

	if re.MatchString(value.String()) {
		return nil
	}
	return &FieldError{
		Field:             field,
		Message:           "has invalid format",
		TranslationKey:    "validation.regex",
		TranslationValues: map[string]any{"field": field},
	}
}
