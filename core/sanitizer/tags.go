package sanitizer

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	ErrNotStructPointer = errors.New("sanitizer: must pass a pointer to struct")
	ErrUnknownTag       = errors.New("sanitizer: unknown tag")
)

// builtinTags are plain string transforms usable in `sanitize` tags next to
// the pipeline names text, email, phone, number and path.
var builtinTags = map[string]func(string) string{
	"trim":       strings.TrimSpace,
	"lower":      strings.ToLower,
	"upper":      strings.ToUpper,
	"digits":     KeepDigits,
	"no_null":    RemoveNullBytes,
	"no_control": RemoveControlChars,
	"collapse":   CollapseWhitespace,
}

// Struct sanitizes string fields of the struct v points to according to
// their `sanitize:"name,name,max:n"` tags. Nested structs and pointers are
// walked; string slices are sanitized element by element. Violations are
// returned keyed by field path, e.g. "Address.Street" or "Tags[1]".
func (s *Sanitizer) Struct(v any) (map[string][]string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, ErrNotStructPointer
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return nil, ErrNotStructPointer
	}

	violations := make(map[string][]string)
	if err := s.walkStruct(rv, "", violations); err != nil {
		return nil, err
	}
	return violations, nil
}

func (s *Sanitizer) walkStruct(rv reflect.Value, prefix string, violations map[string][]string) error {
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}

		sf := rt.Field(i)
		tag := sf.Tag.Get("sanitize")
		if tag == "-" {
			continue
		}
		path := prefix + sf.Name

		switch field.Kind() {
		case reflect.String:
			if tag == "" {
				continue
			}
			if err := s.setString(field, tag, path, violations); err != nil {
				return err
			}

		case reflect.Pointer:
			if field.IsNil() {
				continue
			}
			elem := field.Elem()
			switch elem.Kind() {
			case reflect.String:
				if tag != "" {
					if err := s.setString(elem, tag, path, violations); err != nil {
						return err
					}
				}
			case reflect.Struct:
				if err := s.walkStruct(elem, path+".", violations); err != nil {
					return err
				}
			}

		case reflect.Struct:
			if err := s.walkStruct(field, path+".", violations); err != nil {
				return err
			}

		case reflect.Slice:
			if tag == "" || field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < field.Len(); j++ {
				elemPath := path + "[" + strconv.Itoa(j) + "]"
				if err := s.setString(field.Index(j), tag, elemPath, violations); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (s *Sanitizer) setString(field reflect.Value, tag, path string, violations map[string][]string) error {
	out, v, err := s.applyTag(field.String(), tag)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	field.SetString(out)
	if len(v) > 0 {
		violations[path] = append(violations[path], v...)
	}
	return nil
}

func (s *Sanitizer) applyTag(value, tag string) (string, []string, error) {
	var violations []string
	result := value

	for _, name := range strings.Split(tag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if limit, ok := strings.CutPrefix(name, "max:"); ok {
			n, err := strconv.Atoi(limit)
			if err != nil || n <= 0 {
				return "", nil, fmt.Errorf("%w: %q", ErrUnknownTag, name)
			}
			result = MaxLength(result, n)
			continue
		}

		var r Result
		switch name {
		case "text":
			r = s.Text(result)
		case "email":
			r = s.Email(result)
		case "phone":
			r = s.Phone(result)
		case "number":
			r = s.Number(result, NumberOptions{}).Result
		case "path":
			r = s.Path(result)
		default:
			fn, ok := builtinTags[name]
			if !ok {
				fn, ok = s.cfg.TagSanitizers[name]
			}
			if !ok {
				return "", nil, fmt.Errorf("%w: %q", ErrUnknownTag, name)
			}
			result = fn(result)
			continue
		}

		result = r.Sanitized
		violations = append(violations, r.Violations...)
	}

	return result, violations, nil
}
