package sanitizer_test

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portalguard/core/sanitizer"
)

func TestText_NilInput(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	res := s.Text(nil)
	assert.Equal(t, "", res.Sanitized)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{sanitizer.ViolationEmptyValue}, res.Violations)

	var p *string
	res = s.Text(p, sanitizer.WithAllowEmptyValues(true))
	assert.Equal(t, "", res.Sanitized)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Violations)
}

func TestText_DangerousPatterns(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	tests := []struct {
		name      string
		input     string
		want      string
		violation string
	}{
		{
			name:      "script block with content",
			input:     `<script>alert('xss')</script>Hello`,
			want:      "Hello",
			violation: "Removed script tag",
		},
		{
			name:      "javascript protocol",
			input:     "javascript:alert(1)",
			want:      "alert(1)",
			violation: "Removed javascript protocol",
		},
		{
			name:      "full-width javascript protocol",
			input:     "ｊａｖａｓｃｒｉｐｔ：alert(1)",
			want:      "alert(1)",
			violation: "Removed javascript protocol",
		},
		{
			name:      "vbscript protocol",
			input:     "vbscript:msgbox",
			want:      "msgbox",
			violation: "Removed vbscript protocol",
		},
		{
			name:      "SQL keyword",
			input:     "1; DROP TABLE users",
			want:      "1; TABLE users",
			violation: "Removed SQL keyword",
		},
		{
			name:      "path traversal",
			input:     "../../secret",
			want:      "secret",
			violation: "Removed path traversal",
		},
		{
			name:      "entity encoded script",
			input:     "&lt;script&gt;alert(1)&lt;/script&gt;ok",
			want:      "ok",
			violation: "Removed script tag",
		},
		{
			name:      "doubly encoded script",
			input:     "&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;ok",
			want:      "ok",
			violation: "Removed script tag",
		},
		{
			name:      "numeric entity",
			input:     "jav&#x61;script",
			want:      "javscript",
			violation: "Removed suspicious HTML entity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := s.Text(tt.input)
			assert.Equal(t, tt.want, res.Sanitized)
			assert.Contains(t, res.Violations, tt.violation)
			assert.False(t, res.IsValid)
			assert.True(t, res.WasModified)
		})
	}
}

func TestText_NoDangerousPatternsSurvive(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()
	inputs := []string{
		`<script>alert(1)</script>`,
		`<scr<script>ipt>alert(1)</script>`,
		`<img src=x onerror=alert(1)>`,
		`<a onclick="steal()">x</a>`,
		`<a href="javascript:alert(1)">x</a>`,
		`<a href="JaVaScRiPt :alert(1)">x</a>`,
		`<iframe src="data:text/html;base64,PHNjcmlwdD4=">`,
		`vbscript:run`,
		`' UNION SELECT password FROM users --`,
		`&#x3C;script&#x3E;alert(1)&#x3C;/script&#x3E;`,
		`&amp;amp;lt;script&amp;amp;gt;x`,
		`javas&#99;ript:alert(1)`,
	}

	forbidden := []string{"<script", "onclick=", "onerror=", "javascript:", "vbscript:", "data:", "union", "select"}

	for _, in := range inputs {
		out := strings.ToLower(s.Text(in).Sanitized)
		for _, f := range forbidden {
			assert.NotContains(t, out, f, "input %q", in)
		}
	}
}

func TestText_Idempotent(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()
	inputs := []string{
		"plain text",
		`<b>bold</b> & 'quoted'`,
		`<script>alert('xss')</script>Hello`,
		"a  b\n\nc",
		"javascript:javascript:alert(1)",
		"..././etc",
		"&amp;lt;b&amp;gt;",
		"Tom & \"Jerry\" / friends",
		strings.Repeat("&<>", 500),
		"javascript&" + strings.Repeat("amp;", 30) + "colon;alert(1)",
		"x&" + strings.Repeat("amp;", 25) + "lt;b",
	}

	for _, in := range inputs {
		first := s.Text(in)
		second := s.Text(first.Sanitized)
		assert.Equal(t, first.Sanitized, second.Sanitized, "input %q", in)
		assert.Empty(t, second.Violations, "input %q", in)
		assert.False(t, second.WasModified, "input %q", in)
	}
}

func TestText_NestedEncoding(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()
	payloads := []string{
		`<script>alert(1)</script>`,
		`<a href="javascript:alert(1)">x</a>`,
		`<img src=x onerror=alert(1)>`,
	}
	forbidden := []string{"<script", "javascript:", "onerror="}

	for _, payload := range payloads {
		encoded := payload
		for level := 1; level <= 30; level++ {
			encoded = html.EscapeString(encoded)
			in := encoded
			t.Run(fmt.Sprintf("%d/%s", level, payload), func(t *testing.T) {
				t.Parallel()

				first := s.Text(in)
				decoded := strings.ToLower(html.UnescapeString(first.Sanitized))
				for _, f := range forbidden {
					assert.NotContains(t, decoded, f)
				}

				second := s.Text(first.Sanitized)
				assert.Equal(t, first.Sanitized, second.Sanitized)
				assert.Empty(t, second.Violations)
			})
		}
	}
}

func TestText_LengthBound(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()
	inputs := []string{
		strings.Repeat("a", 2000),
		strings.Repeat("&", 100),
		strings.Repeat("<>\"'/", 40),
		strings.Repeat("ж", 300),
	}

	for _, n := range []int{1, 3, 5, 10, 50} {
		for _, in := range inputs {
			res := s.Text(in, sanitizer.WithMaxLength(n))
			assert.LessOrEqual(t, utf8.RuneCountInString(res.Sanitized), n, "input %q max %d", in, n)
		}
	}

	res := s.Text(strings.Repeat("a", 1500))
	assert.Equal(t, sanitizer.DefaultMaxLength, utf8.RuneCountInString(res.Sanitized))
	assert.Contains(t, res.Violations, "Input truncated to 1000 characters")
}

func TestText_EscapesHTML(t *testing.T) {
	t.Parallel()

	res := sanitizer.New().Text(`Tom & "Jerry" <b>'hi'</b>`)
	assert.Equal(t, "Tom &amp; &quot;Jerry&quot; &lt;b&gt;&#x27;hi&#x27;&lt;&#x2F;b&gt;", res.Sanitized)
	assert.True(t, res.IsValid)
	assert.True(t, res.WasModified)
	assert.Empty(t, res.Violations)
}

func TestText_AllowedTags(t *testing.T) {
	t.Parallel()

	s := sanitizer.New(
		sanitizer.WithAllowedTags("b", "a"),
		sanitizer.WithAllowedAttributes("href"),
	)

	res := s.Text(`<b>bold</b> <i>italic</i> <a href="https://example.com" onclick="x()">link</a>`)
	assert.Contains(t, res.Sanitized, "<b>bold</b>")
	assert.Contains(t, res.Sanitized, "italic")
	assert.Contains(t, res.Sanitized, "link")
	assert.NotContains(t, res.Sanitized, "<i>")
	assert.NotContains(t, res.Sanitized, "onclick")
	assert.Contains(t, res.Violations, "Removed event handler")
}

func TestText_Whitespace(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	assert.Equal(t, "a b c", s.Text("  a  b\n\n c  ").Sanitized)
	assert.Equal(t, "a  b\n\n c", s.Text("  a  b\n\n c  ", sanitizer.WithPreserveNewlines(true)).Sanitized)
	assert.Equal(t, "  a  ", s.Text("  a  ", sanitizer.WithStripWhitespace(false)).Sanitized)
}

func TestText_CustomValidators(t *testing.T) {
	t.Parallel()

	s := sanitizer.New(sanitizer.WithCustomValidators(
		func(v string) (string, error) { return strings.ToUpper(v), nil },
		func(v string) (string, error) { return "", errors.New("boom") },
		func(v string) (string, error) { panic("bad") },
		func(v string) (string, error) { return v + "!", nil },
	))

	res := s.Text("hello")
	assert.Equal(t, "HELLO!", res.Sanitized)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"Custom validator 2 failed: boom",
		"Custom validator 3 failed: panic: bad",
	}, res.Violations)
}

func TestText_NonStringInput(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()
	assert.Equal(t, "42", s.Text(42).Sanitized)
	assert.Equal(t, "true", s.Text(true).Sanitized)
	assert.Equal(t, "bytes", s.Text([]byte("bytes")).Sanitized)
}

func TestEmail(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	res := s.Email("USER@EXAMPLE.COM")
	assert.Equal(t, "user@example.com", res.Sanitized)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Violations)

	res = s.Email("  john.doe+portal@isp.co.uk ")
	assert.Equal(t, "john.doe+portal@isp.co.uk", res.Sanitized)
	assert.True(t, res.IsValid)

	res = s.Email("O'Neil@Example.com")
	assert.Equal(t, "o'neil@example.com", res.Sanitized)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Violations)

	res = s.Email("a&lt;b@example.com")
	assert.Equal(t, "", res.Sanitized)
	assert.False(t, res.IsValid)

	res = s.Email("not-an-email")
	assert.Equal(t, "", res.Sanitized)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Violations, sanitizer.ViolationInvalidEmail)

	res = s.Email(nil)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{sanitizer.ViolationEmptyValue}, res.Violations)
}

func TestPhone(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	res := s.Phone("+1-555-123-4567")
	assert.Equal(t, "+1-555-123-4567", res.Sanitized)
	assert.True(t, res.IsValid)
	assert.Len(t, sanitizer.KeepDigits(res.Sanitized), 11)

	res = s.Phone("123")
	assert.Equal(t, "", res.Sanitized)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Violations, sanitizer.ViolationInvalidPhone)

	res = s.Phone("(555) 123-4567 ext")
	assert.Equal(t, "(555) 123-4567", res.Sanitized)
	assert.True(t, res.IsValid)
	assert.Contains(t, res.Violations, "Removed invalid phone characters")

	res = s.Phone("1234567890123456")
	assert.False(t, res.IsValid)
}

func TestNumber(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	tests := []struct {
		name      string
		input     any
		opts      sanitizer.NumberOptions
		want      string
		value     float64
		valid     bool
		violation string
	}{
		{
			name:      "clamp to maximum",
			input:     "250",
			opts:      sanitizer.NumberOptions{Min: sanitizer.Ptr(100.0), Max: sanitizer.Ptr(200.0)},
			want:      "200",
			value:     200,
			valid:     false,
			violation: "Value decreased to maximum (200)",
		},
		{
			name:      "clamp to minimum",
			input:     "50",
			opts:      sanitizer.NumberOptions{Min: sanitizer.Ptr(100.0)},
			want:      "100",
			value:     100,
			valid:     false,
			violation: "Value increased to minimum (100)",
		},
		{
			name:      "rounding is informational",
			input:     "3.14159",
			opts:      sanitizer.NumberOptions{Decimals: sanitizer.Ptr(2)},
			want:      "3.14",
			value:     3.14,
			valid:     true,
			violation: "Value rounded to 2 decimal places",
		},
		{
			name:      "stripped characters",
			input:     "$1,234.5",
			want:      "1234.5",
			value:     1234.5,
			valid:     true,
			violation: "Removed non-numeric characters",
		},
		{
			name:  "negative",
			input: "-42",
			want:  "-42",
			value: -42,
			valid: true,
		},
		{
			name:  "native float",
			input: 12.5,
			want:  "12.5",
			value: 12.5,
			valid: true,
		},
		{
			name:      "not a number",
			input:     "abc",
			want:      "",
			valid:     false,
			violation: sanitizer.ViolationInvalidNum,
		},
		{
			name:      "longest numeric prefix",
			input:     "1.2.3",
			want:      "1.2",
			value:     1.2,
			valid:     true,
			violation: "Removed non-numeric characters",
		},
		{
			name:      "lone dot",
			input:     ".",
			want:      "",
			valid:     false,
			violation: sanitizer.ViolationInvalidNum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := s.Number(tt.input, tt.opts)
			assert.Equal(t, tt.want, res.Sanitized)
			assert.Equal(t, tt.valid, res.IsValid)
			assert.InDelta(t, tt.value, res.Value, 1e-9)
			if tt.violation != "" {
				assert.Contains(t, res.Violations, tt.violation)
			} else {
				assert.Empty(t, res.Violations)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	res := s.Path("../../etc/passwd")
	assert.Equal(t, "etc/passwd", res.Sanitized)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Violations, "Removed path traversal")

	res = s.Path(`..\..\windows\system32`)
	assert.Equal(t, `windows\system32`, res.Sanitized)

	res = s.Path("docs/report?.pdf")
	assert.Equal(t, "docs/report.pdf", res.Sanitized)
	assert.Contains(t, res.Violations, "Removed invalid path characters")

	res = s.Path("a\x00b|c")
	assert.Equal(t, "abc", res.Sanitized)

	res = s.Path("..<./secret")
	assert.Equal(t, "secret", res.Sanitized)

	res = s.Path("reports/2024/q1.pdf")
	assert.Equal(t, "reports/2024/q1.pdf", res.Sanitized)
	assert.True(t, res.IsValid)
	assert.False(t, res.WasModified)
}

func TestObject(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()
	obj := map[string]any{
		"email": "bad",
		"phone": "555",
		"name":  "  Bob  ",
		"extra": 5,
	}

	res := s.Object(obj, map[string]sanitizer.FieldConfig{
		"email": {Type: sanitizer.FieldEmail},
		"phone": {Type: sanitizer.FieldPhone},
		"name":  {Type: sanitizer.FieldText},
		"zip":   {Type: sanitizer.FieldText},
	})

	assert.False(t, res.IsValid)
	assert.Equal(t, "", res.Sanitized["email"])
	assert.Equal(t, "", res.Sanitized["phone"])
	assert.Equal(t, "Bob", res.Sanitized["name"])
	assert.Equal(t, 5, res.Sanitized["extra"])
	assert.NotContains(t, res.Sanitized, "zip")
	assert.NotEmpty(t, res.Violations["email"])
	assert.NotEmpty(t, res.Violations["phone"])
	assert.NotContains(t, res.Violations, "name")

	// input untouched
	assert.Equal(t, "  Bob  ", obj["name"])
}

func TestObject_AllValid(t *testing.T) {
	t.Parallel()

	res := sanitizer.SanitizeObject(
		map[string]any{"amount": "150", "email": "A@B.IO"},
		map[string]sanitizer.FieldConfig{
			"amount": {Type: sanitizer.FieldNumber, Number: sanitizer.NumberOptions{Max: sanitizer.Ptr(200.0)}},
			"email":  {Type: sanitizer.FieldEmail},
		},
	)

	assert.True(t, res.IsValid)
	assert.Empty(t, res.Violations)
	assert.Equal(t, "150", res.Sanitized["amount"])
	assert.Equal(t, "a@b.io", res.Sanitized["email"])
}

func TestStruct(t *testing.T) {
	t.Parallel()

	type Address struct {
		Street string `sanitize:"text"`
		Zip    string `sanitize:"digits"`
	}

	type Signup struct {
		Email   string   `sanitize:"trim,email"`
		Name    string   `sanitize:"text,max:5"`
		Bio     *string  `sanitize:"text"`
		Tags    []string `sanitize:"trim,lower"`
		Code    string   `sanitize:"shout"`
		Address Address
		Skip    string `sanitize:"-"`
		NoTag   string
	}

	s := sanitizer.New(sanitizer.WithTagSanitizer("shout", strings.ToUpper))

	bio := "<script>x</script>hi"
	in := Signup{
		Email:   " USER@Example.com ",
		Name:    "  Alexander  ",
		Bio:     &bio,
		Tags:    []string{" A ", "B"},
		Code:    "abc",
		Address: Address{Street: "  Main   St ", Zip: "12-345"},
		Skip:    "  skip  ",
		NoTag:   "  keep  ",
	}

	violations, err := s.Struct(&in)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", in.Email)
	assert.Equal(t, "Alexa", in.Name)
	assert.Equal(t, "hi", *in.Bio)
	assert.Equal(t, []string{"a", "b"}, in.Tags)
	assert.Equal(t, "ABC", in.Code)
	assert.Equal(t, "Main St", in.Address.Street)
	assert.Equal(t, "12345", in.Address.Zip)
	assert.Equal(t, "  skip  ", in.Skip)
	assert.Equal(t, "  keep  ", in.NoTag)
	assert.Equal(t, map[string][]string{"Bio": {"Removed script tag"}}, violations)
}

func TestStruct_Errors(t *testing.T) {
	t.Parallel()

	s := sanitizer.New()

	type Unknown struct {
		Name string `sanitize:"nope"`
	}

	_, err := s.Struct(&Unknown{Name: "x"})
	require.ErrorIs(t, err, sanitizer.ErrUnknownTag)

	_, err = s.Struct(Unknown{})
	require.ErrorIs(t, err, sanitizer.ErrNotStructPointer)

	// custom tags are per instance
	type Custom struct {
		Code string `sanitize:"shout"`
	}
	_, err = sanitizer.SanitizeStruct(&Custom{Code: "x"})
	require.ErrorIs(t, err, sanitizer.ErrUnknownTag)
}

func TestDetect(t *testing.T) {
	t.Parallel()

	found := sanitizer.Detect(`<script>x</script><a onclick=y>`)
	assert.Contains(t, found, sanitizer.CategoryScriptTag)
	assert.Contains(t, found, sanitizer.CategoryEventHandler)

	assert.Empty(t, sanitizer.Detect("hello &#x27;world&#x27;"))
	assert.True(t, sanitizer.ContainsDangerous("javascript:x"))
	assert.False(t, sanitizer.ContainsDangerous("hello"))
}

func TestSanitizer_ConfigIsImmutable(t *testing.T) {
	t.Parallel()

	s := sanitizer.New(sanitizer.WithMaxLength(10))
	_ = s.Text("x", sanitizer.WithMaxLength(3), sanitizer.WithAllowedTags("b"))

	cfg := s.Config()
	assert.Equal(t, 10, cfg.MaxLength)
	assert.Empty(t, cfg.AllowedTags)

	cfg.AllowedTags = append(cfg.AllowedTags, "i")
	assert.Empty(t, s.Config().AllowedTags)

	derived := s.With(sanitizer.WithMaxLength(20))
	assert.Equal(t, 20, derived.Config().MaxLength)
	assert.Equal(t, 10, s.Config().MaxLength)
}

func TestMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, sanitizer.Matches("<SCRIPT src=x>", sanitizer.CategoryScriptTag))
	assert.True(t, sanitizer.Matches("drop table", sanitizer.CategorySQLKeyword))
	assert.False(t, sanitizer.Matches("dropped", sanitizer.CategorySQLKeyword))
	assert.False(t, sanitizer.Matches("&#x27;", sanitizer.CategoryHTMLEntity))
	assert.True(t, sanitizer.IsValidEmail("User@Example.COM"))
	assert.False(t, sanitizer.IsValidEmail("user@"))
}
