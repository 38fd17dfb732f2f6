// Package validator runs named rules against sanitized input and reports
// structured errors and warnings.
//
// Every Validate call first sanitizes the value with a fixed policy: script
// blocks, inline event handlers and javascript:/vbscript: URLs are removed,
// then HTML goes through a bluemonday policy (strict text-only by default,
// an allowlist with WithAllowedTags). Rules then run in registration order
// without short-circuiting:
//
//	v := validator.New(validator.WithRules(
//		validator.Required(),
//		validator.MaxLength(200),
//		validator.NoSQLInjection(),
//	))
//
//	res := v.Validate(input)
//	if !res.IsValid {
//		for _, e := range res.Errors {
//			fmt.Println(e.Rule, e.Message)
//		}
//	}
//
// Error-severity failures go to Errors ("high"); warning and info failures
// go to Warnings ("medium" and "low") and do not affect IsValid.
//
// Presets cover common portal fields: ForTextInput, ForEmail, ForPassword,
// ForURL and ForHTMLContent.
//
// # Struct tags
//
//	type Signup struct {
//		Email string `validate:"required;email"`
//		Name  string `validate:"required;min:2;max:50"`
//		Age   int    `validate:"min:18"`
//	}
//
//	if err := validator.ValidateStruct(&signup); err != nil {
//		var verrs validator.ValidationErrors
//		if errors.As(err, &verrs) {
//			fields := verrs.Fields()
//		}
//	}
//
// Custom tag rules are added with RegisterTag.
package validator
