// Package logger provides structured logging utilities built on Go's standard
// slog package: environment presets, a small option set, and attribute helpers
// for the security events emitted by the sanitizer, validator, CSRF and CSP
// layers.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithProduction("portal"),
//	)
//
//	log.Warn("csrf validation failed",
//		logger.Component("csrf"),
//		logger.RequestID(id),
//		logger.Error(err),
//	)
//
// # Environment Configurations
//
//	// Development: text format, debug level, stdout
//	devLogger := logger.New(logger.WithDevelopment("portal"))
//
//	// Production: JSON format, info level, stdout
//	prodLogger := logger.New(logger.WithProduction("portal"))
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(
//		logger.WithJSONFormatter(),
//		logger.WithOutput(&buf),
//	)
//
// Attribute helpers return an empty slog.Attr for empty input, so they can be
// passed unconditionally.
package logger
