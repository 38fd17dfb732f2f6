// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads .env files on first use and uses the caarlos0/env library
// for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/portalguard/core/config"
//
//	type CSRFConfig struct {
//		Secret string `env:"CSRF_SECRET,required"`
//		MaxAge int    `env:"CSRF_MAX_AGE" envDefault:"3600"`
//	}
//
//	func main() {
//		var cfg CSRFConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime.
// Different types are cached independently. Use Reset in tests to force a
// reload after changing the environment.
package config
