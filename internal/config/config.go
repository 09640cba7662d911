package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvBackendURL  = "DIAGZ_BACKEND_URL"
	EnvIDToken     = "DIAGZ_ID_TOKEN"
	EnvChatURL     = "DIAGZ_CHAT_URL"
	EnvDB          = "DIAGZ_DB"
	EnvTimeout     = "DIAGZ_TIMEOUT"
	EnvRedirectURL = "DIAGZ_PAYMENT_REDIRECT_URL"
)

// Config holds the client configuration.
type Config struct {
	// BackendURL is the platform backend base URL, e.g. https://api.example.com.
	BackendURL string `env:"DIAGZ_BACKEND_URL" validate:"required,url"`

	// IDToken is sent as the bearer token on every backend request.
	IDToken string `env:"DIAGZ_ID_TOKEN" validate:"required"`

	// ChatURL is the tutor agent WebSocket endpoint. Optional.
	ChatURL string `env:"DIAGZ_CHAT_URL" validate:"omitempty,url"`

	// DBPath overrides the local event store location. Optional.
	DBPath string `env:"DIAGZ_DB"`

	// Timeout bounds a single backend request. Default: 30s.
	Timeout time.Duration `env:"DIAGZ_TIMEOUT" validate:"gt=0"`

	// PaymentRedirectURL is where the payment page sends the user back to.
	PaymentRedirectURL string `env:"DIAGZ_PAYMENT_REDIRECT_URL" validate:"omitempty,url"`
}

// ConfigError reports a missing or invalid setting. It is fatal to the
// operation that needed the setting and is never retried.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

// LoadEnvFile loads variables from a .env file without overriding the ones
// already set. An empty path loads ./.env if it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return &ConfigError{Key: path, Reason: "could not be loaded", Err: err}
	}
	return nil
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv(EnvBackendURL); u != "" {
		cfg.BackendURL = strings.TrimRight(u, "/")
	}
	if t := os.Getenv(EnvIDToken); t != "" {
		cfg.IDToken = t
	}
	if u := os.Getenv(EnvChatURL); u != "" {
		cfg.ChatURL = u
	}
	if p := os.Getenv(EnvDB); p != "" {
		cfg.DBPath = p
	}
	if u := os.Getenv(EnvRedirectURL); u != "" {
		cfg.PaymentRedirectURL = u
	}
	if t := os.Getenv(EnvTimeout); t != "" {
		// An unparsable value fails validation rather than silently
		// falling back to the default.
		d, err := time.ParseDuration(t)
		if err != nil {
			d = 0
		}
		cfg.Timeout = d
	}

	return cfg
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their environment variable name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("env")
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks that the backend connection settings are usable.
// The first problem found is returned as a *ConfigError.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigError{Key: "config", Reason: "is invalid", Err: err}
	}

	fe := verrs[0]
	return &ConfigError{Key: fe.Field(), Reason: describe(fe), Err: err}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "gt":
		return "must be a positive duration"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
