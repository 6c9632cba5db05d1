package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPort is used when neither the config file nor PORT sets one.
const DefaultPort = 5001

// devOrigins are the browser origins allowed in development mode when no
// explicit allowlist is configured. They match the usual static dev servers.
var devOrigins = []string{
	"http://127.0.0.1:5500",
	"http://localhost:5500",
}

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to reject unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"speech":    {"google", "openai", "mock"},
	"assistant": {"gemini", "openai", "anthropic", "ollama", "mistral", "groq", "mock"},
}

// Load reads the YAML configuration file at path, overlays environment
// variables, and returns a validated [Config]. An empty path yields a config
// built from defaults and the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: decode %q: %w", path, err)
		}
	}
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Environment variables are not consulted. Useful in
// tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays well-known environment variables onto cfg. Environment
// values win over file values.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		if strings.EqualFold(v, "production") {
			cfg.Server.Mode = ModeProduction
		} else {
			cfg.Server.Mode = ModeDevelopment
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSAllowedOrigins = origins
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Providers.Assistant.APIKey == "" {
		cfg.Providers.Assistant.APIKey = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Providers.Speech.CredentialsFile == "" {
		cfg.Providers.Speech.CredentialsFile = v
	}
}

// applyDefaults fills zero values with the documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = ModeDevelopment
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Host == "" {
		if cfg.Server.Mode == ModeProduction {
			cfg.Server.Host = "0.0.0.0"
		} else {
			cfg.Server.Host = "127.0.0.1"
		}
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 && cfg.Server.Mode == ModeDevelopment {
		cfg.Server.CORSAllowedOrigins = slices.Clone(devOrigins)
	}
	if cfg.Speech.Greeting == "" {
		cfg.Speech.Greeting = "Welcome to the interactive trainer. Pick a chapter to get started."
	}
	if cfg.Speech.Language == "" {
		cfg.Speech.Language = "en-US"
	}
	if cfg.Assistant.PollIntervalSeconds == 0 {
		cfg.Assistant.PollIntervalSeconds = 2
	}
	if cfg.Assistant.PollAttempts == 0 {
		cfg.Assistant.PollAttempts = 15
	}
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range [1, 65535]", cfg.Server.Port))
	}
	if cfg.Server.Mode != "" && !cfg.Server.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("server.mode %q is invalid; valid values: development, production", cfg.Server.Mode))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.Mode == ModeProduction && len(cfg.Server.CORSAllowedOrigins) == 0 {
		errs = append(errs, errors.New("server.cors_allowed_origins is required in production mode"))
	}

	if err := validateProviderName("speech", cfg.Providers.Speech.Name); err != nil {
		errs = append(errs, err)
	}
	if err := validateProviderName("assistant", cfg.Providers.Assistant.Name); err != nil {
		errs = append(errs, err)
	}
	for _, fb := range cfg.Providers.SpeechFallbacks {
		if err := validateProviderName("speech", fb.Name); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.Assistant.PollIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("assistant.poll_interval_seconds %d must not be negative", cfg.Assistant.PollIntervalSeconds))
	}
	if cfg.Assistant.PollAttempts < 1 {
		errs = append(errs, fmt.Errorf("assistant.poll_attempts %d must be at least 1", cfg.Assistant.PollAttempts))
	}

	return errors.Join(errs...)
}

// validateProviderName rejects names not found in [ValidProviderNames] for
// the given kind. Empty names are allowed; the component stays disabled.
func validateProviderName(kind, name string) error {
	if name == "" {
		return nil
	}
	known := ValidProviderNames[kind]
	if slices.Contains(known, name) {
		return nil
	}
	return fmt.Errorf("providers.%s.name %q is unknown; valid values: %s", kind, name, strings.Join(known, ", "))
}
