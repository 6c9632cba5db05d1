// Package config provides the configuration schema, loader, and provider
// registry for the interactive trainer server.
package config

// LogLevel controls log verbosity for the trainer server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Mode selects the deployment posture of the server.
type Mode string

const (
	// ModeDevelopment binds to loopback and allows the local dev origins.
	ModeDevelopment Mode = "development"

	// ModeProduction binds to all interfaces and requires an explicit
	// CORS origin allowlist.
	ModeProduction Mode = "production"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	return m == ModeDevelopment || m == ModeProduction
}

// Config is the root configuration structure for the trainer server.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader],
// then overlaid with environment variables via [ApplyEnv].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Speech    SpeechConfig    `yaml:"speech"`
	Assistant AssistantConfig `yaml:"assistant"`
	Content   ContentConfig   `yaml:"content"`
}

// ServerConfig holds network, CORS, and logging settings.
type ServerConfig struct {
	// Host is the interface the server binds to. Defaults to 127.0.0.1 in
	// development mode and 0.0.0.0 in production mode.
	Host string `yaml:"host"`

	// Port is the TCP port the server listens on.
	Port int `yaml:"port"`

	// Mode selects the deployment posture.
	Mode Mode `yaml:"mode"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// In development mode, local dev-server origins are used when empty.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// ProvidersConfig declares which provider implementation to use for each
// backend. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	Speech    ProviderEntry `yaml:"speech"`
	Assistant ProviderEntry `yaml:"assistant"`

	// SpeechFallbacks are tried in order when the primary speech provider
	// fails or its circuit breaker is open.
	SpeechFallbacks []ProviderEntry `yaml:"speech_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "google",
	// "openai", "gemini").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// CredentialsFile is a path to a service-account key file for providers
	// that authenticate with one instead of an API key.
	CredentialsFile string `yaml:"credentials_file"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gemini-1.5-pro", "gpt-4o").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// SpeechConfig holds voice pipeline settings shared by both directions.
type SpeechConfig struct {
	// Greeting is the text spoken by the landing-page greeting endpoint.
	Greeting string `yaml:"greeting"`

	// Voice is the default synthesis voice name. Provider-specific.
	Voice string `yaml:"voice"`

	// Language is the BCP-47 language code for synthesis and recognition.
	Language string `yaml:"language"`
}

// AssistantConfig holds settings for the chapter-grounded assistant.
type AssistantConfig struct {
	// Sentinel is the marker the model emits for out-of-scope questions.
	Sentinel string `yaml:"sentinel"`

	// Refusal is the message returned to users in place of the sentinel.
	Refusal string `yaml:"refusal"`

	// PollIntervalSeconds is the delay between document-readiness probes.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// PollAttempts bounds how many readiness probes are made per document.
	PollAttempts int `yaml:"poll_attempts"`

	// SystemPrompt replaces the built-in grounding prompt when set. It must
	// instruct the model to emit the configured sentinel.
	SystemPrompt string `yaml:"system_prompt"`
}

// ContentConfig locates the chapter material served and grounded on.
type ContentConfig struct {
	// Dir is the directory holding chapter{N}.txt documents.
	Dir string `yaml:"dir"`

	// Chapters is the valid chapter id set. When empty the set is
	// discovered by scanning Dir at startup.
	Chapters []int `yaml:"chapters"`

	// TemplatesDir is the directory holding the HTML pages. Optional; page
	// routes are disabled when empty.
	TemplatesDir string `yaml:"templates_dir"`
}
