package config_test

import (
	"strings"
	"testing"

	"github.com/Aditya-402/Interactive-trainer/internal/config"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Mode != config.ModeDevelopment {
		t.Errorf("expected development mode, got %q", cfg.Server.Mode)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected loopback host in development, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != config.DefaultPort {
		t.Errorf("expected default port %d, got %d", config.DefaultPort, cfg.Server.Port)
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		t.Error("development mode must allow the local dev origins")
	}
	if cfg.Assistant.PollAttempts < 1 {
		t.Errorf("poll attempts default missing, got %d", cfg.Assistant.PollAttempts)
	}
	if cfg.Content.Dir != "content" {
		t.Errorf("expected default content dir, got %q", cfg.Content.Dir)
	}
}

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  host: 0.0.0.0
  port: 8080
  mode: production
  log_level: debug
  cors_allowed_origins:
    - https://trainer.example.com
providers:
  speech:
    name: google
    credentials_file: /etc/trainer/sa.json
  assistant:
    name: gemini
    api_key: test-key
    model: gemini-1.5-pro
speech:
  greeting: Hello there.
  voice: en-US-Neural2-F
assistant:
  sentinel: NOT_IN_SCOPE
  poll_interval_seconds: 1
  poll_attempts: 30
content:
  dir: /srv/trainer/content
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Mode != config.ModeProduction {
		t.Errorf("expected production mode, got %q", cfg.Server.Mode)
	}
	if cfg.Providers.Assistant.Model != "gemini-1.5-pro" {
		t.Errorf("unexpected assistant model %q", cfg.Providers.Assistant.Model)
	}
	if cfg.Providers.Speech.CredentialsFile != "/etc/trainer/sa.json" {
		t.Errorf("unexpected credentials file %q", cfg.Providers.Speech.CredentialsFile)
	}
	if cfg.Speech.Greeting != "Hello there." {
		t.Errorf("unexpected greeting %q", cfg.Speech.Greeting)
	}
	if cfg.Assistant.PollAttempts != 30 {
		t.Errorf("unexpected poll attempts %d", cfg.Assistant.PollAttempts)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_ProductionRequiresOrigins(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  mode: production
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for production mode without CORS origins, got nil")
	}
	if !strings.Contains(err.Error(), "cors_allowed_origins") {
		t.Errorf("error should mention cors_allowed_origins, got: %v", err)
	}
}

func TestValidate_UnknownProviderName(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  speech:
    name: fakespeech
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown provider name, got nil")
	}
	if !strings.Contains(err.Error(), "fakespeech") {
		t.Errorf("error should name the provider, got: %v", err)
	}
}

func TestValidate_InvalidMode(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  mode: staging
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for invalid mode, got nil")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: verbose
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
}

func TestValidate_PortOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  port: 70000
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for out-of-range port, got nil")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/env/sa.json")

	cfg := &config.Config{}
	config.ApplyEnv(cfg)

	if cfg.Server.Mode != config.ModeProduction {
		t.Errorf("expected production mode, got %q", cfg.Server.Mode)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 2 || cfg.Server.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins %v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.Providers.Assistant.APIKey != "env-key" {
		t.Errorf("unexpected assistant API key %q", cfg.Providers.Assistant.APIKey)
	}
	if cfg.Providers.Speech.CredentialsFile != "/env/sa.json" {
		t.Errorf("unexpected credentials file %q", cfg.Providers.Speech.CredentialsFile)
	}
}

func TestApplyEnv_FileValueWins(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := &config.Config{}
	cfg.Providers.Assistant.APIKey = "file-key"
	config.ApplyEnv(cfg)

	if cfg.Providers.Assistant.APIKey != "file-key" {
		t.Errorf("explicit key must win over environment, got %q", cfg.Providers.Assistant.APIKey)
	}
}
