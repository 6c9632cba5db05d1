// Command trainerd is the main entry point for the interactive trainer
// server: the speech gateway, the chapter assistant API, and the course
// pages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/Aditya-402/Interactive-trainer/internal/chapter"
	"github.com/Aditya-402/Interactive-trainer/internal/config"
	"github.com/Aditya-402/Interactive-trainer/internal/content"
	"github.com/Aditya-402/Interactive-trainer/internal/health"
	"github.com/Aditya-402/Interactive-trainer/internal/observe"
	"github.com/Aditya-402/Interactive-trainer/internal/resilience"
	"github.com/Aditya-402/Interactive-trainer/internal/server"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant/gemini"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant/inline"
	assistantmock "github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant/mock"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
	googlespeech "github.com/Aditya-402/Interactive-trainer/pkg/provider/speech/google"
	speechmock "github.com/Aditya-402/Interactive-trainer/pkg/provider/speech/mock"
	oaispeech "github.com/Aditya-402/Interactive-trainer/pkg/provider/speech/openai"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "trainerd: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "trainerd: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger, logLevel := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("trainerd starting",
		"config", *configPath,
		"mode", cfg.Server.Mode,
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "interactive-trainer",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics := observe.DefaultMetrics()

	// ── Content store ─────────────────────────────────────────────────────────
	chapters := cfg.Content.Chapters
	if len(chapters) == 0 {
		chapters, err = content.DiscoverChapters(cfg.Content.Dir)
		if err != nil {
			slog.Error("failed to discover chapters", "dir", cfg.Content.Dir, "err", err)
			return 1
		}
	}
	store, err := content.NewDirStore(cfg.Content.Dir, chapters)
	if err != nil {
		slog.Error("failed to open content store", "err", err)
		return 1
	}
	slog.Info("content store ready", "dir", cfg.Content.Dir, "chapters", len(chapters))

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(ctx, reg, cfg)

	// A missing or broken provider disables its feature rather than aborting
	// startup; the affected endpoints answer 503 until the config is fixed.
	speechProvider, err := reg.CreateSpeech(cfg.Providers.Speech)
	if err != nil {
		slog.Error("speech provider unavailable, speech endpoints will return 503",
			"name", cfg.Providers.Speech.Name, "err", err)
		speechProvider = speech.Unavailable{}
	} else if cfg.Providers.Speech.Name == "" {
		slog.Warn("no speech provider configured, speech endpoints will return 503")
	} else {
		slog.Info("provider created", "kind", "speech", "name", cfg.Providers.Speech.Name)
	}

	assistantProvider, err := reg.CreateAssistant(cfg.Providers.Assistant)
	if err != nil {
		slog.Error("assistant provider unavailable, assistant endpoints will return 503",
			"name", cfg.Providers.Assistant.Name, "err", err)
		assistantProvider = assistant.Unavailable{}
	} else if cfg.Providers.Assistant.Name == "" {
		slog.Warn("no assistant provider configured, assistant endpoints will return 503")
	} else {
		slog.Info("provider created", "kind", "assistant", "name", cfg.Providers.Assistant.Name)
	}

	// ── Resilience ────────────────────────────────────────────────────────────
	breakerCfg := resilience.BreakerConfig{
		MaxFailures:  5,
		ResetTimeout: 30 * time.Second,
	}

	var resilientSpeech speech.Provider
	var speechCheck health.Checker
	if len(cfg.Providers.SpeechFallbacks) > 0 {
		chain := resilience.NewSpeechFallback(speechProvider, cfg.Providers.Speech.Name,
			resilience.FallbackConfig{Breaker: breakerCfg})
		for _, entry := range cfg.Providers.SpeechFallbacks {
			p, err := reg.CreateSpeech(entry)
			if err != nil {
				slog.Warn("skipping speech fallback", "name", entry.Name, "err", err)
				continue
			}
			chain.AddFallback(entry.Name, p)
			slog.Info("provider created", "kind", "speech-fallback", "name", entry.Name)
		}
		resilientSpeech = chain
		speechCheck = health.SpeechBackends(chain)
	} else {
		guard := resilience.NewGuardedSpeech(speechProvider, breakerCfg)
		resilientSpeech = guard
		speechCheck = health.SpeechCircuits(guard)
	}

	// ── Chapter assistant ─────────────────────────────────────────────────────
	var chapterOpts []chapter.Option
	if cfg.Assistant.Sentinel != "" {
		chapterOpts = append(chapterOpts, chapter.WithSentinel(cfg.Assistant.Sentinel))
	}
	if cfg.Assistant.Refusal != "" {
		chapterOpts = append(chapterOpts, chapter.WithRefusal(cfg.Assistant.Refusal))
	}
	cache := chapter.NewCache(assistantProvider, store, chapterOpts...)
	course := chapter.NewCourse(assistantProvider, store, chapterOpts...)

	// ── HTTP server ───────────────────────────────────────────────────────────
	healthHandler := health.New(
		health.ContentStore(store),
		speechCheck,
	)

	srv, err := server.New(server.Options{
		Config:       cfg.Server,
		Speech:       resilientSpeech,
		Cache:        cache,
		Course:       course,
		Store:        store,
		Health:       healthHandler,
		Metrics:      metrics,
		Greeting:     cfg.Speech.Greeting,
		Voice:        cfg.Speech.Voice,
		TemplatesDir: cfg.Content.TemplatesDir,
	})
	if err != nil {
		slog.Error("failed to initialise server", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Compare(old, new)
		if !d.Changed() {
			return
		}
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		if d.GreetingChanged || d.VoiceChanged {
			srv.SetSpeechDefaults(new.Speech.Greeting, new.Speech.Voice)
			slog.Info("speech defaults updated", "voice", new.Speech.Voice)
		}
		for _, field := range d.RestartRequired {
			slog.Warn("config change requires a restart to take effect", "field", field)
		}
	})
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	printStartupSummary(cfg, chapters)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// inlineBackends are the assistant backends served through the shared
// chat-completions client.
var inlineBackends = []string{"openai", "anthropic", "ollama", "mistral", "groq"}

// registerBuiltinProviders wires the built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages.
func registerBuiltinProviders(ctx context.Context, reg *config.Registry, cfg *config.Config) {
	// ── Speech ────────────────────────────────────────────────────────────────

	reg.RegisterSpeech("google", func(entry config.ProviderEntry) (speech.Provider, error) {
		var opts []googlespeech.Option
		if entry.CredentialsFile != "" {
			opts = append(opts, googlespeech.WithCredentialsFile(entry.CredentialsFile))
		}
		if cfg.Speech.Language != "" {
			opts = append(opts, googlespeech.WithLanguage(cfg.Speech.Language))
		}
		if cfg.Speech.Voice != "" {
			opts = append(opts, googlespeech.WithVoice(cfg.Speech.Voice))
		}
		return googlespeech.New(ctx, opts...)
	})

	reg.RegisterSpeech("openai", func(entry config.ProviderEntry) (speech.Provider, error) {
		var opts []oaispeech.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaispeech.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, oaispeech.WithSpeechModel(entry.Model))
		}
		if cfg.Speech.Voice != "" {
			opts = append(opts, oaispeech.WithVoice(cfg.Speech.Voice))
		}
		return oaispeech.New(entry.APIKey, opts...)
	})

	// mock serves local development without provider credentials.
	reg.RegisterSpeech("mock", func(config.ProviderEntry) (speech.Provider, error) {
		return &speechmock.Provider{
			SynthesisResult: speech.SynthesisResult{MIMEType: "audio/mpeg"},
			Transcript:      "mock transcript",
		}, nil
	})

	// An empty name keeps speech disabled; every call fails with the typed
	// unavailable error and the HTTP surface answers 503.
	reg.RegisterSpeech("", func(config.ProviderEntry) (speech.Provider, error) {
		return speech.Unavailable{}, nil
	})

	// ── Assistant ─────────────────────────────────────────────────────────────

	reg.RegisterAssistant("gemini", func(entry config.ProviderEntry) (assistant.Provider, error) {
		var opts []gemini.Option
		if entry.Model != "" {
			opts = append(opts, gemini.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(entry.BaseURL))
		}
		if cfg.Assistant.Sentinel != "" {
			opts = append(opts, gemini.WithSentinel(cfg.Assistant.Sentinel))
		}
		if cfg.Assistant.SystemPrompt != "" {
			opts = append(opts, gemini.WithSystemPrompt(cfg.Assistant.SystemPrompt))
		}
		if cfg.Assistant.PollIntervalSeconds > 0 {
			opts = append(opts, gemini.WithPollInterval(time.Duration(cfg.Assistant.PollIntervalSeconds)*time.Second))
		}
		if cfg.Assistant.PollAttempts > 0 {
			opts = append(opts, gemini.WithPollAttempts(cfg.Assistant.PollAttempts))
		}
		return gemini.New(entry.APIKey, opts...)
	})

	for _, backendName := range inlineBackends {
		reg.RegisterAssistant(backendName, func(entry config.ProviderEntry) (assistant.Provider, error) {
			var libOpts []anyllmlib.Option
			if entry.APIKey != "" {
				libOpts = append(libOpts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				libOpts = append(libOpts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			var opts []inline.Option
			if cfg.Assistant.Sentinel != "" {
				opts = append(opts, inline.WithSentinel(cfg.Assistant.Sentinel))
			}
			return inline.New(backendName, entry.Model, libOpts, opts...)
		})
	}

	reg.RegisterAssistant("mock", func(config.ProviderEntry) (assistant.Provider, error) {
		return &assistantmock.Provider{
			Reply: assistant.Reply{Text: "This is a mock assistant reply."},
		}, nil
	})

	// An empty name keeps the assistant disabled; grounding fails with the
	// typed unavailable error and the HTTP surface answers 503.
	reg.RegisterAssistant("", func(config.ProviderEntry) (assistant.Provider, error) {
		return assistant.Unavailable{}, nil
	})
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, chapters []int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║   Interactive trainer — startup       ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Speech", cfg.Providers.Speech.Name, cfg.Providers.Speech.Model)
	printProvider("Assistant", cfg.Providers.Assistant.Name, cfg.Providers.Assistant.Model)
	fmt.Printf("║  Chapters        : %-19d ║\n", len(chapters))
	fmt.Printf("║  Mode            : %-19s ║\n", cfg.Server.Mode)
	fmt.Printf("║  Port            : %-19d ║\n", cfg.Server.Port)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger builds the default text logger. The returned LevelVar lets the
// config hot-reload path adjust verbosity without replacing the handler.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
