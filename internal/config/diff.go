package config

import (
	"fmt"
	"slices"
)

// Diff describes what changed between two configs. Only fields that can be
// safely applied to a running server are tracked individually; everything
// else lands in RestartRequired.
type Diff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	GreetingChanged bool
	NewGreeting     string

	VoiceChanged bool
	NewVoice     string

	// RestartRequired lists dotted config paths whose new values only take
	// effect after a restart.
	RestartRequired []string
}

// Changed reports whether the diff carries any change at all.
func (d Diff) Changed() bool {
	return d.LogLevelChanged || d.GreetingChanged || d.VoiceChanged || len(d.RestartRequired) > 0
}

// Compare returns what changed between old and new.
func Compare(old, new *Config) Diff {
	d := Diff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Speech.Greeting != new.Speech.Greeting {
		d.GreetingChanged = true
		d.NewGreeting = new.Speech.Greeting
	}
	if old.Speech.Voice != new.Speech.Voice {
		d.VoiceChanged = true
		d.NewVoice = new.Speech.Voice
	}

	// Everything below is baked into providers, grounded conversations, or
	// the listener at startup.
	restart := func(path string) { d.RestartRequired = append(d.RestartRequired, path) }

	if old.Server.Host != new.Server.Host {
		restart("server.host")
	}
	if old.Server.Port != new.Server.Port {
		restart("server.port")
	}
	if old.Server.Mode != new.Server.Mode {
		restart("server.mode")
	}
	if !slices.Equal(old.Server.CORSAllowedOrigins, new.Server.CORSAllowedOrigins) {
		restart("server.cors_allowed_origins")
	}
	if entryKey(old.Providers.Speech) != entryKey(new.Providers.Speech) {
		restart("providers.speech")
	}
	if entryKey(old.Providers.Assistant) != entryKey(new.Providers.Assistant) {
		restart("providers.assistant")
	}
	if !slices.EqualFunc(old.Providers.SpeechFallbacks, new.Providers.SpeechFallbacks,
		func(a, b ProviderEntry) bool { return entryKey(a) == entryKey(b) }) {
		restart("providers.speech_fallbacks")
	}
	if old.Speech.Language != new.Speech.Language {
		restart("speech.language")
	}
	if old.Assistant != new.Assistant {
		restart("assistant")
	}
	if old.Content.Dir != new.Content.Dir {
		restart("content.dir")
	}
	if !slices.Equal(old.Content.Chapters, new.Content.Chapters) {
		restart("content.chapters")
	}
	if old.Content.TemplatesDir != new.Content.TemplatesDir {
		restart("content.templates_dir")
	}

	return d
}

// entryKey flattens the comparable parts of a provider entry. The Options
// map is not comparable directly, so the entry goes through fmt.
func entryKey(e ProviderEntry) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%v",
		e.Name, e.APIKey, e.CredentialsFile, e.BaseURL, e.Model, e.Options)
}
