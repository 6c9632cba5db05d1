package config_test

import (
	"errors"
	"testing"

	"github.com/Aditya-402/Interactive-trainer/internal/config"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
	assistantmock "github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant/mock"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
	speechmock "github.com/Aditya-402/Interactive-trainer/pkg/provider/speech/mock"
)

func TestRegistry_CreateSpeech(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()
	r.RegisterSpeech("mock", func(config.ProviderEntry) (speech.Provider, error) {
		return &speechmock.Provider{}, nil
	})

	p, err := r.CreateSpeech(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected a provider instance")
	}
}

func TestRegistry_CreateAssistant(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()
	r.RegisterAssistant("mock", func(config.ProviderEntry) (assistant.Provider, error) {
		return &assistantmock.Provider{}, nil
	})

	p, err := r.CreateAssistant(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected a provider instance")
	}
}

func TestRegistry_NotRegistered(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()

	if _, err := r.CreateSpeech(config.ProviderEntry{Name: "nope"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got %v", err)
	}
	if _, err := r.CreateAssistant(config.ProviderEntry{Name: "nope"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got %v", err)
	}
}

func TestRegistry_FactoryReceivesEntry(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()

	var seen config.ProviderEntry
	r.RegisterSpeech("mock", func(e config.ProviderEntry) (speech.Provider, error) {
		seen = e
		return &speechmock.Provider{}, nil
	})

	entry := config.ProviderEntry{Name: "mock", APIKey: "k", Model: "m"}
	if _, err := r.CreateSpeech(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.APIKey != "k" || seen.Model != "m" {
		t.Errorf("factory received wrong entry %+v", seen)
	}
}
