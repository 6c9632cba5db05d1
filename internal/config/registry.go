package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	speech    map[string]func(ProviderEntry) (speech.Provider, error)
	assistant map[string]func(ProviderEntry) (assistant.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		speech:    make(map[string]func(ProviderEntry) (speech.Provider, error)),
		assistant: make(map[string]func(ProviderEntry) (assistant.Provider, error)),
	}
}

// RegisterSpeech registers a speech provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSpeech(name string, factory func(ProviderEntry) (speech.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech[name] = factory
}

// RegisterAssistant registers an assistant provider factory under name.
func (r *Registry) RegisterAssistant(name string, factory func(ProviderEntry) (assistant.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assistant[name] = factory
}

// CreateSpeech instantiates a speech provider using the factory registered
// under entry.Name. Returns [ErrProviderNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateSpeech(entry ProviderEntry) (speech.Provider, error) {
	r.mu.RLock()
	factory, ok := r.speech[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: speech/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateAssistant instantiates an assistant provider using the factory
// registered under entry.Name.
func (r *Registry) CreateAssistant(entry ProviderEntry) (assistant.Provider, error) {
	r.mu.RLock()
	factory, ok := r.assistant[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: assistant/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
