// Package server provides the HTTP surface of the trainer: speech endpoints,
// the chapter assistant API, template pages, and the ambient health and
// metrics routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aditya-402/Interactive-trainer/internal/chapter"
	"github.com/Aditya-402/Interactive-trainer/internal/config"
	"github.com/Aditya-402/Interactive-trainer/internal/content"
	"github.com/Aditya-402/Interactive-trainer/internal/health"
	"github.com/Aditya-402/Interactive-trainer/internal/observe"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// shutdownTimeout bounds how long in-flight requests may run during a
// graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server bundles the HTTP handler set with its dependencies.
type Server struct {
	cfg     config.ServerConfig
	speech  speech.Provider
	cache   *chapter.Cache
	course  *chapter.Course
	store   content.Store
	metrics *observe.Metrics
	health  *health.Handler

	// mu guards greeting and voice, which are replaceable at runtime via
	// [Server.SetSpeechDefaults].
	mu       sync.RWMutex
	greeting string
	voice    string

	templates *template.Template

	httpServer *http.Server
}

// Options carries the dependency set for [New]. Speech, Cache, Course, and
// Store must be non-nil; Health and Metrics fall back to working defaults.
type Options struct {
	Config   config.ServerConfig
	Speech   speech.Provider
	Cache    *chapter.Cache
	Course   *chapter.Course
	Store    content.Store
	Health   *health.Handler
	Metrics  *observe.Metrics
	Greeting string
	Voice    string

	// TemplatesDir holds index.html and chapter.html. Page routes return
	// 404 when empty.
	TemplatesDir string
}

// New creates a Server and parses the page templates when a directory is
// configured.
func New(opts Options) (*Server, error) {
	s := &Server{
		cfg:      opts.Config,
		speech:   opts.Speech,
		cache:    opts.Cache,
		course:   opts.Course,
		store:    opts.Store,
		metrics:  opts.Metrics,
		health:   opts.Health,
		greeting: opts.Greeting,
		voice:    opts.Voice,
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New()
	}
	if opts.TemplatesDir != "" {
		tmpl, err := template.ParseGlob(filepath.Join(opts.TemplatesDir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("server: parse templates: %w", err)
		}
		s.templates = tmpl
	}
	return s, nil
}

// SetSpeechDefaults replaces the greeting text and default voice while the
// server is running. Used by the config hot-reload path.
func (s *Server) SetSpeechDefaults(greeting, voice string) {
	s.mu.Lock()
	s.greeting = greeting
	s.voice = voice
	s.mu.Unlock()
}

func (s *Server) speechDefaults() (greeting, voice string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.greeting, s.voice
}

// Handler builds the full route tree wrapped in the observability and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/greet", s.handleGreet)
	mux.HandleFunc("POST /api/speak", s.handleSpeak)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/ask_chapter_assistant/{chapterNum}", s.handleAskChapter)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /chapter/{num}", s.handleChapterPage)

	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	h = corsMiddleware(s.cfg.CORSAllowedOrigins)(h)
	h = observe.Middleware(s.metrics)(h)
	return h
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr, "mode", s.cfg.Mode)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
