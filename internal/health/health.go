// Package health provides HTTP health and readiness check handlers.
//
// The package exposes two endpoints:
//
//   - /healthz — liveness probe; always returns 200 OK.
//   - /readyz  — readiness probe; returns 200 only when all registered
//     [Checker] functions pass.
//
// Responses are JSON objects with a top-level "status" field ("ok" or "fail")
// and a "checks" map containing the result of each named checker.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Aditya-402/Interactive-trainer/internal/content"
	"github.com/Aditya-402/Interactive-trainer/internal/resilience"
)

// checkTimeout is the maximum time a single readiness check may take before
// the context is cancelled.
const checkTimeout = 5 * time.Second

// Checker is a named health check function. The Check function should return
// nil when the dependency is healthy and a non-nil error describing the
// failure otherwise.
type Checker struct {
	// Name is a short, human-readable label for this check (e.g. "content",
	// "speech"). It appears as a key in the JSON response.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// ContentStore returns a checker that fails when no chapter documents are
// available, since the assistant cannot ground anything without them.
func ContentStore(store content.Store) Checker {
	return Checker{
		Name: "content",
		Check: func(context.Context) error {
			if len(store.Chapters()) == 0 {
				return errors.New("no chapter documents configured")
			}
			return nil
		},
	}
}

// SpeechCircuits returns a checker that fails while either speech direction
// has an open circuit breaker.
func SpeechCircuits(guard *resilience.GuardedSpeech) Checker {
	return Checker{
		Name: "speech",
		Check: func(context.Context) error {
			tts, stt := guard.States()
			if tts == resilience.BreakerOpen {
				return fmt.Errorf("tts circuit %s", tts)
			}
			if stt == resilience.BreakerOpen {
				return fmt.Errorf("stt circuit %s", stt)
			}
			return nil
		},
	}
}

// SpeechBackends returns a checker for a speech fallback chain. It fails
// only when every backend's circuit breaker is open, since a single healthy
// fallback keeps the pipeline serving.
func SpeechBackends(f *resilience.SpeechFallback) Checker {
	return Checker{
		Name: "speech",
		Check: func(context.Context) error {
			states := f.BreakerStates()
			for _, state := range states {
				if state != resilience.BreakerOpen {
					return nil
				}
			}
			return fmt.Errorf("all %d speech backends have open circuits", len(states))
		},
	}
}

// result is the JSON response body for health endpoints.
type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz endpoints. It is safe for concurrent
// use; the checker list is fixed at construction time.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] that evaluates the given checkers on each /readyz
// request. The checkers are evaluated sequentially in the order provided.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is a liveness probe that always returns 200 OK. A running process
// that can serve HTTP is considered alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz is a readiness probe that returns 200 only when every registered
// [Checker] passes. Each checker is given a context with a [checkTimeout]
// deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{
		Status: "ok",
		Checks: checks,
	}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
