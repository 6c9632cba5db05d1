package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Aditya-402/Interactive-trainer/internal/content"
	"github.com/Aditya-402/Interactive-trainer/internal/observe"
	"github.com/Aditya-402/Interactive-trainer/internal/resilience"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// errorBody is the sanitized JSON error envelope. Raw provider error text
// never reaches the client; the full error is logged server-side instead.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}

// writeAudio streams synthesized audio with its MIME type.
func writeAudio(w http.ResponseWriter, res speech.SynthesisResult) {
	w.Header().Set("Content-Type", res.MIMEType)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Audio)
}

// writeError maps domain errors onto the HTTP taxonomy, logs the full detail,
// and writes a sanitized body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observe.Logger(r.Context())

	var status int
	var msg string
	switch {
	case errors.Is(err, assistant.ErrEmptyInput):
		status, msg = http.StatusBadRequest, "message must not be empty"
	case errors.Is(err, content.ErrNotFound):
		status, msg = http.StatusNotFound, "chapter content not found"
	case errors.Is(err, assistant.ErrGroundingFailed):
		status, msg = http.StatusServiceUnavailable, "assistant is not ready for this chapter"
	case errors.Is(err, assistant.ErrUnavailable),
		errors.Is(err, speech.ErrUnavailable),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrAllFailed):
		status, msg = http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		status, msg = http.StatusInternalServerError, "internal server error"
	}

	log.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"err", err,
	)
	writeJSON(w, status, errorBody{Error: msg})
}

// badRequest writes a 400 with the given safe message.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
