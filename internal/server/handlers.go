package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Aditya-402/Interactive-trainer/internal/codec"
	"github.com/Aditya-402/Interactive-trainer/internal/observe"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// maxAudioBytes caps uploaded recordings. Browser capture of a question is a
// few hundred kilobytes; anything past this is rejected while parsing.
const maxAudioBytes = 10 << 20

// sttFailureMessage stands in for the user turn when transcription errors
// out, so the conversation degrades instead of failing the whole request.
const sttFailureMessage = "(The user sent a voice message that could not be transcribed.)"

// noSpeechReply is returned without consulting the assistant when a
// recording contains no recognizable speech.
const noSpeechReply = "I didn't catch any speech in that recording. Could you try again?"

type speakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	ReplyText     string  `json:"reply_text"`
	STTTranscript *string `json:"stt_transcript"`
}

type askResponse struct {
	ReplyText string `json:"reply_text"`
}

// handleGreet synthesizes the configured greeting.
func (s *Server) handleGreet(w http.ResponseWriter, r *http.Request) {
	greeting, _ := s.speechDefaults()
	res, err := s.synthesize(r, greeting, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAudio(w, res)
}

// handleSpeak synthesizes caller-supplied text.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text must not be empty")
		return
	}

	res, err := s.synthesize(r, req.Text, req.Voice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeAudio(w, res)
}

// synthesize runs TTS with latency and outcome metrics.
func (s *Server) synthesize(r *http.Request, text, voice string) (speech.SynthesisResult, error) {
	if voice == "" {
		_, voice = s.speechDefaults()
	}
	ctx := r.Context()

	start := time.Now()
	res, err := s.speech.Synthesize(ctx, speech.SynthesisRequest{Text: text, Voice: voice})
	s.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordProviderError(ctx, "speech", "tts")
		return speech.SynthesisResult{}, err
	}
	s.metrics.RecordProviderRequest(ctx, "speech", "tts", "ok")
	return res, nil
}

// handleChat answers a free-form question about the course, accepting either
// a JSON text body or a multipart recording.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx)

	var message string
	var transcript *string

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
			badRequest(w, "invalid multipart body")
			return
		}
		file, header, err := r.FormFile("audio_blob")
		if err != nil {
			badRequest(w, "audio_blob part is required")
			return
		}
		defer file.Close()

		enc := codec.Classify(header.Header.Get("Content-Type"), header.Filename)
		if enc == speech.EncodingUnknown {
			writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: "unsupported audio format"})
			return
		}

		audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
		if err != nil {
			badRequest(w, "could not read audio_blob")
			return
		}

		start := time.Now()
		text, err := s.speech.Recognize(ctx, speech.RecognitionRequest{Audio: audio, Encoding: enc})
		s.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
		// A whitespace-only transcript is the no-speech outcome, not a
		// client error.
		text = strings.TrimSpace(text)
		switch {
		case err != nil:
			// Transcription failure degrades to a placeholder turn.
			s.metrics.RecordProviderError(ctx, "speech", "stt")
			log.Warn("transcription failed, degrading to placeholder", "err", err)
			message = sttFailureMessage
		case text == "":
			s.metrics.RecordProviderRequest(ctx, "speech", "stt", "no_speech")
			writeJSON(w, http.StatusOK, chatResponse{ReplyText: noSpeechReply})
			return
		default:
			s.metrics.RecordProviderRequest(ctx, "speech", "stt", "ok")
			message = text
			transcript = &text
		}
	} else {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			badRequest(w, "text must not be empty")
			return
		}
		message = req.Text
	}

	start := time.Now()
	reply, err := s.course.Ask(ctx, message)
	s.metrics.AssistantDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordProviderError(ctx, "assistant", "chat")
		s.writeError(w, r, err)
		return
	}
	if reply == s.course.Refusal() {
		s.metrics.RecordRefusal(ctx)
	}
	writeJSON(w, http.StatusOK, chatResponse{ReplyText: reply, STTTranscript: transcript})
}

// handleAskChapter answers a question scoped to one chapter's document.
// Unknown chapters are rejected before any provider work happens.
func (s *Server) handleAskChapter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chapterNum, err := strconv.Atoi(r.PathValue("chapterNum"))
	if err != nil || chapterNum < 1 || !s.store.IsValid(chapterNum) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown chapter"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(w, "query must not be empty")
		return
	}

	start := time.Now()
	ans, err := s.cache.Ask(ctx, chapterNum, req.Query)
	s.metrics.AssistantDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		// ans.Built is set for exactly one of any set of racing callers, so
		// build counters stay accurate under concurrency.
		if ans.Built {
			s.metrics.RecordGroundingBuild(ctx, strconv.Itoa(chapterNum), "error")
		}
		s.metrics.RecordProviderError(ctx, "assistant", "chapter")
		s.writeError(w, r, err)
		return
	}
	if ans.Built {
		s.metrics.GroundingDuration.Record(ctx, ans.BuildElapsed.Seconds())
		s.metrics.RecordGroundingBuild(ctx, strconv.Itoa(chapterNum), "ok")
		s.metrics.ReadyChapters.Add(ctx, 1)
	}
	if ans.Text == s.cache.Refusal() {
		s.metrics.RecordRefusal(ctx)
	}
	writeJSON(w, http.StatusOK, askResponse{ReplyText: ans.Text})
}

// handleIndex renders the landing page with the configured chapter list.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.NotFound(w, r)
		return
	}
	data := struct{ Chapters []int }{Chapters: s.store.Chapters()}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.writeError(w, r, err)
	}
}

// handleChapterPage renders a chapter page for a configured chapter.
func (s *Server) handleChapterPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.NotFound(w, r)
		return
	}
	num, err := strconv.Atoi(r.PathValue("num"))
	if err != nil || !s.store.IsValid(num) {
		http.NotFound(w, r)
		return
	}
	data := struct{ Chapter int }{Chapter: num}
	if err := s.templates.ExecuteTemplate(w, "chapter.html", data); err != nil {
		s.writeError(w, r, err)
	}
}
