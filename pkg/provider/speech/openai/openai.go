// Package openai provides an OpenAI backed speech provider using the audio
// speech and transcription endpoints. It implements the speech.Provider
// interface.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// DefaultSpeechModel is the default text-to-speech model.
const DefaultSpeechModel = oai.SpeechModelTTS1

// DefaultTranscriptionModel is the default speech-to-text model.
const DefaultTranscriptionModel = oai.AudioModelWhisper1

// Ensure Provider implements the speech.Provider interface.
var _ speech.Provider = (*Provider)(nil)

// config holds optional configuration for the provider.
type config struct {
	baseURL            string
	speechModel        string
	transcriptionModel string
	voice              string
	timeout            time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithSpeechModel sets the TTS model (e.g., "tts-1", "tts-1-hd").
func WithSpeechModel(model string) Option {
	return func(c *config) {
		c.speechModel = model
	}
}

// WithTranscriptionModel sets the STT model (e.g., "whisper-1").
func WithTranscriptionModel(model string) Option {
	return func(c *config) {
		c.transcriptionModel = model
	}
}

// WithVoice sets the default synthesis voice (e.g., "alloy", "nova").
func WithVoice(voice string) Option {
	return func(c *config) {
		c.voice = voice
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Provider implements speech.Provider using the OpenAI audio APIs.
type Provider struct {
	client             oai.Client
	speechModel        string
	transcriptionModel string
	voice              string
}

// New constructs a new OpenAI speech Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai speech: apiKey must not be empty")
	}

	cfg := &config{
		speechModel:        DefaultSpeechModel,
		transcriptionModel: DefaultTranscriptionModel,
		voice:              "alloy",
	}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{
		client:             client,
		speechModel:        cfg.speechModel,
		transcriptionModel: cfg.transcriptionModel,
		voice:              cfg.voice,
	}, nil
}

// Synthesize implements speech.Synthesizer. Output is always MP3.
func (p *Provider) Synthesize(ctx context.Context, req speech.SynthesisRequest) (speech.SynthesisResult, error) {
	voice := p.voice
	if req.Voice != "" {
		voice = req.Voice
	}

	resp, err := p.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model:          p.speechModel,
		Input:          req.Text,
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return speech.SynthesisResult{}, fmt.Errorf("openai speech: synthesize: %w: %v", speech.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return speech.SynthesisResult{}, fmt.Errorf("openai speech: read audio: %w", err)
	}
	if len(audio) == 0 {
		return speech.SynthesisResult{}, fmt.Errorf("openai speech: %w: empty audio response", speech.ErrUnavailable)
	}
	return speech.SynthesisResult{Audio: audio, MIMEType: "audio/mpeg"}, nil
}

// uploadName maps the wire-format classification to the filename and content
// type whisper uses for format detection.
func uploadName(enc speech.Encoding) (filename, contentType string) {
	switch enc {
	case speech.EncodingOpusWebM:
		return "audio.webm", "audio/webm"
	case speech.EncodingOpusOgg:
		return "audio.ogg", "audio/ogg"
	case speech.EncodingLinear16:
		return "audio.wav", "audio/wav"
	case speech.EncodingMP3:
		return "audio.mp3", "audio/mpeg"
	case speech.EncodingFLAC:
		return "audio.flac", "audio/flac"
	default:
		return "audio.bin", "application/octet-stream"
	}
}

// Recognize implements speech.Recognizer via the transcription endpoint. An
// empty transcript with a nil error means no recognizable speech.
func (p *Provider) Recognize(ctx context.Context, req speech.RecognitionRequest) (string, error) {
	filename, contentType := uploadName(req.Encoding)

	resp, err := p.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model: p.transcriptionModel,
		File:  oai.File(bytes.NewReader(req.Audio), filename, contentType),
	})
	if err != nil {
		return "", fmt.Errorf("openai speech: transcribe: %w: %v", speech.ErrUnavailable, err)
	}
	return strings.TrimSpace(resp.Text), nil
}
