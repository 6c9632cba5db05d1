// Package google provides a Google Cloud backed speech provider. It talks to
// the Cloud Text-to-Speech and Cloud Speech-to-Text REST APIs and implements
// the speech.Provider interface.
//
// Credentials resolve in order: an explicit service-account file passed via
// WithCredentialsFile, the GOOGLE_APPLICATION_CREDENTIALS environment
// variable, a project-local default key file if one exists, then Application
// Default Credentials.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

const (
	ttsEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"
	sttEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

	defaultLanguage = "en-US"
	defaultVoice    = "en-US-Neural2-C"

	// defaultCredentialsFile is a project-local service-account key consulted
	// when neither an explicit path nor the environment variable names one.
	// It is skipped silently when the file does not exist.
	defaultCredentialsFile = "gcp-credentials.json"
)

// Option is a functional option for configuring the Google Provider.
type Option func(*Provider)

// WithCredentialsFile sets an explicit service-account JSON key file. When
// unset, GOOGLE_APPLICATION_CREDENTIALS, the default key file, and
// Application Default Credentials are consulted instead.
func WithCredentialsFile(path string) Option {
	return func(p *Provider) {
		p.credentialsFile = path
	}
}

// WithDefaultCredentialsFile overrides the project-local key file tried after
// the environment variable and before Application Default Credentials.
func WithDefaultCredentialsFile(path string) Option {
	return func(p *Provider) {
		p.defaultCredFile = path
	}
}

// WithLanguage sets the BCP-47 language code used for both directions.
func WithLanguage(code string) Option {
	return func(p *Provider) {
		p.language = code
	}
}

// WithVoice sets the default synthesis voice name.
func WithVoice(name string) Option {
	return func(p *Provider) {
		p.voice = name
	}
}

// WithTTSEndpoint overrides the synthesis endpoint. Used by tests.
func WithTTSEndpoint(url string) Option {
	return func(p *Provider) {
		p.ttsURL = url
	}
}

// WithSTTEndpoint overrides the recognition endpoint. Used by tests.
func WithSTTEndpoint(url string) Option {
	return func(p *Provider) {
		p.sttURL = url
	}
}

// WithHTTPClient replaces the authenticated HTTP client entirely. Used by
// tests to skip the credential handshake.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements speech.Provider backed by Google Cloud.
type Provider struct {
	credentialsFile string
	defaultCredFile string
	language        string
	voice           string
	ttsURL          string
	sttURL          string
	httpClient      *http.Client
}

// New creates a new Google Provider and resolves credentials immediately so
// misconfiguration fails at startup rather than on the first request.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	p := &Provider{
		defaultCredFile: defaultCredentialsFile,
		language:        defaultLanguage,
		voice:           defaultVoice,
		ttsURL:          ttsEndpoint,
		sttURL:          sttEndpoint,
	}
	for _, o := range opts {
		o(p)
	}
	if p.httpClient == nil {
		ts, err := p.tokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("google: resolve credentials: %w", err)
		}
		p.httpClient = oauth2.NewClient(ctx, ts)
		p.httpClient.Timeout = 60 * time.Second
	}
	return p, nil
}

// tokenSource walks the credential chain: explicit file, environment
// variable, default key file (only if present), Application Default
// Credentials.
func (p *Provider) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	path := p.credentialsFile
	if path == "" {
		path = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if path == "" && p.defaultCredFile != "" {
		if _, err := os.Stat(p.defaultCredFile); err == nil {
			path = p.defaultCredFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read key file %s: %w", path, err)
		}
		creds, err := googleauth.CredentialsFromJSON(ctx, data, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("parse key file %s: %w", path, err)
		}
		return creds.TokenSource, nil
	}
	creds, err := googleauth.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("application default credentials: %w", err)
	}
	return creds.TokenSource, nil
}

// ---- Text-to-Speech ----

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"` // base64
}

// Synthesize renders text to MP3 audio.
func (p *Provider) Synthesize(ctx context.Context, req speech.SynthesisRequest) (speech.SynthesisResult, error) {
	var body synthesizeRequest
	body.Input.Text = req.Text
	body.Voice.LanguageCode = p.language
	body.Voice.Name = p.voice
	if req.Voice != "" {
		body.Voice.Name = req.Voice
	}
	body.AudioConfig.AudioEncoding = "MP3"

	var resp synthesizeResponse
	if err := p.post(ctx, p.ttsURL, body, &resp); err != nil {
		return speech.SynthesisResult{}, err
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return speech.SynthesisResult{}, fmt.Errorf("google: decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return speech.SynthesisResult{}, fmt.Errorf("google: %w: empty audio content", speech.ErrUnavailable)
	}
	return speech.SynthesisResult{Audio: audio, MIMEType: "audio/mpeg"}, nil
}

// ---- Speech-to-Text ----

type recognizeRequest struct {
	Config struct {
		Encoding     string `json:"encoding,omitempty"`
		LanguageCode string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"` // base64
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// apiEncoding maps the wire-format classification onto the RecognitionConfig
// encoding enum. Containers Google sniffs itself (WAV, FLAC) are omitted.
func apiEncoding(enc speech.Encoding) string {
	switch enc {
	case speech.EncodingOpusWebM:
		return "WEBM_OPUS"
	case speech.EncodingOpusOgg:
		return "OGG_OPUS"
	case speech.EncodingLinear16:
		return "LINEAR16"
	case speech.EncodingMP3:
		return "MP3"
	default:
		return ""
	}
}

// Recognize transcribes recorded audio. The transcript is returned trimmed;
// an empty transcript with a nil error means the audio contained no
// recognizable speech.
func (p *Provider) Recognize(ctx context.Context, req speech.RecognitionRequest) (string, error) {
	var body recognizeRequest
	body.Config.Encoding = apiEncoding(req.Encoding)
	body.Config.LanguageCode = p.language
	body.Audio.Content = base64.StdEncoding.EncodeToString(req.Audio)

	var resp recognizeResponse
	if err := p.post(ctx, p.sttURL, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Results[0].Alternatives[0].Transcript), nil
}

// post issues an authenticated JSON POST and decodes the response into out.
func (p *Provider) post(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("google: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("google: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google: %w: %v", speech.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("google: unexpected status %d: %s", resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("google: decode response: %w", err)
	}
	return nil
}
