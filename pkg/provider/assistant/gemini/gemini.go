// Package gemini provides a Google Gemini backed assistant provider. It
// grounds each conversation on a chapter document uploaded through the Gemini
// Files API and implements the assistant.Provider interface.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Aditya-402/Interactive-trainer/internal/resilience"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
)

const (
	defaultBaseURL      = "https://generativelanguage.googleapis.com"
	defaultModel        = "gemini-1.5-pro"
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 15
)

// defaultSystemPrompt instructs the model to stay within the grounding
// document and to emit the sentinel verbatim when a question falls outside it.
const defaultSystemPrompt = "You are a study assistant for a single chapter of a training course. " +
	"Answer questions using only the attached chapter document. " +
	"If the question cannot be answered from the document, reply with exactly %s and nothing else."

// Option is a functional option for configuring the Gemini Provider.
type Option func(*Provider)

// WithModel sets the Gemini model name (e.g., "gemini-1.5-pro").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for all API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithPollInterval sets the delay between file-state probes after an upload.
func WithPollInterval(d time.Duration) Option {
	return func(p *Provider) {
		p.pollInterval = d
	}
}

// WithPollAttempts bounds how many file-state probes are made before the
// upload is treated as failed.
func WithPollAttempts(n int) Option {
	return func(p *Provider) {
		p.pollAttempts = n
	}
}

// WithSystemPrompt replaces the grounding system prompt. The prompt must
// instruct the model to emit the configured sentinel for out-of-scope
// questions, otherwise refusals will not be detected downstream.
func WithSystemPrompt(prompt string) Option {
	return func(p *Provider) {
		p.systemPrompt = prompt
	}
}

// WithSentinel sets the out-of-scope marker interpolated into the default
// system prompt.
func WithSentinel(s string) Option {
	return func(p *Provider) {
		p.sentinel = s
	}
}

// Provider implements assistant.Provider backed by the Gemini REST API.
type Provider struct {
	apiKey       string
	baseURL      string
	model        string
	sentinel     string
	systemPrompt string
	pollInterval time.Duration
	pollAttempts int
	httpClient   *http.Client
}

// New creates a new Gemini Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		model:        defaultModel,
		sentinel:     "NOT_IN_SCOPE",
		pollInterval: defaultPollInterval,
		pollAttempts: defaultPollAttempts,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	if p.systemPrompt == "" {
		p.systemPrompt = fmt.Sprintf(defaultSystemPrompt, p.sentinel)
	}
	return p, nil
}

// ---- Files API types ----

// fileInfo is the file resource returned by the Files API.
type fileInfo struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	State    string `json:"state"` // PROCESSING, ACTIVE, FAILED
}

// uploadResponse wraps the file resource in upload responses.
type uploadResponse struct {
	File fileInfo `json:"file"`
}

// ---- generateContent types ----

type filePart struct {
	FileURI  string `json:"fileUri"`
	MIMEType string `json:"mimeType"`
}

type contentPart struct {
	Text     string    `json:"text,omitempty"`
	FileData *filePart `json:"fileData,omitempty"`
}

type geminiContent struct {
	Role  string        `json:"role"`
	Parts []contentPart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type candidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

// CreateGroundedContext uploads the chapter document through the Files API,
// waits for it to become ACTIVE, and returns a conversation handle whose
// every exchange carries the uploaded file as grounding material.
func (p *Provider) CreateGroundedContext(ctx context.Context, doc assistant.Document) (assistant.Context, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("gemini: %w: document %q is empty", assistant.ErrGroundingFailed, doc.Name)
	}

	info, err := p.uploadFile(ctx, doc)
	if err != nil {
		return nil, err
	}
	active, err := p.awaitActive(ctx, info)
	if err != nil {
		return nil, err
	}

	return &Context{
		provider: p,
		file:     active,
	}, nil
}

// uploadFile pushes the document bytes through the one-shot media upload flow.
func (p *Provider) uploadFile(ctx context.Context, doc assistant.Document) (fileInfo, error) {
	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", p.baseURL, p.apiKey)
	body := []byte(doc.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fileInfo{}, fmt.Errorf("gemini: upload request: %w", err)
	}
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-Upload-Command", "start, upload, finalize")
	req.Header.Set("X-Goog-File-Name", doc.Name)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fileInfo{}, fmt.Errorf("gemini: %w: upload: %v", assistant.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fileInfo{}, fmt.Errorf("gemini: %w: upload returned status %d", assistant.ErrGroundingFailed, resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return fileInfo{}, fmt.Errorf("gemini: upload decode: %w", err)
	}
	if ur.File.Name == "" {
		return fileInfo{}, fmt.Errorf("gemini: %w: upload response missing file name", assistant.ErrGroundingFailed)
	}
	return ur.File, nil
}

// awaitActive polls the file resource until it leaves PROCESSING. A FAILED
// state or an exhausted probe budget maps to ErrGroundingFailed.
func (p *Provider) awaitActive(ctx context.Context, info fileInfo) (fileInfo, error) {
	if info.State == "ACTIVE" {
		return info, nil
	}

	var latest fileInfo
	err := resilience.Poll(ctx, p.pollInterval, p.pollAttempts, func(ctx context.Context) (bool, error) {
		fi, err := p.getFile(ctx, info.Name)
		if err != nil {
			return false, nil // transient probe failure, keep polling
		}
		latest = fi
		switch fi.State {
		case "ACTIVE":
			return true, nil
		case "FAILED":
			return true, fmt.Errorf("gemini: %w: file %s processing failed", assistant.ErrGroundingFailed, fi.Name)
		default:
			return false, nil
		}
	})
	if errors.Is(err, resilience.ErrBudgetExhausted) {
		return fileInfo{}, fmt.Errorf("gemini: %w: file %s never became active", assistant.ErrGroundingFailed, info.Name)
	}
	if err != nil {
		return fileInfo{}, err
	}
	return latest, nil
}

// getFile fetches the current file resource state.
func (p *Provider) getFile(ctx context.Context, name string) (fileInfo, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", p.baseURL, name, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fileInfo{}, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fileInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fileInfo{}, fmt.Errorf("gemini: file status %d", resp.StatusCode)
	}
	var fi fileInfo
	if err := json.NewDecoder(resp.Body).Decode(&fi); err != nil {
		return fileInfo{}, err
	}
	return fi, nil
}

// Context is a grounded conversation handle. History is kept client-side and
// replayed on every generateContent call.
type Context struct {
	provider *Provider
	file     fileInfo

	mu      sync.Mutex
	history []geminiContent
}

// Send submits a user message together with the grounding file and the
// accumulated history, appends both turns on success, and returns the model
// reply. Safety-blocked responses surface as Reply.Blocked rather than errors.
func (c *Context) Send(ctx context.Context, message string) (assistant.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return assistant.Reply{}, assistant.ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	userTurn := geminiContent{
		Role: "user",
		Parts: []contentPart{
			{FileData: &filePart{FileURI: c.file.URI, MIMEType: c.file.MIMEType}},
			{Text: message},
		},
	}

	reqBody := generateRequest{
		SystemInstruction: &geminiContent{
			Parts: []contentPart{{Text: c.provider.systemPrompt}},
		},
		Contents: append(append([]geminiContent{}, c.history...), userTurn),
	}

	resp, err := c.provider.generate(ctx, reqBody)
	if err != nil {
		return assistant.Reply{}, err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return assistant.Reply{Blocked: true}, nil
	}
	if len(resp.Candidates) == 0 {
		return assistant.Reply{Blocked: true}, nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == "SAFETY" {
		return assistant.Reply{Blocked: true}, nil
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		sb.WriteString(part.Text)
	}
	text := sb.String()

	c.history = append(c.history, userTurn, geminiContent{
		Role:  "model",
		Parts: []contentPart{{Text: text}},
	})
	return assistant.Reply{Text: text}, nil
}

// generate performs a single models/{model}:generateContent call.
func (p *Provider) generate(ctx context.Context, body generateRequest) (*generateResponse, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w: generate: %v", assistant.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: generate returned status %d", resp.StatusCode)
	}
	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("gemini: generate decode: %w", err)
	}
	return &gr, nil
}
