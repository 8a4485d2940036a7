// Package speech narrates text through the OpenAI text-to-speech endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel is the speech model requested.
	DefaultModel = "tts-1-hd"
	// DefaultVoice is used when the caller does not pick one.
	DefaultVoice = "onyx"
	// DefaultTimeout bounds one synthesis request.
	DefaultTimeout = 60 * time.Second

	speechPath    = "/v1/audio/speech"
	maxErrorBytes = 2048
)

// Narrator is what the HTTP layer needs from a speech backend.
type Narrator interface {
	Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error)
}

// Client calls the speech API.
type Client struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewClient creates a client with default endpoint, model and timeout.
// An empty apiKey is allowed; Synthesize then returns ErrMissingCredential.
func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		Model:      DefaultModel,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type request struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize returns an MP3 stream for text. The caller must close it.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingText
	}
	if c.APIKey == "" {
		return nil, ErrMissingCredential
	}
	if voice == "" {
		voice = DefaultVoice
	}

	body, err := json.Marshal(request{
		Model:          c.model(),
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
		Speed:          1.0,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+speechPath, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &UpstreamError{Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}
	return resp.Body, nil
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) model() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}
