package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/metrics"
)

// Request is one translation request to the backend
type Request struct {
	Text    string
	Dialect string
	History []string
}

// Translator produces a translation for a request. Implementations must
// honor context cancellation; callers bound every call with a deadline.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// Error is a backend failure. Transient errors (timeouts, 429s, 5xx) may
// succeed on retry; permanent ones will not.
type Error struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.StatusCode)
	}
	return "backend: " + e.Message
}

// IsTransient reports whether err is a backend error worth retrying
func IsTransient(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}

var dialectPrompts = map[string]string{
	"standard":    "Algerian Arabic (Darja)",
	"algiers":     "Algerian Arabic (Darja) from Algiers region",
	"oran":        "Algerian Arabic (Darja) from Oran region",
	"constantine": "Algerian Arabic (Darja) from Constantine region",
}

// Client calls an OpenAI-compatible chat completions endpoint
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	logger     *logging.Logger
}

// NewClient creates a translation backend client
func NewClient(cfg config.BackendConfig, logger *logging.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Translate sends the request and returns the model's translation
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(req.Dialect, req.History)},
			{Role: "user", Content: req.Text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	c.logger.LogBackendCall(c.model, duration, err)
	if err != nil {
		metrics.RecordBackendCall("error", duration.Seconds())
		return "", &Error{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordBackendCall(fmt.Sprintf("%d", resp.StatusCode), duration.Seconds())
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &Error{
			StatusCode: resp.StatusCode,
			Message:    string(msg),
			Transient:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.RecordBackendCall("decode_error", duration.Seconds())
		return "", &Error{Message: "failed to decode response: " + err.Error(), Transient: true}
	}
	if parsed.Error != nil {
		metrics.RecordBackendCall("api_error", duration.Seconds())
		return "", &Error{Message: parsed.Error.Message, Transient: false}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		metrics.RecordBackendCall("empty", duration.Seconds())
		return "", &Error{Message: "empty completion", Transient: false}
	}

	metrics.RecordBackendCall("ok", duration.Seconds())
	return parsed.Choices[0].Message.Content, nil
}

// systemPrompt builds the instruction for the target dialect. Recent history
// is included only when context mode supplies it.
func systemPrompt(dialect string, history []string) string {
	desc, ok := dialectPrompts[dialect]
	if !ok {
		desc = dialectPrompts["standard"]
	}

	prompt := fmt.Sprintf("You are an expert translator for %s.\n", desc)
	if len(history) > 0 {
		prompt += fmt.Sprintf("Recent context for reference: %v\n", history)
	}

	prompt += `
STRICT RULES:
1. IF INPUT IS ARABIC SCRIPT -> PROVIDE FRENCH AND ENGLISH.
2. IF INPUT IS LATIN SCRIPT -> PROVIDE DARJA (ARABIC SCRIPT) AND FRENCH AND ENGLISH.
REQUIRED OUTPUT FORMAT:
Original: [text]
Darja: [Arabic script]
Pronunciation: [latin]
French: [translation]
English: [translation]
Note: [short cultural note]
`
	return prompt
}
