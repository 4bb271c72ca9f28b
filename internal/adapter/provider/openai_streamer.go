package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"adapt-orchestrator/internal/domain"
)

const (
	generationTemperature = 0.5
	// scanBufSize bounds one SSE line; completion deltas are tiny but a
	// single event can carry a long content string.
	scanBufSize = 1 << 20
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// OpenAIStreamer opens streaming chat completions against an
// OpenAI-compatible endpoint and adapts its SSE events into a plain
// fragment sequence.
type OpenAIStreamer struct {
	BaseURL string
	Model   string
	APIKey  string
	// Timeout bounds one whole stream, request to last fragment. Zero
	// means no deadline.
	Timeout time.Duration
	Client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIStreamer constructs a streamer for the given endpoint and model.
// The client should have no overall timeout; streams outlive any sane one.
func NewOpenAIStreamer(baseURL, model, apiKey string, client *http.Client, logger *slog.Logger) *OpenAIStreamer {
	return &OpenAIStreamer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		APIKey:  apiKey,
		Client:  client,
		logger:  logger,
	}
}

// Open submits the adaptation prompt and returns the fragment stream.
// The returned channels are closed by the reader goroutine; a mid-stream
// failure is delivered on the error channel before both close.
func (s *OpenAIStreamer) Open(ctx context.Context, req domain.StreamRequest) (<-chan string, <-chan error, error) {
	if s.APIKey == "" {
		return nil, nil, fmt.Errorf("api key not configured: %w", domain.ErrProviderUnavailable)
	}

	cancel := context.CancelFunc(func() {})
	if s.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
	}

	reqBody := chatRequest{
		Model: s.Model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSystemPrompt(req.Level, req.Mode)},
			{Role: "user", Content: buildUserPrompt(req.Text)},
		},
		Temperature: generationTemperature,
		Stream:      true,
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", s.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to call completion endpoint: %w: %w", err, domain.ErrProviderUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("completion endpoint returned %d: %s: %w",
			resp.StatusCode, string(body), domain.ErrProviderUnavailable)
	}

	frags := make(chan string)
	errs := make(chan error, 1)
	go s.readStream(ctx, cancel, resp.Body, frags, errs)
	return frags, errs, nil
}

// Version returns the wrapped model name.
func (s *OpenAIStreamer) Version() string {
	return s.Model
}

func (s *OpenAIStreamer) readStream(ctx context.Context, cancel context.CancelFunc, body io.ReadCloser, frags chan<- string, errs chan<- error) {
	defer close(errs)
	defer close(frags)
	defer cancel()
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), scanBufSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			errs <- &domain.StreamError{Err: fmt.Errorf("failed to decode stream event: %w", err)}
			return
		}

		delta, ok := extractDelta(chunk)
		if !ok {
			// Role-only or empty delta; produces no fragment.
			continue
		}

		select {
		case <-ctx.Done():
			s.reportDeadline(ctx, errs)
			return
		case frags <- delta:
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() == nil {
			errs <- &domain.StreamError{Err: err}
			return
		}
		s.reportDeadline(ctx, errs)
	}
}

// reportDeadline turns a tripped stream deadline into a stream error; a
// plain cancellation (consumer gone) stays silent.
func (s *OpenAIStreamer) reportDeadline(ctx context.Context, errs chan<- error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		errs <- &domain.StreamError{Err: fmt.Errorf("stream exceeded %s deadline", s.Timeout)}
	}
}

// extractDelta pulls the incremental text out of one stream event,
// tolerating events that carry no usable content.
func extractDelta(chunk chatStreamChunk) (string, bool) {
	if len(chunk.Choices) == 0 {
		return "", false
	}
	content := chunk.Choices[0].Delta.Content
	if content == nil || *content == "" {
		return "", false
	}
	return *content, true
}

var _ domain.TokenSource = (*OpenAIStreamer)(nil)
