package judge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrModelNotReady indicates the backing model is loading or needs
// reinitialization. It is the only judge failure mode worth retrying.
var ErrModelNotReady = errors.New("judge: model not ready")

// Generator is the scoring oracle capability handed to the turn judge. It is
// injected rather than ambient so tests substitute a deterministic fake.
// Every method honors context cancellation.
type Generator interface {
	// Reset returns the shared model to a clean state before a judging call.
	Reset(ctx context.Context) error

	// Generate runs one prompt to completion and returns the full text.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream runs one prompt and delivers text fragments to fn as
	// they arrive. fn is called from the request goroutine.
	GenerateStream(ctx context.Context, prompt string, fn func(fragment string)) error
}

// ClientConfig configures the chat-completions client.
type ClientConfig struct {
	BaseURL string // e.g. http://localhost:11434/v1
	APIKey  string // optional for local backends
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint. The same
// client works against hosted APIs and local runtimes (ollama, llama.cpp);
// local runtimes are where the model-loading failure mode comes from.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a Generator backed by the configured endpoint.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

var _ Generator = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Reset issues a one-token completion to force the backend to (re)load the
// model. A failed reset maps to ErrModelNotReady so the caller's retry
// budget applies.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.complete(ctx, chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: "ok"}},
		MaxTokens: 1,
	})
	if err != nil {
		if errors.Is(err, ErrModelNotReady) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrModelNotReady, err)
	}
	return nil
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	resp, err := c.post(ctx, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no response choices received")
	}
	return parsed.Choices[0].Message.Content, nil
}

// GenerateStream implements Generator using server-sent events.
func (c *Client) GenerateStream(ctx context.Context, prompt string, fn func(fragment string)) error {
	payload := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed keepalive frames; the text parser downstream
			// tolerates gaps.
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			fn(chunk.Choices[0].Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream read failed: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload chatRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions",
		bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusServiceUnavailable ||
		strings.Contains(strings.ToLower(string(body)), "loading") {
		return ErrModelNotReady
	}
	return fmt.Errorf("judge backend returned %d: %s", resp.StatusCode, string(body))
}
