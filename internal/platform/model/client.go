package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hollowbyte/subtext-backend/internal/pkg/httpx"
	"github.com/hollowbyte/subtext-backend/internal/platform/envutil"
	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
)

// Message is one entry of the chat-completion conversation sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params are the per-call sampling knobs. The prompt builder chooses them
// per content mode / mentor preset.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

type ErrorKind string

const (
	ErrKindTransient ErrorKind = "transient"
	ErrKindTerminal  ErrorKind = "terminal"
	ErrKindMalformed ErrorKind = "malformed"
)

// Reply is the outcome of one Invoke. Upstream failures never surface as Go
// errors past this layer: callers branch on Succeeded to pick the fallback
// path.
type Reply struct {
	Text       string
	Succeeded  bool
	HTTPStatus int
	ErrorKind  ErrorKind
}

// Invoker is what the pipeline services depend on.
type Invoker interface {
	Invoke(ctx context.Context, system, user string, params Params) Reply
}

type Config struct {
	BaseURL        string
	Model          string
	APIKey         string
	AttemptTimeout time.Duration
	MaxRetries     int
}

func ConfigFromEnv() (Config, error) {
	apiKey := envutil.Str("MODEL_API_KEY", "")
	if apiKey == "" {
		return Config{}, fmt.Errorf("missing MODEL_API_KEY")
	}
	return Config{
		BaseURL:        envutil.Str("MODEL_BASE_URL", "https://api.openai.com"),
		Model:          envutil.Str("MODEL_NAME", "gpt-4o-mini"),
		APIKey:         apiKey,
		AttemptTimeout: envutil.Seconds("MODEL_TIMEOUT_SECONDS", 60*time.Second),
		MaxRetries:     envutil.Int("MODEL_MAX_RETRIES", 2),
	}, nil
}

type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	sleep      func(time.Duration)
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	return NewWithHTTPClient(log, cfg, &http.Client{})
}

func NewWithHTTPClient(log *logger.Logger, cfg Config, hc *http.Client) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing model api key")
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		log:        log.With("service", "ModelClient"),
		cfg:        cfg,
		httpClient: hc,
		sleep:      time.Sleep,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Invoke sends system+user to the chat-completion endpoint with bounded
// sequential retries. Retryable: 429, 5xx, attempt timeout. Terminal: other
// 4xx and connect errors without a status. Exhaustion degrades to a failed
// Reply, never an error.
func (c *Client) Invoke(ctx context.Context, system, user string, params Params) Reply {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	}

	var lastStatus int
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := httpx.BackoffDelay(attempt - 1)
			c.log.Warn("model request retrying",
				"attempt", attempt,
				"max_retries", c.cfg.MaxRetries,
				"sleep", delay.String(),
				"last_status", lastStatus,
			)
			c.sleep(delay)
		}
		if ctx.Err() != nil {
			return Reply{Succeeded: false, HTTPStatus: lastStatus, ErrorKind: ErrKindTerminal}
		}

		status, text, err := c.doOnce(ctx, req)
		lastStatus = status
		if err == nil {
			return Reply{Text: text, Succeeded: true, HTTPStatus: status}
		}
		if !httpx.IsRetryableError(err) {
			kind := ErrKindTerminal
			if status >= 200 && status < 300 {
				kind = ErrKindMalformed
			}
			c.log.Warn("model request failed terminally", "status", status, "error", err.Error())
			return Reply{Succeeded: false, HTTPStatus: status, ErrorKind: kind}
		}
	}

	c.log.Warn("model retry budget exhausted", "last_status", lastStatus)
	return Reply{Succeeded: false, HTTPStatus: lastStatus, ErrorKind: ErrKindTransient}
}

func (c *Client) doOnce(ctx context.Context, body chatRequest) (int, string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(attemptCtx, "POST", c.cfg.BaseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Charset", "utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp.StatusCode, "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, "", &httpx.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return resp.StatusCode, "", fmt.Errorf("model decode error: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return resp.StatusCode, "", fmt.Errorf("model reply has no choices")
	}
	return resp.StatusCode, decoded.Choices[0].Message.Content, nil
}
