package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func testClient(t *testing.T, rt roundTripperFunc) *Client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewWithHTTPClient(log, Config{
		BaseURL:        "http://upstream",
		Model:          "test-model",
		APIKey:         "test-key",
		AttemptTimeout: 2 * time.Second,
		MaxRetries:     2,
	}, &http.Client{Transport: rt})
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	c.sleep = func(time.Duration) {}
	return c
}

func chatOK(t *testing.T, content string) *http.Response {
	t.Helper()
	body := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func chatStatus(code int) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader([]byte(`{"error":"upstream"}`))),
	}
}

func TestInvokeSuccess(t *testing.T) {
	var calls int32
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		if req.URL.Path != "/v1/chat/completions" {
			t.Fatalf("path=%s", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization=%q", got)
		}
		if got := req.Header.Get("Accept-Charset"); got != "utf-8" {
			t.Fatalf("accept-charset=%q", got)
		}
		var in chatRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			t.Fatalf("decode req: %v", err)
		}
		if in.Model != "test-model" {
			t.Fatalf("model=%q", in.Model)
		}
		if len(in.Messages) != 2 || in.Messages[0].Role != "system" || in.Messages[1].Role != "user" {
			t.Fatalf("messages=%+v", in.Messages)
		}
		if in.MaxTokens != 700 || in.Temperature != 0.6 {
			t.Fatalf("params=%+v", in)
		}
		return chatOK(t, "the verdict"), nil
	})

	reply := c.Invoke(context.Background(), "sys", "user", Params{MaxTokens: 700, Temperature: 0.6, TopP: 0.95})
	if !reply.Succeeded || reply.Text != "the verdict" || reply.HTTPStatus != 200 {
		t.Fatalf("reply=%+v", reply)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls=%d", got)
	}
}

func TestInvokeRetriesThenSucceeds(t *testing.T) {
	var calls int32
	codes := []int{429, 500}
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) <= len(codes) {
			return chatStatus(codes[n-1]), nil
		}
		return chatOK(t, "recovered"), nil
	})

	reply := c.Invoke(context.Background(), "sys", "user", Params{})
	if !reply.Succeeded || reply.Text != "recovered" {
		t.Fatalf("reply=%+v", reply)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls=%d", got)
	}
}

func TestInvokeTerminalStatusFailsFast(t *testing.T) {
	var calls int32
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return chatStatus(400), nil
	})

	reply := c.Invoke(context.Background(), "sys", "user", Params{})
	if reply.Succeeded {
		t.Fatalf("reply=%+v", reply)
	}
	if reply.ErrorKind != ErrKindTerminal || reply.HTTPStatus != 400 {
		t.Fatalf("reply=%+v", reply)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls=%d", got)
	}
}

func TestInvokeExhaustsRetryBudget(t *testing.T) {
	var calls int32
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return chatStatus(429), nil
	})

	reply := c.Invoke(context.Background(), "sys", "user", Params{})
	if reply.Succeeded {
		t.Fatalf("reply=%+v", reply)
	}
	if reply.ErrorKind != ErrKindTransient || reply.HTTPStatus != 429 {
		t.Fatalf("reply=%+v", reply)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls=%d (max retries 2 means 3 attempts)", got)
	}
}

func TestInvokeConnectErrorIsTerminal(t *testing.T) {
	var calls int32
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("connection refused")
	})

	reply := c.Invoke(context.Background(), "sys", "user", Params{})
	if reply.Succeeded || reply.ErrorKind != ErrKindTerminal {
		t.Fatalf("reply=%+v", reply)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls=%d", got)
	}
}

func TestInvokeMalformedBodyOn2xx(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(bytes.NewReader([]byte("not json"))),
		}, nil
	})

	reply := c.Invoke(context.Background(), "sys", "user", Params{})
	if reply.Succeeded || reply.ErrorKind != ErrKindMalformed {
		t.Fatalf("reply=%+v", reply)
	}
}

func TestInvokeNoChoicesIsMalformed(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"choices":[]}`))),
		}, nil
	})

	reply := c.Invoke(context.Background(), "sys", "user", Params{})
	if reply.Succeeded || reply.ErrorKind != ErrKindMalformed {
		t.Fatalf("reply=%+v", reply)
	}
}

func TestInvokeHonorsCancelledContext(t *testing.T) {
	var calls int32
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return chatStatus(500), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(time.Duration) { cancel() }

	reply := c.Invoke(ctx, "sys", "user", Params{})
	if reply.Succeeded || reply.ErrorKind != ErrKindTerminal {
		t.Fatalf("reply=%+v", reply)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls=%d", got)
	}
}

func TestConfigValidation(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	if _, err := NewClient(log, Config{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	c, err := NewClient(log, Config{APIKey: "k", AttemptTimeout: -1, MaxRetries: -5})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.cfg.AttemptTimeout != 60*time.Second {
		t.Fatalf("timeout=%v", c.cfg.AttemptTimeout)
	}
	if c.cfg.MaxRetries != 0 {
		t.Fatalf("max retries=%d", c.cfg.MaxRetries)
	}
}
