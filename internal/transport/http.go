// Package transport implements chat.Transport over the chat server's HTTP API.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tam-chat/internal/chat"
	"tam-chat/internal/logger"
)

var log = logger.Named("transport")

// ErrStatus 表示服务端返回了非 2xx 状态且无法解析出错误信息。
var ErrStatus = errors.New("unexpected status")

// maxBodyBytes 限制单次响应体大小。
const maxBodyBytes = 8 << 20

type HTTP struct {
	baseURL string
	session string
	client  *http.Client
}

type Option func(*HTTP)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout bounds every exchange; zero keeps the client default.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			clone := *h.client
			clone.Timeout = d
			h.client = &clone
		}
	}
}

// WithSession scopes history on the server to id.
func WithSession(id string) Option {
	return func(h *HTTP) { h.session = strings.TrimSpace(id) }
}

func NewHTTP(baseURL string, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) BaseURL() string { return h.baseURL }

func (h *HTTP) PostMessage(ctx context.Context, text string) (chat.PostResult, error) {
	body, err := json.Marshal(chat.SendRequest{Message: text})
	if err != nil {
		return chat.PostResult{}, err
	}
	status, data, err := h.do(ctx, http.MethodPost, "/chat", body)
	if err != nil {
		return chat.PostResult{}, err
	}
	if status >= 200 && status < 300 {
		var resp chat.SendResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return chat.PostResult{}, fmt.Errorf("decode /chat response: %w", err)
		}
		return chat.PostResult{OK: true, Response: resp.Response, Timestamp: resp.Timestamp}, nil
	}
	var apiErr chat.ErrorResponse
	if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Error == "" {
		return chat.PostResult{}, fmt.Errorf("%w: POST /chat %d", ErrStatus, status)
	}
	return chat.PostResult{OK: false, Error: apiErr.Error}, nil
}

func (h *HTTP) ClearHistory(ctx context.Context) error {
	status, _, err := h.do(ctx, http.MethodPost, "/clear", nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: POST /clear %d", ErrStatus, status)
	}
	return nil
}

func (h *HTTP) FetchHistory(ctx context.Context) ([]chat.HistoryEntry, error) {
	status, data, err := h.do(ctx, http.MethodGet, "/history", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: GET /history %d", ErrStatus, status)
	}
	var resp chat.HistoryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode /history response: %w", err)
	}
	return resp.History, nil
}

// Ping checks that the server answers its health endpoint.
func (h *HTTP) Ping(ctx context.Context) error {
	status, _, err := h.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: GET /healthz %d", ErrStatus, status)
	}
	return nil
}

func (h *HTTP) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if h.baseURL == "" {
		return 0, nil, errors.New("server url is empty")
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.session != "" {
		req.Header.Set(chat.SessionHeader, h.session)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}
	log.WithFields(logger.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Debug("request done")
	return resp.StatusCode, data, nil
}
