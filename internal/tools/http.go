package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxResponseBytes   = 4 << 20
)

type apiResponse struct {
	Status int
	Body   []byte
}

// getJSON 发起 GET 请求；非 2xx 不视为错误，由调用方按状态码处理。
func getJSON(ctx context.Context, client *http.Client, endpoint string, query url.Values, headers map[string]string) (apiResponse, error) {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return send(ctx, client, http.MethodGet, endpoint, nil, headers)
}

// postForm 以 application/x-www-form-urlencoded 提交 form。
func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values, headers map[string]string) (apiResponse, error) {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded;charset=utf-8"}
	for k, v := range headers {
		h[k] = v
	}
	return send(ctx, client, http.MethodPost, endpoint, strings.NewReader(form.Encode()), h)
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, payload any, headers map[string]string) (apiResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, fmt.Errorf("encode request: %w", err)
	}
	h := map[string]string{"Content-Type": "application/json;charset=utf-8"}
	for k, v := range headers {
		h[k] = v
	}
	return send(ctx, client, http.MethodPost, endpoint, bytes.NewReader(raw), h)
}

func send(ctx context.Context, client *http.Client, method, endpoint string, body io.Reader, headers map[string]string) (apiResponse, error) {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return apiResponse{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apiResponse{}, fmt.Errorf("read response: %w", err)
	}
	return apiResponse{Status: resp.StatusCode, Body: raw}, nil
}

func (r apiResponse) OK() bool { return r.Status >= 200 && r.Status < 300 }

// decodeInto 合并上游 JSON 对象到 out；非对象体放在 data 字段下。
func (r apiResponse) decodeInto(out map[string]any) error {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if obj, ok := v.(map[string]any); ok {
		for k, val := range obj {
			out[k] = val
		}
		return nil
	}
	out["data"] = v
	return nil
}

// failure 是上游非 2xx 时统一的返回形状。
func (r apiResponse) failure(service string) map[string]any {
	return map[string]any{
		"success":       false,
		"error":         fmt.Sprintf("%s API 오류: %d", service, r.Status),
		"error_message": string(r.Body),
		"status_code":   r.Status,
	}
}

// dataPayload 把成功响应包装成 {"success": true, "data": ...}。
func (r apiResponse) dataPayload() (map[string]any, error) {
	var v any
	if len(bytes.TrimSpace(r.Body)) > 0 {
		if err := json.Unmarshal(r.Body, &v); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return map[string]any{"success": true, "data": v}, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func decodeArgs(args json.RawMessage, out any) error {
	if err := json.Unmarshal(args, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
