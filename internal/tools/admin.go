package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tam-chat/internal/agent"
)

const defaultFamousSayingURL = "http://test-tam.pe.kr/api/famoussaying"

// FamousSaying 调用随机名言接口。
type FamousSaying struct {
	URL  string
	HTTP *http.Client
	Now  func() time.Time
}

func (f *FamousSaying) Get(ctx context.Context) (map[string]any, error) {
	endpoint := f.URL
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultFamousSayingURL
	}
	resp, err := getJSON(ctx, f.HTTP, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp.failure("명언"), nil
	}
	var saying struct {
		Contents string `json:"contents"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body, &saying); err != nil {
		return nil, err
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	return map[string]any{
		"success":    true,
		"contents":   saying.Contents,
		"name":       saying.Name,
		"fetched_at": now.Format(time.RFC3339),
	}, nil
}

func (f *FamousSaying) Handler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_famous_saying",
			Description: "랜덤 명언 조회 - 오늘의 명언, 명언 알려줘 등의 요청 시 사용",
			Parameters:  objectSchema(map[string]any{}),
		},
		Fn: func(ctx context.Context, _ json.RawMessage) (map[string]any, error) {
			return f.Get(ctx)
		},
	}
}

// TamAdmin 访问 tam-admin 后台。通用 action 代理的接口尚未确定，目前只回 Not Implemented。
type TamAdmin struct {
	Host string
	HTTP *http.Client
	Now  func() time.Time
}

type adminAction struct {
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
	Method  string         `json:"method"`
}

type matchingQuery struct {
	MajorCategory string `json:"major_category"`
	SubCategory   string `json:"sub_category"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
}

func (a *TamAdmin) headers() map[string]string {
	return map[string]string{
		"Authorization": "Basic",
		"User-Agent":    "tam-batch",
		"TAM-CLIENT":    "TAM-AGENT",
	}
}

func (a *TamAdmin) Action(_ context.Context, req adminAction) (map[string]any, error) {
	if strings.TrimSpace(req.Action) == "" {
		return nil, errors.New("action은 필수입니다.")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	now := time.Now()
	if a.Now != nil {
		now = a.Now()
	}
	return map[string]any{
		"success":   false,
		"error":     "Not Implemented",
		"message":   "tam-admin API 스펙 확정 전입니다.",
		"action":    req.Action,
		"method":    method,
		"timestamp": now.Format(time.RFC3339),
	}, nil
}

// ChatMatchingList 查询分类别的 Devtalk 预设回答，page/limit 默认 1/20。
func (a *TamAdmin) ChatMatchingList(ctx context.Context, q matchingQuery) (map[string]any, error) {
	if strings.TrimSpace(a.Host) == "" {
		return map[string]any{"success": false, "error": "TAM_ADMIN_API_HOST env not set"}, nil
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	params := url.Values{}
	if q.MajorCategory != "" {
		params.Set("major_category", q.MajorCategory)
	}
	if q.SubCategory != "" {
		params.Set("sub_category", q.SubCategory)
	}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))

	resp, err := getJSON(ctx, a.HTTP, joinURL(a.Host, "/api/devtalk/chat-matching-list"), params, a.headers())
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp.failure("tam-admin"), nil
	}
	return resp.dataPayload()
}

func (a *TamAdmin) ActionHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "tam_admin_action",
			Description: "tam-admin API 제너릭 액션 프록시(스펙 확정 전)",
			Parameters: objectSchema(map[string]any{
				"action":  prop("string", "수행할 액션명"),
				"payload": prop("object", "요청 바디(선택)"),
				"method":  prop("string", "HTTP 메소드(기본 POST)"),
			}, "action"),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var req adminAction
			if err := decodeArgs(args, &req); err != nil {
				return nil, err
			}
			return a.Action(ctx, req)
		},
	}
}

func (a *TamAdmin) ChatMatchingHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_devtalk_chat_matching_list",
			Description: "분류별 데브톡 사전 답변 목록 조회",
			Parameters: objectSchema(map[string]any{
				"major_category": prop("string", "대분류 (선택)"),
				"sub_category":   prop("string", "소분류 (선택)"),
				"page":           prop("integer", "페이지 (기본 1)"),
				"limit":          prop("integer", "개수 (기본 20)"),
			}),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var q matchingQuery
			if err := decodeArgs(args, &q); err != nil {
				return nil, err
			}
			return a.ChatMatchingList(ctx, q)
		},
	}
}
