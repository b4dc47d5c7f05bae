package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"tam-chat/internal/agent"
)

const defaultKakaoAPIBase = "https://kapi.kakao.com"

// kst 为 Kakao 日历默认区间计算使用的韩国标准时间。
var kst = time.FixedZone("KST", 9*60*60)

// TokenStore 从 JSON 文件读取 access_token，文件缺失时使用 Fallback。
type TokenStore struct {
	Path     string
	Fallback string
}

func (s TokenStore) AccessToken() string {
	if strings.TrimSpace(s.Path) != "" {
		raw, err := os.ReadFile(s.Path)
		if err == nil {
			var tokens struct {
				AccessToken string `json:"access_token"`
			}
			if json.Unmarshal(raw, &tokens) == nil && tokens.AccessToken != "" {
				return tokens.AccessToken
			}
		}
	}
	return s.Fallback
}

type Kakao struct {
	APIBase  string
	Tokens   TokenStore
	AdminKey string
	HTTP     *http.Client
	Now      func() time.Time
}

func (k *Kakao) apiBase() string {
	if strings.TrimSpace(k.APIBase) == "" {
		return defaultKakaoAPIBase
	}
	return k.APIBase
}

func (k *Kakao) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}
	return time.Now()
}

func (k *Kakao) bearerHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + k.Tokens.AccessToken()}
}

func (k *Kakao) adminHeaders() map[string]string {
	return map[string]string{"Authorization": "KakaoAK " + k.AdminKey}
}

// call 统一处理 200 / 401 / 其他状态码的返回形状。
// userToken 为 false 时（Admin Key 调用）401 不转换为登录提示。
func (k *Kakao) call(ctx context.Context, path string, query url.Values, headers map[string]string, userToken bool) (map[string]any, error) {
	resp, err := getJSON(ctx, k.HTTP, joinURL(k.apiBase(), path), query, headers)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.OK():
		out := map[string]any{"success": true}
		if err := resp.decodeInto(out); err != nil {
			return nil, err
		}
		return out, nil
	case resp.Status == http.StatusUnauthorized && userToken:
		return AuthRequired("카카오톡 API 오류: 401", string(resp.Body)), nil
	default:
		return map[string]any{
			"success":     false,
			"status_code": resp.Status,
			"error":       string(resp.Body),
		}, nil
	}
}

// AuthRequired 构造需要 Kakao 登录的结构化结果。
func AuthRequired(message, body string) map[string]any {
	out := map[string]any{
		"success":       false,
		"error":         message,
		"auth_required": true,
		"provider":      "kakao",
	}
	if body != "" {
		out["error_body"] = body
	}
	return out
}

type calendarsQuery struct {
	Filter string `json:"filter"`
}

type eventsQuery struct {
	CalendarID string `json:"calendar_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Limit      int    `json:"limit"`
}

type holidaysQuery struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (k *Kakao) Calendars(ctx context.Context, q calendarsQuery) (map[string]any, error) {
	params := url.Values{}
	if f := strings.ToUpper(strings.TrimSpace(q.Filter)); f != "" {
		params.Set("filter", f)
	}
	return k.call(ctx, "/v2/api/calendar/calendars", params, k.bearerHeaders(), true)
}

func (k *Kakao) Events(ctx context.Context, q eventsQuery) (map[string]any, error) {
	if strings.TrimSpace(q.CalendarID) == "" {
		return nil, errors.New("calendar_id는 필수입니다.")
	}
	from, to := MonthRange(k.now())
	if q.From == "" {
		q.From = from
	}
	if q.To == "" {
		q.To = to
	}
	params := url.Values{}
	params.Set("calendar_id", q.CalendarID)
	params.Set("from", q.From)
	params.Set("to", q.To)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	return k.call(ctx, "/v2/api/calendar/events", params, k.bearerHeaders(), true)
}

func (k *Kakao) Holidays(ctx context.Context, q holidaysQuery) (map[string]any, error) {
	if q.From == "" || q.To == "" {
		q.From, q.To = MonthRange(k.now())
	}
	params := url.Values{}
	params.Set("from", q.From)
	params.Set("to", q.To)
	return k.call(ctx, "/v2/api/calendar/holidays", params, k.adminHeaders(), false)
}

// MonthRange 返回 now 所在月（KST）的 [1일 00:00, 다음 달 1일 00:00)，以 UTC Z 表示。
func MonthRange(now time.Time) (string, string) {
	local := now.In(kst)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, kst)
	next := first.AddDate(0, 1, 0)
	return formatUTC(first), formatUTC(next)
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func (k *Kakao) CalendarsHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_kakao_calendars",
			Description: "카카오 캘린더 목록 조회 (사용자/구독 캘린더)",
			Parameters: objectSchema(map[string]any{
				"filter": prop("string", "USER | SUBSCRIBE | ALL (기본 ALL)"),
			}),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var q calendarsQuery
			if err := decodeArgs(args, &q); err != nil {
				return nil, err
			}
			return k.Calendars(ctx, q)
		},
	}
}

func (k *Kakao) EventsHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_kakao_events",
			Description: "카카오 캘린더 일정 목록 조회 (기본 기간: 이번 달)",
			Parameters: objectSchema(map[string]any{
				"calendar_id": prop("string", "캘린더 ID (필수)"),
				"from":        prop("string", "ISO8601 UTC 시작 시각 (선택)"),
				"to":          prop("string", "ISO8601 UTC 종료 시각 (선택)"),
				"limit":       prop("integer", "최대 개수 (선택)"),
			}, "calendar_id"),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var q eventsQuery
			if err := decodeArgs(args, &q); err != nil {
				return nil, err
			}
			return k.Events(ctx, q)
		},
	}
}

func (k *Kakao) HolidaysHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_kakao_holidays",
			Description: "공휴일/기념일 조회",
			Parameters: objectSchema(map[string]any{
				"from": prop("string", "ISO8601 시작 시각 (선택)"),
				"to":   prop("string", "ISO8601 종료 시각 (선택)"),
			}),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var q holidaysQuery
			if err := decodeArgs(args, &q); err != nil {
				return nil, err
			}
			return k.Holidays(ctx, q)
		},
	}
}
