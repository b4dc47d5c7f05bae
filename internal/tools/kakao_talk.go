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

const maxTalkMessageRunes = 200

type talkMessage struct {
	Message      string `json:"message"`
	TemplateID   string `json:"template_id"`
	WebURL       string `json:"web_url"`
	MobileWebURL string `json:"mobile_web_url"`
	ButtonTitle  string `json:"button_title"`
}

type friendsMessage struct {
	ReceiverUUIDs []string `json:"receiver_uuids"`
	talkMessage
}

type friendsQuery struct {
	Offset *int   `json:"offset"`
	Limit  *int   `json:"limit"`
	Order  string `json:"order"`
}

// clipMessage 超过 200 字时截断为 197 字 + "..."。
func clipMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxTalkMessageRunes {
		return msg
	}
	return string(runes[:maxTalkMessageRunes-3]) + "..."
}

// templateObject 生成 Kakao 默认文本模板。
func (m talkMessage) templateObject() (string, error) {
	link := map[string]string{}
	if m.WebURL != "" {
		link["web_url"] = m.WebURL
	}
	if m.MobileWebURL != "" {
		link["mobile_web_url"] = m.MobileWebURL
	}
	obj := map[string]any{
		"object_type": "text",
		"text":        clipMessage(m.Message),
		"link":        link,
	}
	if m.ButtonTitle != "" {
		obj["button_title"] = m.ButtonTitle
	}
	raw, err := json.Marshal(obj)
	return string(raw), err
}

// userToken 返回用户 access token；为空时返回登录提示。
func (k *Kakao) userToken() (string, map[string]any) {
	token := strings.TrimSpace(k.Tokens.AccessToken())
	if token == "" {
		return "", AuthRequired("KAKAO_ACCESS_TOKEN이 설정되지 않았습니다.", "")
	}
	return token, nil
}

// post 提交 form；401 转为登录提示。
func (k *Kakao) post(ctx context.Context, path string, form url.Values, token string) (apiResponse, map[string]any, error) {
	resp, err := postForm(ctx, k.HTTP, joinURL(k.apiBase(), path), form, map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		return resp, nil, err
	}
	switch {
	case resp.OK():
		return resp, nil, nil
	case resp.Status == http.StatusUnauthorized:
		return resp, AuthRequired("카카오톡 API 오류: 401", string(resp.Body)), nil
	default:
		return resp, resp.failure("카카오톡"), nil
	}
}

// SendMemo 给自己发送（나와의 채팅）；带 template_id 时走自定义模板接口。
func (k *Kakao) SendMemo(ctx context.Context, m talkMessage) (map[string]any, error) {
	if strings.TrimSpace(m.Message) == "" {
		return nil, errors.New("message는 필수입니다.")
	}
	token, denied := k.userToken()
	if denied != nil {
		return denied, nil
	}
	form := url.Values{}
	path := "/v2/api/talk/memo/default/send"
	if id := strings.TrimSpace(m.TemplateID); id != "" {
		path = "/v2/api/talk/memo/send"
		form.Set("template_id", id)
		args, _ := json.Marshal(map[string]string{"message": clipMessage(m.Message)})
		form.Set("template_args", string(args))
	} else {
		obj, err := m.templateObject()
		if err != nil {
			return nil, err
		}
		form.Set("template_object", obj)
	}
	resp, fail, err := k.post(ctx, path, form, token)
	if err != nil || fail != nil {
		return fail, err
	}
	out := map[string]any{
		"success": true,
		"message": clipMessage(m.Message),
		"sent_at": k.now().Format(time.RFC3339),
		"status":  "sent",
	}
	var api any
	if json.Unmarshal(resp.Body, &api) == nil {
		out["api_response"] = api
	}
	return out, nil
}

func (k *Kakao) SendToFriends(ctx context.Context, m friendsMessage) (map[string]any, error) {
	uuids := make([]string, 0, len(m.ReceiverUUIDs))
	for _, id := range m.ReceiverUUIDs {
		if id = strings.TrimSpace(id); id != "" {
			uuids = append(uuids, id)
		}
	}
	if len(uuids) == 0 {
		return nil, errors.New("receiver_uuids는 최소 1개 이상의 UUID 배열이어야 합니다.")
	}
	if strings.TrimSpace(m.Message) == "" {
		return nil, errors.New("message는 필수입니다.")
	}
	token, denied := k.userToken()
	if denied != nil {
		return denied, nil
	}
	obj, err := m.templateObject()
	if err != nil {
		return nil, err
	}
	receivers, _ := json.Marshal(uuids)
	form := url.Values{}
	form.Set("receiver_uuids", string(receivers))
	form.Set("template_object", obj)

	resp, fail, err := k.post(ctx, "/v1/api/talk/friends/message/default/send", form, token)
	if err != nil || fail != nil {
		return fail, err
	}
	var api struct {
		Successful []string `json:"successful_receiver_uuids"`
		Failures   []any    `json:"failure_info"`
	}
	_ = json.Unmarshal(resp.Body, &api)
	if api.Successful == nil {
		api.Successful = []string{}
	}
	if api.Failures == nil {
		api.Failures = []any{}
	}
	return map[string]any{
		"success":                   true,
		"receiver_uuids":            uuids,
		"message":                   clipMessage(m.Message),
		"sent_at":                   k.now().Format(time.RFC3339),
		"successful_receiver_uuids": api.Successful,
		"failure_info":              api.Failures,
	}, nil
}

func (k *Kakao) Friends(ctx context.Context, q friendsQuery) (map[string]any, error) {
	if _, denied := k.userToken(); denied != nil {
		return denied, nil
	}
	params := url.Values{}
	if q.Offset != nil {
		params.Set("offset", strconv.Itoa(*q.Offset))
	}
	if q.Limit != nil {
		params.Set("limit", strconv.Itoa(*q.Limit))
	}
	if order := strings.ToLower(strings.TrimSpace(q.Order)); order != "" {
		params.Set("order", order)
	}
	return k.call(ctx, "/v1/api/talk/friends", params, k.bearerHeaders(), true)
}

func (k *Kakao) Me(ctx context.Context) (map[string]any, error) {
	if _, denied := k.userToken(); denied != nil {
		return denied, nil
	}
	return k.call(ctx, "/v2/user/me", nil, k.bearerHeaders(), true)
}

func (k *Kakao) SendMemoHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "send_kakao_message",
			Description: "카카오톡 메시지 발송 - 자기 자신에게 메시지 보내기",
			Parameters: objectSchema(map[string]any{
				"message":        prop("string", "발송할 메시지 내용 (필수)"),
				"template_id":    prop("string", "템플릿 ID (선택사항, 템플릿 메시지 사용 시)"),
				"web_url":        prop("string", "웹 URL 링크 (선택)"),
				"mobile_web_url": prop("string", "모바일 웹 URL 링크 (선택)"),
				"button_title":   prop("string", "버튼 제목 (선택)"),
			}, "message"),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var m talkMessage
			if err := decodeArgs(args, &m); err != nil {
				return nil, err
			}
			return k.SendMemo(ctx, m)
		},
	}
}

func (k *Kakao) SendToFriendsHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "send_kakao_message_to_friends",
			Description: "카카오톡 친구에게 메시지 발송 - 친구 UUID 배열을 받아 여러 친구에게 메시지를 보냅니다",
			Parameters: objectSchema(map[string]any{
				"receiver_uuids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "친구 UUID 배열 (필수, 최소 1개 이상)",
				},
				"message":        prop("string", "발송할 메시지 내용 (필수, 최대 200자)"),
				"web_url":        prop("string", "웹 URL 링크 (선택)"),
				"mobile_web_url": prop("string", "모바일 웹 URL 링크 (선택)"),
				"button_title":   prop("string", "버튼 제목 (선택)"),
			}, "receiver_uuids", "message"),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var m friendsMessage
			if err := decodeArgs(args, &m); err != nil {
				return nil, err
			}
			return k.SendToFriends(ctx, m)
		},
	}
}

func (k *Kakao) FriendsHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_kakao_friends",
			Description: "카카오톡 친구 목록 조회",
			Parameters: objectSchema(map[string]any{
				"offset": prop("integer", "시작 위치 (선택)"),
				"limit":  prop("integer", "조회 개수 (선택)"),
				"order":  prop("string", "정렬 (asc/desc) (선택)"),
			}),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var q friendsQuery
			if err := decodeArgs(args, &q); err != nil {
				return nil, err
			}
			return k.Friends(ctx, q)
		},
	}
}

func (k *Kakao) MeHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_kakao_me",
			Description: "카카오 사용자 정보(내정보) 조회",
			Parameters:  objectSchema(map[string]any{}),
		},
		Fn: func(ctx context.Context, _ json.RawMessage) (map[string]any, error) {
			return k.Me(ctx)
		},
	}
}
