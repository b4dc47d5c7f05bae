package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tam-chat/internal/agent"
)

const defaultDevtalkHost = "https://devtalk.kakao.com"

// Data Explorer 上预先保存的查询编号。
const (
	devtalkUnansweredListQuery  = 12
	devtalkUnansweredCountQuery = 13
)

// Devtalk 调用 Discourse 论坛 API：查询用一组 key，回帖用另一组。
type Devtalk struct {
	Host          string
	APIKey        string
	APIUsername   string
	ReplyKey      string
	ReplyUsername string
	HTTP          *http.Client
}

type devtalkReply struct {
	TopicID          json.Number `json:"topic_id"`
	Raw              string      `json:"raw"`
	TargetRecipients string      `json:"target_recipients"`
	Archetype        string      `json:"archetype"`
}

func (d *Devtalk) host() string {
	if strings.TrimSpace(d.Host) == "" {
		return defaultDevtalkHost
	}
	return d.Host
}

func (d *Devtalk) runQuery(ctx context.Context, id int) (map[string]any, error) {
	if d.APIKey == "" || d.APIUsername == "" {
		return map[string]any{"success": false, "error": "DEVTALK_API_KEY/DEVTALK_API_USERNAME가 설정되지 않았습니다."}, nil
	}
	endpoint := joinURL(d.host(), "/admin/plugins/explorer/queries/"+strconv.Itoa(id)+"/run")
	resp, err := postForm(ctx, d.HTTP, endpoint, url.Values{}, map[string]string{
		"Api-Key":      d.APIKey,
		"Api-Username": d.APIUsername,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp.failure("Devtalk"), nil
	}
	return resp.dataPayload()
}

func (d *Devtalk) UnansweredCount(ctx context.Context) (map[string]any, error) {
	return d.runQuery(ctx, devtalkUnansweredCountQuery)
}

func (d *Devtalk) UnansweredList(ctx context.Context) (map[string]any, error) {
	return d.runQuery(ctx, devtalkUnansweredListQuery)
}

// Reply 在 topic 下发帖；target_recipients 默认 tambot，archetype 默认 regular。
func (d *Devtalk) Reply(ctx context.Context, r devtalkReply) (map[string]any, error) {
	topic := strings.TrimSpace(r.TopicID.String())
	if topic == "" || topic == "0" || strings.TrimSpace(r.Raw) == "" {
		return nil, errors.New("topic_id와 raw는 필수입니다.")
	}
	if d.ReplyKey == "" || d.ReplyUsername == "" {
		return map[string]any{"success": false, "error": "DEVTALK_REPLY_API_KEY/DEVTALK_REPLY_API_USERNAME가 설정되지 않았습니다."}, nil
	}
	if r.TargetRecipients == "" {
		r.TargetRecipients = "tambot"
	}
	if r.Archetype == "" {
		r.Archetype = "regular"
	}
	resp, err := postJSON(ctx, d.HTTP, joinURL(d.host(), "/posts.json"), map[string]string{
		"raw":               r.Raw,
		"topic_id":          topic,
		"target_recipients": r.TargetRecipients,
		"archetype":         r.Archetype,
	}, map[string]string{
		"Api-Key":      d.ReplyKey,
		"Api-Username": d.ReplyUsername,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp.failure("Devtalk"), nil
	}
	return resp.dataPayload()
}

func (d *Devtalk) UnansweredCountHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_devtalk_unanswered_count",
			Description: "Devtalk 답변 없는 최근 작성글 수 조회",
			Parameters:  objectSchema(map[string]any{}),
		},
		Fn: func(ctx context.Context, _ json.RawMessage) (map[string]any, error) {
			return d.UnansweredCount(ctx)
		},
	}
}

func (d *Devtalk) UnansweredListHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_devtalk_unanswered_list",
			Description: "Devtalk 미답변 글 목록 조회",
			Parameters:  objectSchema(map[string]any{}),
		},
		Fn: func(ctx context.Context, _ json.RawMessage) (map[string]any, error) {
			return d.UnansweredList(ctx)
		},
	}
}

func (d *Devtalk) ReplyHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "post_devtalk_reply",
			Description: "Devtalk 토픽에 답변 등록",
			Parameters: objectSchema(map[string]any{
				"topic_id":          prop("integer", "토픽 ID"),
				"raw":               prop("string", "답변 본문"),
				"target_recipients": prop("string", "수신 대상 (선택)"),
				"archetype":         prop("string", "유형 (선택)"),
			}, "topic_id", "raw"),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var r devtalkReply
			if err := decodeArgs(args, &r); err != nil {
				return nil, err
			}
			return d.Reply(ctx, r)
		},
	}
}
