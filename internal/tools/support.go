package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tam-chat/internal/agent"
	"tam-chat/internal/support"
)

// Support 把本地支持数据（开发者、客户、工单、解封请求、应用日志）暴露为工具。
type Support struct {
	Store *support.Store
}

var validPriorities = map[string]bool{"low": true, "medium": true, "high": true, "urgent": true}

func notFound(msg string) map[string]any { return map[string]any{"error": msg} }

func (s *Support) DeveloperStatus(id string) (map[string]any, error) {
	d, ok, err := s.Store.Developer(strings.TrimSpace(id))
	if err != nil || !ok {
		return notFound("개발자 정보를 찾을 수 없습니다."), err
	}
	apps := d.Apps
	if apps == nil {
		apps = []string{}
	}
	return map[string]any{
		"developer_id":   d.DeveloperID,
		"name":           d.Name,
		"account_status": d.AccountStatus,
		"block_reason":   d.BlockReason,
		"apps":           apps,
		"notes":          d.Notes,
	}, nil
}

func (s *Support) CustomerInfo(id string) (map[string]any, error) {
	c, ok, err := s.Store.Customer(strings.TrimSpace(id))
	if err != nil || !ok {
		return notFound("고객 정보를 찾을 수 없습니다."), err
	}
	return map[string]any{
		"customer_id": c.CustomerID,
		"name":        c.Name,
		"email":       c.Email,
		"plan":        c.Plan,
		"status":      c.Status,
		"notes":       c.Notes,
	}, nil
}

func (s *Support) TicketStatus(id string) (map[string]any, error) {
	t, ok, err := s.Store.Ticket(strings.TrimSpace(id))
	if err != nil || !ok {
		return notFound("티켓을 찾을 수 없습니다."), err
	}
	return map[string]any{
		"ticket_id":   t.TicketID,
		"title":       t.Title,
		"status":      t.Status,
		"created_at":  t.CreatedAt,
		"description": t.Description,
	}, nil
}

type ticketArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	CustomerID  string `json:"customer_id"`
}

func (s *Support) CreateTicket(a ticketArgs) (map[string]any, error) {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Description) == "" {
		return nil, errors.New("title과 description은 필수입니다.")
	}
	priority := strings.ToLower(strings.TrimSpace(a.Priority))
	if !validPriorities[priority] {
		return nil, fmt.Errorf("priority는 low, medium, high, urgent 중 하나여야 합니다: %q", a.Priority)
	}
	t, err := s.Store.CreateTicket(support.Ticket{
		Title:       a.Title,
		Description: a.Description,
		Priority:    priority,
		CustomerID:  strings.TrimSpace(a.CustomerID),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ticket_id": t.TicketID,
		"title":     t.Title,
		"status":    t.Status,
		"message":   "티켓이 생성되었습니다.",
	}, nil
}

type unblockArgs struct {
	DeveloperID    string `json:"developer_id"`
	Reason         string `json:"reason"`
	AdditionalInfo string `json:"additional_info"`
}

func (s *Support) CreateUnblockRequest(a unblockArgs) (map[string]any, error) {
	if strings.TrimSpace(a.DeveloperID) == "" || strings.TrimSpace(a.Reason) == "" {
		return nil, errors.New("developer_id와 reason은 필수입니다.")
	}
	r, err := s.Store.CreateBlockRequest(support.BlockRequest{
		DeveloperID:    strings.TrimSpace(a.DeveloperID),
		Reason:         a.Reason,
		AdditionalInfo: a.AdditionalInfo,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"request_id": r.RequestID,
		"status":     r.Status,
		"message":    "차단 해제 요청이 등록되었습니다.",
	}, nil
}

// SearchAppErrorLogs 查询应用错误日志；命中时自动登记一张 high 优先级工单。
func (s *Support) SearchAppErrorLogs(appID, code string) (map[string]any, error) {
	appID, code = strings.TrimSpace(appID), strings.TrimSpace(code)
	if appID == "" || code == "" {
		return nil, errors.New("app_id와 error_code는 필수입니다.")
	}
	logs, err := s.Store.AppLogs(appID, code)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []support.AppLog{}
	}
	out := map[string]any{
		"app_id":      appID,
		"error_code":  code,
		"found":       len(logs) > 0,
		"logs":        logs,
		"total_count": len(logs),
	}
	if len(logs) == 0 {
		return out, nil
	}
	first := logs[0]
	t, err := s.Store.CreateTicket(support.Ticket{
		Title:       fmt.Sprintf("앱 에러 로그 확인 (%s)", code),
		Description: fmt.Sprintf("앱 ID: %s, 에러 코드: %s\n\n에러 메시지: %s\n발생 시간: %s", appID, code, first.ErrorMessage, first.Timestamp),
		Priority:    "high",
	})
	if err != nil {
		return nil, err
	}
	out["ticket_id"] = t.TicketID
	return out, nil
}

func (s *Support) Handlers() []Handler {
	return []Handler{
		HandlerFunc{
			ToolSpec: agent.ToolSpec{
				Name:        "check_developer_status",
				Description: "데브톡 API로 개발자 계정 차단 여부 확인",
				Parameters:  objectSchema(map[string]any{"developer_id": prop("string", "개발자 ID")}, "developer_id"),
			},
			Fn: func(_ context.Context, args json.RawMessage) (map[string]any, error) {
				var a struct {
					DeveloperID string `json:"developer_id"`
				}
				if err := decodeArgs(args, &a); err != nil {
					return nil, err
				}
				return s.DeveloperStatus(a.DeveloperID)
			},
		},
		HandlerFunc{
			ToolSpec: agent.ToolSpec{
				Name:        "get_customer_info",
				Description: "고객 정보 조회",
				Parameters:  objectSchema(map[string]any{"customer_id": prop("string", "고객 ID")}, "customer_id"),
			},
			Fn: func(_ context.Context, args json.RawMessage) (map[string]any, error) {
				var a struct {
					CustomerID string `json:"customer_id"`
				}
				if err := decodeArgs(args, &a); err != nil {
					return nil, err
				}
				return s.CustomerInfo(a.CustomerID)
			},
		},
		HandlerFunc{
			ToolSpec: agent.ToolSpec{
				Name:        "create_unblock_request",
				Description: "앱 차단 해제 요청 DB에 저장",
				Parameters: objectSchema(map[string]any{
					"developer_id":    prop("string", "개발자 ID"),
					"reason":          prop("string", "차단 해제 요청 사유"),
					"additional_info": prop("string", "추가 정보 (예: API 호출 로직 잘못으로 위반)"),
				}, "developer_id", "reason", "additional_info"),
			},
			Fn: func(_ context.Context, args json.RawMessage) (map[string]any, error) {
				var a unblockArgs
				if err := decodeArgs(args, &a); err != nil {
					return nil, err
				}
				return s.CreateUnblockRequest(a)
			},
		},
		HandlerFunc{
			ToolSpec: agent.ToolSpec{
				Name:        "get_ticket_status",
				Description: "티켓 상태 조회",
				Parameters:  objectSchema(map[string]any{"ticket_id": prop("string", "티켓 ID")}, "ticket_id"),
			},
			Fn: func(_ context.Context, args json.RawMessage) (map[string]any, error) {
				var a struct {
					TicketID string `json:"ticket_id"`
				}
				if err := decodeArgs(args, &a); err != nil {
					return nil, err
				}
				return s.TicketStatus(a.TicketID)
			},
		},
		HandlerFunc{
			ToolSpec: agent.ToolSpec{
				Name:        "create_ticket",
				Description: "지원 티켓 생성",
				Parameters: objectSchema(map[string]any{
					"title":       prop("string", "티켓 제목"),
					"description": prop("string", "티켓 설명"),
					"priority": map[string]any{
						"type":        "string",
						"description": "우선순위 (low, medium, high, urgent)",
						"enum":        []string{"low", "medium", "high", "urgent"},
					},
					"customer_id": prop("string", "고객 ID (선택사항)"),
				}, "title", "description", "priority"),
			},
			Fn: func(_ context.Context, args json.RawMessage) (map[string]any, error) {
				var a ticketArgs
				if err := decodeArgs(args, &a); err != nil {
					return nil, err
				}
				return s.CreateTicket(a)
			},
		},
		HandlerFunc{
			ToolSpec: agent.ToolSpec{
				Name:        "search_app_error_logs",
				Description: "앱 ID로 에러 로그 조회 - KOE009 등 에러 코드 확인",
				Parameters: objectSchema(map[string]any{
					"app_id":     prop("string", "앱 ID"),
					"error_code": prop("string", "에러 코드 (예: KOE009)"),
				}, "app_id", "error_code"),
			},
			Fn: func(_ context.Context, args json.RawMessage) (map[string]any, error) {
				var a struct {
					AppID     string `json:"app_id"`
					ErrorCode string `json:"error_code"`
				}
				if err := decodeArgs(args, &a); err != nil {
					return nil, err
				}
				return s.SearchAppErrorLogs(a.AppID, a.ErrorCode)
			},
		},
	}
}
