package tools

import (
	"context"
	"encoding/json"
	"time"

	"tam-chat/internal/agent"

	"golang.org/x/sync/errgroup"
)

// maxEventSpanDays 防止异常的结束时间撑爆网格。
const maxEventSpanDays = 62

type monthQuery struct {
	CalendarID string `json:"calendar_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (k *Kakao) MonthViewHandler() Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{
			Name:        "get_kakao_month_view",
			Description: "카카오 캘린더 월간 달력 보기 (일정 + 공휴일)",
			Parameters: objectSchema(map[string]any{
				"calendar_id": prop("string", "캘린더 ID (기본 primary)"),
				"year":        prop("integer", "연도 (기본 올해)"),
				"month":       prop("integer", "월 1-12 (기본 이번 달)"),
			}),
		},
		Fn: func(ctx context.Context, args json.RawMessage) (map[string]any, error) {
			var q monthQuery
			if err := decodeArgs(args, &q); err != nil {
				return nil, err
			}
			return k.MonthView(ctx, q)
		},
	}
}

// MonthView 并发拉取日程与节假日并组装 calendar_view。
func (k *Kakao) MonthView(ctx context.Context, q monthQuery) (map[string]any, error) {
	now := k.now().In(kst)
	if q.Year <= 0 {
		q.Year = now.Year()
	}
	if q.Month < 1 || q.Month > 12 {
		q.Month = int(now.Month())
	}
	if q.CalendarID == "" {
		q.CalendarID = "primary"
	}
	first := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, kst)
	from, to := formatUTC(first), formatUTC(first.AddDate(0, 1, 0))

	var events, holidays map[string]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = k.Events(gctx, eventsQuery{CalendarID: q.CalendarID, From: from, To: to})
		return err
	})
	if k.AdminKey != "" {
		g.Go(func() error {
			var err error
			holidays, err = k.Holidays(gctx, holidaysQuery{From: from, To: to})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if auth, _ := events["auth_required"].(bool); auth {
		return events, nil
	}
	if ok, _ := events["success"].(bool); !ok {
		return events, nil
	}

	grid := newMonthGrid(first)
	for _, ev := range eventItems(events) {
		title, _ := ev["title"].(string)
		if title == "" {
			continue
		}
		for _, day := range eventDays(ev) {
			if cell := grid.cell(day); cell != nil {
				cell.Events = append(cell.Events, map[string]any{"title": title})
			}
		}
	}
	if ok, _ := holidays["success"].(bool); ok {
		for _, ev := range eventItems(holidays) {
			title, _ := ev["title"].(string)
			if title == "" {
				continue
			}
			for _, day := range eventDays(ev) {
				if cell := grid.cell(day); cell != nil {
					cell.Holidays = append(cell.Holidays, title)
				}
			}
		}
	}

	return map[string]any{
		"success": true,
		"calendar_view": map[string]any{
			"year":  q.Year,
			"month": q.Month,
			"weeks": grid.weeks(),
		},
	}, nil
}

type dayCell struct {
	Date     time.Time
	InMonth  bool
	Holidays []string
	Events   []map[string]any
}

type monthGrid struct {
	start time.Time
	cells []*dayCell
}

// newMonthGrid 以周日开头，补齐首尾周。
func newMonthGrid(first time.Time) *monthGrid {
	start := first.AddDate(0, 0, -int(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	end := last.AddDate(0, 0, 6-int(last.Weekday()))
	g := &monthGrid{start: start}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		g.cells = append(g.cells, &dayCell{Date: d, InMonth: d.Month() == first.Month()})
	}
	return g
}

func (g *monthGrid) cell(day time.Time) *dayCell {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, kst)
	idx := int(day.Sub(g.start).Hours() / 24)
	if idx < 0 || idx >= len(g.cells) {
		return nil
	}
	return g.cells[idx]
}

func (g *monthGrid) weeks() [][]map[string]any {
	var out [][]map[string]any
	for i := 0; i < len(g.cells); i += 7 {
		week := make([]map[string]any, 0, 7)
		for _, c := range g.cells[i : i+7] {
			holidays := c.Holidays
			if holidays == nil {
				holidays = []string{}
			}
			events := c.Events
			if events == nil {
				events = []map[string]any{}
			}
			week = append(week, map[string]any{
				"day":      c.Date.Day(),
				"in_month": c.InMonth,
				"holidays": holidays,
				"events":   events,
			})
		}
		out = append(out, week)
	}
	return out
}

func eventItems(payload map[string]any) []map[string]any {
	raw, _ := payload["events"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// eventDays 返回事件覆盖的 KST 日期；结束于零点时不含结束日。
func eventDays(ev map[string]any) []time.Time {
	tm, _ := ev["time"].(map[string]any)
	startRaw, _ := tm["start_at"].(string)
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return nil
	}
	start = start.In(kst)
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, kst)
	days := []time.Time{first}

	endRaw, _ := tm["end_at"].(string)
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil || !end.After(start) {
		return days
	}
	end = end.In(kst)
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, kst)
	if end.Equal(lastDay) {
		lastDay = lastDay.AddDate(0, 0, -1)
	}
	for d := first.AddDate(0, 0, 1); !d.After(lastDay) && len(days) < maxEventSpanDays; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
