package render

import (
	"tam-chat/internal/logger"
	"tam-chat/internal/reply"
)

var log = logger.Named("render")

// detector 识别一种结构化回复；不匹配时返回 ok == false，从不报错。
type detector struct {
	name  string
	match func(obj map[string]any) (Decision, bool)
}

// detectors 按优先级排列，第一个匹配的生效。
var detectors = []detector{
	{name: "auth", match: detectAuth},
	{name: "repositories", match: detectRepositories},
	{name: "holidays", match: detectHolidays},
	{name: "calendars", match: detectCalendars},
	{name: "events", match: detectEvents},
	{name: "month", match: detectMonth},
}

// Classify selects exactly one Decision for r.
//
// Objects (and strings that parse as a JSON object) go through the structured detectors
// first. Strings then fall back to markdown-table extraction and finally plain text.
// Objects that match nothing are shown as indented JSON.
func Classify(r reply.Raw) Decision {
	if obj, ok := r.Object(); ok {
		for _, d := range detectors {
			if dec, ok := d.match(obj); ok {
				log.WithField("detector", d.name).Debug("reply classified")
				return dec
			}
		}
	}
	if s, ok := r.Text(); ok {
		if table, ok := ParseMarkdownTable(s); ok {
			return table
		}
		return PlainText{Text: s}
	}
	return PlainText{Text: r.String()}
}

func detectAuth(obj map[string]any) (Decision, bool) {
	required, _ := boolean(obj, "auth_required")
	if !required {
		return nil, false
	}
	url, ok := obj["auth_url"].(string)
	if !ok || url == "" {
		return nil, false
	}
	if provider, _ := obj["provider"].(string); provider != "kakao" {
		return nil, false
	}
	return AuthPrompt{URL: url}, true
}

func detectRepositories(obj map[string]any) (Decision, bool) {
	repos, ok := list(obj, "repos")
	if !ok || len(repos) == 0 {
		return nil, false
	}
	rows := make([]Row, 0, len(repos))
	for _, repo := range items(repos) {
		href := text(repo, "html_url")
		if href == "" {
			href = "#"
		}
		visibility := text(repo, "visibility")
		if visibility == "" {
			visibility = "public"
			if private, _ := boolean(repo, "private"); private {
				visibility = "private"
			}
		}
		rows = append(rows, Row{
			{Text: firstText(repo, "full_name", "name"), Href: href},
			{Text: visibility},
			{Text: text(repo, "language")},
			{Text: text(repo, "description")},
			{Text: text(repo, "pushed_at")},
		})
	}
	return Table{Kind: Repositories, Rows: rows}, true
}

func detectHolidays(obj map[string]any) (Decision, bool) {
	events, ok := list(obj, "events")
	if !ok || len(events) == 0 {
		return nil, false
	}
	rows := make([]Row, 0, len(events))
	for _, v := range events {
		event, ok := object(v)
		if !ok {
			return nil, false
		}
		if _, has := event["calendar_id"]; has {
			return nil, false
		}
		tm, ok := object(event["time"])
		if !ok {
			return nil, false
		}
		rows = append(rows, Row{
			{Text: text(event, "title")},
			{Text: text(tm, "start_at")},
			{Text: text(tm, "end_at")},
			{Text: yesNo(tm, "all_day")},
			{Text: yesNo(event, "holiday")},
		})
	}
	return Table{Kind: Holidays, Rows: rows}, true
}

func detectCalendars(obj map[string]any) (Decision, bool) {
	user, hasUser := list(obj, "calendars")
	subscribed, hasSubscribed := list(obj, "subscribe_calendars")
	if !hasUser && !hasSubscribed {
		return nil, false
	}
	rows := make([]Row, 0, len(user)+len(subscribed))
	appendRows := func(kind string, cals []any) {
		for _, cal := range items(cals) {
			rows = append(rows, Row{
				{Text: kind},
				{Text: text(cal, "id")},
				{Text: text(cal, "name")},
				{Text: text(cal, "color")},
				{Text: text(cal, "reminder")},
				{Text: text(cal, "reminder_all_day")},
			})
		}
	}
	appendRows("USER", user)
	appendRows("SUBSCRIBE", subscribed)
	if len(rows) == 0 {
		return nil, false
	}
	return Table{Kind: Calendars, Rows: rows}, true
}

func detectEvents(obj map[string]any) (Decision, bool) {
	events, ok := list(obj, "events")
	if !ok || len(events) == 0 {
		return nil, false
	}
	rows := make([]Row, 0, len(events))
	for _, event := range items(events) {
		tm, _ := object(event["time"])
		if tm == nil {
			tm = map[string]any{}
		}
		rows = append(rows, Row{
			{Text: text(event, "title")},
			{Text: text(event, "calendar_id")},
			{Text: text(tm, "start_at")},
			{Text: text(tm, "end_at")},
			{Text: text(tm, "time_zone")},
			{Text: yesNo(tm, "all_day")},
			{Text: text(event, "color")},
		})
	}
	return Table{Kind: Events, Rows: rows}, true
}

func detectMonth(obj map[string]any) (Decision, bool) {
	view, ok := object(obj["calendar_view"])
	if !ok {
		return nil, false
	}
	weeks, ok := list(view, "weeks")
	if !ok {
		return nil, false
	}
	grid := MonthGrid{
		Year:  integer(view, "year"),
		Month: integer(view, "month"),
		Weeks: make([][]DayCell, 0, len(weeks)),
	}
	for _, w := range weeks {
		days, _ := w.([]any)
		week := make([]DayCell, 0, len(days))
		for _, d := range days {
			week = append(week, dayCell(d))
		}
		grid.Weeks = append(grid.Weeks, week)
	}
	return grid, true
}

// dayCell 解析单个日期格；null 或非对象视为空格。
func dayCell(v any) DayCell {
	cell, ok := object(v)
	if !ok {
		return DayCell{}
	}
	out := DayCell{Day: integer(cell, "day")}
	out.InMonth, _ = boolean(cell, "in_month")
	if holidays, ok := list(cell, "holidays"); ok {
		for _, h := range holidays {
			if label := stringify(h); label != "" {
				out.Holidays = append(out.Holidays, label)
			}
		}
	}
	if events, ok := list(cell, "events"); ok {
		for _, e := range events {
			title := stringify(e)
			if m, ok := object(e); ok {
				title = text(m, "title")
			}
			if title != "" {
				out.Events = append(out.Events, title)
			}
		}
	}
	return out
}
