package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"tam-chat/internal/i18n"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// HTMLRenderer turns a Decision into an HTML fragment for the web widget.
type HTMLRenderer struct {
	Text TextRenderer
	Lang i18n.Language
}

func NewHTMLRenderer(text TextRenderer, lang i18n.Language) *HTMLRenderer {
	if text == nil {
		text = PlainTextRenderer{}
	}
	return &HTMLRenderer{Text: text, Lang: lang}
}

// Render returns the fragment for d with the profile-image fallback applied.
func (r *HTMLRenderer) Render(d Decision) (template.HTML, error) {
	var (
		name string
		data any
	)
	switch v := d.(type) {
	case AuthPrompt:
		name = "auth"
		data = struct {
			URL     string
			Message string
			Button  string
		}{v.URL, i18n.T(r.Lang, i18n.LoginRequired), i18n.T(r.Lang, i18n.LoginButton)}
	case Table:
		name = "table"
		data = struct {
			Kind    string
			Columns []string
			Rows    []Row
		}{v.Kind.String(), v.Kind.Columns(), v.Rows}
	case MonthGrid:
		name = "month"
		data = struct {
			Title    string
			Weekdays []string
			Weeks    [][]DayCell
		}{monthTitle(v, r.Lang), weekdayLabels(r.Lang), v.Weeks}
	case MarkdownTable:
		name = "markdown"
		data = struct {
			Before template.HTML
			Header []string
			Rows   [][]string
			After  template.HTML
		}{r.text(v.Before), v.Header, v.Rows, r.text(v.After)}
	case PlainText:
		return WithImageFallback(r.text(v.Text)), nil
	default:
		return "", fmt.Errorf("render: unsupported decision %T", d)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return WithImageFallback(template.HTML(buf.String())), nil
}

func (r *HTMLRenderer) text(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return r.Text.RenderText(s)
}

func monthTitle(g MonthGrid, lang i18n.Language) string {
	if g.Year == 0 || g.Month == 0 {
		return ""
	}
	if i18n.Normalize(string(lang)) == i18n.LanguageKorean {
		return fmt.Sprintf("%d년 %d월", g.Year, g.Month)
	}
	return fmt.Sprintf("%d-%02d", g.Year, g.Month)
}

// 周日开头，与月视图的数据排列一致
func weekdayLabels(lang i18n.Language) []string {
	if i18n.Normalize(string(lang)) == i18n.LanguageKorean {
		return []string{"일", "월", "화", "수", "목", "금", "토"}
	}
	return []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
}
