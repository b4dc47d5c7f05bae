package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"tam-chat/internal/i18n"
)

var (
	termHeaderStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	termCellStyle    = lipgloss.NewStyle().Padding(0, 1)
	termFaintStyle   = lipgloss.NewStyle().Faint(true)
	termHolidayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	termEventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	termLinkStyle    = lipgloss.NewStyle().Underline(true)
)

// TermRenderer renders decisions for a terminal transcript.
type TermRenderer struct {
	// Width 为表格最大宽度，<=0 表示不限制。
	Width int
	// CellWidth 截断过长的单元格，<=0 表示不截断。
	CellWidth int
	Lang      i18n.Language
}

func (r TermRenderer) Render(d Decision) string {
	switch v := d.(type) {
	case AuthPrompt:
		return i18n.T(r.Lang, i18n.LoginRequired) + "\n" + termLinkStyle.Render(v.URL)
	case Table:
		rows := make([][]string, 0, len(v.Rows))
		for _, row := range v.Rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				cells = append(cells, r.cell(c))
			}
			rows = append(rows, cells)
		}
		return r.table(v.Kind.Columns(), rows)
	case MonthGrid:
		return r.month(v)
	case MarkdownTable:
		parts := []string{}
		if strings.TrimSpace(v.Before) != "" {
			parts = append(parts, v.Before)
		}
		rows := make([][]string, 0, len(v.Rows))
		for _, row := range v.Rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				cells = append(cells, r.truncate(c))
			}
			rows = append(rows, cells)
		}
		parts = append(parts, r.table(v.Header, rows))
		if strings.TrimSpace(v.After) != "" {
			parts = append(parts, v.After)
		}
		return strings.Join(parts, "\n")
	case PlainText:
		return v.Text
	default:
		return ""
	}
}

func (r TermRenderer) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return termHeaderStyle
			}
			return termCellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	if r.Width > 0 {
		t = t.Width(r.Width)
	}
	return t.Render()
}

func (r TermRenderer) month(g MonthGrid) string {
	rows := make([][]string, 0, len(g.Weeks))
	for _, week := range g.Weeks {
		cells := make([]string, 0, len(week))
		for _, day := range week {
			cells = append(cells, r.dayCell(day))
		}
		rows = append(rows, cells)
	}
	out := r.table(weekdayLabels(r.Lang), rows)
	if title := monthTitle(g, r.Lang); title != "" {
		out = termHeaderStyle.Render(title) + "\n" + out
	}
	return out
}

func (r TermRenderer) dayCell(d DayCell) string {
	if d.Day == 0 {
		return ""
	}
	lines := []string{strconv.Itoa(d.Day)}
	for _, h := range d.Holidays {
		lines = append(lines, termHolidayStyle.Render("★ "+r.truncate(h)))
	}
	for _, e := range d.Events {
		lines = append(lines, termEventStyle.Render("• "+r.truncate(e)))
	}
	cell := strings.Join(lines, "\n")
	if !d.InMonth {
		return termFaintStyle.Render(cell)
	}
	return cell
}

// cell 在终端里无法点击，链接地址单独放在文本下一行。
func (r TermRenderer) cell(c Cell) string {
	text := r.truncate(c.Text)
	href := strings.TrimSpace(c.Href)
	if href == "" || href == "#" {
		return text
	}
	return text + "\n" + termLinkStyle.Render(href)
}

func (r TermRenderer) truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r.CellWidth <= 0 || runewidth.StringWidth(s) <= r.CellWidth {
		return s
	}
	return runewidth.Truncate(s, r.CellWidth, "…")
}
