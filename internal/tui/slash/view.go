package slash

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	nameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C4A1FF"))
	descStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EBCB8B"))
	selectedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#2F2A3D"))
)

// View 渲染弹窗内容（不含外围边框）。
func (s *State) View(width int) string {
	if s == nil || !s.open {
		return ""
	}
	contentWidth := width
	if contentWidth <= 20 {
		contentWidth = 20
	}
	if len(s.matches) == 0 {
		return lipgloss.NewStyle().Width(contentWidth).Render("no matches")
	}

	nameWidth := 10
	for _, m := range s.matches {
		if w := lipgloss.Width(m.item.DisplayName()); w > nameWidth {
			nameWidth = w
		}
	}
	descWidth := contentWidth - nameWidth - 2
	if descWidth < 8 {
		descWidth = 8
	}

	start, end := window(len(s.matches), s.maxLines, s.selected)
	lines := make([]string, 0, end-start)
	for idx := start; idx < end; idx++ {
		m := s.matches[idx]
		// DisplayName 多了前导 "/"，高亮下标整体右移一位
		name := applyHighlights(m.item.DisplayName(), shift(m.highlights, 1))
		nameCell := lipgloss.NewStyle().Width(nameWidth).Render(nameStyle.Render(name))
		desc := descStyle.Render(runewidth.Truncate(m.item.Description, descWidth, "…"))
		line := nameCell + "  " + desc
		if idx == s.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(lines, "\n"))
}

// window 返回包含选中项、至多 maxLines 行的可见区间。
func window(total, maxLines, selected int) (int, int) {
	if maxLines <= 0 || total <= maxLines {
		return 0, total
	}
	start := 0
	if selected >= maxLines {
		start = selected - maxLines + 1
	}
	return start, start + maxLines
}

func shift(indexes []int, by int) []int {
	if len(indexes) == 0 {
		return nil
	}
	out := make([]int, len(indexes))
	for i, idx := range indexes {
		out[i] = idx + by
	}
	return out
}

func applyHighlights(name string, indexes []int) string {
	if len(indexes) == 0 {
		return name
	}
	marked := map[int]bool{}
	for _, idx := range indexes {
		marked[idx] = true
	}
	var b strings.Builder
	for i, r := range []rune(name) {
		if marked[i] {
			b.WriteString(highlightStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
