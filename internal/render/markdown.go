package render

import (
	"strings"
)

// ParseMarkdownTable extracts the first pipe-table block from s.
//
// The block starts at the first line beginning with "|" and runs over the following
// pipe-prefixed lines. It needs a header and a separator line; anything else reports
// ok == false. Only the first block is converted; later blocks stay in After.
func ParseMarkdownTable(s string) (MarkdownTable, bool) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			start = i
			break
		}
	}
	if start < 0 {
		return MarkdownTable{}, false
	}
	end := start
	for end < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[end]), "|") {
		end++
	}
	block := lines[start:end]
	if len(block) < 2 || !isSeparator(block[1]) {
		return MarkdownTable{}, false
	}

	header := splitRow(block[0])
	if len(header) == 0 {
		return MarkdownTable{}, false
	}
	rows := make([][]string, 0, len(block)-2)
	for _, line := range block[2:] {
		rows = append(rows, splitRow(line))
	}
	return MarkdownTable{
		Before: strings.Join(lines[:start], "\n"),
		Header: header,
		Rows:   rows,
		After:  strings.Join(lines[end:], "\n"),
	}, true
}

// isSeparator 只允许 - : | 与空白，且至少包含一个 -。
func isSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "-") {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '-', ':', '|', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func splitRow(line string) []string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}
