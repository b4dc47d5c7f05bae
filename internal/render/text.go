package render

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// TextRenderer 把回复中的自由文本转换为 HTML 片段。
type TextRenderer interface {
	RenderText(s string) template.HTML
}

// PlainTextRenderer escapes s and keeps line breaks.
type PlainTextRenderer struct{}

func (PlainTextRenderer) RenderText(s string) template.HTML {
	escaped := html.EscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// MarkdownRenderer renders s as markdown and sanitizes the result. Profile images keep
// their class so the image fallback can find them.
type MarkdownRenderer struct {
	policy *bluemonday.Policy
}

func NewMarkdownRenderer() *MarkdownRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^profile-image$`)).OnElements("img")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &MarkdownRenderer{policy: policy}
}

func (m *MarkdownRenderer) RenderText(s string) template.HTML {
	// parser 有内部状态，每次渲染需新建
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	out := markdown.ToHTML([]byte(s), p, r)
	return template.HTML(strings.TrimSpace(string(m.policy.SanitizeBytes(out))))
}

// NewTextRenderer picks the markdown renderer when enabled.
func NewTextRenderer(markdown bool) TextRenderer {
	if markdown {
		return NewMarkdownRenderer()
	}
	return PlainTextRenderer{}
}
