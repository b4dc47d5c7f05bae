package render

import (
	"html/template"
	"strings"
	"testing"

	"tam-chat/internal/i18n"
)

func TestHTMLRenderer_Table(t *testing.T) {
	r := NewHTMLRenderer(nil, i18n.LanguageEnglish)
	got, err := r.Render(Table{Kind: Repositories, Rows: []Row{{
		{Text: "a/b", Href: "https://github.com/a/b"},
		{Text: "private"},
		{Text: "<script>"},
		{Text: ""},
		{Text: ""},
	}}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(got)
	for _, want := range []string{
		`<th>Name</th>`,
		`<a href="https://github.com/a/b" target="_blank" rel="noopener">a/b</a>`,
		`<td>private</td>`,
		`&lt;script&gt;`,
		`table-repositories`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}
}

func TestHTMLRenderer_AuthPrompt(t *testing.T) {
	r := NewHTMLRenderer(nil, i18n.LanguageKorean)
	got, err := r.Render(AuthPrompt{URL: "http://127.0.0.1:5003/mcp/kakao/login"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(got), `href="http://127.0.0.1:5003/mcp/kakao/login"`) {
		t.Fatalf("missing login link: %s", got)
	}
	if !strings.Contains(string(got), i18n.T(i18n.LanguageKorean, i18n.LoginButton)) {
		t.Fatalf("missing button label: %s", got)
	}
}

func TestHTMLRenderer_AuthPromptRejectsScriptURL(t *testing.T) {
	r := NewHTMLRenderer(nil, i18n.LanguageEnglish)
	got, err := r.Render(AuthPrompt{URL: "javascript:alert(1)"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(got), "javascript:") {
		t.Fatalf("unsafe url rendered: %s", got)
	}
}

func TestHTMLRenderer_MonthGrid(t *testing.T) {
	r := NewHTMLRenderer(nil, i18n.LanguageKorean)
	got, err := r.Render(MonthGrid{Year: 2025, Month: 10, Weeks: [][]DayCell{{
		{Day: 28},
		{Day: 1, InMonth: true, Holidays: []string{"개천절"}, Events: []string{"회의", "점심"}},
	}}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(got)
	if !strings.Contains(s, `<td class="day out-of-month"><span class="day-number">28</span></td>`) {
		t.Fatalf("out-of-month cell not de-emphasized:\n%s", s)
	}
	if strings.Count(s, `class="badge holiday"`) != 1 || strings.Count(s, `class="badge event"`) != 2 {
		t.Fatalf("unexpected badges:\n%s", s)
	}
	if !strings.Contains(s, "2025년 10월") {
		t.Fatalf("missing title:\n%s", s)
	}
}

func TestHTMLRenderer_MarkdownTable(t *testing.T) {
	r := NewHTMLRenderer(PlainTextRenderer{}, i18n.LanguageEnglish)
	got, err := r.Render(MarkdownTable{Before: "intro", Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}, After: "tail"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<div class="text-before">intro</div><table class="markdown-table"><thead><tr><th>a</th><th>b</th></tr></thead>` +
		`<tbody><tr><td>1</td><td>2</td></tr></tbody></table><div class="text-after">tail</div>`
	if string(got) != want {
		t.Fatalf("Render =\n%s\nwant\n%s", got, want)
	}
}

func TestHTMLRenderer_PlainText(t *testing.T) {
	r := NewHTMLRenderer(PlainTextRenderer{}, i18n.LanguageEnglish)
	got, err := r.Render(PlainText{Text: "a < b\nnext"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != template.HTML("a &lt; b<br>next") {
		t.Fatalf("Render = %q", got)
	}
}

func TestWithImageFallback(t *testing.T) {
	in := template.HTML(`<p>친구</p><img class="avatar profile-image" src="x.png"><img src="y.png">`)
	got := string(WithImageFallback(in))
	if strings.Count(got, "onerror=") != 1 {
		t.Fatalf("expected exactly one handler:\n%s", got)
	}
	if !strings.Contains(got, "fa-user-circle") || !strings.Contains(got, "this.onerror=null") {
		t.Fatalf("handler content missing:\n%s", got)
	}
	// 节点顺序不变
	if strings.Index(got, "<p>") > strings.Index(got, "x.png") || strings.Index(got, "x.png") > strings.Index(got, "y.png") {
		t.Fatalf("node order changed:\n%s", got)
	}

	plain := template.HTML(`<b>no images</b>`)
	if WithImageFallback(plain) != plain {
		t.Fatalf("fragment without profile images should be untouched")
	}
}

func TestMarkdownRenderer_SanitizesAndKeepsProfileImage(t *testing.T) {
	m := NewMarkdownRenderer()
	got := string(m.RenderText("**bold** <script>alert(1)</script> <img class=\"profile-image\" src=\"https://x/p.png\">"))
	if !strings.Contains(got, "<strong>bold</strong>") {
		t.Fatalf("markdown not rendered: %s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("script survived sanitizing: %s", got)
	}
	if !strings.Contains(got, `class="profile-image"`) {
		t.Fatalf("profile image class dropped: %s", got)
	}
}
