package render

import (
	"bytes"
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fallbackHandler 隐藏加载失败的头像，并在原位置前插入占位图标；先清空 onerror 保证只替换一次。
const fallbackHandler = "this.onerror=null;this.style.display='none';" +
	"var i=document.createElement('i');i.className='fas fa-user-circle';" +
	"i.style.cssText='font-size: 40px; color: #ccc; margin-right: 8px;';" +
	"this.parentNode.insertBefore(i,this);"

// WithImageFallback attaches the load-failure handler to every img.profile-image in
// fragment. Fragments that fail to parse are returned unchanged.
func WithImageFallback(fragment template.HTML) template.HTML {
	if !strings.Contains(string(fragment), "profile-image") {
		return fragment
	}
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(string(fragment)), context)
	if err != nil {
		return fragment
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		attachFallback(n)
		if err := html.Render(&buf, n); err != nil {
			return fragment
		}
	}
	return template.HTML(buf.String())
}

func attachFallback(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img && hasClass(n, "profile-image") {
		setAttr(n, "onerror", fallbackHandler)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		attachFallback(c)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
