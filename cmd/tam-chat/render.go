package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"tam-chat/internal/i18n"
	"tam-chat/internal/render"
	"tam-chat/internal/reply"
)

func renderMain(root rootArgs, args []string) {
	if err := runRender(root, args, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("render: %v", err)
	}
}

// runRender 对一段回复做分类并输出 HTML 或终端文本，便于离线检查渲染结果。
func runRender(_ rootArgs, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var format, lang string
	var markdown, showKind bool
	fs.StringVar(&format, "format", "term", "Output format: term or html")
	fs.StringVar(&lang, "lang", "ko", "UI language (ko or en)")
	fs.BoolVar(&markdown, "markdown", false, "Render plain text as markdown (html only)")
	fs.BoolVar(&showKind, "kind", false, "Print the classified kind before the output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var data []byte
	var err error
	if path := fs.Arg(0); path != "" && path != "-" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(in)
	}
	if err != nil {
		return err
	}

	raw, err := reply.Decode(bytes.TrimSpace(data))
	if err != nil {
		// 不是 JSON 时按纯文本回复处理
		raw = reply.Text(strings.TrimRight(string(data), "\n"))
	}
	decision := render.Classify(raw)
	language := i18n.Normalize(lang)

	if showKind {
		fmt.Fprintf(out, "kind: %T\n", decision)
	}
	switch strings.ToLower(format) {
	case "html":
		html, err := render.NewHTMLRenderer(render.NewTextRenderer(markdown), language).Render(decision)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(html))
		return err
	case "term", "text":
		_, err := fmt.Fprintln(out, render.TermRenderer{Lang: language}.Render(decision))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
