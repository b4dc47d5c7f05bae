// Package web serves the browser chat widget. Each browser session drives its own
// chat.Controller against the chat API through an in-process transport.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"tam-chat/internal/chat"
	"tam-chat/internal/i18n"
	"tam-chat/internal/logger"
	"tam-chat/internal/render"
	"tam-chat/internal/transport"
)

var log = logger.Named("web")

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const (
	sessionCookie = "tam_session"

	DefaultMaxSessions = 1024
	DefaultSessionTTL  = 30 * time.Minute
	// inProcessBase 仅用于构造请求 URL，不会真正发出网络请求。
	inProcessBase = "http://tam.internal"
)

type Options struct {
	// API 为聊天 API（POST /chat 等）的 handler。
	API      http.Handler
	Markdown bool
	Language i18n.Language
	Now      func() time.Time
	// MaxSessions 与 SessionTTL 限制内存中的浏览器会话；超出或闲置过期的会话被淘汰，
	// 聊天历史仍保存在服务端。
	MaxSessions int
	SessionTTL  time.Duration
}

type Widget struct {
	api      http.Handler
	renderer *render.HTMLRenderer
	lang     i18n.Language
	now      func() time.Time

	mu       sync.Mutex
	sessions *expirable.LRU[string, *session]
}

type session struct {
	ctrl       *chat.Controller
	transcript *HTMLTranscript

	// mu 串行化同一浏览器会话的请求。
	mu     sync.Mutex
	loaded bool
	alert  string
}

type confirmKey struct{}

func New(opts Options) (*Widget, error) {
	if opts.API == nil {
		return nil, errors.New("web: chat API handler is required")
	}
	lang := i18n.Normalize(string(opts.Language))
	size := opts.MaxSessions
	if size <= 0 {
		size = DefaultMaxSessions
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	evicted := func(id string, _ *session) {
		log.WithField("session_id", id).Debug("widget session evicted")
	}
	return &Widget{
		api:      opts.API,
		renderer: render.NewHTMLRenderer(render.NewTextRenderer(opts.Markdown), lang),
		lang:     lang,
		now:      opts.Now,
		sessions: expirable.NewLRU[string, *session](size, evicted, ttl),
	}, nil
}

func (w *Widget) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", w.handlePage)
	mux.HandleFunc("POST /ui/send", w.handleSend)
	mux.HandleFunc("POST /ui/clear", w.handleClear)
}

func (w *Widget) Handler() http.Handler {
	mux := http.NewServeMux()
	w.Register(mux)
	return mux
}

// session 返回 cookie 对应的会话。cookie 缺失或不是 uuid 时签发新的 id；
// 合法但未知的 uuid（重启或被淘汰后）沿用原 id，以便回放服务端历史。
func (w *Widget) session(rw http.ResponseWriter, r *http.Request) *session {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if id != "" {
		if s, ok := w.sessions.Get(id); ok {
			// 重新 Add 以刷新闲置期限
			w.sessions.Add(id, s)
			return s
		}
	} else {
		id = uuid.NewString()
		http.SetCookie(rw, &http.Cookie{Name: sessionCookie, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	}
	s := w.newSession(id)
	w.sessions.Add(id, s)
	return s
}

// Sessions 返回当前驻留的会话数。
func (w *Widget) Sessions() int {
	return w.sessions.Len()
}

func (w *Widget) newSession(id string) *session {
	s := &session{transcript: NewHTMLTranscript(w.renderer)}
	client := &http.Client{Transport: transport.InProcess(w.api)}
	s.ctrl = chat.New(chat.Options{
		Transport: transport.NewHTTP(inProcessBase, transport.WithHTTPClient(client), transport.WithSession(id)),
		Sink:      s.transcript,
		Confirmer: chat.ConfirmFunc(func(ctx context.Context, _ string) bool {
			ok, _ := ctx.Value(confirmKey{}).(bool)
			return ok
		}),
		// alert 在 s.mu 持有期间写入
		Alerter:  chat.AlertFunc(func(msg string) { s.alert = msg }),
		Language: w.lang,
		Now:      w.now,
	})
	s.transcript.Reset(s.ctrl.Greeting())
	return s
}

// ensureLoaded 首次访问时回放服务端历史；调用方持有 s.mu。
func (s *session) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.ctrl.LoadHistory(ctx)
	s.loaded = true
}

type pageData struct {
	Lang         string
	Messages     []renderedMessage
	Alert        string
	InputHint    string
	ClearConfirm string
}

func (w *Widget) handlePage(rw http.ResponseWriter, r *http.Request) {
	s := w.session(rw, r)
	s.mu.Lock()
	s.ensureLoaded(r.Context())
	alert := s.alert
	s.alert = ""
	s.mu.Unlock()

	data := pageData{
		Lang:         w.lang.Code(),
		Messages:     s.transcript.Messages(),
		Alert:        alert,
		InputHint:    i18n.T(w.lang, i18n.InputHint),
		ClearConfirm: i18n.T(w.lang, i18n.ClearConfirm),
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.ExecuteTemplate(rw, "page", data); err != nil {
		log.WithError(err).Error("render page failed")
	}
}

func (w *Widget) handleSend(rw http.ResponseWriter, r *http.Request) {
	s := w.session(rw, r)
	s.mu.Lock()
	s.ensureLoaded(r.Context())
	s.ctrl.Send(r.Context(), r.FormValue("message"))
	s.mu.Unlock()
	http.Redirect(rw, r, "/", http.StatusSeeOther)
}

func (w *Widget) handleClear(rw http.ResponseWriter, r *http.Request) {
	s := w.session(rw, r)
	ctx := context.WithValue(r.Context(), confirmKey{}, r.FormValue("confirm") == "yes")
	s.mu.Lock()
	s.ensureLoaded(r.Context())
	s.ctrl.Clear(ctx)
	s.mu.Unlock()
	http.Redirect(rw, r, "/", http.StatusSeeOther)
}
