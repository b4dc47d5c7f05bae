package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"tam-chat/internal/agent"
	"tam-chat/internal/chat"
	"tam-chat/internal/reply"
	"tam-chat/internal/render"
	"tam-chat/internal/server"
)

type cannedResponder struct {
	answer reply.Raw
}

func (c cannedResponder) Reply(context.Context, []agent.Message) (reply.Raw, error) {
	return c.answer, nil
}

func fixedNow() time.Time { return time.Date(2025, 10, 1, 9, 8, 7, 0, time.UTC) }

func newWidgetServer(t *testing.T, api http.Handler) (*httptest.Server, *http.Client) {
	t.Helper()
	w, err := New(Options{API: api, Now: fixedNow})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(w.Handler())
	t.Cleanup(srv.Close)
	jar, _ := cookiejar.New(nil)
	return srv, &http.Client{Jar: jar}
}

func chatAPI(t *testing.T, answer reply.Raw) http.Handler {
	t.Helper()
	s, err := server.New(server.Options{Responder: cannedResponder{answer: answer}, Now: fixedNow})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return s.Handler()
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return string(data)
}

func TestNew_RequiresAPI(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error without API handler")
	}
}

func TestPage_ShowsGreetingAndSetsCookie(t *testing.T) {
	srv, client := newWidgetServer(t, chatAPI(t, reply.Text("x")))

	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	page := body(t, resp)
	if !strings.Contains(page, "무엇을 도와드릴까요?") || !strings.Contains(page, "시스템") {
		t.Fatalf("page missing greeting:\n%s", page)
	}
	u, _ := url.Parse(srv.URL)
	if len(client.Jar.Cookies(u)) != 1 {
		t.Fatalf("session cookie not set")
	}
}

func TestSend_RendersStructuredReply(t *testing.T) {
	repos := reply.FromValue(map[string]any{
		"repos": []any{map[string]any{"full_name": "me/alpha", "html_url": "https://github.com/me/alpha", "private": true}},
	})
	srv, client := newWidgetServer(t, chatAPI(t, repos))

	resp, err := client.PostForm(srv.URL+"/ui/send", url.Values{"message": {"<b>리포</b>"}})
	if err != nil {
		t.Fatalf("POST /ui/send: %v", err)
	}
	page := body(t, resp)
	if !strings.Contains(page, "&lt;b&gt;리포&lt;/b&gt;") {
		t.Fatalf("user text must be escaped:\n%s", page)
	}
	if !strings.Contains(page, `href="https://github.com/me/alpha"`) || !strings.Contains(page, "table-repositories") {
		t.Fatalf("repository table missing:\n%s", page)
	}
	if !strings.Contains(page, "09:08:07") {
		t.Fatalf("timestamp missing:\n%s", page)
	}
}

func TestClear_RequiresConfirmation(t *testing.T) {
	srv, client := newWidgetServer(t, chatAPI(t, reply.Text("답변입니다")))

	if _, err := client.PostForm(srv.URL+"/ui/send", url.Values{"message": {"질문"}}); err != nil {
		t.Fatalf("POST /ui/send: %v", err)
	}

	resp, err := client.PostForm(srv.URL+"/ui/clear", url.Values{"confirm": {"no"}})
	if err != nil {
		t.Fatalf("POST /ui/clear: %v", err)
	}
	if page := body(t, resp); !strings.Contains(page, "답변입니다") {
		t.Fatalf("declined clear must keep the transcript:\n%s", page)
	}

	resp, err = client.PostForm(srv.URL+"/ui/clear", url.Values{"confirm": {"yes"}})
	if err != nil {
		t.Fatalf("POST /ui/clear: %v", err)
	}
	page := body(t, resp)
	if strings.Contains(page, "답변입니다") || !strings.Contains(page, "무엇을 도와드릴까요?") {
		t.Fatalf("confirmed clear should reset to greeting:\n%s", page)
	}
}

func TestClear_FailureShowsAlert(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"history":[]}`))
	})
	api.HandleFunc("POST /clear", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	srv, client := newWidgetServer(t, api)

	resp, err := client.PostForm(srv.URL+"/ui/clear", url.Values{"confirm": {"yes"}})
	if err != nil {
		t.Fatalf("POST /ui/clear: %v", err)
	}
	if page := body(t, resp); !strings.Contains(page, "채팅 삭제 중 오류가 발생했습니다.") {
		t.Fatalf("alert missing:\n%s", page)
	}
}

func TestPage_ReplaysHistoryOnce(t *testing.T) {
	api := http.NewServeMux()
	calls := 0
	api.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get(chat.SessionHeader) == "" {
			t.Errorf("session header missing")
		}
		_, _ = w.Write([]byte(`{"history":[{"role":"user","content":"이전 질문","timestamp":"08:00:00"},{"role":"assistant","content":"| a | b |\n|---|---|\n| 1 | 2 |","timestamp":"08:00:01"}]}`))
	})
	srv, client := newWidgetServer(t, api)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL + "/")
		if err != nil {
			t.Fatalf("GET /: %v", err)
		}
		page := body(t, resp)
		if !strings.Contains(page, "이전 질문") || !strings.Contains(page, "markdown-table") {
			t.Fatalf("history not replayed:\n%s", page)
		}
		if strings.Contains(page, "무엇을 도와드릴까요?") {
			t.Fatalf("placeholder should be replaced by history")
		}
	}
	if calls != 1 {
		t.Fatalf("history fetched %d times, want 1", calls)
	}
}

func TestHTMLTranscript_RenderFailureFallsBackToText(t *testing.T) {
	tr := NewHTMLTranscript(render.NewHTMLRenderer(nil, ""))
	tr.Append(chat.Message{Role: chat.RoleAssistant, Content: unknownDecision{}, Timestamp: "t"})
	msgs := tr.Messages()
	if len(msgs) != 1 || msgs[0].Timestamp != "t" {
		t.Fatalf("messages = %+v", msgs)
	}
}

type unknownDecision struct{ render.PlainText }

func TestSessions_BoundedAndForgedCookiesReplaced(t *testing.T) {
	w, err := New(Options{API: chatAPI(t, reply.Text("x")), Now: fixedNow, MaxSessions: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := w.Handler()

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if i%2 == 1 {
			req.AddCookie(&http.Cookie{Name: sessionCookie, Value: fmt.Sprintf("forged-%d", i)})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET / status = %d", rec.Code)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("request %d: want a fresh session cookie, got %v", i, cookies)
		}
		if _, err := uuid.Parse(cookies[0].Value); err != nil {
			t.Fatalf("request %d: cookie %q is not a minted uuid", i, cookies[0].Value)
		}
	}
	if n := w.Sessions(); n != 8 {
		t.Fatalf("Sessions() = %d, want capped at 8", n)
	}

	// 已知会话不再签发 cookie，也不增加会话数
	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	id := first.Result().Cookies()[0].Value
	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, again)
	if len(rec.Result().Cookies()) != 0 || w.Sessions() != 8 {
		t.Fatalf("known session re-issued cookie or grew map: %v, %d", rec.Result().Cookies(), w.Sessions())
	}
}

func TestPage_ScrollsToNewestMessage(t *testing.T) {
	srv, client := newWidgetServer(t, chatAPI(t, reply.Text("x")))
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	page := body(t, resp)
	if !strings.Contains(page, `id="chat-messages"`) {
		t.Fatalf("message container missing:\n%s", page)
	}
	if !strings.Contains(page, "box.scrollTop = box.scrollHeight") {
		t.Fatalf("page must pin the transcript to the newest message:\n%s", page)
	}
}
