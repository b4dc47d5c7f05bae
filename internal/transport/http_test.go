package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tam-chat/internal/chat"
)

func newChatServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req chat.SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		switch req.Message {
		case "bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"메시지가 비어있습니다."}`))
		case "html":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		case "repos":
			_, _ = w.Write([]byte(`{"response":{"repos":[{"name":"r"}]},"timestamp":"10:11:12"}`))
		default:
			if got := r.Header.Get(chat.SessionHeader); got != "s1" {
				t.Errorf("session header = %q", got)
			}
			_, _ = w.Write([]byte(`{"response":"echo: ` + req.Message + `","timestamp":"01:02:03"}`))
		}
	})
	mux.HandleFunc("/clear", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"history":[{"role":"user","content":"hi","timestamp":"01:00:00"},{"role":"assistant","content":"hello","timestamp":"01:00:01"}]}`))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTP_PostMessage(t *testing.T) {
	srv := newChatServer(t)
	h := NewHTTP(srv.URL+"/", WithSession("s1"))

	res, err := h.PostMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if !res.OK || res.Timestamp != "01:02:03" {
		t.Fatalf("res = %+v", res)
	}
	if s, ok := res.Response.Text(); !ok || s != "echo: hello" {
		t.Fatalf("response = %#v", res.Response.Value())
	}
}

func TestHTTP_PostMessage_StructuredResponse(t *testing.T) {
	h := NewHTTP(newChatServer(t).URL)
	res, err := h.PostMessage(context.Background(), "repos")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if _, ok := res.Response.Object(); !ok {
		t.Fatalf("response should be an object: %#v", res.Response.Value())
	}
}

func TestHTTP_PostMessage_ServerError(t *testing.T) {
	h := NewHTTP(newChatServer(t).URL)
	res, err := h.PostMessage(context.Background(), "bad")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if diff := cmp.Diff(chat.PostResult{OK: false, Error: "메시지가 비어있습니다."}, res, cmp.Comparer(func(a, b chat.PostResult) bool {
		return a.OK == b.OK && a.Error == b.Error && a.Timestamp == b.Timestamp
	})); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTP_PostMessage_UnreadableErrorBody(t *testing.T) {
	h := NewHTTP(newChatServer(t).URL)
	_, err := h.PostMessage(context.Background(), "html")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
}

func TestHTTP_PostMessage_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := NewHTTP(url, WithTimeout(time.Second))
	if _, err := h.PostMessage(context.Background(), "hi"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestHTTP_ClearAndHistory(t *testing.T) {
	h := NewHTTP(newChatServer(t).URL)
	if err := h.ClearHistory(context.Background()); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	entries, err := h.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(entries) != 2 || entries[0].Role != "user" || entries[1].Content.String() != "hello" {
		t.Fatalf("entries = %+v", entries)
	}
	if err := h.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestHTTP_ClearFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTP(srv.URL).ClearHistory(context.Background())
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
}

func TestHTTP_EmptyBaseURL(t *testing.T) {
	if _, err := NewHTTP("").FetchHistory(context.Background()); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestInProcess(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/history" || r.Header.Get(chat.SessionHeader) != "web" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"history":[]}`))
	})
	h := NewHTTP("http://in-process", WithSession("web"), WithHTTPClient(&http.Client{Transport: InProcess(handler)}))

	entries, err := h.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v", entries)
	}
	if err := h.Ping(context.Background()); !errors.Is(err, ErrStatus) {
		t.Fatalf("Ping err = %v, want ErrStatus", err)
	}
}

func TestInProcess_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHTTP("http://in-process", WithHTTPClient(&http.Client{Transport: InProcess(http.NotFoundHandler())}))
	if _, err := h.FetchHistory(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
