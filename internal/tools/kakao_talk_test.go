package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClipMessage(t *testing.T) {
	short := strings.Repeat("가", 200)
	if got := clipMessage(short); got != short {
		t.Fatalf("200 runes should be kept")
	}
	got := clipMessage(strings.Repeat("가", 201))
	if len([]rune(got)) != 200 || !strings.HasSuffix(got, "...") {
		t.Fatalf("clipMessage = %q (%d runes)", got, len([]rune(got)))
	}
}

func TestKakaoSendMemo_PostsTemplateObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/api/talk/memo/default/send" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer user-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(r.PostForm.Get("template_object")), &obj); err != nil {
			t.Errorf("template_object: %v", err)
		}
		link, _ := obj["link"].(map[string]any)
		if obj["object_type"] != "text" || obj["text"] != "회의 10분 전" || link["web_url"] != "https://example.com" || obj["button_title"] != "열기" {
			t.Errorf("template_object = %v", obj)
		}
		_, _ = w.Write([]byte(`{"result_code":0}`))
	}))
	defer srv.Close()

	k := &Kakao{
		APIBase: srv.URL,
		Tokens:  TokenStore{Fallback: "user-token"},
		HTTP:    srv.Client(),
		Now:     func() time.Time { return time.Date(2025, 10, 15, 12, 0, 0, 0, kst) },
	}
	out, err := k.SendMemo(context.Background(), talkMessage{Message: "회의 10분 전", WebURL: "https://example.com", ButtonTitle: "열기"})
	if err != nil {
		t.Fatalf("SendMemo: %v", err)
	}
	if out["success"] != true || out["status"] != "sent" || out["sent_at"] != "2025-10-15T12:00:00+09:00" {
		t.Fatalf("out = %v", out)
	}
	if _, err := k.SendMemo(context.Background(), talkMessage{}); err == nil {
		t.Fatalf("expected error without message")
	}
}

func TestKakaoTalk_MissingTokenAsksForLogin(t *testing.T) {
	k := &Kakao{APIBase: "http://unused.invalid"}
	for name, call := range map[string]func() (map[string]any, error){
		"memo":    func() (map[string]any, error) { return k.SendMemo(context.Background(), talkMessage{Message: "hi"}) },
		"friends": func() (map[string]any, error) { return k.Friends(context.Background(), friendsQuery{}) },
		"me":      func() (map[string]any, error) { return k.Me(context.Background()) },
	} {
		out, err := call()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if out["auth_required"] != true || out["provider"] != "kakao" {
			t.Fatalf("%s out = %v", name, out)
		}
	}
}

func TestKakaoSendToFriends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/api/talk/friends/message/default/send" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("receiver_uuids") != `["u1","u2"]` {
			t.Errorf("receiver_uuids = %q", r.PostForm.Get("receiver_uuids"))
		}
		_, _ = w.Write([]byte(`{"successful_receiver_uuids":["u1"],"failure_info":[{"code":-532}]}`))
	}))
	defer srv.Close()

	k := &Kakao{APIBase: srv.URL, Tokens: TokenStore{Fallback: "tok"}, HTTP: srv.Client()}
	h := k.SendToFriendsHandler()
	out, err := h.Handle(context.Background(), json.RawMessage(`{"receiver_uuids":["u1"," ","u2"],"message":"안녕"}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	ok, _ := out["successful_receiver_uuids"].([]string)
	if out["success"] != true || len(ok) != 1 || ok[0] != "u1" {
		t.Fatalf("out = %v", out)
	}
	if _, err := h.Handle(context.Background(), json.RawMessage(`{"receiver_uuids":[],"message":"x"}`)); err == nil {
		t.Fatalf("expected error for empty receivers")
	}
}

func TestKakaoFriendsAndMe_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/api/talk/friends":
			if r.URL.Query().Get("limit") != "5" || r.URL.Query().Get("order") != "desc" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"elements":[{"uuid":"u1","profile_nickname":"친구"}],"total_count":1}`))
		case "/v2/user/me":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":-401}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	k := &Kakao{APIBase: srv.URL, Tokens: TokenStore{Fallback: "tok"}, HTTP: srv.Client()}
	limit := 5
	friends, err := k.Friends(context.Background(), friendsQuery{Limit: &limit, Order: "DESC"})
	if err != nil {
		t.Fatalf("Friends: %v", err)
	}
	if friends["success"] != true || friends["total_count"] != float64(1) {
		t.Fatalf("friends = %v", friends)
	}
	me, err := k.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me["auth_required"] != true {
		t.Fatalf("me = %v", me)
	}
}
