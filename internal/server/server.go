// Package server exposes the chat API consumed by the HTTP transport:
// POST /chat, POST /clear, GET /history and GET /healthz.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"tam-chat/internal/agent"
	"tam-chat/internal/assistant"
	"tam-chat/internal/chat"
	"tam-chat/internal/history"
	"tam-chat/internal/i18n"
	"tam-chat/internal/logger"
	"tam-chat/internal/reply"
)

const (
	DefaultContextMessages = 10
	maxRequestBytes        = 1 << 20
)

var log = logger.Named("server")

// Responder 生成一次助手回复；history 的最后一条为本轮用户输入。
type Responder interface {
	Reply(ctx context.Context, history []agent.Message) (reply.Raw, error)
}

type Options struct {
	Responder       Responder
	Store           history.Store
	ContextMessages int
	Language        i18n.Language
	Now             func() time.Time
}

type Server struct {
	responder Responder
	store     history.Store
	window    int
	lang      i18n.Language
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(opts Options) (*Server, error) {
	if opts.Responder == nil {
		return nil, errors.New("server: responder is required")
	}
	store := opts.Store
	if store == nil {
		store = history.NewMemoryStore()
	}
	window := opts.ContextMessages
	if window <= 0 {
		window = DefaultContextMessages
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		responder: opts.Responder,
		store:     store,
		window:    window,
		lang:      i18n.Normalize(string(opts.Language)),
		now:       now,
		locks:     map[string]*sync.Mutex{},
	}, nil
}

// Register 把 API 路由挂到 mux 上，便于与网页端共用一个监听地址。
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /clear", s.handleClear)
	mux.HandleFunc("GET /history", s.handleHistory)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

func (s *Server) timestamp() string {
	return s.now().Format(chat.TimestampLayout)
}

// sessionLock 保证同一会话的请求串行写入历史。
func (s *Server) sessionLock(session string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[session]
	if !ok {
		l = &sync.Mutex{}
		s.locks[session] = l
	}
	return l
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.SendRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err == nil && len(body) > 0 {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, chat.ErrorResponse{Error: i18n.T(s.lang, i18n.EmptyMessage)})
		return
	}

	session := SessionID(r)
	lock := s.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	ctx := r.Context()
	if err := s.store.Append(ctx, history.NewEntry(session, string(chat.RoleUser), reply.Text(message), s.timestamp())); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	entries, err := s.store.List(ctx, session)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	answer, err := s.responder.Reply(ctx, toModelMessages(history.Tail(entries, s.window)))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	ts := s.timestamp()
	if err := s.store.Append(ctx, history.NewEntry(session, string(chat.RoleAssistant), answer, ts)); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, chat.SendResponse{Response: answer, Timestamp: ts})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	session := SessionID(r)
	lock := s.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Clear(r.Context(), session); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, chat.ClearResponse{Message: i18n.T(s.lang, i18n.ClearDone)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context(), SessionID(r))
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]chat.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, chat.HistoryEntry{Role: e.Role, Content: e.Content, Timestamp: e.Timestamp})
	}
	writeJSON(w, http.StatusOK, chat.HistoryResponse{History: out})
}

// fail 以 "오류가 발생했습니다: ..." 形式返回错误。
func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	log.Errorf("request failed: status=%d err=%v", status, err)
	msg := fmt.Sprintf("%s: %v", i18n.T(s.lang, i18n.ServerError), err)
	writeJSON(w, status, chat.ErrorResponse{Error: msg})
}

// SessionID 读取会话头，缺省为 default。
func SessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(chat.SessionHeader)); id != "" {
		return id
	}
	return chat.DefaultSession
}

func toModelMessages(entries []history.Entry) []agent.Message {
	out := make([]agent.Message, 0, len(entries))
	for _, e := range entries {
		content := assistant.ContentForModel(e.Content)
		if chat.NormalizeRole(e.Role) == chat.RoleUser {
			out = append(out, agent.UserMessage(content))
			continue
		}
		out = append(out, agent.AssistantMessage(content))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("write response: %v", err)
	}
}
