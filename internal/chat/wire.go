package chat

import "tam-chat/internal/reply"

// HTTP 线格式：POST /chat、POST /clear、GET /history。

// SessionHeader scopes history to one client; absent means DefaultSession.
const SessionHeader = "X-Chat-Session"

const DefaultSession = "default"

type SendRequest struct {
	Message string `json:"message"`
}

type SendResponse struct {
	Response  reply.Raw `json:"response"`
	Timestamp string    `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ClearResponse struct {
	Message string `json:"message"`
}

type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}
