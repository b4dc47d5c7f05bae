package chat

import (
	"context"

	"tam-chat/internal/reply"
)

// PostResult is the outcome of one exchange that reached the server. OK == false carries
// a server-reported error in Error.
type PostResult struct {
	OK        bool
	Response  reply.Raw
	Timestamp string
	Error     string
}

type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   reply.Raw `json:"content"`
	Timestamp string    `json:"timestamp"`
}

// Transport performs the network exchange. A returned error means the server could not be
// reached or answered with something unreadable.
type Transport interface {
	PostMessage(ctx context.Context, text string) (PostResult, error)
	ClearHistory(ctx context.Context) error
	FetchHistory(ctx context.Context) ([]HistoryEntry, error)
}

// Sink displays the transcript and keeps the newest message visible after Append.
type Sink interface {
	Append(msg Message)
	Reset(placeholder ...Message)
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type Alerter interface {
	Alert(message string)
}

// Composer is the input area: the submit control and the text field.
type Composer interface {
	SetSubmitEnabled(enabled bool)
	Focus()
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// AlertFunc adapts a function to Alerter.
type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

type noopComposer struct{}

func (noopComposer) SetSubmitEnabled(bool) {}
func (noopComposer) Focus()                {}
