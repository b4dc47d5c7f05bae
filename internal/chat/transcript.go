package chat

import "sync"

// Transcript is an in-memory Sink. OnChange, when set, runs after every mutation with a
// snapshot of the messages.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	OnChange func(messages []Message)
}

func NewTranscript(placeholder ...Message) *Transcript {
	t := &Transcript{}
	t.messages = append(t.messages, placeholder...)
	return t
}

func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snapshot)
}

func (t *Transcript) Reset(placeholder ...Message) {
	t.mu.Lock()
	t.messages = append([]Message(nil), placeholder...)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snapshot)
}

// Messages returns a copy of the current transcript in display order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Last returns the newest message, if any.
func (t *Transcript) Last() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

func (t *Transcript) snapshotLocked() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) notify(snapshot []Message) {
	if t.OnChange != nil {
		t.OnChange(snapshot)
	}
}
