// Package chat implements the chat session controller: send, clear and history replay
// over a Transport, with results shown on a Sink.
package chat

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"tam-chat/internal/i18n"
	"tam-chat/internal/logger"
	"tam-chat/internal/render"
)

var log = logger.Named("chat")

// TimestampLayout 本地时间戳格式（时:分:秒）。
const TimestampLayout = "15:04:05"

type Options struct {
	Transport Transport
	Sink      Sink
	Confirmer Confirmer
	Alerter   Alerter
	Composer  Composer
	Language  i18n.Language
	// Now 默认 time.Now，测试中可替换。
	Now func() time.Time
}

// Controller drives one chat widget. At most one Send is in flight at a time.
type Controller struct {
	transport Transport
	sink      Sink
	confirmer Confirmer
	alerter   Alerter
	composer  Composer
	lang      i18n.Language
	now       func() time.Time

	inFlight atomic.Bool
}

func New(opts Options) *Controller {
	c := &Controller{
		transport: opts.Transport,
		sink:      opts.Sink,
		confirmer: opts.Confirmer,
		alerter:   opts.Alerter,
		composer:  opts.Composer,
		lang:      i18n.Normalize(string(opts.Language)),
		now:       opts.Now,
	}
	if c.composer == nil {
		c.composer = noopComposer{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Busy reports whether a Send is waiting on the transport.
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}

// Greeting is the canned message shown on an empty transcript.
func (c *Controller) Greeting() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   render.PlainText{Text: i18n.T(c.lang, i18n.Greeting)},
		Timestamp: i18n.T(c.lang, i18n.SystemLabel),
	}
}

// Send submits text. Blank text, or a call made while another Send is in flight, does
// nothing. Errors never escape: they become assistant messages.
func (c *Controller) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		log.Debug("send ignored: exchange in flight")
		return
	}
	defer c.inFlight.Store(false)

	c.sink.Append(Message{Role: RoleUser, Content: render.PlainText{Text: text}, Timestamp: c.stamp("")})

	c.composer.SetSubmitEnabled(false)
	defer func() {
		c.composer.SetSubmitEnabled(true)
		c.composer.Focus()
	}()

	res, err := c.transport.PostMessage(ctx, text)
	switch {
	case err != nil:
		log.WithError(err).Warn("send failed")
		c.appendAssistant(render.PlainText{Text: i18n.T(c.lang, i18n.NetworkError)}, "")
	case !res.OK:
		log.WithField("error", res.Error).Info("server reported error")
		c.appendAssistant(render.PlainText{Text: i18n.T(c.lang, i18n.ErrorPrefix) + ": " + res.Error}, "")
	default:
		c.appendAssistant(render.Classify(res.Response), res.Timestamp)
	}
}

// Clear asks for confirmation and then clears the server history. Returns true when the
// transcript was reset.
func (c *Controller) Clear(ctx context.Context) bool {
	if c.confirmer == nil || !c.confirmer.Confirm(ctx, i18n.T(c.lang, i18n.ClearConfirm)) {
		return false
	}
	if err := c.transport.ClearHistory(ctx); err != nil {
		log.WithError(err).Warn("clear failed")
		if c.alerter != nil {
			c.alerter.Alert(i18n.T(c.lang, i18n.ClearFailed))
		}
		return false
	}
	c.sink.Reset(c.Greeting())
	return true
}

// LoadHistory replaces the placeholder with the server history, in server order. An empty
// or failed fetch keeps the placeholder.
func (c *Controller) LoadHistory(ctx context.Context) int {
	entries, err := c.transport.FetchHistory(ctx)
	if err != nil {
		log.WithError(err).Warn("load history failed")
		return 0
	}
	if len(entries) == 0 {
		return 0
	}
	c.sink.Reset()
	for _, e := range entries {
		c.sink.Append(c.format(e))
	}
	return len(entries)
}

// format 与实时消息使用同一套按角色的格式化规则。
func (c *Controller) format(e HistoryEntry) Message {
	role := NormalizeRole(e.Role)
	if role == RoleUser {
		return Message{Role: role, Content: render.PlainText{Text: e.Content.String()}, Timestamp: c.stamp(e.Timestamp)}
	}
	return Message{Role: role, Content: render.Classify(e.Content), Timestamp: c.stamp(e.Timestamp)}
}

func (c *Controller) appendAssistant(d render.Decision, ts string) {
	c.sink.Append(Message{Role: RoleAssistant, Content: d, Timestamp: c.stamp(ts)})
}

func (c *Controller) stamp(ts string) string {
	if strings.TrimSpace(ts) != "" {
		return ts
	}
	return c.now().Format(TimestampLayout)
}
