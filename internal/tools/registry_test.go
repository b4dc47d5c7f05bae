package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"tam-chat/internal/agent"
	"tam-chat/internal/logger"

	"github.com/sirupsen/logrus"
)

func withBufferedToolsLogger(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := new(bytes.Buffer)
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(logger.PlainFormatter{})
	l.SetReportCaller(false)

	toolsLogMu.Lock()
	prev := toolsLog
	toolsLog = logrus.NewEntry(l).WithField("component", "tools")
	toolsLogMu.Unlock()

	t.Cleanup(func() {
		toolsLogMu.Lock()
		toolsLog = prev
		toolsLogMu.Unlock()
	})
	return buf
}

func echoHandler(name string) Handler {
	return HandlerFunc{
		ToolSpec: agent.ToolSpec{Name: name, Parameters: objectSchema(map[string]any{})},
		Fn: func(_ context.Context, args json.RawMessage) (map[string]any, error) {
			var m map[string]any
			if err := json.Unmarshal(args, &m); err != nil {
				return nil, err
			}
			m["handled_by"] = name
			return m, nil
		},
	}
}

func TestRegistry_SpecsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry(echoHandler("b"), echoHandler("a"), nil, echoHandler("b"))
	specs := r.Specs()
	if len(specs) != 2 || specs[0].Name != "b" || specs[1].Name != "a" {
		t.Fatalf("specs = %+v", specs)
	}
}

func TestRegistry_ExecuteRoutesToHandler(t *testing.T) {
	buf := withBufferedToolsLogger(t)
	r := NewRegistry(echoHandler("lookup"))

	res := r.Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "lookup", Arguments: "{\n\"q\": 1}"})
	if res.Status != "completed" || res.Output["handled_by"] != "lookup" {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.JSON(), `"handled_by":"lookup"`) {
		t.Fatalf("JSON() = %s", res.JSON())
	}

	out := buf.String()
	if !strings.Contains(out, `tool_call id=c1 name=lookup status=received payload={\n"q": 1}`) {
		t.Fatalf("missing tool_call log, got:\n%s", out)
	}
	if !strings.Contains(out, "tool_result id=c1 name=lookup status=completed") {
		t.Fatalf("missing tool_result log, got:\n%s", out)
	}
}

func TestRegistry_ExecuteEmptyArgumentsDefaultsToObject(t *testing.T) {
	withBufferedToolsLogger(t)
	r := NewRegistry(echoHandler("lookup"))
	res := r.Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "lookup"})
	if res.Status != "completed" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	buf := withBufferedToolsLogger(t)
	r := NewRegistry()
	res := r.Execute(context.Background(), agent.ToolCall{ID: "x", Name: "nope"})
	if res.Status != "error" || res.JSON() != `{"error":"알 수 없는 함수: nope"}` {
		t.Fatalf("result = %+v json=%s", res, res.JSON())
	}
	if !strings.Contains(buf.String(), "status=unknown") {
		t.Fatalf("unknown tool not logged:\n%s", buf.String())
	}
}

func TestRegistry_ExecuteInvalidArgumentsAndHandlerError(t *testing.T) {
	withBufferedToolsLogger(t)
	failing := HandlerFunc{
		ToolSpec: agent.ToolSpec{Name: "fail"},
		Fn: func(context.Context, json.RawMessage) (map[string]any, error) {
			return nil, errors.New("boom")
		},
	}
	r := NewRegistry(failing)

	if res := r.Execute(context.Background(), agent.ToolCall{Name: "fail", Arguments: "{"}); res.Error != "invalid tool arguments" {
		t.Fatalf("invalid args result = %+v", res)
	}
	if res := r.Execute(context.Background(), agent.ToolCall{Name: "fail", Arguments: "{}"}); res.Status != "error" || res.Error != "boom" {
		t.Fatalf("handler error result = %+v", res)
	}
}
