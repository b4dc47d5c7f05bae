package logger

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// LLMMessage 表示一次请求中的对话消息。
type LLMMessage struct {
	Role    string
	Content string
}

// LLMLogger 负责输出与模型交互的请求、工具调用、响应与错误信息。
type LLMLogger interface {
	Request(model string, messages []LLMMessage, round int)
	ToolCall(name string, args string, round int)
	ToolResult(name string, result string, round int)
	Response(model string, content string, round int)
	Error(model string, err error, round int)
}

// LLMLog 是全局唯一的 LLM 日志器实例。
var LLMLog LLMLogger = NewLLMLogger(nil)

// SetupLLMFile 把模型交互日志单独写到 logPath，返回文件 closer。
func SetupLLMFile(logPath string) (io.Closer, error) {
	if logPath == "" {
		logPath = DefaultLLMLogPath
	}
	entry, closer, _, err := SetupComponentFile("llm", logPath)
	if err != nil {
		return nil, err
	}
	LLMLog = &StdLLMLogger{logger: entry}
	return closer, nil
}

// StdLLMLogger 使用 logrus 输出日志。
type StdLLMLogger struct {
	logger *logrus.Entry
}

// NewLLMLogger 构造默认的 LLM 日志记录器。
func NewLLMLogger(l *Logger) *StdLLMLogger {
	if l == nil {
		l = root()
	}
	return &StdLLMLogger{logger: logrus.NewEntry(l).WithField("component", "llm")}
}

// Request 记录一次请求的上下文。
func (l *StdLLMLogger) Request(model string, messages []LLMMessage, round int) {
	l.printf(logrus.InfoLevel, "-> request round=%d model=%s messages=%d", round, model, len(messages))
	for i, msg := range messages {
		l.printf(logrus.DebugLevel, "-> message[%d] role=%s content=%s", i, msg.Role, sanitize(msg.Content))
	}
}

// ToolCall 记录模型发起的工具调用。
func (l *StdLLMLogger) ToolCall(name string, args string, round int) {
	l.printf(logrus.InfoLevel, "-> tool round=%d name=%s args=%s", round, name, sanitize(args))
}

// ToolResult 记录工具返回结果（截断）。
func (l *StdLLMLogger) ToolResult(name string, result string, round int) {
	l.printf(logrus.InfoLevel, "<- tool round=%d name=%s result=%s", round, name, truncate(sanitize(result), 512))
}

// Response 记录一次响应。
func (l *StdLLMLogger) Response(model string, content string, round int) {
	l.printf(logrus.InfoLevel, "<- response round=%d model=%s text=%s", round, model, sanitize(content))
}

// Error 记录请求错误。
func (l *StdLLMLogger) Error(model string, err error, round int) {
	l.printf(logrus.ErrorLevel, "!! error round=%d model=%s err=%v", round, model, err)
}

func (l *StdLLMLogger) printf(level logrus.Level, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	if !l.logger.Logger.IsLevelEnabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	caller := findCaller()
	entry := l.logger
	if caller != "" {
		entry = entry.WithField("caller", caller)
	}
	entry.Log(level, msg)
}

func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

func findCaller() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.Contains(frame.File, "llm.go") {
			return fmt.Sprintf("%s:%d", shortenFilePath(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}
	return ""
}
