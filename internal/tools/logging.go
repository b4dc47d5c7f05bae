package tools

import (
	"io"
	"strings"
	"sync"
	"time"

	"tam-chat/internal/agent"
	"tam-chat/internal/logger"
)

// DefaultToolsLogPath 工具调用日志的默认路径。
const DefaultToolsLogPath = "logs/tools.log"

var (
	toolsLog       = logger.Named("tools")
	toolsLogMu     sync.Mutex
	toolsLogCloser io.Closer
	toolsLogPath   string
)

// SetupToolsLog 配置工具调用专用日志，返回文件 closer 及实际路径。
// 若 logPath 为空，则使用 DefaultToolsLogPath。
// 多次调用只会在首次生效。
func SetupToolsLog(logPath string) (io.Closer, string, error) {
	toolsLogMu.Lock()
	defer toolsLogMu.Unlock()

	if toolsLogCloser != nil {
		return toolsLogCloser, toolsLogPath, nil
	}
	if logPath == "" {
		logPath = DefaultToolsLogPath
	}

	entry, closer, resolved, err := logger.SetupComponentFile("tools", logPath)
	toolsLogPath = resolved
	if err != nil {
		return nil, resolved, err
	}
	toolsLog = entry
	toolsLogCloser = closer
	return closer, resolved, nil
}

// CloseToolsLog 关闭工具日志文件句柄（如已初始化）。
func CloseToolsLog() {
	toolsLogMu.Lock()
	defer toolsLogMu.Unlock()
	if toolsLogCloser != nil {
		_ = toolsLogCloser.Close()
		toolsLogCloser = nil
	}
	toolsLog = logger.Named("tools")
}

func currentLog() *logger.LogEntry {
	toolsLogMu.Lock()
	defer toolsLogMu.Unlock()
	return toolsLog
}

func logToolRequest(call agent.ToolCall, recognized bool) {
	status := "received"
	if !recognized {
		status = "unknown"
	}
	currentLog().Infof("tool_call id=%s name=%s status=%s payload=%s",
		call.ID, call.Name, status, sanitizeForLog(call.Arguments))
}

func logToolResult(call agent.ToolCall, result ToolResult, elapsed time.Duration) {
	currentLog().Infof("tool_result id=%s name=%s status=%s duration=%s error=%s",
		call.ID, call.Name, result.Status, elapsed.Round(time.Millisecond), sanitizeForLog(result.Error))
}

func sanitizeForLog(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "(empty)"
	}
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}
