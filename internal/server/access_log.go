package server

import (
	"net/http"
	"time"

	"tam-chat/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// AccessLog 记录每个请求的方法、路径、状态码与耗时；entry 为 nil 时使用 http 组件日志。
func AccessLog(next http.Handler, entry *logger.LogEntry) http.Handler {
	if entry == nil {
		entry = logger.Named("http")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		entry.WithFields(logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   status,
			"bytes":    rec.bytes,
			"session":  SessionID(r),
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("request")
	})
}
