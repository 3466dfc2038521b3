package middleware

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

type loggingWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
	hijacked   bool
}

func (w *loggingWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

func (w *loggingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *loggingWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *loggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	w.hijacked = true
	return h.Hijack()
}

func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			logger.Debug(r.Method+" "+r.URL.RequestURI(), slog.String("request_id", requestID))
			start := time.Now()

			wrapped := &loggingWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info(
				"handled request",
				slog.String("request_id", requestID),
				slog.Int("status", wrapped.statusCode),
				slog.Int64("bytes", wrapped.written),
				slog.Bool("hijacked", wrapped.hijacked),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("xff", r.Header.Get("X-Forwarded-For")),
				slog.String("method", r.Method),
				slog.String("uri", r.URL.RequestURI()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}
