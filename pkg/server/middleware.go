package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mchmarny/docsite/pkg/logger"
)

// maxRequestIDLen bounds ids accepted from clients.
const maxRequestIDLen = 64

// requestContext assigns a request id, echoes it in the response and
// attaches a logger carrying it to the request context.
func (s *server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		l := logger.FromContext(r.Context()).With("request_id", id)
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l)))
	})
}

// accessLog logs every request and records it in the request metrics.
func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			d := time.Since(start)

			s.requests.Increment(r.Method, strconv.Itoa(status))
			s.latency.Observe(d, r.Method)

			logger.FromContext(r.Context()).Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", d)
		}()

		next.ServeHTTP(ww, r)
	})
}
