package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/liondadev/quick-file-stash/logging"
)

type ctxKey string

const loggerContextKey ctxKey = "qfs::logger"

// withLogger puts a request scoped logger in the context and logs every request once it's done.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := s.log.With("method", r.Method, "path", r.URL.Path)
		ctx := context.WithValue(r.Context(), loggerContextKey, log)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Debug(ctx, "served request", "status", ww.Status(), "bytes", ww.BytesWritten(), "took", time.Since(start).String())
	})
}

func loggerFrom(ctx context.Context) logging.Logger {
	if l, ok := ctx.Value(loggerContextKey).(logging.Logger); ok {
		return l
	}

	return logging.Discard()
}
