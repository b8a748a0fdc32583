package api

import (
	"net/http"
	"time"

	logx "github.com/chative-tutor/server/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request through logx.
func RequestLogger(next http.Handler) http.Handler {
	log := logx.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("request served")
		}()
		next.ServeHTTP(ww, r)
	})
}
