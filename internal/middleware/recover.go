package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angeloszaimis/bg-remover/pkg/logger"
)

// Recoverer turns a panic in a handler into a 500 JSON error. When the
// handler had already started the response, the connection is aborted instead
// so the client never sees a truncated body as complete.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.FromContext(r.Context(), log).Error("Panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status_sent", ww.Status()),
					slog.String("stack", string(debug.Stack())))

				if ww.Status() != 0 {
					panic(http.ErrAbortHandler)
				}

				ww.Header().Set("Content-Type", "application/json")
				ww.WriteHeader(http.StatusInternalServerError)
				ww.Write([]byte(`{"error":"Internal server error"}` + "\n"))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
