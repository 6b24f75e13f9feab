package middleware

import (
	"net/http"

	"github.com/copple/planner/internal/ctxkeys"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// WithRequestID reuses the caller's X-Request-ID or assigns a new one
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxkeys.WithRequestID(r.Context(), id)))
	})
}
