package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/copple/planner/internal/ctxkeys"
	"github.com/copple/planner/internal/service"
)

// SessionCookie carries the session token issued by the login service
const SessionCookie = "token"

// RequireSession verifies the session cookie and adds the caller identity to
// the context. Requests without a valid session are answered with 401 before
// the handler runs.
func RequireSession(verifier *service.TokenVerifier, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			cookie, err := r.Cookie(SessionCookie)
			if err == nil {
				token = cookie.Value
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, service.ErrMissingCredential) {
					writeUnauthorized(w, "Not authenticated", "missing_credential")
					return
				}

				slog.Warn("rejected session token", "error", err, "path", r.URL.Path)
				clearSessionCookie(w, secureCookie)
				writeUnauthorized(w, "Invalid session", "invalid_credential")
				return
			}

			ctx := ctxkeys.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeUnauthorized(w http.ResponseWriter, detail, code string) {
	writeJSONError(w, http.StatusUnauthorized, detail, code)
}
