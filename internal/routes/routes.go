package routes

import (
	"net/http"

	"github.com/copple/planner/internal/app"
	"github.com/copple/planner/internal/handler"
	"github.com/copple/planner/internal/middleware"
	"github.com/copple/planner/internal/model"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler()

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)

	// Static files
	mux.Handle("GET /", http.FileServer(http.Dir(app.Cfg.StaticDir)))

	// ============================================================================
	// PROTECTED ROUTES (/goal, /event, /todo)
	// ============================================================================

	requireSession := middleware.RequireSession(app.TokenVerifier, app.Cfg.CookieSecure)
	rateLimitUploads := middleware.RateLimitUploads(app.UploadLimiter, app.Cfg.TrustProxy)

	for _, kind := range model.Kinds {
		records := handler.NewRecordHandler(kind, app.RecordService, app.Cfg.UploadMaxBytes, app.Cfg.CookieSecure)
		prefix := "/" + kind.Slug()

		create := middleware.Chain(http.HandlerFunc(records.Create), requireSession)
		if kind == model.KindGoal {
			create = middleware.Chain(http.HandlerFunc(records.Create), requireSession, rateLimitUploads)
		}

		mux.Handle("POST "+prefix+"/create", create)
		mux.Handle("GET "+prefix+"/read", requireSession(http.HandlerFunc(records.List)))
		mux.Handle("GET "+prefix+"/read/{id}", requireSession(http.HandlerFunc(records.Read)))
		mux.Handle("PUT "+prefix+"/update/{id}", requireSession(http.HandlerFunc(records.Update)))
		mux.Handle("DELETE "+prefix+"/delete/{id}", requireSession(http.HandlerFunc(records.Delete)))
	}

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.WithRequestID,
		middleware.RequestLogging,
	)

	return handler
}
