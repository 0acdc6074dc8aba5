package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/middleware"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(profileController *controllers.ProfileController,
	eventController *controllers.EventController,
	healthController *controllers.HealthController,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Profiles
	mux.HandleFunc("POST /api/profiles", profileController.CreateProfile)
	mux.HandleFunc("GET /api/profiles", profileController.ListProfiles)

	// Events
	mux.HandleFunc("GET /api/events", eventController.ListEvents)
	mux.HandleFunc("POST /api/events", eventController.CreateEvent)
	mux.HandleFunc("GET /api/events/calendar.ics", eventController.ExportCalendar)
	mux.HandleFunc("GET /api/events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("PUT /api/events/{eventID}", eventController.UpdateEvent)
	mux.HandleFunc("PATCH /api/events/{eventID}", eventController.UpdateEvent)
	mux.HandleFunc("GET /api/events/{eventID}/logs", eventController.ListEventLogs)
	mux.HandleFunc("GET /api/events/{eventID}/calendar.ics", eventController.ExportEventCalendar)

	// Operations
	mux.HandleFunc("GET /healthz", healthController.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with the middleware chain: CORS outermost, then request
// logging, then latency metrics.
func NewHandler(logger *slog.Logger, allowedOrigins []string, mux *http.ServeMux) http.Handler {
	return middleware.CORS(allowedOrigins,
		middleware.LoggingMiddleware(logger,
			middleware.MetricsMiddleware(mux)))
}
