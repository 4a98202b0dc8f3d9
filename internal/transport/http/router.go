package http

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/gabrieldeelay/jnducorte2/internal/clock"
)

// RouterDeps carries everything the HTTP surface needs. The booking
// fields are all satisfied by *app.BookingService; they are split so
// tests can stub one slice at a time.
type RouterDeps struct {
	Creator      BookingCreator
	Reader       BookingReader
	Updater      BookingUpdater
	Availability AvailabilityService
	Gate         GateService
	Store        Pinger
	Hub          http.Handler

	Clock clock.Clock
	Loc   *time.Location
	Creds AdminCredentials

	CORSOrigins    []string
	RateLimit      float64
	RateLimitBurst int
	Logger         *log.Logger
}

// NewRouter wires the public and admin routes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return RequestLogger(next, deps.Logger)
	})
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Admin-Secret"},
		MaxAge:         300,
	}))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth(deps.Store))

	// Public surface, throttled.
	r.Group(func(r chi.Router) {
		if deps.RateLimit > 0 {
			r.Use(RateLimit(deps.RateLimit, deps.RateLimitBurst))
		}

		r.Post("/bookings", HandleCreateBooking(deps.Creator))
		r.Get("/bookings/search", HandleSearchBookings(deps.Reader))
		r.Post("/bookings/{id}/cancel", HandleCancelOwnBooking(deps.Reader, deps.Updater))

		r.Get("/availability", HandleAvailability(deps.Availability))
		r.Get("/availability/dates", HandleSelectableDates(deps.Availability))

		r.Get("/catalog/services", HandleCatalogServices())
		r.Get("/catalog/staff", HandleCatalogStaff())
		r.Get("/catalog/times", HandleCatalogTimes())

		r.Get("/shop/status", HandleShopStatus(deps.Gate))

		r.Post("/admin/login", HandleAdminLogin(deps.Creds))
	})

	if deps.Hub != nil {
		r.Get("/ws", deps.Hub.ServeHTTP)
	}

	// Admin surface, authenticated by the shared secret.
	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin(deps.Creds.Secret))

		r.Get("/admin/bookings", HandleListBookings(deps.Reader))
		r.Patch("/admin/bookings/{id}/status", HandleTransitionBooking(deps.Updater))
		r.Delete("/admin/bookings/{id}", HandleDeleteBooking(deps.Updater))

		r.Post("/admin/shop/toggle", HandleShopToggle(deps.Gate))

		r.Get("/admin/finance/summary", HandleFinanceSummary(deps.Reader, deps.Clock, deps.Loc))
		r.Get("/admin/export.csv", HandleExportCSV(deps.Reader, deps.Logger))
	})

	return r
}
