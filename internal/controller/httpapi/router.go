// Package httpapi is the JSON transport over the scheduling services.
package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the core operations exposed over HTTP.
type Services struct {
	Availability *service.AvailabilityService
	Slots        *service.SlotService
	Bookings     *service.BookingService
	AutoBook     *service.AutoBookingService
	History      *service.HistoryService
}

type handler struct {
	svc    Services
	logger *zap.Logger
}

// NewRouter wires every route. gatherer may be nil to hide /metrics.
func NewRouter(svc Services, jwtSecret string, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(jwtSecret))

		r.Route("/experts/me", func(r chi.Router) {
			r.Put("/availability/{weekday}", h.upsertTemplate)
			r.Delete("/availability/{weekday}", h.deleteTemplate)
			r.Post("/breaks", h.createBreak)
			r.Put("/breaks/{breakID}", h.updateBreak)
			r.Delete("/breaks/{breakID}", h.deleteBreak)
		})
		r.Route("/experts/{expertID}", func(r chi.Router) {
			r.Get("/availability", h.listTemplates)
			r.Get("/breaks", h.listBreaks)
			r.Get("/slots", h.openSlots)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.listAppointments)
			r.Post("/", h.createAppointment)
			r.Post("/auto-book", h.autoBook)
			r.Route("/{appointmentID}", func(r chi.Router) {
				r.Get("/", h.getAppointment)
				r.Post("/confirm", h.confirm)
				r.Post("/cancel", h.cancel)
				r.Post("/complete", h.complete)
				r.Post("/no-show", h.noShow)
				r.Get("/history", h.appointmentHistory)
			})
		})

		r.Get("/history", h.actorHistory)
	})

	return r
}
