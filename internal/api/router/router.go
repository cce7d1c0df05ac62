// Package router assembles the HTTP surface: public doctor browsing, the
// authenticated booking and payment routes, and the admin plane.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docpoint/platform/internal/appointments"
	"github.com/docpoint/platform/internal/doctors"
	httpmiddleware "github.com/docpoint/platform/internal/http/middleware"
	"github.com/docpoint/platform/internal/identity"
	"github.com/docpoint/platform/internal/patients"
	"github.com/docpoint/platform/internal/payments"
	"github.com/docpoint/platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	DoctorsHandler      *doctors.Handler
	PatientsHandler     *patients.Handler
	AppointmentsHandler *appointments.Handler
	PaymentsHandler     *payments.Handler
	MetricsHandler      http.Handler
	JWTSecret           string
	CORSAllowedOrigins  []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Post("/patients", cfg.PatientsHandler.Register)
		public.Get("/doctors", cfg.DoctorsHandler.List)
		public.Get("/doctors/{doctorID}", cfg.DoctorsHandler.Get)
		public.Get("/doctors/{doctorID}/slots", cfg.DoctorsHandler.BookedSlots)
		if cfg.PaymentsHandler != nil {
			// Signature-verified callback from the payment gateway client.
			public.Post("/payments/verify", cfg.PaymentsHandler.Verify)
		}
	})

	auth := httpmiddleware.RequireAuth(cfg.JWTSecret)

	// Patient routes
	r.Group(func(patient chi.Router) {
		patient.Use(auth, httpmiddleware.RequireRole(identity.RolePatient))
		patient.Get("/patients/me", cfg.PatientsHandler.GetProfile)
		patient.Put("/patients/me", cfg.PatientsHandler.UpdateProfile)
		patient.Post("/appointments", cfg.AppointmentsHandler.Book)
		if cfg.PaymentsHandler != nil {
			patient.Post("/appointments/{appointmentID}/pay", cfg.PaymentsHandler.CreateOrder)
		}
	})

	// Any authenticated role; handlers scope results to the actor.
	r.Group(func(authed chi.Router) {
		authed.Use(auth)
		authed.Get("/appointments", cfg.AppointmentsHandler.List)
		authed.Get("/appointments/{appointmentID}", cfg.AppointmentsHandler.Get)
		authed.Post("/appointments/{appointmentID}/cancel", cfg.AppointmentsHandler.Cancel)
	})

	// Doctor routes
	r.Group(func(doctor chi.Router) {
		doctor.Use(auth, httpmiddleware.RequireRole(identity.RoleDoctor))
		doctor.Put("/doctors/me", cfg.DoctorsHandler.UpdateProfile)
		doctor.Get("/doctors/me/dashboard", cfg.AppointmentsHandler.DoctorDashboard)
		doctor.Post("/appointments/{appointmentID}/complete", cfg.AppointmentsHandler.Complete)
	})

	// Availability toggles allow admins and the doctor themselves; the
	// handler checks ownership.
	r.Group(func(staff chi.Router) {
		staff.Use(auth, httpmiddleware.RequireRole(identity.RoleAdmin, identity.RoleDoctor))
		staff.Post("/doctors/{doctorID}/availability", cfg.DoctorsHandler.SetAvailability)
	})

	// Admin routes
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(auth, httpmiddleware.RequireRole(identity.RoleAdmin))
		admin.Post("/doctors", cfg.DoctorsHandler.Create)
		admin.Get("/dashboard", cfg.AppointmentsHandler.AdminDashboard)
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
