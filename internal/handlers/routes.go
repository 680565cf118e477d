package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/cabin-booking-api/internal/auth"
	"github.com/gdg-garage/cabin-booking-api/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var cookieAuth = func(o *huma.Operation) {
	o.Security = []map[string][]string{{"cookieAuth": {}}}
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, authHandler *auth.AuthHandler, cabinHandler *CabinHandler, bookingHandler *BookingHandler) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		// The frontend sends the session cookie cross-origin.
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.FrontendURL},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Location"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(authHandler.SessionMiddleware)

	// Initialize Huma API
	config := huma.DefaultConfig("Cabin Booking API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.TokenCookie,
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Get("/auth/google/login", authHandler.HandleLogin)
	r.Get("/auth/google/callback", authHandler.HandleCallback)
	r.Post("/auth/signout", authHandler.HandleSignOut)

	// Cabins and reservation flows
	huma.Get(api, "/api/cabins/{cabinId}", cabinHandler.HandleGetCabin)
	huma.Get(api, "/api/settings", cabinHandler.HandleSettings)
	huma.Register(api, huma.Operation{
		OperationID:   "open-flow",
		Method:        http.MethodPost,
		Path:          "/api/cabins/{cabinId}/flows",
		Summary:       "Open a reservation flow",
		DefaultStatus: http.StatusCreated,
	}, cabinHandler.HandleOpenFlow)
	huma.Get(api, "/api/flows/{flowId}", cabinHandler.HandleGetFlow)
	huma.Put(api, "/api/flows/{flowId}/range", cabinHandler.HandleSetRange)
	huma.Delete(api, "/api/flows/{flowId}/range", cabinHandler.HandleResetRange)

	// Guest routes, session required
	huma.Register(api, huma.Operation{
		OperationID:   "create-booking",
		Method:        http.MethodPost,
		Path:          "/api/bookings",
		Summary:       "Create a booking",
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"cookieAuth": {}}},
	}, bookingHandler.HandleCreate)
	huma.Get(api, "/api/reservations", bookingHandler.HandleList, cookieAuth)
	huma.Patch(api, "/api/reservations/{bookingId}", bookingHandler.HandleUpdate, cookieAuth)
	huma.Delete(api, "/api/reservations/{bookingId}", bookingHandler.HandleDelete, cookieAuth)
	huma.Get(api, "/api/profile", bookingHandler.HandleProfile, cookieAuth)
	huma.Patch(api, "/api/profile", bookingHandler.HandleUpdateProfile, cookieAuth)
}
