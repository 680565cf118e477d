package main

import (
	"fmt"
	"net/http"

	"github.com/gdg-garage/cabin-booking-api/internal/auth"
	"github.com/gdg-garage/cabin-booking-api/internal/availability"
	"github.com/gdg-garage/cabin-booking-api/internal/booking"
	"github.com/gdg-garage/cabin-booking-api/internal/cache"
	"github.com/gdg-garage/cabin-booking-api/internal/config"
	"github.com/gdg-garage/cabin-booking-api/internal/database"
	"github.com/gdg-garage/cabin-booking-api/internal/handlers"
	"github.com/gdg-garage/cabin-booking-api/internal/reservation"
	"github.com/gdg-garage/cabin-booking-api/internal/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()
	logger := cfg.NewLogger()

	// Connect to Database
	db := database.Connect(cfg)
	store := storage.NewGormGateway(db)

	views := cache.NewViews(cfg.ViewCacheTTL)
	defer views.Stop()
	flows := reservation.NewRegistry(cfg.FlowTTL)
	defer flows.Stop()

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, store)
	manager := booking.NewManager(booking.NewAuthorizer(authHandler, store), store, views, flows, logger)
	cabinHandler := handlers.NewCabinHandler(manager, flows, availability.NewCalculator())
	bookingHandler := handlers.NewBookingHandler(manager)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, cfg, authHandler, cabinHandler, bookingHandler)

	// Start Server
	logger.Infof("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
