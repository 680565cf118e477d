package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gdg-garage/cabin-booking-api/internal/auth"
	"github.com/gdg-garage/cabin-booking-api/internal/availability"
	"github.com/gdg-garage/cabin-booking-api/internal/booking"
	"github.com/gdg-garage/cabin-booking-api/internal/cache"
	"github.com/gdg-garage/cabin-booking-api/internal/config"
	"github.com/gdg-garage/cabin-booking-api/internal/database"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
	"github.com/gdg-garage/cabin-booking-api/internal/reservation"
	"github.com/gdg-garage/cabin-booking-api/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testServer struct {
	db          *gorm.DB
	router      *chi.Mux
	authHandler *auth.AuthHandler
	cabin       models.Cabin
	guestA      models.Guest
	guestB      models.Guest
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, &config.Config{JWTSecret: "test-secret", FrontendURL: "http://127.0.0.1:3000"})
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := database.EnsureSettings(db, 2, 30); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	s := &testServer{db: db}
	s.cabin = models.Cabin{Name: "005", MaxCapacity: 4, RegularPrice: 100, Discount: 20}
	db.Create(&s.cabin)
	s.guestA = models.Guest{Email: "a@example.com"}
	db.Create(&s.guestA)
	s.guestB = models.Guest{Email: "b@example.com"}
	db.Create(&s.guestB)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	views := cache.NewViews(time.Minute)
	flows := reservation.NewRegistry(time.Minute)
	t.Cleanup(func() {
		views.Stop()
		flows.Stop()
	})

	store := storage.NewGormGateway(db)
	s.authHandler = auth.NewAuthHandler(cfg, store)
	manager := booking.NewManager(booking.NewAuthorizer(s.authHandler, store), store, views, flows, logger)

	calculator := &availability.Calculator{Now: func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }}

	s.router = chi.NewRouter()
	RegisterRoutes(s.router, cfg, s.authHandler, NewCabinHandler(manager, flows, calculator), NewBookingHandler(manager))
	return s
}

func (s *testServer) do(t *testing.T, method, path string, guest *models.Guest, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = strings.NewReader(string(b))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if guest != nil {
		token, err := s.authHandler.GenerateToken(guest.ID)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func createBody(cabinID uint) map[string]any {
	return map[string]any{
		"cabinId":      cabinID,
		"cabinPrice":   240,
		"numNights":    3,
		"startDate":    "2025-06-01",
		"endDate":      "2025-06-03",
		"numGuests":    "2",
		"observations": "Arriving late",
		"hasBreakfast": "on",
	}
}

func TestGetCabin(t *testing.T) {
	s := newTestServer(t)

	t.Run("Found", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, fmt.Sprintf("/api/cabins/%d", s.cabin.ID), nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		body := decode[struct {
			Cabin       models.Cabin `json:"cabin"`
			BookedDates []time.Time  `json:"bookedDates"`
		}](t, rr)
		if body.Cabin.ID != s.cabin.ID || body.Cabin.RegularPrice != 100 {
			t.Errorf("unexpected cabin %+v", body.Cabin)
		}
	})

	for _, path := range []string{"/api/cabins/999", "/api/cabins/abc"} {
		t.Run("NotFound"+path, func(t *testing.T) {
			rr := s.do(t, http.MethodGet, path, nil, nil)
			if rr.Code != http.StatusNotFound {
				t.Errorf("expected 404, got %d", rr.Code)
			}
			body := decode[map[string]any](t, rr)
			if body["message"] != "Cabin not found" {
				t.Errorf("unexpected payload %v", body)
			}
		})
	}
}

func TestReservationFlow(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, fmt.Sprintf("/api/cabins/%d/flows", s.cabin.ID), nil, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	flow := decode[FlowBody](t, rr)
	if flow.ID == "" || flow.Quote.NumNights != 0 {
		t.Fatalf("unexpected new flow %+v", flow)
	}

	rr = s.do(t, http.MethodPut, "/api/flows/"+flow.ID+"/range", nil, map[string]any{"from": "2025-06-01", "to": "2025-06-03"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	flow = decode[FlowBody](t, rr)
	if flow.Quote.NumNights != 3 || flow.Quote.CabinPrice != 240 || !flow.Quote.WithinLimits {
		t.Errorf("unexpected quote %+v", flow.Quote)
	}

	rr = s.do(t, http.MethodPut, "/api/flows/"+flow.ID+"/range", nil, map[string]any{"from": "2025-06-03", "to": "2025-06-01"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	flow = decode[FlowBody](t, rr)
	if flow.Quote.NumNights != 3 || flow.Quote.CabinPrice != 240 {
		t.Errorf("expected a reversed range to be quoted in order, got %+v", flow.Quote)
	}
	if from := flow.Quote.Selection.From; from == nil || from.Format(time.DateOnly) != "2025-06-01" {
		t.Errorf("expected selection to start on 2025-06-01, got %v", from)
	}

	rr = s.do(t, http.MethodPut, "/api/flows/"+flow.ID+"/range", nil, map[string]any{"from": "tomorrow"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unparsable date, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodDelete, "/api/flows/"+flow.ID+"/range", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	flow = decode[FlowBody](t, rr)
	if flow.Quote.Selection.From != nil || flow.Quote.Selection.To != nil {
		t.Errorf("expected reset selection, got %+v", flow.Quote.Selection)
	}

	if rr := s.do(t, http.MethodGet, "/api/flows/unknown", nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown flow, got %d", rr.Code)
	}
}

func TestCreateBookingRoute(t *testing.T) {
	s := newTestServer(t)

	t.Run("Unauthenticated", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/bookings", nil, createBody(s.cabin.ID))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("UnauthenticatedMissingFields", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/bookings", nil, map[string]any{})
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("MissingGuests", func(t *testing.T) {
		body := createBody(s.cabin.ID)
		delete(body, "numGuests")
		rr := s.do(t, http.MethodPost, "/api/bookings", &s.guestA, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("PriceMismatch", func(t *testing.T) {
		body := createBody(s.cabin.ID)
		body["cabinPrice"] = 1
		rr := s.do(t, http.MethodPost, "/api/bookings", &s.guestA, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("InvalidGuests", func(t *testing.T) {
		body := createBody(s.cabin.ID)
		body["numGuests"] = "0"
		rr := s.do(t, http.MethodPost, "/api/bookings", &s.guestA, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("Created", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/bookings", &s.guestA, createBody(s.cabin.ID))
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
		if loc := rr.Header().Get("Location"); loc != booking.ConfirmationPath {
			t.Errorf("expected Location %s, got %q", booking.ConfirmationPath, loc)
		}

		var stored models.Booking
		if err := s.db.Where("guest_id = ?", s.guestA.ID).First(&stored).Error; err != nil {
			t.Fatalf("expected stored booking: %v", err)
		}
		if stored.Status != models.StatusUnconfirmed || stored.TotalPrice != 240 || stored.IsPaid {
			t.Errorf("unexpected booking %+v", stored)
		}
	})

	t.Run("DoubleBooked", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/bookings", &s.guestB, createBody(s.cabin.ID))
		if rr.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rr.Code)
		}
	})
}

func TestReservationRoutes(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/bookings", &s.guestA, createBody(s.cabin.ID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[struct {
		Booking models.Booking `json:"booking"`
	}](t, rr)
	path := fmt.Sprintf("/api/reservations/%d", created.Booking.ID)

	t.Run("List", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/reservations", &s.guestA, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if list := decode[[]models.Booking](t, rr); len(list) != 1 {
			t.Errorf("expected 1 reservation, got %d", len(list))
		}

		rr = s.do(t, http.MethodGet, "/api/reservations", &s.guestB, nil)
		if list := decode[[]models.Booking](t, rr); len(list) != 0 {
			t.Errorf("expected other guest to see nothing, got %d", len(list))
		}
	})

	t.Run("UpdateByOtherGuest", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, path, &s.guestB, map[string]any{"numGuests": "3"})
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("UpdateByOwner", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, path, &s.guestA, map[string]any{"numGuests": "3", "observations": "Bringing a dog"})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if loc := rr.Header().Get("Location"); loc != booking.ReservationsPath {
			t.Errorf("expected Location %s, got %q", booking.ReservationsPath, loc)
		}
	})

	t.Run("DeleteByOtherGuest", func(t *testing.T) {
		rr := s.do(t, http.MethodDelete, path, &s.guestB, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rr.Code)
		}
		var stored models.Booking
		if err := s.db.First(&stored, created.Booking.ID).Error; err != nil {
			t.Fatalf("expected booking to remain: %v", err)
		}
		if stored.NumGuests != 3 {
			t.Errorf("expected booking unchanged, got %+v", stored)
		}
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		rr := s.do(t, http.MethodDelete, path, &s.guestA, nil)
		if rr.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPatch, "/api/profile", &s.guestA, map[string]any{"nationalID": "AB!2", "nationality": "Portugal%pt.svg"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodPatch, "/api/profile", &s.guestA, map[string]any{"nationality": "Portugal%pt.svg"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a national ID, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodPatch, "/api/profile", nil, map[string]any{})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an anonymous empty form, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodPatch, "/api/profile", &s.guestA, map[string]any{"nationalID": "AB12cd", "nationality": "Portugal%pt.svg"})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/profile", &s.guestA, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	guest := decode[models.Guest](t, rr)
	if guest.NationalID != "AB12cd" || guest.Nationality != "Portugal" || guest.CountryFlag != "pt.svg" {
		t.Errorf("unexpected profile %+v", guest)
	}

	if rr := s.do(t, http.MethodGet, "/api/profile", nil, nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %d", rr.Code)
	}
}

func TestStorageFailureRoute(t *testing.T) {
	s := newTestServer(t)

	sqlDB, err := s.db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.Close()

	rr := s.do(t, http.MethodPost, "/api/bookings", &s.guestA, createBody(s.cabin.ID))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "closed") {
		t.Errorf("storage error leaked into the response: %s", rr.Body.String())
	}
	body := decode[map[string]any](t, rr)
	if body["detail"] != "Booking could not be created" {
		t.Errorf("expected the generic message, got %v", body["detail"])
	}
}

func TestCORS(t *testing.T) {
	preflight := func(s *testServer) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
		req.Header.Set("Origin", "http://127.0.0.1:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Enabled", func(t *testing.T) {
		s := newTestServerWithConfig(t, &config.Config{JWTSecret: "test-secret", FrontendURL: "http://127.0.0.1:3000", EnableCORS: true})
		rr := preflight(s)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://127.0.0.1:3000" {
			t.Errorf("expected frontend origin to be allowed, got %q", got)
		}
		if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("expected credentials to be allowed, got %q", got)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		s := newTestServer(t)
		if got := preflight(s).Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS headers, got %q", got)
		}
	})
}
