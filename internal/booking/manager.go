// Package booking creates, changes and removes a guest's bookings and profile
// details. Input is validated here independently of whatever the client
// already checked, and every write is scoped to the signed-in guest.
package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gdg-garage/cabin-booking-api/internal/availability"
	"github.com/gdg-garage/cabin-booking-api/internal/cache"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
	"github.com/gdg-garage/cabin-booking-api/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	ConfirmationPath = "/cabins/thankyou"
	ReservationsPath = cache.ReservationsPath

	// Quoted prices may differ from the recomputed one by rounding only.
	priceTolerance = 0.005
)

// ViewCache is the part of the view cache the manager reads and invalidates.
type ViewCache interface {
	cache.Invalidator
	Get(path string) (any, bool)
	Set(path string, value any)
}

// FlowCloser ends a reservation flow once its booking is stored.
type FlowCloser interface {
	Discard(id string)
}

// Draft is what the calendar settled on for a booking.
type Draft struct {
	CabinID    uint
	CabinPrice float64
	NumNights  int
	StartDate  string
	EndDate    string
	FlowID     string
}

// BookingForm carries the create-booking form values as submitted.
type BookingForm struct {
	NumGuests    string
	Observations string
	HasBreakfast string
}

type ReservationForm struct {
	NumGuests    string
	Observations string
}

type ProfileForm struct {
	NationalID  string
	Nationality string
}

// Result tells the caller where to go after a successful mutation. Redirect
// is empty when the caller stays on the current page.
type Result struct {
	Booking  *models.Booking
	Redirect string
}

type CabinDetail struct {
	Cabin       models.Cabin `json:"cabin"`
	BookedDates []time.Time  `json:"bookedDates"`
}

type profileFields struct {
	NationalID  string `validate:"required,alphanum,min=6,max=12"`
	Nationality string `validate:"required,max=100"`
	CountryFlag string `validate:"max=255"`
}

type Manager struct {
	authorizer *Authorizer
	store      storage.Gateway
	views      ViewCache
	flows      FlowCloser
	validate   *validator.Validate
	logger     *logrus.Logger
}

func NewManager(authorizer *Authorizer, store storage.Gateway, views ViewCache, flows FlowCloser, logger *logrus.Logger) *Manager {
	return &Manager{
		authorizer: authorizer,
		store:      store,
		views:      views,
		flows:      flows,
		validate:   validator.New(),
		logger:     logger,
	}
}

func (m *Manager) CreateBooking(ctx context.Context, draft Draft, form BookingForm) (*Result, error) {
	identity, err := m.authorizer.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	numGuests, err := parseNumGuests(form.NumGuests)
	if err != nil {
		return nil, err
	}

	start, ok := availability.ParseDate(draft.StartDate)
	if !ok {
		return nil, fmt.Errorf("%w: start date %q", ErrValidation, draft.StartDate)
	}
	end, ok := availability.ParseDate(draft.EndDate)
	if !ok {
		return nil, fmt.Errorf("%w: end date %q", ErrValidation, draft.EndDate)
	}
	start, end = availability.Day(start), availability.Day(end)
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start date must be before end date", ErrValidation)
	}

	if draft.CabinPrice < 0 || math.IsNaN(draft.CabinPrice) || math.IsInf(draft.CabinPrice, 0) {
		return nil, fmt.Errorf("%w: cabin price", ErrValidation)
	}
	if draft.NumNights <= 0 {
		return nil, fmt.Errorf("%w: number of nights", ErrValidation)
	}
	nights := availability.ComputeNights(availability.Range{From: &start, To: &end})
	if draft.NumNights != nights {
		return nil, fmt.Errorf("%w: %d nights do not match the selected dates (%d)", ErrValidation, draft.NumNights, nights)
	}
	if draft.CabinID == 0 {
		return nil, fmt.Errorf("%w: cabin", ErrValidation)
	}

	cabin, err := m.store.Cabin(ctx, draft.CabinID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: cabin %d", ErrNotFound, draft.CabinID)
		}
		m.logger.WithFields(logrus.Fields{
			"op":       "create_booking",
			"guest_id": identity.ID,
			"cabin_id": draft.CabinID,
		}).WithError(err).Error("Cabin could not be loaded")
		return nil, ErrPersistence
	}
	if price := availability.ComputePrice(*cabin, nights); math.Abs(draft.CabinPrice-price) > priceTolerance {
		return nil, fmt.Errorf("%w: cabin price %.2f does not match %.2f", ErrValidation, draft.CabinPrice, price)
	}

	booking := &models.Booking{
		CabinID:      draft.CabinID,
		GuestID:      identity.ID,
		StartDate:    start,
		EndDate:      end,
		NumNights:    draft.NumNights,
		CabinPrice:   draft.CabinPrice,
		ExtrasPrice:  0,
		TotalPrice:   draft.CabinPrice,
		NumGuests:    numGuests,
		Observations: truncateObservations(form.Observations),
		HasBreakfast: form.HasBreakfast == "on",
		IsPaid:       false,
		Status:       models.StatusUnconfirmed,
	}

	if _, err := m.store.InsertBooking(ctx, booking); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%w: cabin %d", ErrNotFound, draft.CabinID)
		case errors.Is(err, storage.ErrOverlap):
			return nil, ErrConflict
		}
		m.logger.WithFields(logrus.Fields{
			"op":       "create_booking",
			"guest_id": identity.ID,
			"cabin_id": draft.CabinID,
		}).WithError(err).Error("Booking could not be created")
		return nil, ErrPersistence
	}

	m.views.Invalidate(cache.CabinPath(draft.CabinID), cache.ReservationsPathFor(identity.ID))
	if draft.FlowID != "" && m.flows != nil {
		m.flows.Discard(draft.FlowID)
	}

	return &Result{Booking: booking, Redirect: ConfirmationPath}, nil
}

// UpdateReservation changes the guest count and observations of one of the
// caller's bookings. Nothing else about a booking can be changed.
func (m *Manager) UpdateReservation(ctx context.Context, bookingID uint, form ReservationForm) (*Result, error) {
	identity, err := m.authorizer.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	numGuests, err := parseNumGuests(form.NumGuests)
	if err != nil {
		return nil, err
	}

	if err := m.authorizer.RequireOwnership(ctx, bookingID, identity); err != nil {
		if errors.Is(err, ErrPersistence) {
			m.logPersistence("update_reservation", identity.ID, bookingID, err)
			return nil, ErrPersistence
		}
		return nil, err
	}

	affected, err := m.store.UpdateBookings(ctx,
		storage.Filter{"id": bookingID, "guest_id": identity.ID},
		storage.Patch{"num_guests": numGuests, "observations": truncateObservations(form.Observations)},
	)
	if err != nil {
		m.logPersistence("update_reservation", identity.ID, bookingID, err)
		return nil, ErrPersistence
	}
	if affected == 0 {
		return nil, ErrUnauthorized
	}

	m.views.Invalidate(cache.ReservationsPathFor(identity.ID), cache.EditReservationPath(bookingID))

	return &Result{Redirect: ReservationsPath}, nil
}

// DeleteBooking removes one of the caller's bookings. A booking that does not
// exist and one owned by another guest are reported the same way.
func (m *Manager) DeleteBooking(ctx context.Context, bookingID uint) (*Result, error) {
	identity, err := m.authorizer.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	filter := storage.Filter{"id": bookingID, "guest_id": identity.ID}
	owned, err := m.store.SelectBookings(ctx, filter)
	if err != nil {
		m.logPersistence("delete_booking", identity.ID, bookingID, err)
		return nil, ErrPersistence
	}
	if len(owned) == 0 {
		return nil, ErrUnauthorized
	}

	affected, err := m.store.DeleteBookings(ctx, filter)
	if err != nil {
		m.logPersistence("delete_booking", identity.ID, bookingID, err)
		return nil, ErrPersistence
	}
	if affected == 0 {
		return nil, ErrUnauthorized
	}

	m.views.Invalidate(
		cache.CabinPath(owned[0].CabinID),
		cache.ReservationsPathFor(identity.ID),
		cache.EditReservationPath(bookingID),
	)

	return &Result{}, nil
}

// UpdateProfile stores the caller's national ID and nationality. Nationality
// arrives as a single "nationality%flag" token; anything after a second "%" is
// dropped.
func (m *Manager) UpdateProfile(ctx context.Context, form ProfileForm) (*Result, error) {
	identity, err := m.authorizer.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	fields := profileFields{NationalID: form.NationalID}
	parts := strings.Split(form.Nationality, "%")
	fields.Nationality = parts[0]
	if len(parts) > 1 {
		fields.CountryFlag = parts[1]
	}
	if err := m.validate.Struct(fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	affected, err := m.store.UpdateGuests(ctx,
		storage.Filter{"id": identity.ID},
		storage.Patch{"nationality": fields.Nationality, "country_flag": fields.CountryFlag, "national_id": fields.NationalID},
	)
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"op":       "update_profile",
			"guest_id": identity.ID,
		}).WithError(err).Error("Guest could not be updated")
		return nil, ErrPersistence
	}
	if affected == 0 {
		return nil, ErrUnauthorized
	}

	m.views.Invalidate(cache.ProfilePathFor(identity.ID))

	return &Result{}, nil
}

// ListReservations returns the caller's bookings ordered by start date.
func (m *Manager) ListReservations(ctx context.Context) ([]models.Booking, error) {
	identity, err := m.authorizer.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	path := cache.ReservationsPathFor(identity.ID)
	if v, ok := m.views.Get(path); ok {
		if bookings, ok := v.([]models.Booking); ok {
			return bookings, nil
		}
	}

	bookings, err := m.store.SelectBookings(ctx, storage.Filter{"guest_id": identity.ID})
	if err != nil {
		m.logPersistence("list_reservations", identity.ID, 0, err)
		return nil, ErrPersistence
	}
	m.views.Set(path, bookings)
	return bookings, nil
}

func (m *Manager) Profile(ctx context.Context) (*models.Guest, error) {
	identity, err := m.authorizer.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	path := cache.ProfilePathFor(identity.ID)
	if v, ok := m.views.Get(path); ok {
		if guest, ok := v.(*models.Guest); ok {
			return guest, nil
		}
	}

	guest, err := m.store.Guest(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		m.logPersistence("profile", identity.ID, 0, err)
		return nil, ErrPersistence
	}
	m.views.Set(path, guest)
	return guest, nil
}

// CabinDetail loads a cabin together with the days already booked on it.
func (m *Manager) CabinDetail(ctx context.Context, cabinID uint) (*CabinDetail, error) {
	path := cache.CabinPath(cabinID)
	if v, ok := m.views.Get(path); ok {
		if detail, ok := v.(*CabinDetail); ok {
			return detail, nil
		}
	}

	cabin, err := m.store.Cabin(ctx, cabinID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		m.logger.WithFields(logrus.Fields{"op": "cabin_detail", "cabin_id": cabinID}).WithError(err).Error("Cabin could not be loaded")
		return nil, ErrPersistence
	}
	booked, err := m.store.BookedDates(ctx, cabinID)
	if err != nil {
		m.logger.WithFields(logrus.Fields{"op": "cabin_detail", "cabin_id": cabinID}).WithError(err).Error("Booked dates could not be loaded")
		return nil, ErrPersistence
	}
	if booked == nil {
		booked = []time.Time{}
	}

	detail := &CabinDetail{Cabin: *cabin, BookedDates: booked}
	m.views.Set(path, detail)
	return detail, nil
}

func (m *Manager) Settings(ctx context.Context) (*models.Settings, error) {
	settings, err := m.store.Settings(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		m.logger.WithField("op", "settings").WithError(err).Error("Settings could not be loaded")
		return nil, ErrPersistence
	}
	return settings, nil
}

func (m *Manager) logPersistence(op string, guestID, bookingID uint, err error) {
	m.logger.WithFields(logrus.Fields{
		"op":         op,
		"guest_id":   guestID,
		"booking_id": bookingID,
	}).WithError(err).Error("Storage call failed")
}

// parseNumGuests reads the submitted guest count as a number and requires a
// positive whole value.
func parseNumGuests(raw string) (int, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: number of guests %q", ErrValidation, raw)
	}
	if n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: number of guests must be a positive whole number", ErrValidation)
	}
	return int(n), nil
}

func truncateObservations(s string) string {
	r := []rune(s)
	if len(r) <= models.MaxObservationsLength {
		return s
	}
	return string(r[:models.MaxObservationsLength])
}
