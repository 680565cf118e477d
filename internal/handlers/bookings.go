package handlers

import (
	"context"

	"github.com/gdg-garage/cabin-booking-api/internal/booking"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
)

type BookingHandler struct {
	manager *booking.Manager
}

func NewBookingHandler(manager *booking.Manager) *BookingHandler {
	return &BookingHandler{manager: manager}
}

type CreateBookingRequest struct {
	Body struct {
		CabinID      uint    `json:"cabinId,omitempty" doc:"Cabin to book"`
		CabinPrice   float64 `json:"cabinPrice,omitempty" doc:"Price of the stay as quoted"`
		NumNights    int     `json:"numNights,omitempty" doc:"Number of nights as quoted"`
		StartDate    string  `json:"startDate,omitempty" doc:"First day of the stay"`
		EndDate      string  `json:"endDate,omitempty" doc:"Last day of the stay"`
		FlowID       string  `json:"flowId,omitempty" doc:"Reservation flow the range was picked in"`
		NumGuests    string  `json:"numGuests,omitempty" doc:"Number of guests"`
		Observations string  `json:"observations,omitempty" doc:"Anything we should know, truncated to 500 characters"`
		HasBreakfast string  `json:"hasBreakfast,omitempty" doc:"\"on\" when breakfast is wanted"`
	}
}

type BookingResponse struct {
	Location string `header:"Location"`
	Body     struct {
		Booking  *models.Booking `json:"booking,omitempty"`
		Redirect string          `json:"redirect,omitempty"`
	}
}

func newBookingResponse(res *booking.Result) *BookingResponse {
	out := &BookingResponse{Location: res.Redirect}
	out.Body.Booking = res.Booking
	out.Body.Redirect = res.Redirect
	return out
}

func (h *BookingHandler) HandleCreate(ctx context.Context, input *CreateBookingRequest) (*BookingResponse, error) {
	res, err := h.manager.CreateBooking(ctx,
		booking.Draft{
			CabinID:    input.Body.CabinID,
			CabinPrice: input.Body.CabinPrice,
			NumNights:  input.Body.NumNights,
			StartDate:  input.Body.StartDate,
			EndDate:    input.Body.EndDate,
			FlowID:     input.Body.FlowID,
		},
		booking.BookingForm{
			NumGuests:    input.Body.NumGuests,
			Observations: input.Body.Observations,
			HasBreakfast: input.Body.HasBreakfast,
		},
	)
	if err != nil {
		return nil, apiError(err, "Booking could not be created")
	}
	return newBookingResponse(res), nil
}

type ListReservationsResponse struct {
	Body []models.Booking
}

func (h *BookingHandler) HandleList(ctx context.Context, input *struct{}) (*ListReservationsResponse, error) {
	bookings, err := h.manager.ListReservations(ctx)
	if err != nil {
		return nil, apiError(err, "Reservations could not be loaded")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return &ListReservationsResponse{Body: bookings}, nil
}

type UpdateReservationRequest struct {
	BookingID uint `path:"bookingId" doc:"Booking to change"`
	Body      struct {
		NumGuests    string `json:"numGuests,omitempty" doc:"Number of guests"`
		Observations string `json:"observations,omitempty" doc:"Anything we should know, truncated to 500 characters"`
	}
}

func (h *BookingHandler) HandleUpdate(ctx context.Context, input *UpdateReservationRequest) (*BookingResponse, error) {
	res, err := h.manager.UpdateReservation(ctx, input.BookingID, booking.ReservationForm{
		NumGuests:    input.Body.NumGuests,
		Observations: input.Body.Observations,
	})
	if err != nil {
		return nil, apiError(err, "Booking could not be updated")
	}
	return newBookingResponse(res), nil
}

type DeleteReservationRequest struct {
	BookingID uint `path:"bookingId" doc:"Booking to delete"`
}

func (h *BookingHandler) HandleDelete(ctx context.Context, input *DeleteReservationRequest) (*struct{}, error) {
	if _, err := h.manager.DeleteBooking(ctx, input.BookingID); err != nil {
		return nil, apiError(err, "Booking could not be deleted")
	}
	return nil, nil
}

type ProfileResponse struct {
	Body models.Guest
}

func (h *BookingHandler) HandleProfile(ctx context.Context, input *struct{}) (*ProfileResponse, error) {
	guest, err := h.manager.Profile(ctx)
	if err != nil {
		return nil, apiError(err, "Profile could not be loaded")
	}
	return &ProfileResponse{Body: *guest}, nil
}

type UpdateProfileRequest struct {
	Body struct {
		NationalID  string `json:"nationalID,omitempty" doc:"6 to 12 letters or digits"`
		Nationality string `json:"nationality,omitempty" doc:"Nationality and flag joined by %"`
	}
}

func (h *BookingHandler) HandleUpdateProfile(ctx context.Context, input *UpdateProfileRequest) (*struct{}, error) {
	if _, err := h.manager.UpdateProfile(ctx, booking.ProfileForm{
		NationalID:  input.Body.NationalID,
		Nationality: input.Body.Nationality,
	}); err != nil {
		return nil, apiError(err, "Guest could not be updated")
	}
	return nil, nil
}
