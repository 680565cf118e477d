package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/cabin-booking-api/internal/availability"
	"github.com/gdg-garage/cabin-booking-api/internal/booking"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
	"github.com/gdg-garage/cabin-booking-api/internal/reservation"
)

type CabinHandler struct {
	manager    *booking.Manager
	flows      *reservation.Registry
	calculator *availability.Calculator
}

func NewCabinHandler(manager *booking.Manager, flows *reservation.Registry, calculator *availability.Calculator) *CabinHandler {
	return &CabinHandler{manager: manager, flows: flows, calculator: calculator}
}

type GetCabinRequest struct {
	CabinID string `path:"cabinId" doc:"Cabin id"`
}

type MessageBody struct {
	Message string `json:"message"`
}

// GetCabinResponse carries either the cabin with its booked dates or a
// message body with a 404 status.
type GetCabinResponse struct {
	Status int
	Body   any
}

func (h *CabinHandler) HandleGetCabin(ctx context.Context, input *GetCabinRequest) (*GetCabinResponse, error) {
	notFound := &GetCabinResponse{Status: http.StatusNotFound, Body: MessageBody{Message: "Cabin not found"}}

	cabinID, err := strconv.ParseUint(input.CabinID, 10, 64)
	if err != nil {
		return notFound, nil
	}

	detail, err := h.manager.CabinDetail(ctx, uint(cabinID))
	if err != nil {
		return notFound, nil
	}

	return &GetCabinResponse{Status: http.StatusOK, Body: detail}, nil
}

type SettingsResponse struct {
	Body models.Settings
}

func (h *CabinHandler) HandleSettings(ctx context.Context, input *struct{}) (*SettingsResponse, error) {
	settings, err := h.manager.Settings(ctx)
	if err != nil {
		return nil, apiError(err, "Settings could not be loaded")
	}
	return &SettingsResponse{Body: *settings}, nil
}

type FlowBody struct {
	ID          string             `json:"id"`
	CabinID     uint               `json:"cabinId"`
	Quote       availability.Quote `json:"quote"`
	BookedDates []time.Time        `json:"bookedDates"`
}

type FlowResponse struct {
	Body FlowBody
}

type OpenFlowRequest struct {
	CabinID uint `path:"cabinId" doc:"Cabin id"`
}

func (h *CabinHandler) HandleOpenFlow(ctx context.Context, input *OpenFlowRequest) (*FlowResponse, error) {
	if _, err := h.manager.CabinDetail(ctx, input.CabinID); err != nil {
		return nil, apiError(err, "Cabin could not be loaded")
	}
	flow := h.flows.Open(input.CabinID)
	return h.quote(ctx, flow)
}

type FlowRequest struct {
	FlowID string `path:"flowId" doc:"Reservation flow id"`
}

func (h *CabinHandler) HandleGetFlow(ctx context.Context, input *FlowRequest) (*FlowResponse, error) {
	flow, err := h.flows.Get(input.FlowID)
	if err != nil {
		return nil, huma.Error404NotFound("Reservation flow not found")
	}
	return h.quote(ctx, flow)
}

type SetRangeRequest struct {
	FlowID string `path:"flowId" doc:"Reservation flow id"`
	Body   struct {
		From string `json:"from,omitempty" doc:"First day of the stay"`
		To   string `json:"to,omitempty" doc:"Last day of the stay"`
	}
}

func (h *CabinHandler) HandleSetRange(ctx context.Context, input *SetRangeRequest) (*FlowResponse, error) {
	flow, err := h.flows.Get(input.FlowID)
	if err != nil {
		return nil, huma.Error404NotFound("Reservation flow not found")
	}

	from, err := parseOptionalDate(input.Body.From)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate(input.Body.To)
	if err != nil {
		return nil, err
	}

	selection := availability.Range{From: from, To: to}
	if selection.Complete() {
		start, end := selection.Bounds()
		selection = availability.Range{From: &start, To: &end}
	}
	flow.SetRange(selection)
	return h.quote(ctx, flow)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, ok := availability.ParseDate(raw)
	if !ok {
		return nil, huma.Error400BadRequest("Invalid date: " + raw)
	}
	return &t, nil
}

func (h *CabinHandler) HandleResetRange(ctx context.Context, input *FlowRequest) (*FlowResponse, error) {
	flow, err := h.flows.Get(input.FlowID)
	if err != nil {
		return nil, huma.Error404NotFound("Reservation flow not found")
	}
	flow.ResetRange()
	return h.quote(ctx, flow)
}

func (h *CabinHandler) quote(ctx context.Context, flow *reservation.Flow) (*FlowResponse, error) {
	detail, err := h.manager.CabinDetail(ctx, flow.CabinID)
	if err != nil {
		return nil, apiError(err, "Cabin could not be loaded")
	}
	settings, err := h.manager.Settings(ctx)
	if err != nil {
		return nil, apiError(err, "Settings could not be loaded")
	}

	res := &FlowResponse{}
	res.Body.ID = flow.ID
	res.Body.CabinID = flow.CabinID
	res.Body.Quote = h.calculator.Quote(detail.Cabin, *settings, flow.Range(), detail.BookedDates)
	res.Body.BookedDates = detail.BookedDates
	return res, nil
}

// apiError maps booking errors onto HTTP errors. Storage failures only ever
// surface the generic message.
func apiError(err error, generic string) error {
	switch {
	case errors.Is(err, booking.ErrUnauthorized):
		return huma.Error401Unauthorized("Unauthorized")
	case errors.Is(err, booking.ErrValidation):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, booking.ErrNotFound):
		return huma.Error404NotFound("Not found")
	case errors.Is(err, booking.ErrConflict):
		return huma.Error409Conflict(booking.ErrConflict.Error())
	default:
		return huma.Error500InternalServerError(generic)
	}
}
