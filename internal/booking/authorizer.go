package booking

import (
	"context"
	"fmt"
	"slices"

	"github.com/gdg-garage/cabin-booking-api/internal/auth"
	"github.com/gdg-garage/cabin-booking-api/internal/models"
	"github.com/gdg-garage/cabin-booking-api/internal/storage"
)

// Authorizer answers who is calling and whether they own a booking. Nothing
// is cached: ownership is looked up again on every call.
type Authorizer struct {
	sessions auth.Provider
	store    storage.Gateway
}

func NewAuthorizer(sessions auth.Provider, store storage.Gateway) *Authorizer {
	return &Authorizer{sessions: sessions, store: store}
}

func (a *Authorizer) RequireSession(ctx context.Context) (auth.Identity, error) {
	session, err := a.sessions.Auth(ctx)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if session == nil || session.User.ID == 0 {
		return auth.Identity{}, ErrUnauthorized
	}
	return session.User, nil
}

func (a *Authorizer) RequireOwnership(ctx context.Context, bookingID uint, identity auth.Identity) error {
	bookings, err := a.store.SelectBookings(ctx, storage.Filter{"guest_id": identity.ID})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	owned := slices.ContainsFunc(bookings, func(b models.Booking) bool { return b.ID == bookingID })
	if !owned {
		return ErrUnauthorized
	}
	return nil
}
