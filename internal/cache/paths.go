package cache

import "fmt"

const (
	ReservationsPath = "/account/reservations"
	ProfilePath      = "/account/profile"
)

func CabinPath(cabinID uint) string {
	return fmt.Sprintf("/cabins/%d", cabinID)
}

// ReservationsPathFor scopes the reservation list to one guest.
func ReservationsPathFor(guestID uint) string {
	return fmt.Sprintf("%s?guest=%d", ReservationsPath, guestID)
}

func EditReservationPath(bookingID uint) string {
	return fmt.Sprintf("%s/edit/%d", ReservationsPath, bookingID)
}

func ProfilePathFor(guestID uint) string {
	return fmt.Sprintf("%s?guest=%d", ProfilePath, guestID)
}
