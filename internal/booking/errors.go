package booking

import "errors"

var (
	// ErrUnauthorized covers a missing session and a booking the caller does not own.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation is returned for malformed numeric, date or text input.
	ErrValidation = errors.New("invalid input")
	// ErrPersistence is returned when the storage call failed. Its message is safe to show.
	ErrPersistence = errors.New("booking could not be saved")
	ErrNotFound    = errors.New("not found")
	// ErrConflict is returned when the requested dates are already booked.
	ErrConflict = errors.New("dates are no longer available")
)
