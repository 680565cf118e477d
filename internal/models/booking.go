package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusUnconfirmed BookingStatus = "unconfirmed"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCheckedIn   BookingStatus = "checked-in"
	StatusCheckedOut  BookingStatus = "checked-out"
)

// MaxObservationsLength is the number of characters kept from a guest's observations.
const MaxObservationsLength = 500

type Booking struct {
	gorm.Model
	CabinID      uint          `json:"cabinId" gorm:"index"`
	Cabin        Cabin         `json:"-" gorm:"foreignKey:CabinID"`
	GuestID      uint          `json:"guestId" gorm:"index"`
	Guest        Guest         `json:"-" gorm:"foreignKey:GuestID"`
	StartDate    time.Time     `json:"startDate"`
	EndDate      time.Time     `json:"endDate"`
	NumNights    int           `json:"numNights"`
	CabinPrice   float64       `json:"cabinPrice"`
	ExtrasPrice  float64       `json:"extrasPrice"`
	TotalPrice   float64       `json:"totalPrice"`
	NumGuests    int           `json:"numGuests"`
	Observations string        `json:"observations" gorm:"size:500"`
	HasBreakfast bool          `json:"hasBreakfast"`
	IsPaid       bool          `json:"isPaid"`
	Status       BookingStatus `json:"status"`
}
