package models

import (
	"gorm.io/gorm"
)

type Cabin struct {
	gorm.Model
	Name             string  `json:"name"`
	MaxCapacity      int     `json:"maxCapacity"`
	RegularPrice     float64 `json:"regularPrice"`
	Discount         float64 `json:"discount"`
	MaxBookingLength int     `json:"maxBookingLength"`
	Description      string  `json:"description"`
	Image            string  `json:"image"`
}

// NightlyPrice is the regular price minus the discount.
func (c Cabin) NightlyPrice() float64 {
	return c.RegularPrice - c.Discount
}
