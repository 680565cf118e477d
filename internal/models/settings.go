package models

import (
	"gorm.io/gorm"
)

// Settings holds the per-deployment booking limits.
type Settings struct {
	gorm.Model
	MinBookingLength int `json:"minBookingLength"`
	MaxBookingLength int `json:"maxBookingLength"`
}
