package models

import (
	"gorm.io/gorm"
)

type Guest struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex" json:"email"`
	FullName    string `json:"fullName"`
	Nationality string `json:"nationality"`
	CountryFlag string `json:"countryFlag"`
	NationalID  string `gorm:"column:national_id" json:"nationalID"`
}
