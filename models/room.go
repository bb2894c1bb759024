package models

import (
	"gorm.io/gorm"
)

type Room struct {
	gorm.Model

	EstablishmentID uint `gorm:"index;column:establishment_id" json:"establishmentId"`

	Name        string  `gorm:"size:255" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:decimal(10,2)" json:"price"`

	// Inactive rooms stay in the catalog for historical bookings but are
	// never offered by the availability resolver. No column default: GORM
	// drops zero-value fields that carry one, so `false` would never reach
	// the database. Creators set the flag explicitly.
	IsActive bool `gorm:"column:is_active" json:"isActive"`

	Establishment Establishment `gorm:"foreignKey:EstablishmentID;references:ID" json:"-"`
}
