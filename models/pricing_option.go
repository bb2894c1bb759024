package models

import (
	"time"

	"gorm.io/gorm"
)

// Option input kinds. Select and radio accept a single value, checkbox
// accepts any number of values.
const (
	OptionTypeSelect   = "select"
	OptionTypeRadio    = "radio"
	OptionTypeCheckbox = "checkbox"
)

// PricingOption is an admin-configured add-on (breakfast, parking, ...).
// The booking core reads the catalog but never mutates it; chosen values are
// snapshotted into the booking so later catalog edits don't rewrite history.
type PricingOption struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	EstablishmentID uint   `gorm:"index;column:establishment_id" json:"establishmentId"`
	Name            string `gorm:"size:255" json:"name"`
	Type            string `gorm:"size:20" json:"type"`
	IsRequired      bool   `gorm:"column:is_required;default:false" json:"isRequired"`
	IsActive        bool   `gorm:"column:is_active" json:"isActive"`
	DisplayOrder    int    `gorm:"column:display_order;default:0" json:"displayOrder"`

	Values []PricingOptionValue `gorm:"foreignKey:PricingOptionID" json:"values"`
}

type PricingOptionValue struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PricingOptionID uint   `gorm:"index;column:pricing_option_id" json:"pricingOptionId"`
	Label           string `gorm:"size:255" json:"label"`

	// Signed amount: a value may discount as well as surcharge.
	PriceModifier float64 `gorm:"column:price_modifier;type:decimal(10,2)" json:"priceModifier"`

	// Per-night modifiers are multiplied by the stay's night count.
	IsPerNight   bool `gorm:"column:is_per_night;default:false" json:"isPerNight"`
	IsDefault    bool `gorm:"column:is_default;default:false" json:"isDefault"`
	DisplayOrder int  `gorm:"column:display_order;default:0" json:"displayOrder"`
}
