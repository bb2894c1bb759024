package models

import (
	"time"

	"gorm.io/gorm"
)

// Establishment owns the booking policy, the fee configuration and the
// tourist-tax settings. The booking core only ever reads it; onboarding and
// admin edits happen outside this service.
type Establishment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Slug     string `gorm:"column:slug;size:100;uniqueIndex" json:"slug"`
	Name     string `gorm:"size:255" json:"name"`
	Currency string `gorm:"size:3;default:CHF" json:"currency"`

	MaxBookingDays      int  `gorm:"column:max_booking_days;default:30" json:"maxBookingDays"`
	AllowFutureBookings bool `gorm:"column:allow_future_bookings;default:true" json:"allowFutureBookings"`

	// Platform fee: percentage of the subtotal plus a fixed amount.
	CommissionRate float64 `gorm:"column:commission_rate;type:decimal(5,2);default:0" json:"commissionRate"`
	FixedFee       float64 `gorm:"column:fixed_fee;type:decimal(10,2);default:0" json:"fixedFee"`

	TouristTaxEnabled bool    `gorm:"column:tourist_tax_enabled;default:false" json:"touristTaxEnabled"`
	TouristTaxAmount  float64 `gorm:"column:tourist_tax_amount;type:decimal(10,2);default:0" json:"touristTaxAmount"`

	Rooms []Room `gorm:"foreignKey:EstablishmentID" json:"rooms,omitempty"`
}
