package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Booking statuses. A pending booking still holds inventory: it counts as a
// conflict for availability until it is confirmed, cancelled or reaped.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	EstablishmentID uint `gorm:"index;column:establishment_id" json:"establishmentId"`

	// Nil for day-parking bookings, which carry no room inventory.
	RoomID *uint `gorm:"index;column:room_id" json:"roomId,omitempty"`

	ReferenceCode string `gorm:"column:reference_code;size:64;uniqueIndex" json:"referenceCode"`
	Status        string `gorm:"column:status;size:20;index" json:"status"`

	// Half-open stay interval: check-out day is not occupied.
	CheckInDate  time.Time `gorm:"column:check_in_date" json:"check_in_date"`
	CheckOutDate time.Time `gorm:"column:check_out_date" json:"check_out_date"`

	Adults   int `gorm:"column:adults;default:1" json:"adults"`
	Children int `gorm:"column:children;default:0" json:"children"`

	GuestName  string `gorm:"size:255" json:"guestName"`
	GuestEmail string `gorm:"size:255" json:"guestEmail"`
	GuestPhone string `gorm:"size:50" json:"guestPhone,omitempty"`

	// Snapshot of the chosen option values at creation time, as
	// []OptionSnapshot. Catalog edits never alter historical invoice lines.
	SelectedOptions datatypes.JSON `gorm:"column:selected_options" json:"selectedOptions,omitempty"`

	PricingOptionsTotal float64 `gorm:"column:pricing_options_total;type:decimal(10,2)" json:"pricingOptionsTotal"`
	TouristTaxTotal     float64 `gorm:"column:tourist_tax_total;type:decimal(10,2)" json:"touristTaxTotal"`
	PlatformFeeTotal    float64 `gorm:"column:platform_fee_total;type:decimal(10,2)" json:"platformFeeTotal"`

	// Amount is what the guest pays; EstablishmentNet is what the
	// establishment keeps after the platform's cut. Both are retained.
	Amount           float64 `gorm:"column:amount;type:decimal(10,2)" json:"amount"`
	EstablishmentNet float64 `gorm:"column:establishment_net;type:decimal(10,2)" json:"establishmentNet"`

	PaymentReference string     `gorm:"column:payment_reference;size:255" json:"paymentReference,omitempty"`
	ConfirmedAt      *time.Time `gorm:"column:confirmed_at" json:"confirmedAt,omitempty"`
	CancelledAt      *time.Time `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`

	Establishment Establishment `gorm:"foreignKey:EstablishmentID;references:ID" json:"-"`
	Room          *Room         `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
}

// Nights returns the whole-day length of the stay.
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}

// OptionSnapshot is one line of the SelectedOptions JSON column.
type OptionSnapshot struct {
	OptionID   uint    `json:"optionId"`
	OptionName string  `json:"optionName"`
	ValueID    uint    `json:"valueId"`
	ValueLabel string  `json:"valueLabel"`
	UnitPrice  float64 `json:"unitPrice"`
	PerNight   bool    `json:"perNight"`
	LineTotal  float64 `json:"lineTotal"`
}
