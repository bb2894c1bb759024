package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Guillaumeperrottet/selfkey-sub000/metrics"
	"github.com/Guillaumeperrottet/selfkey-sub000/models"
	"github.com/Guillaumeperrottet/selfkey-sub000/utils"
)

var (
	ErrRoomNotFound = errors.New("room_not_found")

	// ErrPriceMismatch means the client-quoted total disagrees with the
	// server computation beyond rounding tolerance. Treated as tampering or
	// staleness and always rejected, never silently corrected.
	ErrPriceMismatch = errors.New("price_mismatch")
)

// BookingLifecycle drives a booking request from draft to a persisted
// pending booking: policy validation, selection check, pricing, the
// expected-price guard and finally the ledger's atomic reserve. Drafts hold
// no inventory; two guests may both draft the last room and the loser only
// learns about it here, as a conflict.
type BookingLifecycle struct {
	DB      *gorm.DB
	Options *OptionService
	Ledger  *LedgerService

	// Injected clock, UTC wall time in production.
	Now func() time.Time
}

func NewBookingLifecycle(db *gorm.DB, options *OptionService, ledger *LedgerService) *BookingLifecycle {
	return &BookingLifecycle{
		DB:      db,
		Options: options,
		Ledger:  ledger,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// BookingRequest is a guest's draft, as submitted for committing.
type BookingRequest struct {
	Establishment models.Establishment
	RoomID        uint
	CheckIn       time.Time
	CheckOut      time.Time
	Adults        int
	Children      int
	GuestName     string
	GuestEmail    string
	GuestPhone    string

	SelectedValueIDs []uint

	// ExpectedPrice is the total the client displayed to the guest. Nil
	// skips the guard (trusted internal callers only).
	ExpectedPrice *float64
}

// PlaceBooking validates, prices and reserves in that order. On success the
// booking is pending and holds inventory until confirmed, cancelled or
// reaped.
func (l *BookingLifecycle) PlaceBooking(ctx context.Context, req BookingRequest) (*models.Booking, PriceBreakdown, error) {
	var zero PriceBreakdown

	if req.Adults <= 0 {
		req.Adults = 1
	}
	if req.Children < 0 {
		req.Children = 0
	}

	if rej := ValidateStay(req.Establishment, l.Now(), req.CheckIn, req.CheckOut); rej != nil {
		return nil, zero, rej
	}

	var room models.Room
	err := l.DB.Where("id = ? AND establishment_id = ? AND is_active = ?",
		req.RoomID, req.Establishment.ID, true).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, zero, ErrRoomNotFound
		}
		return nil, zero, fmt.Errorf("failed to load room %d: %w", req.RoomID, err)
	}

	options, err := l.Options.ListActive(ctx, req.Establishment.ID)
	if err != nil {
		return nil, zero, err
	}
	selections, err := ResolveSelections(options, req.SelectedValueIDs)
	if err != nil {
		return nil, zero, err
	}

	breakdown := PriceStay(room, req.CheckIn, req.CheckOut, req.Adults, selections,
		TouristTaxFor(req.Establishment), PlatformFeeFor(req.Establishment))

	if req.ExpectedPrice != nil && !utils.MoneyEqual(*req.ExpectedPrice, breakdown.GuestTotal) {
		metrics.IncPriceMismatch()
		return nil, breakdown, ErrPriceMismatch
	}

	booking, err := l.Ledger.Reserve(ReserveInput{
		EstablishmentID: req.Establishment.ID,
		Room:            &room,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Adults:          req.Adults,
		Children:        req.Children,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		Breakdown:       breakdown,
	})
	if err != nil {
		if errors.Is(err, ErrRoomConflict) {
			metrics.IncReservationConflict()
		}
		return nil, breakdown, err
	}

	metrics.IncBookingCreated(booking.Status)
	return booking, breakdown, nil
}

// ConfirmPayment is the webhook entry point: pending -> confirmed.
func (l *BookingLifecycle) ConfirmPayment(referenceCode, paymentReference string) (*models.Booking, error) {
	booking, err := l.Ledger.GetByReference(referenceCode)
	if err != nil {
		return nil, err
	}
	return l.Ledger.Confirm(booking.ID, paymentReference)
}

// CancelBooking cancels by reference code, releasing the room immediately.
func (l *BookingLifecycle) CancelBooking(referenceCode string) (*models.Booking, error) {
	booking, err := l.Ledger.GetByReference(referenceCode)
	if err != nil {
		return nil, err
	}
	cancelled, err := l.Ledger.Cancel(booking.ID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCancelled {
		metrics.IncBookingCancelled()
	}
	return cancelled, nil
}
