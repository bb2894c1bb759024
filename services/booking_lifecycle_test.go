package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

type lifecycleFixture struct {
	db        *gorm.DB
	est       models.Establishment
	room      models.Room
	breakfast models.PricingOption
	lifecycle *BookingLifecycle
	ledger    *LedgerService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	breakfast := models.PricingOption{
		EstablishmentID: est.ID, Name: "Breakfast", Type: models.OptionTypeRadio,
		IsRequired: true, IsActive: true, DisplayOrder: 1,
		Values: []models.PricingOptionValue{
			{Label: "No breakfast", PriceModifier: 0, IsDefault: true},
			{Label: "Continental breakfast", PriceModifier: 10, IsPerNight: true},
		},
	}
	require.NoError(t, db.Create(&breakfast).Error)

	ledger := NewLedgerService(db)
	lifecycle := NewBookingLifecycle(db, NewOptionService(db), ledger)
	lifecycle.Now = func() time.Time { return date(2025, 7, 1) }

	return &lifecycleFixture{
		db: db, est: est, room: room, breakfast: breakfast,
		lifecycle: lifecycle, ledger: ledger,
	}
}

func (f *lifecycleFixture) request() BookingRequest {
	expected := 233.0
	return BookingRequest{
		Establishment:    f.est,
		RoomID:           f.room.ID,
		CheckIn:          date(2025, 7, 15),
		CheckOut:         date(2025, 7, 17),
		Adults:           2,
		GuestName:        "Jane Doe",
		GuestEmail:       "jane@example.com",
		SelectedValueIDs: []uint{f.breakfast.Values[1].ID},
		ExpectedPrice:    &expected,
	}
}

func TestPlaceBookingHappyPath(t *testing.T) {
	f := newLifecycleFixture(t)

	booking, breakdown, err := f.lifecycle.PlaceBooking(context.Background(), f.request())
	require.NoError(t, err)

	// 100 x 2 nights + 10/night breakfast, 5% + 2 platform fee.
	assert.InDelta(t, 220, breakdown.Subtotal, 1e-9)
	assert.InDelta(t, 13, breakdown.PlatformFee, 1e-9)
	assert.InDelta(t, 233, breakdown.GuestTotal, 1e-9)
	assert.InDelta(t, 207, breakdown.EstablishmentNet, 1e-9)

	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.InDelta(t, 233, booking.Amount, 1e-9)
	assert.InDelta(t, 207, booking.EstablishmentNet, 1e-9)
	assert.InDelta(t, 20, booking.PricingOptionsTotal, 1e-9)

	// The chosen option is snapshotted into the booking row.
	var lines []models.OptionSnapshot
	require.NoError(t, json.Unmarshal(booking.SelectedOptions, &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, "Breakfast", lines[0].OptionName)
	assert.Equal(t, "Continental breakfast", lines[0].ValueLabel)
	assert.InDelta(t, 20, lines[0].LineTotal, 1e-9)
}

func TestPlaceBookingSnapshotSurvivesCatalogEdit(t *testing.T) {
	f := newLifecycleFixture(t)

	booking, _, err := f.lifecycle.PlaceBooking(context.Background(), f.request())
	require.NoError(t, err)

	// Reprice the breakfast after the fact; the historical line must not move.
	require.NoError(t, f.db.Model(&models.PricingOptionValue{}).
		Where("id = ?", f.breakfast.Values[1].ID).
		Update("price_modifier", 99).Error)

	reloaded, err := f.ledger.GetByReference(booking.ReferenceCode)
	require.NoError(t, err)

	var lines []models.OptionSnapshot
	require.NoError(t, json.Unmarshal(reloaded.SelectedOptions, &lines))
	require.Len(t, lines, 1)
	assert.InDelta(t, 10, lines[0].UnitPrice, 1e-9)
	assert.InDelta(t, 20, lines[0].LineTotal, 1e-9)
}

func TestPlaceBookingPriceMismatch(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.request()
	tampered := 200.0
	req.ExpectedPrice = &tampered

	_, breakdown, err := f.lifecycle.PlaceBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrPriceMismatch)
	assert.InDelta(t, 233, breakdown.GuestTotal, 1e-9)

	// Nothing was persisted.
	var count int64
	f.db.Model(&models.Booking{}).Count(&count)
	assert.Zero(t, count)
}

func TestPlaceBookingPolicyRejection(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.request()
	req.CheckOut = req.CheckIn

	_, _, err := f.lifecycle.PlaceBooking(context.Background(), req)
	var rej *StayRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, RejectInvalidRange, rej.Reason)
}

func TestPlaceBookingRejectsMissingRequiredOption(t *testing.T) {
	f := newLifecycleFixture(t)

	req := f.request()
	req.SelectedValueIDs = nil

	_, _, err := f.lifecycle.PlaceBooking(context.Background(), req)
	var selErr *SelectionError
	require.ErrorAs(t, err, &selErr)
}

func TestPlaceBookingInactiveRoom(t *testing.T) {
	f := newLifecycleFixture(t)
	require.NoError(t, f.db.Model(&models.Room{}).
		Where("id = ?", f.room.ID).
		Update("is_active", false).Error)

	_, _, err := f.lifecycle.PlaceBooking(context.Background(), f.request())
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestPlaceBookingSecondGuestGetsConflict(t *testing.T) {
	f := newLifecycleFixture(t)

	_, _, err := f.lifecycle.PlaceBooking(context.Background(), f.request())
	require.NoError(t, err)

	_, _, err = f.lifecycle.PlaceBooking(context.Background(), f.request())
	assert.ErrorIs(t, err, ErrRoomConflict)
}

func TestConfirmAndCancelByReference(t *testing.T) {
	f := newLifecycleFixture(t)

	booking, _, err := f.lifecycle.PlaceBooking(context.Background(), f.request())
	require.NoError(t, err)

	confirmed, err := f.lifecycle.ConfirmPayment(booking.ReferenceCode, "pay_abc")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	cancelled, err := f.lifecycle.CancelBooking(booking.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	_, err = f.lifecycle.ConfirmPayment("BK-DOESNOTEXIST", "pay_x")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestReaperCancelsAbandonedPending(t *testing.T) {
	f := newLifecycleFixture(t)

	stale, _, err := f.lifecycle.PlaceBooking(context.Background(), f.request())
	require.NoError(t, err)

	req := f.request()
	req.CheckIn = date(2025, 8, 1)
	req.CheckOut = date(2025, 8, 3)
	fresh, _, err := f.lifecycle.PlaceBooking(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Booking{}).
		Where("id = ?", stale.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	reaper := NewPendingReaper(f.ledger, 30*time.Minute, time.Minute)
	n, err := reaper.ReapOnce(time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reaped, err := f.ledger.GetByReference(stale.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, reaped.Status)

	kept, err := f.ledger.GetByReference(fresh.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, kept.Status)

	// Reaping released the room.
	avail := NewAvailabilityService(f.db)
	rooms, err := avail.FindAvailable(f.est.ID, date(2025, 7, 15), date(2025, 7, 17))
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}
