package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

func reserveInput(est models.Establishment, room *models.Room, checkIn, checkOut time.Time) ReserveInput {
	return ReserveInput{
		EstablishmentID: est.ID,
		Room:            room,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          2,
		GuestName:       "Jane Doe",
		GuestEmail:      "jane@example.com",
		Breakdown: PriceBreakdown{
			Nights:           NightsBetween(checkIn, checkOut),
			GuestTotal:       233,
			EstablishmentNet: 207,
			PlatformFee:      13,
			OptionsTotal:     20,
		},
	}
}

func TestReserveCreatesPendingBooking(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	ledger := NewLedgerService(db)
	booking, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.True(t, strings.HasPrefix(booking.ReferenceCode, "BK-"))
	require.NotNil(t, booking.RoomID)
	assert.Equal(t, room.ID, *booking.RoomID)
	assert.InDelta(t, 233, booking.Amount, 1e-9)
	assert.InDelta(t, 207, booking.EstablishmentNet, 1e-9)
	assert.Equal(t, 2, booking.Nights())
}

func TestReserveRejectsOverlap(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	ledger := NewLedgerService(db)
	_, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)

	_, err = ledger.Reserve(reserveInput(est, &room, date(2025, 7, 16), date(2025, 7, 18)))
	assert.ErrorIs(t, err, ErrRoomConflict)

	// But back-to-back stays touching at the boundary are fine.
	_, err = ledger.Reserve(reserveInput(est, &room, date(2025, 7, 17), date(2025, 7, 19)))
	assert.NoError(t, err)
}

func TestReserveDifferentRoomsDontContend(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	roomA := seedRoom(t, db, est.ID, "Room A", 100, true)
	roomB := seedRoom(t, db, est.ID, "Room B", 100, true)

	ledger := NewLedgerService(db)
	_, err := ledger.Reserve(reserveInput(est, &roomA, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)
	_, err = ledger.Reserve(reserveInput(est, &roomB, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)
}

func TestReserveAtMostOneWinner(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Last Room", 100, true)

	ledger := NewLedgerService(db)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, ErrRoomConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestReserveVanishedRoom(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	// The room row is gone by the time Reserve tries to lock it.
	require.NoError(t, db.Unscoped().Delete(&models.Room{}, room.ID).Error)

	ledger := NewLedgerService(db)
	_, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestReserveDayParkingSkipsConflictCheck(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)

	ledger := NewLedgerService(db)
	in := reserveInput(est, nil, date(2025, 7, 15), date(2025, 7, 16))

	first, err := ledger.Reserve(in)
	require.NoError(t, err)
	assert.Nil(t, first.RoomID)

	// Day-parking bookings hold no room inventory, so identical dates
	// coexist.
	_, err = ledger.Reserve(in)
	assert.NoError(t, err)
}

func TestConfirm(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	ledger := NewLedgerService(db)
	booking, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)

	confirmed, err := ledger.Confirm(booking.ID, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, "pay_123", confirmed.PaymentReference)
	assert.NotNil(t, confirmed.ConfirmedAt)

	_, err = ledger.Confirm(booking.ID, "pay_456")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)

	_, err = ledger.Confirm(99999, "pay_789")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelIsIdempotentAndReleasesInventory(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	ledger := NewLedgerService(db)
	booking, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)

	cancelled, err := ledger.Cancel(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// Second cancel is a no-op, not an error.
	again, err := ledger.Cancel(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, again.Status)

	// The slot is visible again immediately.
	avail := NewAvailabilityService(db)
	rooms, err := avail.FindAvailable(est.ID, date(2025, 7, 15), date(2025, 7, 17))
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	_, err = ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	assert.NoError(t, err)
}

func TestCancelConfirmedBooking(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	ledger := NewLedgerService(db)
	booking, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)
	_, err = ledger.Confirm(booking.ID, "pay_123")
	require.NoError(t, err)

	cancelled, err := ledger.Cancel(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
}

func TestListExpiredPending(t *testing.T) {
	db := newTestDB(t)
	est := seedEstablishment(t, db)
	room := seedRoom(t, db, est.ID, "Room A", 100, true)

	ledger := NewLedgerService(db)
	stale, err := ledger.Reserve(reserveInput(est, &room, date(2025, 7, 15), date(2025, 7, 17)))
	require.NoError(t, err)
	fresh, err := ledger.Reserve(reserveInput(est, &room, date(2025, 8, 1), date(2025, 8, 3)))
	require.NoError(t, err)

	// Backdate the first booking past the reaper cutoff.
	old := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&models.Booking{}).
		Where("id = ?", stale.ID).
		Update("created_at", old).Error)

	expired, err := ledger.ListExpiredPending(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.NotEqual(t, fresh.ID, expired[0].ID)
}
