package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
	"github.com/Guillaumeperrottet/selfkey-sub000/utils"
)

var (
	// ErrRoomConflict means the reservation lost the race: an overlapping
	// pending or confirmed booking exists for the room. The caller should
	// re-resolve availability and offer alternatives, never retry blindly.
	ErrRoomConflict = errors.New("room_conflict")

	ErrBookingNotFound = errors.New("booking_not_found")

	// ErrAlreadyTerminal means the booking is no longer pending and the
	// requested transition is invalid.
	ErrAlreadyTerminal = errors.New("booking_already_terminal")
)

// LedgerService is the transactional store of bookings and the sole gate
// against double-booking. Reserve serializes per room: attempts on the same
// room queue up, attempts on different rooms don't contend.
type LedgerService struct {
	DB *gorm.DB

	roomLocks sync.Map // room ID -> *sync.Mutex
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// ReserveInput carries everything needed to persist a priced, validated
// booking. Room is nil for day-parking bookings, which hold no room
// inventory and skip the conflict check.
type ReserveInput struct {
	EstablishmentID uint
	Room            *models.Room
	CheckIn         time.Time
	CheckOut        time.Time
	Adults          int
	Children        int
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	Breakdown       PriceBreakdown
}

// isDuplicateKey recognizes a unique-constraint violation: MySQL error 1062
// in production, the message fallback for other dialects.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique")
}

func (s *LedgerService) lockRoom(roomID uint) func() {
	v, _ := s.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// lockRoomRow takes a FOR UPDATE lock on the room row, serializing
// concurrent Reserve transactions per room across processes: the in-process
// mutex only covers one service instance, and under REPEATABLE READ two
// instances could both count zero overlaps and both insert. SQLite rejects
// the FOR UPDATE syntax and allows a single writer anyway, so the clause is
// skipped there.
func lockRoomRow(tx *gorm.DB, roomID uint) error {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room models.Room
	if err := q.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to lock room %d: %w", roomID, err)
	}
	return nil
}

// Reserve runs the overlap check for the target room and the insertion of
// the new pending booking as one indivisible unit. No other request can
// observe "no conflict" and also insert an overlapping booking in between:
// the per-room mutex serializes attempts within this process, the room row
// lock serializes them across processes, and the check runs inside the same
// transaction as the insert. Returns ErrRoomConflict when an overlapping
// booking already holds the dates.
func (s *LedgerService) Reserve(input ReserveInput) (*models.Booking, error) {
	checkIn := DateOnly(input.CheckIn)
	checkOut := DateOnly(input.CheckOut)

	if input.Room != nil {
		unlock := s.lockRoom(input.Room.ID)
		defer unlock()
	}

	snapshot, err := json.Marshal(input.Breakdown.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot selected options: %w", err)
	}

	var booking *models.Booking
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if input.Room != nil {
			if err := lockRoomRow(tx, input.Room.ID); err != nil {
				return err
			}

			var overlapping int64
			err := tx.Model(&models.Booking{}).
				Where("room_id = ?", input.Room.ID).
				Where("status IN ?", []string{models.BookingStatusPending, models.BookingStatusConfirmed}).
				Where("check_in_date < ? AND ? < check_out_date", checkOut, checkIn).
				Count(&overlapping).Error
			if err != nil {
				return fmt.Errorf("failed to check for overlapping bookings: %w", err)
			}
			if overlapping > 0 {
				return ErrRoomConflict
			}
		}

		var roomID *uint
		if input.Room != nil {
			id := input.Room.ID
			roomID = &id
		}

		// Retry the insert on a reference-code collision; everything else
		// fails the transaction.
		var createErr error
		for attempt := 0; attempt < 3; attempt++ {
			b := &models.Booking{
				EstablishmentID:     input.EstablishmentID,
				RoomID:              roomID,
				ReferenceCode:       utils.NewReferenceCode(),
				Status:              models.BookingStatusPending,
				CheckInDate:         checkIn,
				CheckOutDate:        checkOut,
				Adults:              input.Adults,
				Children:            input.Children,
				GuestName:           input.GuestName,
				GuestEmail:          input.GuestEmail,
				GuestPhone:          input.GuestPhone,
				SelectedOptions:     snapshot,
				PricingOptionsTotal: input.Breakdown.OptionsTotal,
				TouristTaxTotal:     input.Breakdown.TouristTax,
				PlatformFeeTotal:    input.Breakdown.PlatformFee,
				Amount:              input.Breakdown.GuestTotal,
				EstablishmentNet:    input.Breakdown.EstablishmentNet,
			}
			createErr = tx.Create(b).Error
			if createErr == nil {
				booking = b
				return nil
			}
			if isDuplicateKey(createErr) {
				continue
			}
			break
		}
		return fmt.Errorf("failed to create booking: %w", createErr)
	})
	if txErr != nil {
		return nil, txErr
	}
	return booking, nil
}

// Confirm moves a pending booking to confirmed once the external payment
// step reported success. Fails with ErrBookingNotFound or ErrAlreadyTerminal
// when the booking is missing or no longer pending.
func (s *LedgerService) Confirm(bookingID uint, paymentReference string) (*models.Booking, error) {
	var booking models.Booking

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingStatusPending).
			Updates(map[string]interface{}{
				"status":            models.BookingStatusConfirmed,
				"payment_reference": paymentReference,
				"confirmed_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Decide between "missing" and "wrong state" after the fact.
			if err := tx.First(&booking, bookingID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrBookingNotFound
				}
				return err
			}
			return ErrAlreadyTerminal
		}
		return tx.First(&booking, bookingID).Error
	})
	if txErr != nil {
		return nil, txErr
	}
	return &booking, nil
}

// Cancel moves a pending or confirmed booking to cancelled, releasing its
// inventory hold immediately. Idempotent: cancelling an already-cancelled
// booking is a no-op, not an error.
func (s *LedgerService) Cancel(bookingID uint) (*models.Booking, error) {
	var booking models.Booking

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if booking.Status == models.BookingStatusCancelled {
			return nil
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status IN ?", bookingID,
				[]string{models.BookingStatusPending, models.BookingStatusConfirmed}).
			Updates(map[string]interface{}{
				"status":       models.BookingStatusCancelled,
				"cancelled_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		return tx.First(&booking, bookingID).Error
	})
	if txErr != nil {
		return nil, txErr
	}
	return &booking, nil
}

// GetByReference loads a booking by its guest-facing reference code.
func (s *LedgerService) GetByReference(referenceCode string) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.Preload("Room").
		Where("reference_code = ?", referenceCode).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", referenceCode, err)
	}
	return &booking, nil
}

// ListExpiredPending returns pending bookings created before the cutoff, for
// the reaper to cancel. The timeout itself is operator policy, not ledger
// policy.
func (s *LedgerService) ListExpiredPending(cutoff time.Time) ([]models.Booking, error) {
	var stale []models.Booking
	err := s.DB.
		Where("status = ? AND created_at < ?", models.BookingStatusPending, cutoff).
		Order("created_at ASC").
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired pending bookings: %w", err)
	}
	return stale, nil
}
