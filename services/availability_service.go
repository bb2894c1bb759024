package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

// AvailableRoom is one bookable room with its nightly rate, as offered to the
// guest for the requested dates.
type AvailableRoom struct {
	Room         models.Room
	NightlyPrice float64
}

// AvailabilityService resolves which rooms can still be booked for a date
// range. Read-only; the ledger re-runs the conflict check atomically at
// reservation time.
type AvailabilityService struct {
	DB *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{DB: db}
}

// FindAvailable returns every active room of the establishment with zero
// overlapping pending or confirmed bookings for the half-open range
// [checkIn, checkOut). A checkout on day N and a new check-in on day N do
// not conflict. Order is stable by room ID so results are reproducible.
// An empty result is a valid answer, not an error.
func (s *AvailabilityService) FindAvailable(establishmentID uint, checkIn, checkOut time.Time) ([]AvailableRoom, error) {
	checkIn = DateOnly(checkIn)
	checkOut = DateOnly(checkOut)

	conflict := s.DB.Model(&models.Booking{}).
		Select("1").
		Where("bookings.room_id = rooms.id").
		Where("bookings.status IN ?", []string{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Where("bookings.check_in_date < ? AND ? < bookings.check_out_date", checkOut, checkIn).
		Where("bookings.deleted_at IS NULL")

	var rooms []models.Room
	err := s.DB.Model(&models.Room{}).
		Where("establishment_id = ? AND is_active = ?", establishmentID, true).
		Where("NOT EXISTS (?)", conflict).
		Order("rooms.id ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve availability: %w", err)
	}

	out := make([]AvailableRoom, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, AvailableRoom{Room: r, NightlyPrice: r.Price})
	}
	return out, nil
}
