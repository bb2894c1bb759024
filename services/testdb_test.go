package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

// newTestDB opens an isolated in-memory database with the full schema.
// Single connection: every in-memory sqlite connection is its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Establishment{},
		&models.Room{},
		&models.PricingOption{},
		&models.PricingOptionValue{},
		&models.Booking{},
	))
	return db
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func seedEstablishment(t *testing.T, db *gorm.DB) models.Establishment {
	t.Helper()
	est := models.Establishment{
		Slug:                "test-hotel",
		Name:                "Test Hotel",
		Currency:            "CHF",
		MaxBookingDays:      30,
		AllowFutureBookings: true,
		CommissionRate:      5,
		FixedFee:            2,
	}
	require.NoError(t, db.Create(&est).Error)
	return est
}

func seedRoom(t *testing.T, db *gorm.DB, establishmentID uint, name string, price float64, active bool) models.Room {
	t.Helper()
	room := models.Room{
		EstablishmentID: establishmentID,
		Name:            name,
		Price:           price,
		IsActive:        active,
	}
	require.NoError(t, db.Create(&room).Error)
	return room
}

func seedBooking(t *testing.T, db *gorm.DB, establishmentID, roomID uint, status string, checkIn, checkOut time.Time) models.Booking {
	t.Helper()
	b := models.Booking{
		EstablishmentID: establishmentID,
		RoomID:          &roomID,
		ReferenceCode:   "BK-" + status + checkIn.Format("20060102") + time.Now().Format("150405.000000000"),
		Status:          status,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		Adults:          2,
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}
