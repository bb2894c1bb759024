package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

var DB *gorm.DB

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := envOrDefault("DB_USER", "root")
	pass := envOrDefault("DB_PASS", "")
	host := envOrDefault("DB_HOST", "127.0.0.1")
	port := envOrDefault("DB_PORT", "3306")
	dbName := envOrDefault("DB_NAME", "selfkey_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, pass, host, port, dbName,
	), nil
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order.
	if err := DB.AutoMigrate(
		&models.Establishment{},
		&models.Room{},
		&models.PricingOption{},
		&models.PricingOptionValue{},
		&models.Booking{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}

// SeedDatabase inserts a demo establishment with rooms and a small option
// catalog when the tables are empty, so a fresh install is bookable
// immediately.
func SeedDatabase() {
	var estCount int64
	DB.Model(&models.Establishment{}).Count(&estCount)
	if estCount > 0 {
		return
	}

	est := models.Establishment{
		Slug:                "demo-hotel",
		Name:                "Demo Hotel",
		Currency:            "CHF",
		MaxBookingDays:      30,
		AllowFutureBookings: true,
		CommissionRate:      5,
		FixedFee:            2,
		TouristTaxEnabled:   true,
		TouristTaxAmount:    3.5,
	}
	if err := DB.Create(&est).Error; err != nil {
		log.Printf("warning: failed to seed establishment: %v", err)
		return
	}

	rooms := []models.Room{
		{EstablishmentID: est.ID, Name: "Double Room", Price: 100, IsActive: true},
		{EstablishmentID: est.ID, Name: "Family Suite", Price: 180, IsActive: true},
		{EstablishmentID: est.ID, Name: "Single Room", Price: 75, IsActive: true},
	}
	if err := DB.Create(&rooms).Error; err != nil {
		log.Printf("warning: failed to seed rooms: %v", err)
	}

	breakfast := models.PricingOption{
		EstablishmentID: est.ID,
		Name:            "Breakfast",
		Type:            models.OptionTypeRadio,
		IsRequired:      true,
		IsActive:        true,
		DisplayOrder:    1,
		Values: []models.PricingOptionValue{
			{Label: "No breakfast", PriceModifier: 0, IsDefault: true, DisplayOrder: 1},
			{Label: "Continental breakfast", PriceModifier: 10, IsPerNight: true, DisplayOrder: 2},
		},
	}
	extras := models.PricingOption{
		EstablishmentID: est.ID,
		Name:            "Extras",
		Type:            models.OptionTypeCheckbox,
		IsActive:        true,
		DisplayOrder:    2,
		Values: []models.PricingOptionValue{
			{Label: "Parking spot", PriceModifier: 15, IsPerNight: true, DisplayOrder: 1},
			{Label: "Late checkout", PriceModifier: 25, DisplayOrder: 2},
		},
	}
	if err := DB.Create(&[]models.PricingOption{breakfast, extras}).Error; err != nil {
		log.Printf("warning: failed to seed pricing options: %v", err)
	}

	log.Println("Demo establishment seeded")
}
