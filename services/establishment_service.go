package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

var ErrEstablishmentNotFound = errors.New("establishment_not_found")

type EstablishmentService struct {
	DB *gorm.DB
}

func NewEstablishmentService(db *gorm.DB) *EstablishmentService {
	return &EstablishmentService{DB: db}
}

func (s *EstablishmentService) GetBySlug(slug string) (*models.Establishment, error) {
	var est models.Establishment
	if err := s.DB.Where("slug = ?", slug).First(&est).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, fmt.Errorf("failed to load establishment %s: %w", slug, err)
	}
	return &est, nil
}
