package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
)

// ResolvedSelection pairs a chosen value with the option it belongs to, after
// the catalog lookup and cardinality checks have passed.
type ResolvedSelection struct {
	Option models.PricingOption
	Value  models.PricingOptionValue
}

// SelectionError lists everything wrong with a set of selected option
// values. Recoverable: the guest fixes the form and retries.
type SelectionError struct {
	Problems []string
}

func (e *SelectionError) Error() string {
	return "invalid option selection: " + strings.Join(e.Problems, "; ")
}

func (e *SelectionError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// OptionService reads the pricing-option catalog. The catalog changes rarely,
// so reads may go through the optional cache; bookings never do.
type OptionService struct {
	DB    *gorm.DB
	Cache *CatalogCache
}

func NewOptionService(db *gorm.DB) *OptionService {
	return &OptionService{DB: db}
}

// ListActive returns the establishment's active options ordered for display,
// values preloaded in display order.
func (s *OptionService) ListActive(ctx context.Context, establishmentID uint) ([]models.PricingOption, error) {
	if s.Cache != nil {
		if options, ok := s.Cache.GetOptions(ctx, establishmentID); ok {
			return options, nil
		}
	}

	var options []models.PricingOption
	err := s.DB.WithContext(ctx).
		Preload("Values", func(db *gorm.DB) *gorm.DB {
			return db.Order("pricing_option_values.display_order ASC, pricing_option_values.id ASC")
		}).
		Where("establishment_id = ? AND is_active = ?", establishmentID, true).
		Order("display_order ASC, id ASC").
		Find(&options).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing options: %w", err)
	}

	if s.Cache != nil {
		s.Cache.SetOptions(ctx, establishmentID, options)
	}
	return options, nil
}

// ResolveSelections validates a set of selected value IDs against the active
// catalog and returns the resolved pairs. Cardinality per option type:
// select and radio take exactly one value (at most one when optional),
// checkbox takes any number but at least one when required. IDs that don't
// belong to any active option are rejected outright.
func ResolveSelections(options []models.PricingOption, selectedValueIDs []uint) ([]ResolvedSelection, error) {
	selErr := &SelectionError{}

	selected := make(map[uint]bool, len(selectedValueIDs))
	for _, id := range selectedValueIDs {
		selected[id] = true
	}

	resolved := make([]ResolvedSelection, 0, len(selectedValueIDs))
	known := make(map[uint]bool, len(selectedValueIDs))

	for _, opt := range options {
		var chosen []models.PricingOptionValue
		for _, v := range opt.Values {
			if selected[v.ID] {
				chosen = append(chosen, v)
				known[v.ID] = true
			}
		}

		switch opt.Type {
		case models.OptionTypeSelect, models.OptionTypeRadio:
			if len(chosen) > 1 {
				selErr.add("option %q takes a single value", opt.Name)
				continue
			}
			if len(chosen) == 0 && opt.IsRequired {
				selErr.add("option %q is required", opt.Name)
				continue
			}
		case models.OptionTypeCheckbox:
			if len(chosen) == 0 && opt.IsRequired {
				selErr.add("option %q requires at least one value", opt.Name)
				continue
			}
		default:
			selErr.add("option %q has unknown type %q", opt.Name, opt.Type)
			continue
		}

		for _, v := range chosen {
			resolved = append(resolved, ResolvedSelection{Option: opt, Value: v})
		}
	}

	for _, id := range selectedValueIDs {
		if !known[id] {
			selErr.add("value %d does not belong to any active option", id)
		}
	}

	if len(selErr.Problems) > 0 {
		return nil, selErr
	}
	return resolved, nil
}
