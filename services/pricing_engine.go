package services

import (
	"sort"
	"time"

	"github.com/Guillaumeperrottet/selfkey-sub000/models"
	"github.com/Guillaumeperrottet/selfkey-sub000/utils"
)

// TouristTaxConfig is the establishment's per-adult per-night levy.
type TouristTaxConfig struct {
	Enabled                 bool
	AmountPerPersonPerNight float64
}

// PlatformFeeConfig is the platform's cut: a percentage of the subtotal plus
// a fixed amount.
type PlatformFeeConfig struct {
	CommissionRate float64
	FixedFee       float64
}

// PriceBreakdown is the fully itemized result of pricing a stay. Downstream
// invoice generation reproduces every line, so nothing is collapsed into a
// bare total.
type PriceBreakdown struct {
	Nights      int     `json:"nights"`
	NightlyRate float64 `json:"nightlyRate"`
	BaseCost    float64 `json:"baseCost"`

	Options      []models.OptionSnapshot `json:"options"`
	OptionsTotal float64                 `json:"optionsTotal"`

	TouristTax float64 `json:"touristTax"`
	Subtotal   float64 `json:"subtotal"`

	PlatformFee float64 `json:"platformFee"`

	// GuestTotal adds the fee on top of the subtotal; EstablishmentNet
	// deducts it. The business has not decided which party actually bears
	// the fee, so both figures are computed and kept.
	GuestTotal       float64 `json:"guestTotal"`
	EstablishmentNet float64 `json:"establishmentNet"`
}

// PriceStay computes the full breakdown for a room, a half-open date range,
// the resolved option selections and the establishment's tax and fee
// configuration. Pure: identical inputs always produce an identical
// breakdown, regardless of selection order.
func PriceStay(
	room models.Room,
	checkIn, checkOut time.Time,
	adults int,
	selections []ResolvedSelection,
	tax TouristTaxConfig,
	fee PlatformFeeConfig,
) PriceBreakdown {
	nights := NightsBetween(checkIn, checkOut)

	b := PriceBreakdown{
		Nights:      nights,
		NightlyRate: room.Price,
		BaseCost:    utils.RoundMoney(room.Price * float64(nights)),
		Options:     make([]models.OptionSnapshot, 0, len(selections)),
	}

	// Fixed summation order keeps float math independent of input order.
	ordered := make([]ResolvedSelection, len(selections))
	copy(ordered, selections)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Option.ID != ordered[j].Option.ID {
			return ordered[i].Option.ID < ordered[j].Option.ID
		}
		return ordered[i].Value.ID < ordered[j].Value.ID
	})

	for _, sel := range ordered {
		line := sel.Value.PriceModifier
		if sel.Value.IsPerNight {
			line *= float64(nights)
		}
		line = utils.RoundMoney(line)
		b.OptionsTotal += line
		b.Options = append(b.Options, models.OptionSnapshot{
			OptionID:   sel.Option.ID,
			OptionName: sel.Option.Name,
			ValueID:    sel.Value.ID,
			ValueLabel: sel.Value.Label,
			UnitPrice:  sel.Value.PriceModifier,
			PerNight:   sel.Value.IsPerNight,
			LineTotal:  line,
		})
	}
	b.OptionsTotal = utils.RoundMoney(b.OptionsTotal)

	if tax.Enabled {
		b.TouristTax = utils.RoundMoney(float64(adults) * float64(nights) * tax.AmountPerPersonPerNight)
	}

	b.Subtotal = utils.RoundMoney(b.BaseCost + b.OptionsTotal + b.TouristTax)
	b.PlatformFee = utils.RoundMoney(b.Subtotal*fee.CommissionRate/100 + fee.FixedFee)
	b.GuestTotal = utils.RoundMoney(b.Subtotal + b.PlatformFee)
	b.EstablishmentNet = utils.RoundMoney(b.Subtotal - b.PlatformFee)

	return b
}

// TouristTaxFor extracts the tax configuration from an establishment record.
func TouristTaxFor(est models.Establishment) TouristTaxConfig {
	return TouristTaxConfig{
		Enabled:                 est.TouristTaxEnabled,
		AmountPerPersonPerNight: est.TouristTaxAmount,
	}
}

// PlatformFeeFor extracts the fee configuration from an establishment record.
func PlatformFeeFor(est models.Establishment) PlatformFeeConfig {
	return PlatformFeeConfig{
		CommissionRate: est.CommissionRate,
		FixedFee:       est.FixedFee,
	}
}
