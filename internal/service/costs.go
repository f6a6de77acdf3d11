package service

import (
	"tripplanner/internal/config"
	"tripplanner/internal/model"
)

// Meal slot kinds priced by the estimator.
const (
	MealLunch         = "lunch"
	MealDinner        = "dinner"
	MealFarewellLunch = "farewell_lunch"
)

// CostEstimator derives per-activity and trip-level cost figures from
// configured nominal estimates. All methods are pure lookups.
type CostEstimator struct {
	cfg config.CostConfig
}

// NewCostEstimator creates a CostEstimator with the given cost table.
func NewCostEstimator(cfg config.CostConfig) *CostEstimator {
	return &CostEstimator{cfg: cfg}
}

// AttractionCost maps an ordinal price level (0–4) to a cost estimate.
// An unknown or out-of-range level yields the configured mid estimate.
func (e *CostEstimator) AttractionCost(level *int) float64 {
	if level == nil || *level < 0 || *level >= len(e.cfg.AttractionLevels) {
		return e.cfg.DefaultAttraction
	}
	return e.cfg.AttractionLevels[*level]
}

// MealCost returns the per-person estimate for a meal slot kind.
func (e *CostEstimator) MealCost(kind string) float64 {
	switch kind {
	case MealDinner:
		return e.cfg.DinnerCost
	case MealFarewellLunch:
		return e.cfg.FarewellLunchCost
	default:
		return e.cfg.LunchCost
	}
}

// AccommodationTotal prices a stay: nightly rate times nights when the
// rate is known, otherwise the configured flat nightly estimate. Nights,
// not days: a 5-day trip pays for 4 nights.
func (e *CostEstimator) AccommodationTotal(nightlyRate *float64, nights int) float64 {
	if nights <= 0 {
		return 0
	}
	rate := e.cfg.DefaultNightlyRate
	if nightlyRate != nil {
		rate = *nightlyRate
	}
	return rate * float64(nights)
}

// GroundTransportCost returns the nominal estimate for one synthetic
// ground-transportation slot.
func (e *CostEstimator) GroundTransportCost() float64 {
	return e.cfg.GroundTransport
}

// FlightCost resolves a flight activity's cost: the offer's price when
// known, else zero (flights are never guessed).
func (e *CostEstimator) FlightCost(f *model.FlightResult) float64 {
	if f != nil && f.Price != nil {
		return *f.Price
	}
	return 0
}
