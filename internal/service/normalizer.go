package service

import (
	"strings"

	"tripplanner/internal/model"

	"github.com/spf13/cast"
)

// Normalizer maps raw provider listing records into canonical entities.
// Providers scrape best-effort, so records routinely arrive with missing
// or oddly typed fields: anything unrecognized becomes nil ("unknown"),
// never a default number, and records without an identity are dropped
// silently rather than failing the batch.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeProperty converts one raw record into a PropertyResult.
// Returns false when the record lacks a name or platform.
func (n *Normalizer) NormalizeProperty(rec model.ListingRecord) (model.PropertyResult, bool) {
	name := firstString(rec.Fields, "name", "title", "listing_name")
	platform := rec.Platform
	if platform == "" {
		platform = cast.ToString(rec.Fields["platform"])
	}
	if name == nil || platform == "" {
		return model.PropertyResult{}, false
	}

	return model.PropertyResult{
		Platform:      platform,
		Name:          *name,
		PricePerNight: nonNegativeFloat(rec.Fields, "price_per_night", "nightly_price", "price"),
		TotalPrice:    nonNegativeFloat(rec.Fields, "total_price"),
		Rating:        nonNegativeFloat(rec.Fields, "rating", "review_score"),
		ReviewCount:   nonNegativeInt(rec.Fields, "review_count", "reviews"),
		PropertyType:  firstString(rec.Fields, "property_type", "type"),
		Location:      firstString(rec.Fields, "location", "address", "neighborhood"),
		Guests:        nonNegativeInt(rec.Fields, "guests", "capacity", "max_guests"),
		Bedrooms:      nonNegativeInt(rec.Fields, "bedrooms"),
		Amenities:     stringSlice(rec.Fields, "amenities"),
		URL:           firstString(rec.Fields, "url", "link"),
	}, true
}

// NormalizeFlight converts one raw record into a FlightResult.
// Returns false when the record lacks an airline.
func (n *Normalizer) NormalizeFlight(rec model.ListingRecord) (model.FlightResult, bool) {
	airline := firstString(rec.Fields, "airline", "carrier", "carrier_name")
	if airline == nil {
		return model.FlightResult{}, false
	}

	return model.FlightResult{
		Airline:          *airline,
		FlightNumber:     firstString(rec.Fields, "flight_number", "number"),
		DepartureAirport: firstString(rec.Fields, "departure_airport", "origin"),
		ArrivalAirport:   firstString(rec.Fields, "arrival_airport", "destination"),
		DepartureTime:    firstString(rec.Fields, "departure_time"),
		ArrivalTime:      firstString(rec.Fields, "arrival_time"),
		Duration:         firstString(rec.Fields, "duration"),
		Stops:            nonNegativeInt(rec.Fields, "stops"),
		CabinClass:       firstString(rec.Fields, "cabin_class", "class"),
		Price:            nonNegativeFloat(rec.Fields, "price", "total_price"),
	}, true
}

// NormalizeRestaurant converts one raw record into a RestaurantResult.
func (n *Normalizer) NormalizeRestaurant(rec model.ListingRecord) (model.RestaurantResult, bool) {
	name := firstString(rec.Fields, "name", "title")
	platform := rec.Platform
	if platform == "" {
		platform = cast.ToString(rec.Fields["platform"])
	}
	if name == nil || platform == "" {
		return model.RestaurantResult{}, false
	}

	return model.RestaurantResult{
		Platform:    platform,
		Name:        *name,
		Cuisine:     firstString(rec.Fields, "cuisine", "cuisine_type"),
		PriceLevel:  priceLevel(rec.Fields),
		Rating:      nonNegativeFloat(rec.Fields, "rating"),
		ReviewCount: nonNegativeInt(rec.Fields, "review_count", "user_ratings_total"),
		Address:     firstString(rec.Fields, "address", "formatted_address", "vicinity"),
		URL:         firstString(rec.Fields, "url", "website"),
	}, true
}

// NormalizeAttraction converts one raw record into an AttractionResult.
func (n *Normalizer) NormalizeAttraction(rec model.ListingRecord) (model.AttractionResult, bool) {
	name := firstString(rec.Fields, "name", "title")
	if name == nil {
		return model.AttractionResult{}, false
	}

	var platform *string
	if rec.Platform != "" {
		p := rec.Platform
		platform = &p
	}

	return model.AttractionResult{
		Platform:        platform,
		Name:            *name,
		Category:        firstString(rec.Fields, "category", "type"),
		PriceLevel:      priceLevel(rec.Fields),
		Rating:          nonNegativeFloat(rec.Fields, "rating"),
		ReviewCount:     nonNegativeInt(rec.Fields, "review_count", "user_ratings_total"),
		Address:         firstString(rec.Fields, "address", "formatted_address", "vicinity"),
		DurationMinutes: nonNegativeInt(rec.Fields, "duration_minutes", "visit_duration"),
	}, true
}

// NormalizeProperties maps a raw batch, dropping unusable records.
func (n *Normalizer) NormalizeProperties(recs []model.ListingRecord) []model.PropertyResult {
	out := make([]model.PropertyResult, 0, len(recs))
	for _, rec := range recs {
		if p, ok := n.NormalizeProperty(rec); ok {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeFlights maps a raw batch, dropping unusable records.
func (n *Normalizer) NormalizeFlights(recs []model.ListingRecord) []model.FlightResult {
	out := make([]model.FlightResult, 0, len(recs))
	for _, rec := range recs {
		if f, ok := n.NormalizeFlight(rec); ok {
			out = append(out, f)
		}
	}
	return out
}

// NormalizeRestaurants maps a raw batch, dropping unusable records.
func (n *Normalizer) NormalizeRestaurants(recs []model.ListingRecord) []model.RestaurantResult {
	out := make([]model.RestaurantResult, 0, len(recs))
	for _, rec := range recs {
		if r, ok := n.NormalizeRestaurant(rec); ok {
			out = append(out, r)
		}
	}
	return out
}

// NormalizeAttractions maps a raw batch, dropping unusable records.
func (n *Normalizer) NormalizeAttractions(recs []model.ListingRecord) []model.AttractionResult {
	out := make([]model.AttractionResult, 0, len(recs))
	for _, rec := range recs {
		if a, ok := n.NormalizeAttraction(rec); ok {
			out = append(out, a)
		}
	}
	return out
}

// firstString returns the first non-empty string value among the given
// keys, trimmed, or nil when none is present.
func firstString(fields map[string]any, keys ...string) *string {
	for _, key := range keys {
		raw, present := fields[key]
		if !present || raw == nil {
			continue
		}
		s := strings.TrimSpace(cast.ToString(raw))
		if s != "" {
			return &s
		}
	}
	return nil
}

// nonNegativeFloat coerces the first parseable value among the given
// keys. Unparseable or negative values count as unknown.
func nonNegativeFloat(fields map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		raw, present := fields[key]
		if !present || raw == nil {
			continue
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil || v < 0 {
			continue
		}
		return &v
	}
	return nil
}

// nonNegativeInt coerces the first parseable value among the given keys.
func nonNegativeInt(fields map[string]any, keys ...string) *int {
	for _, key := range keys {
		raw, present := fields[key]
		if !present || raw == nil {
			continue
		}
		v, err := cast.ToIntE(raw)
		if err != nil || v < 0 {
			continue
		}
		return &v
	}
	return nil
}

// priceLevel reads a 0–4 ordinal price level, rejecting out-of-range
// values rather than clamping them: a bad level is unknown, not free.
func priceLevel(fields map[string]any) *int {
	v := nonNegativeInt(fields, "price_level")
	if v == nil || *v > 4 {
		return nil
	}
	return v
}

// stringSlice coerces a field into a string slice, or nil.
func stringSlice(fields map[string]any, key string) model.JSONArray {
	raw, present := fields[key]
	if !present || raw == nil {
		return nil
	}
	values, err := cast.ToStringSliceE(raw)
	if err != nil || len(values) == 0 {
		return nil
	}
	return model.JSONArray(values)
}
