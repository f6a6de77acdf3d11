package model

import (
	"database/sql/driver"
	"encoding/json"
)

// ListingRecord is a raw result record as delivered by a search provider:
// a loose key/value map tagged with the platform it came from. Records are
// transient input to normalization and never flow past it.
type ListingRecord struct {
	Platform string         `json:"platform"`
	Fields   map[string]any `json:"fields"`
}

// PropertyResult is a normalized accommodation listing.
// Optional fields are nil when the source did not provide them; a nil
// price or rating means "unknown", never zero, so downstream ranking is
// not biased by fabricated values.
type PropertyResult struct {
	Platform      string    `json:"platform"`
	Name          string    `json:"name"`
	PricePerNight *float64  `json:"price_per_night,omitempty"`
	TotalPrice    *float64  `json:"total_price,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	ReviewCount   *int      `json:"review_count,omitempty"`
	PropertyType  *string   `json:"property_type,omitempty"`
	Location      *string   `json:"location,omitempty"`
	Guests        *int      `json:"guests,omitempty"`
	Bedrooms      *int      `json:"bedrooms,omitempty"`
	Amenities     JSONArray `json:"amenities,omitempty"`
	URL           *string   `json:"url,omitempty"`
}

// FlightResult is a normalized flight offer.
type FlightResult struct {
	Airline          string   `json:"airline"`
	FlightNumber     *string  `json:"flight_number,omitempty"`
	DepartureAirport *string  `json:"departure_airport,omitempty"`
	ArrivalAirport   *string  `json:"arrival_airport,omitempty"`
	DepartureTime    *string  `json:"departure_time,omitempty"`
	ArrivalTime      *string  `json:"arrival_time,omitempty"`
	Duration         *string  `json:"duration,omitempty"`
	Stops            *int     `json:"stops,omitempty"`
	CabinClass       *string  `json:"cabin_class,omitempty"`
	Price            *float64 `json:"price,omitempty"`
}

// RestaurantResult is a normalized restaurant record.
type RestaurantResult struct {
	Platform    string   `json:"platform"`
	Name        string   `json:"name"`
	Cuisine     *string  `json:"cuisine,omitempty"`
	PriceLevel  *int     `json:"price_level,omitempty"` // 0–4 ordinal, provider convention
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Address     *string  `json:"address,omitempty"`
	URL         *string  `json:"url,omitempty"`
}

// AttractionResult is a normalized attraction / point of interest.
type AttractionResult struct {
	Platform        *string  `json:"platform,omitempty"`
	Name            string   `json:"name"`
	Category        *string  `json:"category,omitempty"`
	PriceLevel      *int     `json:"price_level,omitempty"` // 0–4 ordinal
	Rating          *float64 `json:"rating,omitempty"`
	ReviewCount     *int     `json:"review_count,omitempty"`
	Address         *string  `json:"address,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
}

// Rankable is what the combiner needs from an entity: its price and
// rating, each possibly unknown. All four canonical entity types
// implement it.
type Rankable interface {
	PriceValue() *float64
	RatingValue() *float64
}

// PriceValue returns the nightly price, or nil when unknown.
func (p PropertyResult) PriceValue() *float64 { return p.PricePerNight }

// RatingValue returns the guest rating, or nil when unknown.
func (p PropertyResult) RatingValue() *float64 { return p.Rating }

func (f FlightResult) PriceValue() *float64 { return f.Price }

// RatingValue is always nil: flight offers carry no rating, so value
// ranking degrades to price ordering for flights.
func (f FlightResult) RatingValue() *float64 { return nil }

func (r RestaurantResult) PriceValue() *float64 {
	return priceLevelValue(r.PriceLevel)
}

func (r RestaurantResult) RatingValue() *float64 { return r.Rating }

func (a AttractionResult) PriceValue() *float64 {
	return priceLevelValue(a.PriceLevel)
}

func (a AttractionResult) RatingValue() *float64 { return a.Rating }

// priceLevelValue maps an ordinal price level to a comparable price
// stand-in. Level 0 (free) maps to a small positive value so a free,
// highly rated entity still earns a finite value score.
func priceLevelValue(level *int) *float64 {
	if level == nil {
		return nil
	}
	v := float64(*level) * 25
	if v == 0 {
		v = 1
	}
	return &v
}

// JSONArray stores a string slice as a JSONB column.
type JSONArray []string

// Value implements driver.Valuer.
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}

// JSONMap stores an object as a JSONB column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
