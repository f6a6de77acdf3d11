package service

import (
	"context"

	"tripplanner/internal/model"
)

// StaySearchQuery describes one accommodation search against a booking
// platform.
type StaySearchQuery struct {
	Location string
	CheckIn  string // "2006-01-02"
	CheckOut string
	Guests   int
}

// WebSearchProvider searches one booking platform for accommodation
// listings. Implementations return loose records; normalization and
// ranking happen downstream.
type WebSearchProvider interface {
	// Platform returns the canonical platform tag stamped on results,
	// e.g. "airbnb" or "booking".
	Platform() string

	// SearchProperties runs one search. A provider error fails only
	// its own result set, never the whole fan-out.
	SearchProperties(ctx context.Context, query StaySearchQuery) ([]model.ListingRecord, error)
}

// PlacesProvider searches for restaurants and attractions around a
// destination.
type PlacesProvider interface {
	SearchRestaurants(ctx context.Context, location string, limit int) ([]model.ListingRecord, error)
	SearchAttractions(ctx context.Context, location string, limit int) ([]model.ListingRecord, error)
}

// FlightsProvider searches flight offers between two airports.
type FlightsProvider interface {
	SearchFlights(ctx context.Context, origin, destination, departDate string, adults int) ([]model.ListingRecord, error)
}
