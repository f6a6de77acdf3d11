package model

import "time"

// Activity type tags. One ItineraryActivity carries exactly one tag.
const (
	ActivityFlight         = "flight"
	ActivityAccommodation  = "accommodation"
	ActivityRestaurant     = "restaurant"
	ActivityAttraction     = "attraction"
	ActivityTransportation = "transportation"
	ActivityGeneral        = "general"
)

// ItineraryActivity is one scheduled slot within a day. It references at
// most one canonical entity; synthetic slots (ground transport, free
// time) reference none and carry a nominal cost estimate instead. This is
// a tagged union: Type says which of the entity pointers may be set.
type ItineraryActivity struct {
	StartTime       string   `json:"start_time"` // "15:04" clock time
	EndTime         *string  `json:"end_time,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Description     *string  `json:"description,omitempty"`
	EstimatedCost   *float64 `json:"estimated_cost,omitempty"`

	Flight     *FlightResult     `json:"flight,omitempty"`
	Property   *PropertyResult   `json:"property,omitempty"`
	Restaurant *RestaurantResult `json:"restaurant,omitempty"`
	Attraction *AttractionResult `json:"attraction,omitempty"`
}

// DailyItinerary is one calendar day. DayNumber is 1-based and strictly
// sequential across a trip; Activities are chronological and
// non-overlapping within the day.
type DailyItinerary struct {
	DayNumber     int                 `json:"day_number"`
	Date          string              `json:"date"` // "2006-01-02"
	Location      string              `json:"location"`
	Activities    []ItineraryActivity `json:"activities"`
	EstimatedCost float64             `json:"estimated_cost"`
}

// TravelItinerary is the root aggregate a planning request produces.
// It is constructed once and never mutated afterwards.
type TravelItinerary struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Destination        string           `json:"destination"`
	StartDate          string           `json:"start_date"`
	EndDate            string           `json:"end_date"`
	Travelers          int              `json:"travelers"`
	TotalDays          int              `json:"total_days"`
	Days               []DailyItinerary `json:"days"`
	TotalEstimatedCost float64          `json:"total_estimated_cost"`
	PackingList        []string         `json:"packing_list,omitempty"`
	Tips               []string         `json:"tips,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// TripComponents holds the ordered entity pools the planner draws from.
// Pools are consumed read-only; any of them may be empty.
type TripComponents struct {
	Flights        []FlightResult     `json:"flights,omitempty"`
	Accommodations []PropertyResult   `json:"accommodations,omitempty"`
	Restaurants    []RestaurantResult `json:"restaurants,omitempty"`
	Attractions    []AttractionResult `json:"attractions,omitempty"`
}

// PlanRequest is the itinerary-generation input.
type PlanRequest struct {
	Destination string         `json:"destination" binding:"required"`
	StartDate   string         `json:"start_date" binding:"required"` // "2006-01-02"
	EndDate     string         `json:"end_date" binding:"required"`
	Travelers   int            `json:"travelers,omitempty"`
	Components  TripComponents `json:"components"`
}

// Planner failure tags.
const (
	ErrInvalidDateRange = "invalid_date_range"
	ErrInvalidDate      = "invalid_date"
)

// ItineraryResult is the planner's result-or-failure return. A failed
// planning call is data, not a Go error: the orchestration layer turns
// it into a conversational explanation rather than a crash.
type ItineraryResult struct {
	Success   bool             `json:"success"`
	ErrorKind *string          `json:"error_kind,omitempty"`
	Error     *string          `json:"error,omitempty"`
	Itinerary *TravelItinerary `json:"itinerary,omitempty"`
}

// PlanFailure builds a tagged failure result.
func PlanFailure(kind, message string) ItineraryResult {
	return ItineraryResult{Success: false, ErrorKind: &kind, Error: &message}
}
