package service

import (
	"fmt"
	"time"

	"tripplanner/internal/model"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Planner synthesizes a day-by-day TravelItinerary from trip bounds and
// component pools. The algorithm is deterministic and rule-based: fixed
// slot templates per day kind (arrival, exploration, departure), pool
// selection by clamped index, configured nominal costs for synthetic
// slots.
type Planner struct {
	costs       *CostEstimator
	maxPoolSize int
}

// NewPlanner creates a Planner using the given cost estimator. Each
// component pool is capped to maxPoolSize entries before scheduling;
// zero or negative disables the cap.
func NewPlanner(costs *CostEstimator, maxPoolSize int) *Planner {
	return &Planner{costs: costs, maxPoolSize: maxPoolSize}
}

// capPool truncates a component pool to the planner's size cap.
func capPool[T any](pool []T, max int) []T {
	if max > 0 && len(pool) > max {
		return pool[:max]
	}
	return pool
}

// Plan builds the itinerary. Invalid input produces a tagged failure
// result; Plan never returns a Go error and never panics on short or
// empty pools.
func (p *Planner) Plan(req model.PlanRequest) model.ItineraryResult {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return model.PlanFailure(model.ErrInvalidDate, fmt.Sprintf("invalid start_date %q: expected YYYY-MM-DD", req.StartDate))
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return model.PlanFailure(model.ErrInvalidDate, fmt.Sprintf("invalid end_date %q: expected YYYY-MM-DD", req.EndDate))
	}

	totalDays := int(end.Sub(start).Hours()/24) + 1
	if totalDays < 1 {
		return model.PlanFailure(model.ErrInvalidDateRange,
			fmt.Sprintf("end_date %s is before start_date %s", req.EndDate, req.StartDate))
	}

	travelers := req.Travelers
	if travelers <= 0 {
		travelers = 1
	}

	c := req.Components
	c.Flights = capPool(c.Flights, p.maxPoolSize)
	c.Accommodations = capPool(c.Accommodations, p.maxPoolSize)
	c.Restaurants = capPool(c.Restaurants, p.maxPoolSize)
	c.Attractions = capPool(c.Attractions, p.maxPoolSize)

	days := make([]model.DailyItinerary, 0, totalDays)
	for d := 1; d <= totalDays; d++ {
		date := start.AddDate(0, 0, d-1)
		day := model.DailyItinerary{
			DayNumber: d,
			Date:      date.Format(dateLayout),
			Location:  req.Destination,
		}

		switch {
		case totalDays == 1:
			// A single-day trip is arrival and departure at once:
			// both templates collapse into one day without booking
			// the same flight or stay twice.
			day.Activities = p.singleDayActivities(c)
		case d == 1:
			day.Activities = p.arrivalActivities(c)
		case d == totalDays:
			day.Activities = p.departureActivities(c)
		default:
			day.Activities = p.explorationActivities(c, d)
		}

		for _, a := range day.Activities {
			if a.EstimatedCost != nil {
				day.EstimatedCost += *a.EstimatedCost
			}
		}
		days = append(days, day)
	}

	// Lodging is priced per night, separately from the per-day slots:
	// a check-in activity carries no cost of its own.
	nights := totalDays - 1
	var nightlyRate *float64
	if len(c.Accommodations) > 0 {
		nightlyRate = c.Accommodations[0].PricePerNight
	}
	lodging := p.costs.AccommodationTotal(nightlyRate, nights)

	total := lodging
	for _, day := range days {
		total += day.EstimatedCost
	}

	itinerary := &model.TravelItinerary{
		ID:                 uuid.NewString(),
		Title:              fmt.Sprintf("%d-Day Trip to %s", totalDays, req.Destination),
		Destination:        req.Destination,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Travelers:          travelers,
		TotalDays:          totalDays,
		Days:               days,
		TotalEstimatedCost: total,
		PackingList:        packingList(end.Month()),
		Tips:               travelTips(c),
		CreatedAt:          time.Now(),
	}

	return model.ItineraryResult{Success: true, Itinerary: itinerary}
}

// arrivalActivities fills day 1: arrival flight, transport in, check-in,
// lunch, free time, dinner.
func (p *Planner) arrivalActivities(c model.TripComponents) []model.ItineraryActivity {
	acts := make([]model.ItineraryActivity, 0, 6)

	if f := flightAt(c.Flights, 0); f != nil {
		acts = append(acts, p.flightActivity(*f, "10:00", "Arrival flight"))
	}
	acts = append(acts, p.transportActivity("12:00", "Transport to accommodation"))
	if len(c.Accommodations) > 0 {
		acts = append(acts, checkInActivity(c.Accommodations[0], "13:00"))
	}
	if r := restaurantAt(c.Restaurants, 0); r != nil {
		acts = append(acts, p.mealActivity(*r, "13:30", MealLunch, "Lunch"))
	}
	acts = append(acts, freeTimeActivity("15:00", "Rest and explore the neighborhood"))
	if r := restaurantAt(c.Restaurants, 1); r != nil {
		acts = append(acts, p.mealActivity(*r, "19:00", MealDinner, "Dinner"))
	}

	return acts
}

// departureActivities fills the last day: check-out, a final attraction,
// farewell lunch, transport out, return flight.
func (p *Planner) departureActivities(c model.TripComponents) []model.ItineraryActivity {
	acts := make([]model.ItineraryActivity, 0, 5)

	if len(c.Accommodations) > 0 {
		acts = append(acts, checkOutActivity(c.Accommodations[0], "10:00"))
	}
	if a := attractionAt(c.Attractions, len(c.Attractions)-1); a != nil {
		acts = append(acts, p.attractionActivity(*a, "10:30", "Final visit"))
	}
	if r := restaurantAt(c.Restaurants, len(c.Restaurants)-1); r != nil {
		acts = append(acts, p.mealActivity(*r, "12:30", MealFarewellLunch, "Farewell lunch"))
	}
	acts = append(acts, p.transportActivity("14:30", "Transport to airport"))
	if f := flightAt(c.Flights, 1); f != nil {
		acts = append(acts, p.flightActivity(*f, "17:00", "Departure flight"))
	}

	return acts
}

// explorationActivities fills a middle day: morning attraction, lunch,
// afternoon attraction, free time, dinner. Pool indexes advance with the
// day number and clamp to pool bounds, so short pools repeat their last
// entry instead of erroring.
func (p *Planner) explorationActivities(c model.TripComponents, dayNumber int) []model.ItineraryActivity {
	acts := make([]model.ItineraryActivity, 0, 5)

	attractionBase := dayNumber - 2
	restaurantBase := (dayNumber - 1) * 2

	if a := attractionAt(c.Attractions, attractionBase); a != nil {
		acts = append(acts, p.attractionActivity(*a, "09:30", "Morning visit"))
	}
	if r := restaurantAt(c.Restaurants, restaurantBase); r != nil {
		acts = append(acts, p.mealActivity(*r, "12:30", MealLunch, "Lunch"))
	}
	if a := attractionAt(c.Attractions, attractionBase+1); a != nil {
		acts = append(acts, p.attractionActivity(*a, "14:30", "Afternoon visit"))
	}
	acts = append(acts, freeTimeActivity("17:00", "Free time"))
	if r := restaurantAt(c.Restaurants, restaurantBase+1); r != nil {
		acts = append(acts, p.mealActivity(*r, "19:30", MealDinner, "Dinner"))
	}

	return acts
}

// singleDayActivities merges arrival and departure for a one-day trip.
// The accommodation and each flight leg appear exactly once.
func (p *Planner) singleDayActivities(c model.TripComponents) []model.ItineraryActivity {
	acts := make([]model.ItineraryActivity, 0, 7)

	if f := flightAt(c.Flights, 0); f != nil {
		acts = append(acts, p.flightActivity(*f, "09:00", "Arrival flight"))
	}
	acts = append(acts, p.transportActivity("11:00", "Transport from airport"))
	if len(c.Accommodations) > 0 {
		acts = append(acts, checkInActivity(c.Accommodations[0], "12:00"))
	}
	if r := restaurantAt(c.Restaurants, 0); r != nil {
		acts = append(acts, p.mealActivity(*r, "12:30", MealLunch, "Lunch"))
	}
	if a := attractionAt(c.Attractions, 0); a != nil {
		acts = append(acts, p.attractionActivity(*a, "14:00", "Visit"))
	}
	acts = append(acts, p.transportActivity("16:30", "Transport to airport"))
	if f := flightAt(c.Flights, 1); f != nil {
		acts = append(acts, p.flightActivity(*f, "19:00", "Departure flight"))
	}

	return acts
}

// clampIndex confines idx to [0, size-1]. Restaurant and attraction
// selection goes through here so short pools repeat their last entry
// instead of erroring. Returns -1 when the pool is empty.
func clampIndex(idx, size int) int {
	if size <= 0 {
		return -1
	}
	if idx < 0 {
		return 0
	}
	if idx >= size {
		return size - 1
	}
	return idx
}

// flightAt uses the exact leg index. Flight pools are positional
// (outbound first, return second), so a missing leg skips its slot
// rather than repeating the other leg.
func flightAt(pool []model.FlightResult, idx int) *model.FlightResult {
	if idx < 0 || idx >= len(pool) {
		return nil
	}
	return &pool[idx]
}

func restaurantAt(pool []model.RestaurantResult, idx int) *model.RestaurantResult {
	i := clampIndex(idx, len(pool))
	if i < 0 {
		return nil
	}
	return &pool[i]
}

func attractionAt(pool []model.AttractionResult, idx int) *model.AttractionResult {
	i := clampIndex(idx, len(pool))
	if i < 0 {
		return nil
	}
	return &pool[i]
}

func (p *Planner) flightActivity(f model.FlightResult, startTime, title string) model.ItineraryActivity {
	cost := p.costs.FlightCost(&f)
	flight := f
	act := model.ItineraryActivity{
		StartTime: startTime,
		Type:      model.ActivityFlight,
		Title:     fmt.Sprintf("%s: %s", title, f.Airline),
		Flight:    &flight,
	}
	if f.DepartureTime != nil {
		act.StartTime = *f.DepartureTime
	}
	if f.ArrivalTime != nil {
		act.EndTime = f.ArrivalTime
	}
	if cost > 0 {
		act.EstimatedCost = &cost
	}
	return act
}

func (p *Planner) transportActivity(startTime, title string) model.ItineraryActivity {
	cost := p.costs.GroundTransportCost()
	duration := 60
	return model.ItineraryActivity{
		StartTime:       startTime,
		DurationMinutes: &duration,
		Type:            model.ActivityTransportation,
		Title:           title,
		EstimatedCost:   &cost,
	}
}

func (p *Planner) mealActivity(r model.RestaurantResult, startTime, mealKind, title string) model.ItineraryActivity {
	cost := p.costs.MealCost(mealKind)
	duration := 90
	restaurant := r
	return model.ItineraryActivity{
		StartTime:       startTime,
		DurationMinutes: &duration,
		Type:            model.ActivityRestaurant,
		Title:           fmt.Sprintf("%s at %s", title, r.Name),
		Restaurant:      &restaurant,
		EstimatedCost:   &cost,
	}
}

func (p *Planner) attractionActivity(a model.AttractionResult, startTime, title string) model.ItineraryActivity {
	cost := p.costs.AttractionCost(a.PriceLevel)
	duration := 120
	if a.DurationMinutes != nil {
		duration = *a.DurationMinutes
	}
	attraction := a
	return model.ItineraryActivity{
		StartTime:       startTime,
		DurationMinutes: &duration,
		Type:            model.ActivityAttraction,
		Title:           fmt.Sprintf("%s: %s", title, a.Name),
		Attraction:      &attraction,
		EstimatedCost:   &cost,
	}
}

// checkInActivity carries the stay entity but no cost: lodging is
// rolled up once per trip from the nightly rate.
func checkInActivity(prop model.PropertyResult, startTime string) model.ItineraryActivity {
	property := prop
	return model.ItineraryActivity{
		StartTime: startTime,
		Type:      model.ActivityAccommodation,
		Title:     fmt.Sprintf("Check in to %s", prop.Name),
		Property:  &property,
	}
}

func checkOutActivity(prop model.PropertyResult, startTime string) model.ItineraryActivity {
	property := prop
	return model.ItineraryActivity{
		StartTime: startTime,
		Type:      model.ActivityAccommodation,
		Title:     fmt.Sprintf("Check out of %s", prop.Name),
		Property:  &property,
	}
}

func freeTimeActivity(startTime, title string) model.ItineraryActivity {
	duration := 120
	return model.ItineraryActivity{
		StartTime:       startTime,
		DurationMinutes: &duration,
		Type:            model.ActivityGeneral,
		Title:           title,
	}
}

// packingList suggests items keyed on the season the trip ends in
// (northern-hemisphere convention).
func packingList(month time.Month) []string {
	base := []string{
		"Passport and travel documents",
		"Phone charger and adapter",
		"Comfortable walking shoes",
		"Medications",
	}
	switch month {
	case time.December, time.January, time.February:
		return append(base, "Warm coat", "Gloves and hat", "Thermal layers")
	case time.June, time.July, time.August:
		return append(base, "Sunscreen", "Sunglasses", "Light clothing", "Reusable water bottle")
	case time.March, time.April, time.May:
		return append(base, "Light jacket", "Umbrella")
	default:
		return append(base, "Layered clothing", "Rain jacket")
	}
}

// travelTips returns generic advice conditioned on which pools were
// available to the plan.
func travelTips(c model.TripComponents) []string {
	tips := []string{
		"Keep digital copies of reservations and documents",
		"Check local public transport passes for multi-day savings",
	}
	if len(c.Flights) > 0 {
		tips = append(tips, "Check in online 24 hours before each flight")
	}
	if len(c.Accommodations) > 0 {
		tips = append(tips, "Confirm check-in time with your accommodation ahead of arrival")
	}
	if len(c.Restaurants) > 0 {
		tips = append(tips, "Book popular restaurants a few days in advance")
	}
	if len(c.Attractions) > 0 {
		tips = append(tips, "Buy attraction tickets online to skip ticket lines")
	}
	return tips
}
