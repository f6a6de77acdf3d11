package service

import (
	"strings"
	"testing"

	"tripplanner/internal/config"
	"tripplanner/internal/model"
)

func testCostConfig() config.CostConfig {
	return config.CostConfig{
		GroundTransport:    45,
		LunchCost:          35,
		DinnerCost:         60,
		FarewellLunchCost:  40,
		DefaultNightlyRate: 120,
		AttractionLevels:   [5]float64{0, 10, 20, 35, 50},
		DefaultAttraction:  15,
	}
}

func testPlanner() *Planner {
	return NewPlanner(NewCostEstimator(testCostConfig()), 10)
}

func fullComponents() model.TripComponents {
	return model.TripComponents{
		Flights: []model.FlightResult{
			{Airline: "Outbound Air", Price: float64Ptr(320)},
			{Airline: "Return Air", Price: float64Ptr(340)},
		},
		Accommodations: []model.PropertyResult{
			property("airbnb", "Canal House", float64Ptr(100), float64Ptr(4.8)),
		},
		Restaurants: []model.RestaurantResult{
			{Platform: "google_places", Name: "R1", PriceLevel: intPtr(2)},
			{Platform: "google_places", Name: "R2", PriceLevel: intPtr(3)},
			{Platform: "google_places", Name: "R3", PriceLevel: intPtr(1)},
			{Platform: "google_places", Name: "R4", PriceLevel: intPtr(2)},
		},
		Attractions: []model.AttractionResult{
			{Name: "Museum", PriceLevel: intPtr(2)},
			{Name: "Park", PriceLevel: intPtr(0)},
		},
	}
}

func TestPlanDayCountAndNumbering(t *testing.T) {
	result := testPlanner().Plan(model.PlanRequest{
		Destination: "Amsterdam",
		StartDate:   "2026-09-10",
		EndDate:     "2026-09-12",
		Travelers:   2,
		Components:  fullComponents(),
	})

	if !result.Success {
		t.Fatalf("Expected success, got error: %v", result.Error)
	}
	it := result.Itinerary
	if it.TotalDays != 3 {
		t.Fatalf("Expected 3 days, got %d", it.TotalDays)
	}
	wantDates := []string{"2026-09-10", "2026-09-11", "2026-09-12"}
	for i, day := range it.Days {
		if day.DayNumber != i+1 {
			t.Errorf("Day %d: expected number %d, got %d", i, i+1, day.DayNumber)
		}
		if day.Date != wantDates[i] {
			t.Errorf("Day %d: expected date %s, got %s", i, wantDates[i], day.Date)
		}
		if day.Location != "Amsterdam" {
			t.Errorf("Day %d: expected location Amsterdam, got %s", i, day.Location)
		}
	}
}

func TestPlanInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		wantKind string
	}{
		{"end before start", "2026-09-12", "2026-09-10", model.ErrInvalidDateRange},
		{"malformed start", "12/09/2026", "2026-09-14", model.ErrInvalidDate},
		{"malformed end", "2026-09-12", "next friday", model.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := testPlanner().Plan(model.PlanRequest{
				Destination: "Lisbon",
				StartDate:   tt.start,
				EndDate:     tt.end,
			})
			if result.Success {
				t.Fatal("Expected failure")
			}
			if result.ErrorKind == nil || *result.ErrorKind != tt.wantKind {
				t.Errorf("Expected error kind %s, got %v", tt.wantKind, result.ErrorKind)
			}
			if result.Itinerary != nil {
				t.Error("Failed plan must not carry an itinerary")
			}
		})
	}
}

func TestPlanSingleDayMerge(t *testing.T) {
	result := testPlanner().Plan(model.PlanRequest{
		Destination: "Oslo",
		StartDate:   "2026-09-10",
		EndDate:     "2026-09-10",
		Components:  fullComponents(),
	})

	if !result.Success {
		t.Fatalf("Expected success, got error: %v", result.Error)
	}
	it := result.Itinerary
	if it.TotalDays != 1 || len(it.Days) != 1 {
		t.Fatalf("Expected exactly one day, got %d", len(it.Days))
	}

	flights := 0
	checkIns := 0
	checkOuts := 0
	for _, act := range it.Days[0].Activities {
		switch act.Type {
		case model.ActivityFlight:
			flights++
		case model.ActivityAccommodation:
			if strings.HasPrefix(act.Title, "Check in") {
				checkIns++
			} else {
				checkOuts++
			}
		}
	}
	if flights != 2 {
		t.Errorf("Expected both flight legs exactly once, got %d flight activities", flights)
	}
	if checkIns != 1 || checkOuts != 0 {
		t.Errorf("Expected one check-in and no check-out, got %d/%d", checkIns, checkOuts)
	}

	// No nights stayed, so lodging contributes nothing
	var activityTotal float64
	for _, act := range it.Days[0].Activities {
		if act.EstimatedCost != nil {
			activityTotal += *act.EstimatedCost
		}
	}
	if it.TotalEstimatedCost != activityTotal {
		t.Errorf("Single-day trip must carry no lodging cost: total %v, activities %v",
			it.TotalEstimatedCost, activityTotal)
	}
}

func TestPlanAccommodationNights(t *testing.T) {
	// Five days, four nights at $100: lodging contributes exactly $400.
	// With only an accommodation pool, the remaining costs are the two
	// ground-transport slots.
	planner := testPlanner()
	result := planner.Plan(model.PlanRequest{
		Destination: "Kyoto",
		StartDate:   "2026-04-01",
		EndDate:     "2026-04-05",
		Components: model.TripComponents{
			Accommodations: []model.PropertyResult{
				property("booking", "Ryokan", float64Ptr(100), float64Ptr(4.9)),
			},
		},
	})

	if !result.Success {
		t.Fatalf("Expected success, got error: %v", result.Error)
	}
	want := 400.0 + 2*45.0
	if result.Itinerary.TotalEstimatedCost != want {
		t.Errorf("Expected total cost %v, got %v", want, result.Itinerary.TotalEstimatedCost)
	}
}

func TestPlanAttractionClamping(t *testing.T) {
	// Five-day trip with two attractions: exploration days past the
	// pool reuse the last attraction instead of failing.
	result := testPlanner().Plan(model.PlanRequest{
		Destination: "Rome",
		StartDate:   "2026-06-01",
		EndDate:     "2026-06-05",
		Components:  fullComponents(),
	})

	if !result.Success {
		t.Fatalf("Expected success, got error: %v", result.Error)
	}

	for _, day := range result.Itinerary.Days[1:4] { // exploration days 2-4
		count := 0
		for _, act := range day.Activities {
			if act.Type == model.ActivityAttraction {
				if act.Attraction == nil {
					t.Fatalf("Day %d: attraction activity without entity", day.DayNumber)
				}
				count++
			}
		}
		if count != 2 {
			t.Errorf("Day %d: expected 2 attraction slots, got %d", day.DayNumber, count)
		}
	}

	// Day 4 is past both pool indexes; both slots clamp to the last
	// attraction.
	day4 := result.Itinerary.Days[3]
	for _, act := range day4.Activities {
		if act.Type == model.ActivityAttraction && act.Attraction.Name != "Park" {
			t.Errorf("Day 4: expected clamped attraction Park, got %s", act.Attraction.Name)
		}
	}
}

func TestPlanEmptyPools(t *testing.T) {
	result := testPlanner().Plan(model.PlanRequest{
		Destination: "Reykjavik",
		StartDate:   "2026-01-10",
		EndDate:     "2026-01-12",
	})

	if !result.Success {
		t.Fatalf("Expected success with empty pools, got error: %v", result.Error)
	}
	it := result.Itinerary
	if len(it.Days) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(it.Days))
	}
	for _, day := range it.Days {
		if len(day.Activities) == 0 {
			t.Errorf("Day %d: expected skeleton activities even with empty pools", day.DayNumber)
		}
		for _, act := range day.Activities {
			if act.Flight != nil || act.Property != nil || act.Restaurant != nil || act.Attraction != nil {
				t.Errorf("Day %d: unexpected entity reference with empty pools", day.DayNumber)
			}
		}
	}
	// Unknown nightly rate falls back to the configured default
	want := 2 * 120.0
	lodgingPlusTransport := want + 2*45.0
	if it.TotalEstimatedCost != lodgingPlusTransport {
		t.Errorf("Expected total cost %v, got %v", lodgingPlusTransport, it.TotalEstimatedCost)
	}
}

func TestPlanSeasonalPackingList(t *testing.T) {
	winter := testPlanner().Plan(model.PlanRequest{
		Destination: "Tromso",
		StartDate:   "2026-01-05",
		EndDate:     "2026-01-08",
	})
	summer := testPlanner().Plan(model.PlanRequest{
		Destination: "Athens",
		StartDate:   "2026-07-05",
		EndDate:     "2026-07-08",
	})

	if !contains(winter.Itinerary.PackingList, "Warm coat") {
		t.Error("Winter trip should pack a warm coat")
	}
	if !contains(summer.Itinerary.PackingList, "Sunscreen") {
		t.Error("Summer trip should pack sunscreen")
	}
}

func TestPlanTipsFollowPools(t *testing.T) {
	withFlights := testPlanner().Plan(model.PlanRequest{
		Destination: "Porto",
		StartDate:   "2026-05-01",
		EndDate:     "2026-05-03",
		Components:  fullComponents(),
	})
	without := testPlanner().Plan(model.PlanRequest{
		Destination: "Porto",
		StartDate:   "2026-05-01",
		EndDate:     "2026-05-03",
	})

	flightTip := "Check in online 24 hours before each flight"
	if !contains(withFlights.Itinerary.Tips, flightTip) {
		t.Error("Expected flight tip when flights are planned")
	}
	if contains(without.Itinerary.Tips, flightTip) {
		t.Error("Did not expect flight tip without flights")
	}
}

func TestPlanPoolSizeCap(t *testing.T) {
	req := model.PlanRequest{
		Destination: "Lisbon",
		StartDate:   "2026-09-10",
		EndDate:     "2026-09-12",
		Components:  fullComponents(),
	}

	farewellRestaurant := func(p *Planner) string {
		result := p.Plan(req)
		if !result.Success {
			t.Fatalf("Expected success, got error: %v", result.Error)
		}
		days := result.Itinerary.Days
		for _, act := range days[len(days)-1].Activities {
			if act.Restaurant != nil && strings.HasPrefix(act.Title, "Farewell") {
				return act.Restaurant.Name
			}
		}
		t.Fatal("Expected a farewell lunch on the last day")
		return ""
	}

	capped := NewPlanner(NewCostEstimator(testCostConfig()), 2)
	if got := farewellRestaurant(capped); got != "R2" {
		t.Errorf("Capped pool must end at R2, got %q", got)
	}

	uncapped := NewPlanner(NewCostEstimator(testCostConfig()), 0)
	if got := farewellRestaurant(uncapped); got != "R4" {
		t.Errorf("Uncapped pool must end at R4, got %q", got)
	}
}

func TestPlanSingleFlightNotRepeated(t *testing.T) {
	oneFlight := model.TripComponents{
		Flights: []model.FlightResult{{Airline: "One Way Air", Price: float64Ptr(300)}},
	}

	t.Run("single day", func(t *testing.T) {
		result := testPlanner().Plan(model.PlanRequest{
			Destination: "Oslo",
			StartDate:   "2026-09-10",
			EndDate:     "2026-09-10",
			Components:  oneFlight,
		})
		if !result.Success {
			t.Fatalf("Expected success, got error: %v", result.Error)
		}
		flights := countFlightActivities(result.Itinerary)
		if flights != 1 {
			t.Errorf("Expected the lone flight scheduled once, got %d flight activities", flights)
		}
		// flight + two transports, no lodging on a single day
		if want := 300.0 + 2*45; result.Itinerary.TotalEstimatedCost != want {
			t.Errorf("Expected total %v, got %v", want, result.Itinerary.TotalEstimatedCost)
		}
	})

	t.Run("multi day", func(t *testing.T) {
		result := testPlanner().Plan(model.PlanRequest{
			Destination: "Oslo",
			StartDate:   "2026-09-10",
			EndDate:     "2026-09-12",
			Components:  oneFlight,
		})
		if !result.Success {
			t.Fatalf("Expected success, got error: %v", result.Error)
		}
		flights := countFlightActivities(result.Itinerary)
		if flights != 1 {
			t.Errorf("Expected no departure leg without a second flight, got %d flight activities", flights)
		}
		// flight + two transports + two nights at the default rate
		if want := 300.0 + 2*45 + 2*120; result.Itinerary.TotalEstimatedCost != want {
			t.Errorf("Expected total %v, got %v", want, result.Itinerary.TotalEstimatedCost)
		}
	})
}

func countFlightActivities(it *model.TravelItinerary) int {
	n := 0
	for _, day := range it.Days {
		for _, act := range day.Activities {
			if act.Type == model.ActivityFlight {
				n++
			}
		}
	}
	return n
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
