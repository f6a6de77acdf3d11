package service

import (
	"testing"

	"tripplanner/internal/model"
)

func TestNormalizeProperty(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name   string
		record model.ListingRecord
		wantOK bool
		check  func(t *testing.T, p model.PropertyResult)
	}{
		{
			name: "complete record",
			record: model.ListingRecord{
				Platform: "airbnb",
				Fields: map[string]any{
					"name":            "Canal View Loft",
					"price_per_night": 142.5,
					"rating":          4.87,
					"review_count":    213,
					"guests":          4,
					"amenities":       []string{"Wifi", "Kitchen"},
				},
			},
			wantOK: true,
			check: func(t *testing.T, p model.PropertyResult) {
				if p.Name != "Canal View Loft" || p.Platform != "airbnb" {
					t.Errorf("Identity fields wrong: %s / %s", p.Platform, p.Name)
				}
				if p.PricePerNight == nil || *p.PricePerNight != 142.5 {
					t.Errorf("Expected price 142.5, got %v", p.PricePerNight)
				}
				if p.ReviewCount == nil || *p.ReviewCount != 213 {
					t.Errorf("Expected 213 reviews, got %v", p.ReviewCount)
				}
				if len(p.Amenities) != 2 {
					t.Errorf("Expected 2 amenities, got %v", p.Amenities)
				}
			},
		},
		{
			name: "string-typed numbers coerced",
			record: model.ListingRecord{
				Platform: "booking",
				Fields: map[string]any{
					"title":  "Harbour Hotel",
					"price":  "189",
					"rating": "4.2",
				},
			},
			wantOK: true,
			check: func(t *testing.T, p model.PropertyResult) {
				if p.PricePerNight == nil || *p.PricePerNight != 189 {
					t.Errorf("Expected coerced price 189, got %v", p.PricePerNight)
				}
				if p.Rating == nil || *p.Rating != 4.2 {
					t.Errorf("Expected coerced rating 4.2, got %v", p.Rating)
				}
			},
		},
		{
			name: "negative price becomes unknown",
			record: model.ListingRecord{
				Platform: "airbnb",
				Fields: map[string]any{
					"name":            "Glitchy Listing",
					"price_per_night": -50,
				},
			},
			wantOK: true,
			check: func(t *testing.T, p model.PropertyResult) {
				if p.PricePerNight != nil {
					t.Errorf("Negative price must be nil, got %v", *p.PricePerNight)
				}
			},
		},
		{
			name: "unparseable rating becomes unknown",
			record: model.ListingRecord{
				Platform: "airbnb",
				Fields: map[string]any{
					"name":   "Odd Listing",
					"rating": "great!",
				},
			},
			wantOK: true,
			check: func(t *testing.T, p model.PropertyResult) {
				if p.Rating != nil {
					t.Errorf("Unparseable rating must be nil, got %v", *p.Rating)
				}
			},
		},
		{
			name: "missing name drops record",
			record: model.ListingRecord{
				Platform: "airbnb",
				Fields:   map[string]any{"price_per_night": 100},
			},
			wantOK: false,
		},
		{
			name: "missing platform drops record",
			record: model.ListingRecord{
				Fields: map[string]any{"name": "Orphan"},
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.NormalizeProperty(tt.record)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeProperty ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestNormalizeFlight(t *testing.T) {
	n := NewNormalizer()

	rec := model.ListingRecord{
		Platform: "amadeus",
		Fields: map[string]any{
			"airline":           "KLM",
			"flight_number":     "KL605",
			"departure_airport": "AMS",
			"arrival_airport":   "SFO",
			"stops":             0,
			"price":             612.40,
		},
	}
	f, ok := n.NormalizeFlight(rec)
	if !ok {
		t.Fatal("Expected flight to normalize")
	}
	if f.Airline != "KLM" {
		t.Errorf("Expected airline KLM, got %s", f.Airline)
	}
	if f.Stops == nil || *f.Stops != 0 {
		t.Errorf("Expected 0 stops, got %v", f.Stops)
	}
	if f.Price == nil || *f.Price != 612.40 {
		t.Errorf("Expected price 612.40, got %v", f.Price)
	}

	if _, ok := n.NormalizeFlight(model.ListingRecord{Fields: map[string]any{"price": 99}}); ok {
		t.Error("Flight without airline must be dropped")
	}
}

func TestNormalizeRestaurantPriceLevel(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name  string
		level any
		want  *int
	}{
		{"valid level", 3, intPtr(3)},
		{"free", 0, intPtr(0)},
		{"out of range", 9, nil},
		{"negative", -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := n.NormalizeRestaurant(model.ListingRecord{
				Platform: "google_places",
				Fields:   map[string]any{"name": "Bistro", "price_level": tt.level},
			})
			if !ok {
				t.Fatal("Expected restaurant to normalize")
			}
			switch {
			case tt.want == nil && r.PriceLevel != nil:
				t.Errorf("Expected nil price level, got %d", *r.PriceLevel)
			case tt.want != nil && (r.PriceLevel == nil || *r.PriceLevel != *tt.want):
				t.Errorf("Expected price level %d, got %v", *tt.want, r.PriceLevel)
			}
		})
	}
}

func TestNormalizeBatchDropsBadRecords(t *testing.T) {
	n := NewNormalizer()

	records := []model.ListingRecord{
		{Platform: "airbnb", Fields: map[string]any{"name": "Good One"}},
		{Platform: "airbnb", Fields: map[string]any{"price": 50}}, // no name
		{Platform: "airbnb", Fields: map[string]any{"name": "Another"}},
	}

	results := n.NormalizeProperties(records)
	if len(results) != 2 {
		t.Fatalf("Expected 2 normalized properties, got %d", len(results))
	}
	if results[0].Name != "Good One" || results[1].Name != "Another" {
		t.Error("Batch normalization must preserve record order")
	}
}
