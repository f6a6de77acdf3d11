package service

import "testing"

func pricingWithCabins(cabins ...string) amadeusTravelerPricing {
	var tp amadeusTravelerPricing
	for _, c := range cabins {
		tp.FareDetailsBySegment = append(tp.FareDetailsBySegment, struct {
			Cabin string `json:"cabin"`
		}{Cabin: c})
	}
	return tp
}

func TestOfferCabin(t *testing.T) {
	tests := []struct {
		name     string
		pricings []amadeusTravelerPricing
		want     string
	}{
		{
			name:     "single cabin lowercased",
			pricings: []amadeusTravelerPricing{pricingWithCabins("ECONOMY")},
			want:     "economy",
		},
		{
			name:     "first non-empty cabin wins",
			pricings: []amadeusTravelerPricing{pricingWithCabins("", "BUSINESS"), pricingWithCabins("ECONOMY")},
			want:     "business",
		},
		{
			name:     "no pricings",
			pricings: nil,
			want:     "",
		},
		{
			name:     "empty fare details",
			pricings: []amadeusTravelerPricing{{}},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := offerCabin(tt.pricings); got != tt.want {
				t.Errorf("offerCabin() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClockTime(t *testing.T) {
	if got := clockTime("2026-08-26T07:35:00"); got != "07:35" {
		t.Errorf("clockTime() = %q, want 07:35", got)
	}
	if got := clockTime("not-a-timestamp"); got != "not-a-timestamp" {
		t.Errorf("clockTime() must fall back to the raw value, got %q", got)
	}
}

func TestIsoDuration(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PT7H55M", "7h 55m"},
		{"PT45M", "45m"},
		{"PT2H", "2h"},
	}
	for _, tt := range tests {
		if got := isoDuration(tt.in); got != tt.want {
			t.Errorf("isoDuration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
