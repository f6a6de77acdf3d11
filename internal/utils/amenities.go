package utils

import "strings"

// Amenity aliases for short-stay listings. Keys are the tokens users
// type; values are the provider phrasings they should match.
var amenityAliases = map[string][]string{
	"wifi":      {"wifi", "wi-fi", "wireless internet", "internet"},
	"pool":      {"pool", "swimming pool", "rooftop pool"},
	"kitchen":   {"kitchen", "kitchenette", "full kitchen"},
	"parking":   {"parking", "free parking", "car park", "garage"},
	"aircon":    {"air conditioning", "air conditioner", "aircon", "a/c", "ac"},
	"washer":    {"washer", "washing machine", "laundry", "washer/dryer"},
	"gym":       {"gym", "fitness", "fitness center", "gymnasium"},
	"breakfast": {"breakfast", "breakfast included", "free breakfast"},
	"pets":      {"pets allowed", "pet friendly", "pet-friendly"},
	"balcony":   {"balcony", "terrace", "patio"},
	"hot tub":   {"hot tub", "jacuzzi", "whirlpool"},
	"heating":   {"heating", "heater", "central heating"},
	"workspace": {"workspace", "dedicated workspace", "desk"},
	"elevator":  {"elevator", "lift"},
	"crib":      {"crib", "cot", "baby cot"},
}

// FuzzyMatchAmenity reports whether searchTerm matches a listing
// amenity, allowing exact, substring, and alias matches.
func FuzzyMatchAmenity(searchTerm, amenity string) bool {
	searchLower := strings.ToLower(strings.TrimSpace(searchTerm))
	amenityLower := strings.ToLower(strings.TrimSpace(amenity))
	if searchLower == "" || amenityLower == "" {
		return false
	}

	if searchLower == amenityLower {
		return true
	}
	if strings.Contains(amenityLower, searchLower) {
		return true
	}

	for key, values := range amenityAliases {
		if !matchesGroup(searchLower, key, values) {
			continue
		}
		if matchesGroup(amenityLower, key, values) {
			return true
		}
	}

	return false
}

// matchesGroup reports whether term matches an alias group. Short
// aliases ("ac") require an exact match; substring matching on them
// would light up unrelated amenities.
func matchesGroup(term, key string, aliases []string) bool {
	if strings.Contains(term, key) {
		return true
	}
	for _, alias := range aliases {
		if len(alias) <= 3 {
			if term == alias {
				return true
			}
			continue
		}
		if strings.Contains(term, alias) {
			return true
		}
	}
	return false
}

// HasAllAmenities reports whether every requested amenity fuzzy-matches
// at least one listing amenity. An empty request matches everything.
func HasAllAmenities(requested, available []string) bool {
	for _, want := range requested {
		found := false
		for _, have := range available {
			if FuzzyMatchAmenity(want, have) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
