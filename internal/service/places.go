package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tripplanner/internal/config"
	"tripplanner/internal/model"
)

// GooglePlacesProvider implements PlacesProvider against the Google
// Places Text Search API.
type GooglePlacesProvider struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewGooglePlacesProvider creates a Places client.
func NewGooglePlacesProvider(cfg config.ProviderConfig) *GooglePlacesProvider {
	return &GooglePlacesProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// placesTextSearchResponse is the subset of the Text Search payload we
// consume.
type placesTextSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
		PriceLevel       *int     `json:"price_level"`
		Types            []string `json:"types"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// SearchRestaurants finds restaurants around the given location.
func (p *GooglePlacesProvider) SearchRestaurants(ctx context.Context, location string, limit int) ([]model.ListingRecord, error) {
	return p.textSearch(ctx, fmt.Sprintf("restaurants in %s", location), "restaurant", limit)
}

// SearchAttractions finds points of interest around the given location.
func (p *GooglePlacesProvider) SearchAttractions(ctx context.Context, location string, limit int) ([]model.ListingRecord, error) {
	return p.textSearch(ctx, fmt.Sprintf("tourist attractions in %s", location), "tourist_attraction", limit)
}

func (p *GooglePlacesProvider) textSearch(ctx context.Context, query, placeType string, limit int) ([]model.ListingRecord, error) {
	if p.cfg.PlacesAPIKey == "" {
		return nil, fmt.Errorf("places API key is not configured")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("type", placeType)
	params.Set("key", p.cfg.PlacesAPIKey)

	reqURL := fmt.Sprintf("%s/textsearch/json?%s", p.cfg.PlacesBaseURL, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result placesTextSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal places response: %w", err)
	}
	if result.Status != "OK" && result.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places API status %s: %s", result.Status, result.ErrorMessage)
	}

	records := make([]model.ListingRecord, 0, len(result.Results))
	for _, place := range result.Results {
		if limit > 0 && len(records) >= limit {
			break
		}
		fields := map[string]any{
			"name":              place.Name,
			"formatted_address": place.FormattedAddress,
		}
		if place.Rating != nil {
			fields["rating"] = *place.Rating
		}
		if place.UserRatingsTotal != nil {
			fields["user_ratings_total"] = *place.UserRatingsTotal
		}
		if place.PriceLevel != nil {
			fields["price_level"] = *place.PriceLevel
		}
		if category := primaryCategory(place.Types); category != "" {
			fields["category"] = category
		}
		records = append(records, model.ListingRecord{Platform: "google_places", Fields: fields})
	}

	return records, nil
}

// primaryCategory picks the most descriptive place type, skipping the
// generic buckets Google prepends.
func primaryCategory(types []string) string {
	generic := map[string]bool{
		"point_of_interest": true,
		"establishment":     true,
		"food":              true,
	}
	for _, t := range types {
		if !generic[t] {
			return t
		}
	}
	return ""
}
