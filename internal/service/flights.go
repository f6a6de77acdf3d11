package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tripplanner/internal/config"
	"tripplanner/internal/model"
)

// AmadeusFlightsProvider implements FlightsProvider against the Amadeus
// flight offers API. Access tokens are cached until shortly before
// expiry.
type AmadeusFlightsProvider struct {
	cfg        config.ProviderConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewAmadeusFlightsProvider creates a flights client.
func NewAmadeusFlightsProvider(cfg config.ProviderConfig) *AmadeusFlightsProvider {
	return &AmadeusFlightsProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type amadeusTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type amadeusOffersResponse struct {
	Data []struct {
		Itineraries []struct {
			Duration string `json:"duration"` // ISO 8601, e.g. "PT7H55M"
			Segments []struct {
				Departure struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"` // RFC 3339 local
				} `json:"departure"`
				Arrival struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
			} `json:"segments"`
		} `json:"itineraries"`
		Price struct {
			GrandTotal string `json:"grandTotal"`
		} `json:"price"`
		TravelerPricings []amadeusTravelerPricing `json:"travelerPricings"`
	} `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

type amadeusTravelerPricing struct {
	FareDetailsBySegment []struct {
		Cabin string `json:"cabin"` // e.g. "ECONOMY"
	} `json:"fareDetailsBySegment"`
}

// offerCabin pulls the first cabin class named in an offer's traveler
// pricings, lowercased to the normalizer's field convention.
func offerCabin(pricings []amadeusTravelerPricing) string {
	for _, tp := range pricings {
		for _, fd := range tp.FareDetailsBySegment {
			if fd.Cabin != "" {
				return strings.ToLower(fd.Cabin)
			}
		}
	}
	return ""
}

// SearchFlights returns flight offer records for one leg.
func (p *AmadeusFlightsProvider) SearchFlights(ctx context.Context, origin, destination, departDate string, adults int) ([]model.ListingRecord, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}

	if adults <= 0 {
		adults = 1
	}
	params := url.Values{}
	params.Set("originLocationCode", origin)
	params.Set("destinationLocationCode", destination)
	params.Set("departureDate", departDate)
	params.Set("adults", strconv.Itoa(adults))
	params.Set("currencyCode", "USD")
	params.Set("max", "20")

	reqURL := fmt.Sprintf("%s/v2/shopping/flight-offers?%s", p.cfg.FlightsBaseURL, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flights API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result amadeusOffersResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flight offers: %w", err)
	}

	records := make([]model.ListingRecord, 0, len(result.Data))
	for _, offer := range result.Data {
		if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
			continue
		}
		itin := offer.Itineraries[0]
		first := itin.Segments[0]
		last := itin.Segments[len(itin.Segments)-1]

		airline := result.Dictionaries.Carriers[first.CarrierCode]
		if airline == "" {
			airline = first.CarrierCode
		}

		fields := map[string]any{
			"airline":           airline,
			"flight_number":     first.CarrierCode + first.Number,
			"departure_airport": first.Departure.IataCode,
			"arrival_airport":   last.Arrival.IataCode,
			"departure_time":    clockTime(first.Departure.At),
			"arrival_time":      clockTime(last.Arrival.At),
			"duration":          isoDuration(itin.Duration),
			"stops":             len(itin.Segments) - 1,
		}
		if offer.Price.GrandTotal != "" {
			if price, err := strconv.ParseFloat(offer.Price.GrandTotal, 64); err == nil {
				fields["price"] = price
			}
		}
		if cabin := offerCabin(offer.TravelerPricings); cabin != "" {
			fields["cabin_class"] = cabin
		}
		records = append(records, model.ListingRecord{Platform: "amadeus", Fields: fields})
	}

	return records, nil
}

// token returns a cached access token, refreshing via the client
// credentials grant when expired.
func (p *AmadeusFlightsProvider) token(ctx context.Context) (string, error) {
	if p.cfg.FlightsAPIKey == "" || p.cfg.FlightsAPISecret == "" {
		return "", fmt.Errorf("flights API credentials are not configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.cfg.FlightsAPIKey)
	form.Set("client_secret", p.cfg.FlightsAPISecret)

	reqURL := fmt.Sprintf("%s/v1/security/oauth2/token", p.cfg.FlightsBaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tok amadeusTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	p.accessToken = tok.AccessToken
	// Refresh one minute early so in-flight requests never carry a
	// token that expires mid-call.
	p.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return p.accessToken, nil
}

// clockTime extracts "15:04" from an RFC 3339 local timestamp, falling
// back to the raw value.
func clockTime(at string) string {
	if t, err := time.Parse("2006-01-02T15:04:05", at); err == nil {
		return t.Format("15:04")
	}
	return at
}

// isoDuration renders "PT7H55M" as "7h 55m".
func isoDuration(d string) string {
	s := strings.TrimPrefix(d, "PT")
	s = strings.ToLower(s)
	s = strings.Replace(s, "h", "h ", 1)
	return strings.TrimSpace(s)
}
