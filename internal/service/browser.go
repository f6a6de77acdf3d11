package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"tripplanner/internal/config"
	"tripplanner/internal/model"

	"github.com/chromedp/chromedp"
)

// BrowserProvider implements WebSearchProvider with a headless browser.
// It renders a platform's search results page, captures the visible
// text, and hands it to the LLM for structured extraction. One provider
// instance serves one platform.
type BrowserProvider struct {
	platform string
	buildURL func(query StaySearchQuery) string
	cfg      config.ProviderConfig
	llm      LLMClient
}

// NewAirbnbProvider creates a browser-backed Airbnb search provider.
func NewAirbnbProvider(cfg config.ProviderConfig, llm LLMClient) *BrowserProvider {
	return &BrowserProvider{
		platform: "airbnb",
		cfg:      cfg,
		llm:      llm,
		buildURL: func(q StaySearchQuery) string {
			params := url.Values{}
			params.Set("checkin", q.CheckIn)
			params.Set("checkout", q.CheckOut)
			if q.Guests > 0 {
				params.Set("adults", fmt.Sprintf("%d", q.Guests))
			}
			return fmt.Sprintf("%s/s/%s/homes?%s", cfg.AirbnbBaseURL, url.PathEscape(q.Location), params.Encode())
		},
	}
}

// NewBookingProvider creates a browser-backed Booking.com search provider.
func NewBookingProvider(cfg config.ProviderConfig, llm LLMClient) *BrowserProvider {
	return &BrowserProvider{
		platform: "booking",
		cfg:      cfg,
		llm:      llm,
		buildURL: func(q StaySearchQuery) string {
			params := url.Values{}
			params.Set("ss", q.Location)
			params.Set("checkin", q.CheckIn)
			params.Set("checkout", q.CheckOut)
			if q.Guests > 0 {
				params.Set("group_adults", fmt.Sprintf("%d", q.Guests))
			}
			return fmt.Sprintf("%s/searchresults.html?%s", cfg.BookingBaseURL, params.Encode())
		},
	}
}

// Platform returns the provider's canonical platform tag.
func (p *BrowserProvider) Platform() string {
	return p.platform
}

// SearchProperties renders the search page and extracts listings from
// its visible text.
func (p *BrowserProvider) SearchProperties(ctx context.Context, query StaySearchQuery) ([]model.ListingRecord, error) {
	if !p.cfg.BrowserEnabled {
		return nil, fmt.Errorf("browser search is disabled")
	}

	pageText, err := p.fetchPageText(ctx, p.buildURL(query))
	if err != nil {
		return nil, fmt.Errorf("%s page fetch failed: %w", p.platform, err)
	}
	if pageText == "" {
		return nil, fmt.Errorf("%s returned an empty page", p.platform)
	}

	records, err := p.llm.ExtractListings(ctx, "property", p.platform, pageText)
	if err != nil {
		return nil, fmt.Errorf("%s listing extraction failed: %w", p.platform, err)
	}

	log.Printf("Extracted %d raw listings from %s", len(records), p.platform)
	return records, nil
}

// fetchPageText navigates to pageURL in a fresh headless tab and
// returns the rendered body text.
func (p *BrowserProvider) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	timeout := time.Duration(p.cfg.BrowserTimeout) * time.Second
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	var pageText string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(4*time.Second), // give JS time to render
		chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &pageText),
	)
	if err != nil {
		return "", err
	}

	return pageText, nil
}
