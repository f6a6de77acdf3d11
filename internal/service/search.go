package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"tripplanner/internal/config"
	"tripplanner/internal/model"
	"tripplanner/internal/utils"
)

// SearchStore persists search invocations and cached listings. Writes
// are best-effort and never block a response.
type SearchStore interface {
	LogSearch(ctx context.Context, entry *model.SearchLog) error
	UpsertListingCache(ctx context.Context, p *model.PropertyResult) (string, error)
	SimilarListings(ctx context.Context, embedding []float32, limit int) ([]model.PropertyResult, error)
}

// TravelSearchService fans a search out to every configured provider,
// normalizes what comes back, and combines the per-platform sets into
// one ranked list. A provider failure degrades that platform's set to
// an error entry instead of failing the search.
type TravelSearchService struct {
	stayProviders []WebSearchProvider
	places        PlacesProvider
	flights       FlightsProvider
	normalizer    *Normalizer
	store         SearchStore
	llm           LLMClient
	cfg           config.SearchConfig
}

// NewTravelSearchService wires the search orchestration. places,
// flights, store, and llm may be nil when not configured.
func NewTravelSearchService(
	stayProviders []WebSearchProvider,
	places PlacesProvider,
	flights FlightsProvider,
	store SearchStore,
	llm LLMClient,
	cfg config.SearchConfig,
) *TravelSearchService {
	return &TravelSearchService{
		stayProviders: stayProviders,
		places:        places,
		flights:       flights,
		normalizer:    NewNormalizer(),
		store:         store,
		llm:           llm,
		cfg:           cfg,
	}
}

// SearchProperties runs one accommodation search across all stay
// providers concurrently and returns the combined ranking.
func (s *TravelSearchService) SearchProperties(ctx context.Context, req model.PropertySearchRequest) model.CombinedResult[model.PropertyResult] {
	query := StaySearchQuery{
		Location: req.Destination,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Guests:   req.Guests,
	}

	sets := make([]model.ResultSet[model.PropertyResult], len(s.stayProviders))
	pool := utils.NewWorkerPool(s.cfg.SearchWorkers, s.cfg.ProviderRateMs)

	for i, provider := range s.stayProviders {
		i, provider := i, provider
		pool.Submit(func() {
			sets[i] = s.searchOneStayProvider(ctx, provider, query, req.Amenities)
		})
	}
	pool.Wait()

	combined := Combine(sets, CombineOptions{
		PriceCeiling: req.PriceCeiling,
		SortBy:       req.SortBy,
		MaxResults:   s.capLimit(req.MaxResults),
	})

	s.logAsync(&model.SearchLog{
		SearchID:    combined.Metadata.SearchID,
		Kind:        "property",
		Destination: req.Destination,
		Request: model.JSONMap{
			"check_in":  req.CheckIn,
			"check_out": req.CheckOut,
			"guests":    req.Guests,
			"sort_by":   req.SortBy,
		},
		TotalFound: combined.Metadata.TotalFound,
		Returned:   combined.Metadata.Returned,
		Success:    combined.Metadata.Success,
		Error:      combined.Metadata.Error,
		TookMs:     combined.Metadata.TookMs,
	})
	s.cacheListingsAsync(combined.Results)

	return combined
}

// SimilarProperties retrieves cached listings semantically close to a
// free-text query, via an embedding lookup.
func (s *TravelSearchService) SimilarProperties(ctx context.Context, query string, limit int) ([]model.PropertyResult, error) {
	if s.llm == nil || !s.llm.IsEnabled() {
		return nil, fmt.Errorf("semantic search requires a configured LLM client")
	}
	if s.store == nil {
		return nil, fmt.Errorf("semantic search requires listing storage")
	}

	embeddings, err := s.llm.CreateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding provider returned nothing")
	}

	return s.store.SimilarListings(ctx, embeddings[0], s.capLimit(limit))
}

// ExtractEventCallback receives streaming extraction events.
type ExtractEventCallback func(event string, data any) error

// ExtractStream parses raw provider page text into listing records,
// forwarding the model's streaming output to the callback as it
// arrives. Used by upstream agents that fetch pages themselves and
// want extraction progress.
func (s *TravelSearchService) ExtractStream(ctx context.Context, kind, platform, pageText string, callback ExtractEventCallback) ([]model.ListingRecord, error) {
	if s.llm == nil || !s.llm.IsEnabled() {
		return nil, fmt.Errorf("listing extraction requires a configured LLM client")
	}

	if err := callback("extracting", map[string]any{"kind": kind, "platform": platform}); err != nil {
		return nil, err
	}

	records, err := s.llm.ExtractListingsStream(ctx, kind, platform, pageText, func(thinking, content string) error {
		if thinking != "" {
			return callback("thinking", map[string]any{"content": thinking})
		}
		if content != "" {
			return callback("content", map[string]any{"content": content})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// cacheListingsAsync stores combined property results for later
// semantic retrieval, off the request path.
func (s *TravelSearchService) cacheListingsAsync(results []model.PropertyResult) {
	if s.store == nil || len(results) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i := range results {
			if _, err := s.store.UpsertListingCache(ctx, &results[i]); err != nil {
				log.Printf("Warning: failed to cache listing %q: %v", results[i].Name, err)
				return
			}
		}
	}()
}

// searchOneStayProvider runs a single provider search and folds its
// outcome, success or failure, into a result set.
func (s *TravelSearchService) searchOneStayProvider(ctx context.Context, provider WebSearchProvider, query StaySearchQuery, amenities []string) model.ResultSet[model.PropertyResult] {
	now := time.Now()
	set := model.ResultSet[model.PropertyResult]{
		Platform:  provider.Platform(),
		Timestamp: &now,
	}

	records, err := provider.SearchProperties(ctx, query)
	if err != nil {
		msg := err.Error()
		set.Error = &msg
		log.Printf("Warning: provider %s search failed: %v", provider.Platform(), err)
		return set
	}

	// The orchestrator knows which provider produced each record; a
	// record without a platform tag would otherwise be dropped by the
	// normalizer.
	for i := range records {
		if records[i].Platform == "" {
			records[i].Platform = provider.Platform()
		}
	}

	results := s.normalizer.NormalizeProperties(records)
	if len(amenities) > 0 {
		filtered := results[:0]
		for _, r := range results {
			if utils.HasAllAmenities(amenities, r.Amenities) {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	set.Results = results
	return set
}

// CombineProperties combines caller-supplied result sets without
// touching any provider. Used when an upstream agent has already
// fetched platform results itself.
func (s *TravelSearchService) CombineProperties(req model.CombineRequest) model.CombinedResult[model.PropertyResult] {
	return Combine(req.Sets, CombineOptions{
		PriceCeiling: req.PriceCeiling,
		SortBy:       req.SortBy,
		MaxResults:   s.capLimit(req.MaxResults),
	})
}

// SearchRestaurants queries the places provider and ranks the results.
func (s *TravelSearchService) SearchRestaurants(ctx context.Context, location string, sortBy string, limit int) model.CombinedResult[model.RestaurantResult] {
	set := model.ResultSet[model.RestaurantResult]{Platform: "google_places"}
	if s.places == nil {
		msg := "places provider is not configured"
		set.Error = &msg
	} else {
		records, err := s.places.SearchRestaurants(ctx, location, s.capLimit(limit))
		if err != nil {
			msg := err.Error()
			set.Error = &msg
		} else {
			set.Results = s.normalizer.NormalizeRestaurants(records)
		}
	}

	combined := Combine([]model.ResultSet[model.RestaurantResult]{set}, CombineOptions{
		SortBy:     sortBy,
		MaxResults: s.capLimit(limit),
	})
	s.logAsync(searchLogFor("restaurant", location, combined.Metadata))
	return combined
}

// SearchAttractions queries the places provider and ranks the results.
func (s *TravelSearchService) SearchAttractions(ctx context.Context, location string, sortBy string, limit int) model.CombinedResult[model.AttractionResult] {
	set := model.ResultSet[model.AttractionResult]{Platform: "google_places"}
	if s.places == nil {
		msg := "places provider is not configured"
		set.Error = &msg
	} else {
		records, err := s.places.SearchAttractions(ctx, location, s.capLimit(limit))
		if err != nil {
			msg := err.Error()
			set.Error = &msg
		} else {
			set.Results = s.normalizer.NormalizeAttractions(records)
		}
	}

	combined := Combine([]model.ResultSet[model.AttractionResult]{set}, CombineOptions{
		SortBy:     sortBy,
		MaxResults: s.capLimit(limit),
	})
	s.logAsync(searchLogFor("attraction", location, combined.Metadata))
	return combined
}

// SearchFlights queries the flights provider and ranks the results.
func (s *TravelSearchService) SearchFlights(ctx context.Context, origin, destination, departDate string, adults int, sortBy string, limit int) model.CombinedResult[model.FlightResult] {
	set := model.ResultSet[model.FlightResult]{Platform: "amadeus"}
	if s.flights == nil {
		msg := "flights provider is not configured"
		set.Error = &msg
	} else {
		records, err := s.flights.SearchFlights(ctx, origin, destination, departDate, adults)
		if err != nil {
			msg := err.Error()
			set.Error = &msg
		} else {
			set.Results = s.normalizer.NormalizeFlights(records)
		}
	}

	combined := Combine([]model.ResultSet[model.FlightResult]{set}, CombineOptions{
		SortBy:     sortBy,
		MaxResults: s.capLimit(limit),
	})
	s.logAsync(searchLogFor("flight", destination, combined.Metadata))
	return combined
}

// capLimit applies the default and maximum result limits.
func (s *TravelSearchService) capLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// logAsync writes the search log in the background so the response is
// never held up by the database.
func (s *TravelSearchService) logAsync(entry *model.SearchLog) {
	if s.store == nil || entry == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.LogSearch(ctx, entry); err != nil {
			log.Printf("Warning: failed to log search %s: %v", entry.SearchID, err)
		}
	}()
}

func searchLogFor(kind, destination string, meta model.SearchMetadata) *model.SearchLog {
	return &model.SearchLog{
		SearchID:    meta.SearchID,
		Kind:        kind,
		Destination: destination,
		TotalFound:  meta.TotalFound,
		Returned:    meta.Returned,
		Success:     meta.Success,
		Error:       meta.Error,
		TookMs:      meta.TookMs,
	}
}
