package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tripplanner/internal/config"
	"tripplanner/internal/model"
)

type stubStayProvider struct {
	platform string
	records  []model.ListingRecord
	err      error
}

func (s *stubStayProvider) Platform() string { return s.platform }

func (s *stubStayProvider) SearchProperties(ctx context.Context, query StaySearchQuery) ([]model.ListingRecord, error) {
	return s.records, s.err
}

type memorySearchStore struct {
	mu      sync.Mutex
	entries []*model.SearchLog
	cached  []model.PropertyResult
	similar []model.PropertyResult
	done    chan struct{}
}

func (m *memorySearchStore) LogSearch(ctx context.Context, entry *model.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
	return nil
}

func (m *memorySearchStore) UpsertListingCache(ctx context.Context, p *model.PropertyResult) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = append(m.cached, *p)
	return "", nil
}

func (m *memorySearchStore) SimilarListings(ctx context.Context, embedding []float32, limit int) ([]model.PropertyResult, error) {
	if limit < len(m.similar) {
		return m.similar[:limit], nil
	}
	return m.similar, nil
}

// stubLLM serves canned embeddings, records, and stream chunks so the
// AI-backed paths can run without an API key.
type stubLLM struct {
	embedding []float32
	records   []model.ListingRecord
	chunks    [][2]string // (thinking, content) pairs
	err       error
}

func (s *stubLLM) ExtractListings(ctx context.Context, kind, platform, pageText string) ([]model.ListingRecord, error) {
	return s.records, s.err
}

func (s *stubLLM) ExtractListingsStream(ctx context.Context, kind, platform, pageText string, callback func(thinking, content string) error) ([]model.ListingRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, ch := range s.chunks {
		if err := callback(ch[0], ch[1]); err != nil {
			return nil, err
		}
	}
	return s.records, nil
}

func (s *stubLLM) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return [][]float32{s.embedding}, nil
}

func (s *stubLLM) IsEnabled() bool { return true }

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		DefaultLimit:  20,
		MaxLimit:      100,
		SearchWorkers: 3,
	}
}

func stayRecord(name string, price float64) model.ListingRecord {
	return model.ListingRecord{
		Fields: map[string]any{"name": name, "price_per_night": price},
	}
}

func TestSearchPropertiesProviderFailureIsolated(t *testing.T) {
	providers := []WebSearchProvider{
		&stubStayProvider{
			platform: "airbnb",
			records:  []model.ListingRecord{stayRecord("Loft", 120), stayRecord("Studio", 95)},
		},
		&stubStayProvider{
			platform: "booking",
			err:      errors.New("scrape blocked"),
		},
	}
	svc := NewTravelSearchService(providers, nil, nil, nil, nil, testSearchConfig())

	result := svc.SearchProperties(context.Background(), model.PropertySearchRequest{
		Destination: "Berlin",
		SortBy:      model.SortByPrice,
	})

	if !result.Metadata.Success {
		t.Fatal("One healthy provider must keep the search successful")
	}
	if result.Metadata.TotalFound != 2 {
		t.Errorf("Expected 2 found, got %d", result.Metadata.TotalFound)
	}
	if len(result.Metadata.Sources) != 2 {
		t.Fatalf("Expected 2 source entries, got %d", len(result.Metadata.Sources))
	}

	var failed *model.SourceCount
	for i := range result.Metadata.Sources {
		if result.Metadata.Sources[i].Platform == "booking" {
			failed = &result.Metadata.Sources[i]
		}
	}
	if failed == nil || failed.Error == nil {
		t.Fatal("Expected the failed provider's error recorded in metadata")
	}
	if failed.Found != 0 {
		t.Errorf("Failed provider must contribute 0 results, got %d", failed.Found)
	}
}

func TestSearchPropertiesStampsPlatform(t *testing.T) {
	prestamped := model.ListingRecord{
		Platform: "partner_feed",
		Fields:   map[string]any{"name": "Tagged Flat", "price_per_night": 80.0},
	}
	providers := []WebSearchProvider{
		&stubStayProvider{
			platform: "airbnb",
			records:  []model.ListingRecord{stayRecord("Loft", 120), prestamped},
		},
	}
	svc := NewTravelSearchService(providers, nil, nil, nil, nil, testSearchConfig())

	result := svc.SearchProperties(context.Background(), model.PropertySearchRequest{
		Destination: "Berlin",
		SortBy:      model.SortByPrice,
	})

	if len(result.Results) != 2 {
		t.Fatalf("Expected both records normalized, got %d", len(result.Results))
	}
	byName := map[string]string{}
	for _, r := range result.Results {
		byName[r.Name] = r.Platform
	}
	if byName["Loft"] != "airbnb" {
		t.Errorf("Untagged record must get the provider platform, got %q", byName["Loft"])
	}
	if byName["Tagged Flat"] != "partner_feed" {
		t.Errorf("Pre-tagged record must keep its platform, got %q", byName["Tagged Flat"])
	}
}

func TestSearchPropertiesAllProvidersFail(t *testing.T) {
	providers := []WebSearchProvider{
		&stubStayProvider{platform: "airbnb", err: errors.New("timeout")},
		&stubStayProvider{platform: "booking", err: errors.New("blocked")},
	}
	svc := NewTravelSearchService(providers, nil, nil, nil, nil, testSearchConfig())

	result := svc.SearchProperties(context.Background(), model.PropertySearchRequest{Destination: "Berlin"})

	if result.Metadata.Success {
		t.Error("Expected failure when every provider errored")
	}
	if result.Metadata.Error == nil {
		t.Error("Expected an aggregate failure message")
	}
}

func TestSearchPropertiesAmenityFilter(t *testing.T) {
	withAmenities := model.ListingRecord{
		Fields: map[string]any{
			"name":      "Equipped Flat",
			"amenities": []string{"Wifi", "Full kitchen"},
		},
	}
	without := model.ListingRecord{
		Fields: map[string]any{"name": "Bare Room"},
	}
	providers := []WebSearchProvider{
		&stubStayProvider{platform: "airbnb", records: []model.ListingRecord{withAmenities, without}},
	}
	svc := NewTravelSearchService(providers, nil, nil, nil, nil, testSearchConfig())

	result := svc.SearchProperties(context.Background(), model.PropertySearchRequest{
		Destination: "Berlin",
		Amenities:   []string{"wifi"},
	})

	if len(result.Results) != 1 || result.Results[0].Name != "Equipped Flat" {
		t.Errorf("Expected only the equipped listing, got %v", result.Results)
	}
}

func TestSearchPropertiesLogsAsync(t *testing.T) {
	store := &memorySearchStore{done: make(chan struct{})}
	done := store.done
	providers := []WebSearchProvider{
		&stubStayProvider{platform: "airbnb", records: []model.ListingRecord{stayRecord("Loft", 120)}},
	}
	svc := NewTravelSearchService(providers, nil, nil, store, nil, testSearchConfig())

	result := svc.SearchProperties(context.Background(), model.PropertySearchRequest{Destination: "Berlin"})

	<-done

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.SearchID != result.Metadata.SearchID {
		t.Error("Log entry must carry the search ID from the response metadata")
	}
	if entry.Kind != "property" || entry.Destination != "Berlin" {
		t.Errorf("Log entry fields wrong: kind=%s destination=%s", entry.Kind, entry.Destination)
	}
}

func TestCombinePropertiesCapsLimit(t *testing.T) {
	svc := NewTravelSearchService(nil, nil, nil, nil, nil, config.SearchConfig{DefaultLimit: 20, MaxLimit: 3})

	results := make([]model.PropertyResult, 10)
	for i := range results {
		results[i] = property("airbnb", "L", float64Ptr(float64(50+i)), nil)
	}
	combined := svc.CombineProperties(model.CombineRequest{
		Sets:       []model.ResultSet[model.PropertyResult]{{Platform: "airbnb", Results: results}},
		MaxResults: 50,
	})

	if len(combined.Results) != 3 {
		t.Errorf("Expected MaxLimit cap of 3, got %d", len(combined.Results))
	}
}

func TestSimilarPropertiesRequiresLLMAndStore(t *testing.T) {
	svc := NewTravelSearchService(nil, nil, nil, &memorySearchStore{}, nil, testSearchConfig())
	if _, err := svc.SimilarProperties(context.Background(), "cozy loft", 5); err == nil {
		t.Error("Expected an error without an LLM client")
	}

	svc = NewTravelSearchService(nil, nil, nil, nil, &stubLLM{embedding: []float32{0.1}}, testSearchConfig())
	if _, err := svc.SimilarProperties(context.Background(), "cozy loft", 5); err == nil {
		t.Error("Expected an error without a listing store")
	}
}

func TestSimilarPropertiesReturnsStoreMatches(t *testing.T) {
	store := &memorySearchStore{
		similar: []model.PropertyResult{
			property("airbnb", "Canal Loft", float64Ptr(140), float64Ptr(4.8)),
			property("booking", "Harbor Flat", float64Ptr(110), float64Ptr(4.5)),
		},
	}
	llm := &stubLLM{embedding: []float32{0.1, 0.2, 0.3}}
	svc := NewTravelSearchService(nil, nil, nil, store, llm, testSearchConfig())

	results, err := svc.SimilarProperties(context.Background(), "quiet place near the water", 10)
	if err != nil {
		t.Fatalf("SimilarProperties failed: %v", err)
	}
	if len(results) != 2 || results[0].Name != "Canal Loft" {
		t.Errorf("Expected the store's matches in order, got %v", results)
	}

	if _, err := svc.SimilarProperties(context.Background(), "anything", 1); err != nil {
		t.Fatalf("SimilarProperties failed: %v", err)
	}
}

func TestExtractStreamForwardsChunks(t *testing.T) {
	llm := &stubLLM{
		chunks: [][2]string{
			{"scanning the page", ""},
			{"", `{"listings": [`},
		},
		records: []model.ListingRecord{
			{Platform: "airbnb", Fields: map[string]any{"name": "Loft"}},
		},
	}
	svc := NewTravelSearchService(nil, nil, nil, nil, llm, testSearchConfig())

	var events []string
	records, err := svc.ExtractStream(context.Background(), "property", "airbnb", "page text", func(event string, data any) error {
		events = append(events, event)
		return nil
	})
	if err != nil {
		t.Fatalf("ExtractStream failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 extracted record, got %d", len(records))
	}

	want := []string{"extracting", "thinking", "content"}
	if len(events) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d: expected %q, got %q", i, want[i], events[i])
		}
	}
}

func TestExtractStreamRequiresLLM(t *testing.T) {
	svc := NewTravelSearchService(nil, nil, nil, nil, nil, testSearchConfig())
	_, err := svc.ExtractStream(context.Background(), "property", "airbnb", "text", func(event string, data any) error {
		t.Error("Callback must not fire without an LLM client")
		return nil
	})
	if err == nil {
		t.Error("Expected an error without an LLM client")
	}
}

func TestExtractStreamCallbackErrorStops(t *testing.T) {
	llm := &stubLLM{chunks: [][2]string{{"", "chunk"}}}
	svc := NewTravelSearchService(nil, nil, nil, nil, llm, testSearchConfig())

	calls := 0
	_, err := svc.ExtractStream(context.Background(), "property", "airbnb", "text", func(event string, data any) error {
		calls++
		if event == "content" {
			return errors.New("client went away")
		}
		return nil
	})
	if err == nil {
		t.Error("Expected the callback error propagated")
	}
	if calls != 2 {
		t.Errorf("Expected extraction to stop at the failing callback, got %d calls", calls)
	}
}

func TestSimilarPropertiesEmbeddingFailure(t *testing.T) {
	store := &memorySearchStore{}
	llm := &stubLLM{err: errors.New("rate limited")}
	svc := NewTravelSearchService(nil, nil, nil, store, llm, testSearchConfig())

	if _, err := svc.SimilarProperties(context.Background(), "anything", 5); err == nil {
		t.Error("Expected the embedding failure surfaced")
	}
}
