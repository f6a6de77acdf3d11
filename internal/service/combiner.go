package service

import (
	"fmt"
	"sort"
	"time"

	"tripplanner/internal/model"

	"github.com/google/uuid"
)

// DefaultMaxResults caps combined output when the caller does not ask
// for a specific size.
const DefaultMaxResults = 20

// CombineOptions controls filtering, ordering and capping of a combine.
type CombineOptions struct {
	// PriceCeiling drops entities whose known price exceeds it
	// (inclusive bound). Entities with unknown price always pass:
	// missing data is penalized when ranking, never when filtering.
	PriceCeiling *float64

	// SortBy is one of model.SortByPrice, SortByRating, SortByValue.
	// Empty defaults to value.
	SortBy string

	// MaxResults caps the output; <= 0 uses DefaultMaxResults.
	MaxResults int
}

// Combine merges result sets from several source platforms into one
// ranked, size-capped sequence. Entities pass through unmodified; a
// failed or empty source contributes a zero count to the metadata and
// nothing else. The sort is stable, so ties keep their original source
// order and repeated calls with equal input produce equal output.
func Combine[T model.Rankable](sets []model.ResultSet[T], opts CombineOptions) model.CombinedResult[T] {
	start := time.Now()

	meta := model.SearchMetadata{
		SearchID:  uuid.NewString(),
		Timestamp: start,
		Sources:   make([]model.SourceCount, 0, len(sets)),
	}

	pooled := make([]T, 0)
	for _, set := range sets {
		meta.Sources = append(meta.Sources, model.SourceCount{
			Platform: set.Platform,
			Found:    len(set.Results),
			Error:    set.Error,
		})
		meta.TotalFound += len(set.Results)
		pooled = append(pooled, set.Results...)
	}

	filtered := filterByCeiling(pooled, opts.PriceCeiling)
	meta.FilteredCount = len(filtered)

	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = model.SortByValue
	}
	switch sortBy {
	case model.SortByPrice:
		sort.SliceStable(filtered, func(i, j int) bool {
			return priceForOrdering(filtered[i]) < priceForOrdering(filtered[j])
		})
	case model.SortByRating:
		sort.SliceStable(filtered, func(i, j int) bool {
			return ratingForOrdering(filtered[i]) > ratingForOrdering(filtered[j])
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return ValueScore(filtered[i]) > ValueScore(filtered[j])
		})
	}

	max := opts.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}
	if len(filtered) > max {
		filtered = filtered[:max]
	}
	meta.Returned = len(filtered)

	meta.Success = meta.TotalFound > 0
	if !meta.Success {
		msg := describeFailure(meta.Sources)
		meta.Error = &msg
	}
	meta.TookMs = time.Since(start).Milliseconds()

	return model.CombinedResult[T]{Results: filtered, Metadata: meta}
}

// ValueScore is the default ranking heuristic: rating per price unit,
// scaled by 100. It is a deliberate heuristic rather than a calibrated
// score; entities missing rating or price (or priced at zero) score 0
// and therefore sort after everything with both fields known.
func ValueScore(e model.Rankable) float64 {
	price := e.PriceValue()
	rating := e.RatingValue()
	if price == nil || rating == nil || *price <= 0 {
		return 0
	}
	return *rating * 100 / *price
}

func filterByCeiling[T model.Rankable](entities []T, ceiling *float64) []T {
	if ceiling == nil {
		return entities
	}
	kept := make([]T, 0, len(entities))
	for _, e := range entities {
		if price := e.PriceValue(); price != nil && *price > *ceiling {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// priceForOrdering treats unknown price as +Inf-like so it sorts last.
// This ordering stand-in never feeds the price filter.
func priceForOrdering(e model.Rankable) float64 {
	if price := e.PriceValue(); price != nil {
		return *price
	}
	return maxOrderingPrice
}

// ratingForOrdering treats unknown rating as 0 so it sorts last under
// descending rating order.
func ratingForOrdering(e model.Rankable) float64 {
	if rating := e.RatingValue(); rating != nil {
		return *rating
	}
	return 0
}

const maxOrderingPrice = 1e18

func describeFailure(sources []model.SourceCount) string {
	failed := 0
	for _, s := range sources {
		if s.Error != nil {
			failed++
		}
	}
	if len(sources) == 0 {
		return "no sources searched"
	}
	return fmt.Sprintf("no results from %d sources (%d reported errors)", len(sources), failed)
}
