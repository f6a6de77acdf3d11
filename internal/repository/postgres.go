package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tripplanner/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the tables and indexes if they don't exist.
// listing_cache.embedding requires the pgvector extension.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS search_logs (
		id              SERIAL PRIMARY KEY,
		search_id       VARCHAR(64) NOT NULL,
		kind            VARCHAR(20) NOT NULL,
		destination     TEXT,
		request         JSONB,
		total_found     INT NOT NULL DEFAULT 0,
		returned        INT NOT NULL DEFAULT 0,
		success         BOOLEAN NOT NULL DEFAULT FALSE,
		error           TEXT,
		took_ms         BIGINT NOT NULL DEFAULT 0,
		feedback_entity TEXT,
		feedback_action VARCHAR(20),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_search_logs_search_id ON search_logs (search_id);
	CREATE INDEX IF NOT EXISTS idx_search_logs_kind      ON search_logs (kind);

	CREATE TABLE IF NOT EXISTS itineraries (
		id                   VARCHAR(64) PRIMARY KEY,
		destination          TEXT NOT NULL,
		start_date           DATE NOT NULL,
		end_date             DATE NOT NULL,
		total_days           INT NOT NULL,
		total_estimated_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
		document             JSONB NOT NULL,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_itineraries_destination ON itineraries (destination);

	CREATE TABLE IF NOT EXISTS listing_cache (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		platform        VARCHAR(50) NOT NULL,
		name            TEXT NOT NULL,
		price_per_night NUMERIC(10,2),
		rating          NUMERIC(4,2),
		review_count    INT,
		location        TEXT,
		amenities       JSONB,
		url             TEXT,
		embedding       vector(1536),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (platform, name)
	);
	CREATE INDEX IF NOT EXISTS idx_listing_cache_platform ON listing_cache (platform);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// LogSearch inserts one search invocation record.
func (r *PostgresRepository) LogSearch(ctx context.Context, entry *model.SearchLog) error {
	query := `
		INSERT INTO search_logs (search_id, kind, destination, request, total_found, returned, success, error, took_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.SearchID, entry.Kind, entry.Destination, entry.Request,
		entry.TotalFound, entry.Returned, entry.Success, entry.Error, entry.TookMs)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback records a user action against a logged search.
func (r *PostgresRepository) LogFeedback(ctx context.Context, searchID, entity, action string) error {
	query := `
		UPDATE search_logs
		SET feedback_entity = $2, feedback_action = $3
		WHERE search_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, searchID, entity, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("search %s not found", searchID)
	}
	return nil
}

// SaveItinerary persists a generated itinerary as a JSON document.
func (r *PostgresRepository) SaveItinerary(ctx context.Context, itinerary *model.TravelItinerary) error {
	doc, err := json.Marshal(itinerary)
	if err != nil {
		return fmt.Errorf("failed to marshal itinerary: %w", err)
	}

	query := `
		INSERT INTO itineraries (id, destination, start_date, end_date, total_days, total_estimated_cost, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document
	`
	_, err = r.db.ExecContext(ctx, query,
		itinerary.ID, itinerary.Destination, itinerary.StartDate, itinerary.EndDate,
		itinerary.TotalDays, itinerary.TotalEstimatedCost, doc)
	if err != nil {
		return fmt.Errorf("failed to save itinerary: %w", err)
	}
	return nil
}

// GetItinerary loads a stored itinerary by ID. Returns (nil, nil) when
// no row exists.
func (r *PostgresRepository) GetItinerary(ctx context.Context, id string) (*model.TravelItinerary, error) {
	var doc []byte
	err := r.db.GetContext(ctx, &doc, `SELECT document FROM itineraries WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load itinerary: %w", err)
	}

	var itinerary model.TravelItinerary
	if err := json.Unmarshal(doc, &itinerary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal itinerary %s: %w", id, err)
	}
	return &itinerary, nil
}

// UpsertListingCache stores a normalized property listing for later
// semantic retrieval. The (platform, name) pair identifies a listing.
func (r *PostgresRepository) UpsertListingCache(ctx context.Context, p *model.PropertyResult) (string, error) {
	query := `
		INSERT INTO listing_cache (platform, name, price_per_night, rating, review_count, location, amenities, url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (platform, name) DO UPDATE SET
			price_per_night = EXCLUDED.price_per_night,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			location = EXCLUDED.location,
			amenities = EXCLUDED.amenities,
			url = EXCLUDED.url,
			updated_at = NOW()
		RETURNING id
	`
	var id string
	err := r.db.GetContext(ctx, &id, query,
		p.Platform, p.Name, p.PricePerNight, p.Rating, p.ReviewCount, p.Location, p.Amenities, p.URL)
	if err != nil {
		return "", fmt.Errorf("failed to upsert listing cache: %w", err)
	}
	return id, nil
}

// UpdateEmbedding sets the embedding vector on one cached listing.
func (r *PostgresRepository) UpdateEmbedding(ctx context.Context, listingID string, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE listing_cache SET embedding = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, vec, listingID)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// BatchUpdateEmbeddings updates embeddings for multiple cached
// listings. Items are applied independently so one bad listing ID
// fails only its own entry.
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errors []string

	for _, item := range items {
		if err := r.UpdateEmbedding(ctx, item.ListingID, item.Embedding); err != nil {
			errors = append(errors, fmt.Sprintf("listing_id %s: %v", item.ListingID, err))
			continue
		}
		success++
	}

	return success, errors
}

// SimilarListings returns cached listings ordered by cosine distance to
// the query embedding.
func (r *PostgresRepository) SimilarListings(ctx context.Context, queryEmbedding []float32, limit int) ([]model.PropertyResult, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(queryEmbedding)

	query := `
		SELECT platform, name, price_per_night, rating, review_count, location, amenities, url
		FROM listing_cache
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	var rows []struct {
		Platform      string          `db:"platform"`
		Name          string          `db:"name"`
		PricePerNight *float64        `db:"price_per_night"`
		Rating        *float64        `db:"rating"`
		ReviewCount   *int            `db:"review_count"`
		Location      *string         `db:"location"`
		Amenities     model.JSONArray `db:"amenities"`
		URL           *string         `db:"url"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, vec, limit); err != nil {
		return nil, fmt.Errorf("failed to run similarity search: %w", err)
	}

	results := make([]model.PropertyResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, model.PropertyResult{
			Platform:      row.Platform,
			Name:          row.Name,
			PricePerNight: row.PricePerNight,
			Rating:        row.Rating,
			ReviewCount:   row.ReviewCount,
			Location:      row.Location,
			Amenities:     row.Amenities,
			URL:           row.URL,
		})
	}
	return results, nil
}
