package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	Costs      CostConfig
	OpenAI     OpenAIConfig
	Providers  ProviderConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// SearchConfig holds search and combination configuration
type SearchConfig struct {
	DefaultLimit   int
	MaxLimit       int
	PlannerLimit   int // top-N results fed into itinerary planning
	SearchWorkers  int // concurrent provider searches
	ProviderRateMs int // min interval between provider requests
}

// CostConfig holds the nominal cost estimates used by the itinerary
// planner. These are illustrative placeholders, tunable per deployment,
// not priced quotes.
type CostConfig struct {
	GroundTransport    float64
	LunchCost          float64
	DinnerCost         float64
	FarewellLunchCost  float64
	DefaultNightlyRate float64
	AttractionLevels   [5]float64 // indexed by price level 0–4
	DefaultAttraction  float64    // used when price level is unknown
}

// OpenAIConfig holds configuration for the OpenAI-compatible LLM API
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string
	ChatTemperature     float64
	ChatTopP            float64
	ChatMaxTokens       int
	ChatExtraBody       string // JSON string merged into the request body
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingExtraBody  string
	BatchSize           int
	Timeout             int
	Enabled             bool
}

// ProviderConfig holds external search provider configuration
type ProviderConfig struct {
	BrowserEnabled   bool
	BrowserTimeout   int // seconds per page interaction
	AirbnbBaseURL    string
	BookingBaseURL   string
	PlacesAPIKey     string
	PlacesBaseURL    string
	FlightsAPIKey    string
	FlightsAPISecret string
	FlightsBaseURL   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "trip_planner"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Search: SearchConfig{
			DefaultLimit:   getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:       getEnvAsInt("SEARCH_MAX_LIMIT", 100),
			PlannerLimit:   getEnvAsInt("SEARCH_PLANNER_LIMIT", 10),
			SearchWorkers:  getEnvAsInt("SEARCH_WORKERS", 3),
			ProviderRateMs: getEnvAsInt("PROVIDER_RATE_LIMIT_MS", 500),
		},
		Costs: CostConfig{
			GroundTransport:    getEnvAsFloat("COST_GROUND_TRANSPORT", 45),
			LunchCost:          getEnvAsFloat("COST_LUNCH", 35),
			DinnerCost:         getEnvAsFloat("COST_DINNER", 60),
			FarewellLunchCost:  getEnvAsFloat("COST_FAREWELL_LUNCH", 40),
			DefaultNightlyRate: getEnvAsFloat("COST_DEFAULT_NIGHTLY_RATE", 120),
			AttractionLevels: [5]float64{
				0,
				getEnvAsFloat("COST_ATTRACTION_LEVEL_1", 10),
				getEnvAsFloat("COST_ATTRACTION_LEVEL_2", 20),
				getEnvAsFloat("COST_ATTRACTION_LEVEL_3", 35),
				getEnvAsFloat("COST_ATTRACTION_LEVEL_4", 50),
			},
			DefaultAttraction: getEnvAsFloat("COST_ATTRACTION_DEFAULT", 15),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatTopP:            getEnvAsFloat("OPENAI_CHAT_TOP_P", 0.7),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 8192),
			ChatExtraBody:       getEnv("OPENAI_CHAT_EXTRA_BODY", ""),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			EmbeddingExtraBody:  getEnv("OPENAI_EMBEDDING_EXTRA_BODY", ""),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Providers: ProviderConfig{
			BrowserEnabled:   getEnvAsBool("BROWSER_SEARCH_ENABLED", false),
			BrowserTimeout:   getEnvAsInt("BROWSER_TIMEOUT", 120),
			AirbnbBaseURL:    getEnv("AIRBNB_BASE_URL", "https://www.airbnb.com"),
			BookingBaseURL:   getEnv("BOOKING_BASE_URL", "https://www.booking.com"),
			PlacesAPIKey:     getEnv("PLACES_API_KEY", ""),
			PlacesBaseURL:    getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
			FlightsAPIKey:    getEnv("FLIGHTS_API_KEY", ""),
			FlightsAPISecret: getEnv("FLIGHTS_API_SECRET", ""),
			FlightsBaseURL:   getEnv("FLIGHTS_BASE_URL", "https://test.api.amadeus.com"),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
