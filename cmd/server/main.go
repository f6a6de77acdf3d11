package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tripplanner/internal/config"
	"tripplanner/internal/handler"
	"tripplanner/internal/repository"
	"tripplanner/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("Trip Planner Core")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("Connected to PostgreSQL database")

	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	// Initialize OpenAI client
	var llmClient service.LLMClient
	if cfg.OpenAI.Enabled {
		llmClient = service.NewOpenAIClient(&cfg.OpenAI)
		log.Printf("OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Embedding model: %s", cfg.OpenAI.EmbeddingModel)
	} else {
		log.Println("Warning: OpenAI is disabled - browser listing extraction will not work")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI features")
	}

	// Initialize search providers
	var stayProviders []service.WebSearchProvider
	if cfg.Providers.BrowserEnabled && llmClient != nil {
		stayProviders = append(stayProviders,
			service.NewAirbnbProvider(cfg.Providers, llmClient),
			service.NewBookingProvider(cfg.Providers, llmClient),
		)
		log.Printf("Browser stay providers enabled: airbnb, booking")
	} else {
		log.Println("Warning: browser stay providers disabled - property search limited to /combine")
	}

	var places service.PlacesProvider
	if cfg.Providers.PlacesAPIKey != "" {
		places = service.NewGooglePlacesProvider(cfg.Providers)
		log.Printf("Places provider enabled")
	}

	var flights service.FlightsProvider
	if cfg.Providers.FlightsAPIKey != "" {
		flights = service.NewAmadeusFlightsProvider(cfg.Providers)
		log.Printf("Flights provider enabled")
	}

	// Initialize services
	searchService := service.NewTravelSearchService(stayProviders, places, flights, repo, llmClient, cfg.Search)
	costEstimator := service.NewCostEstimator(cfg.Costs)
	planner := service.NewPlanner(costEstimator, cfg.Search.PlannerLimit)

	log.Println("Services initialized")

	// Initialize handlers
	searchHandler := handler.NewSearchHandler(searchService)
	itineraryHandler := handler.NewItineraryHandler(planner, repo)
	embeddingHandler := handler.NewEmbeddingHandler(repo, cfg.OpenAI.EmbeddingDimensions)
	feedbackHandler := handler.NewFeedbackHandler(repo)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.AllowedOrigins, ",")
	corsConfig.AllowMethods = strings.Split(cfg.Server.AllowedMethods, ",")
	corsConfig.AllowHeaders = strings.Split(cfg.Server.AllowedHeaders, ",")
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "trip-planner-core",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Search endpoints
		apiV1.POST("/search/properties", searchHandler.SearchProperties)
		apiV1.GET("/search/restaurants", searchHandler.SearchRestaurants)
		apiV1.GET("/search/attractions", searchHandler.SearchAttractions)
		apiV1.GET("/search/flights", searchHandler.SearchFlights)
		apiV1.GET("/search/similar", searchHandler.SimilarProperties)
		apiV1.POST("/extract/stream", searchHandler.ExtractStream)
		apiV1.POST("/combine/properties", searchHandler.CombineProperties)

		// Itinerary endpoints
		apiV1.POST("/itineraries", itineraryHandler.Plan)
		apiV1.GET("/itineraries/:id", itineraryHandler.Get)

		// Embedding endpoints
		apiV1.POST("/embeddings/batch", embeddingHandler.BatchUpdate)

		// Feedback endpoint
		apiV1.POST("/feedback", feedbackHandler.Submit)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)

	// Graceful shutdown
	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server stopped")
}
