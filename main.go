package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mingle_server/routes"
	"mingle_server/services"
	"mingle_server/socket"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	clock := services.SystemClock()

	// Initialize Services
	pool := services.NewWaitingPool()
	registry := services.NewConnectionRegistry(envDuration("LIVENESS_WINDOW", 45*time.Second), clock)
	dispatcher := services.NewNotificationDispatcher(registry)
	scorer := services.NewCompatibilityScorer(envList("EXTENDED_GENDERS", []string{"nonbinary", "genderfluid", "agender"}))
	store := services.NewDynamoMatchStore(dynamoService)
	lifecycle := services.NewMatchLifecycle(pool, dispatcher, registry, store, clock, envDuration("MATCH_TTL", 30*time.Second))
	pool.SetActiveChecker(lifecycle.IsActive)

	counterpartURL := os.Getenv("COUNTERPART_SERVICE_URL")
	var fallback *services.FallbackAssigner
	if counterpartURL != "" {
		generator := services.NewCounterpartClient(counterpartURL, dynamoService, clock)
		lifecycle.SetGreeter(generator)
		fallback = services.NewFallbackAssigner(pool, scorer, lifecycle, generator)
	} else {
		log.Println("⚠️ COUNTERPART_SERVICE_URL not set, synthetic fallback disabled")
	}

	engine := services.NewPairingEngine(pool, registry, scorer, lifecycle, fallback, clock, services.PairingEngineConfig{
		TickInterval:      envDuration("TICK_INTERVAL", 2*time.Second),
		MaxMatchesPerTick: envInt("MAX_MATCHES_PER_TICK", 20),
		FallbackAfter:     envDuration("FALLBACK_AFTER", 60*time.Second),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Start(ctx)
	go registry.Start(ctx, envDuration("PRUNE_INTERVAL", 15*time.Second))

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Mingle")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterMatchmakingRoutes(r, pool, lifecycle, clock)

	// Live connection endpoint
	socketServer := socket.NewSocketServer(registry, lifecycle)
	r.HandleFunc("/ws", socketServer.HandleConnection)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("⚠️ Invalid duration for %s, using %v", key, fallback)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("⚠️ Invalid integer for %s, using %d", key, fallback)
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var list []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		if len(list) > 0 {
			return list
		}
	}
	return fallback
}
