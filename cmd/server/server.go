package main

import (
	"fmt"
	"log"
	"net/http"

	"studybuddy/config"
	"studybuddy/db"
	"studybuddy/handlers"
	"studybuddy/llm"
	"studybuddy/middleware"
	"studybuddy/notify"
	"studybuddy/services"
	"studybuddy/services/ingest"
	"studybuddy/services/testgen"
	"studybuddy/services/tutor"
	"studybuddy/storage"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	gateway := buildGateway(cfg)

	chatRepo, err := db.NewPostgresChatRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize chat database: %v", err)
	}
	defer chatRepo.Close()

	testRepo, err := db.NewPostgresTestRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize test database: %v", err)
	}
	defer testRepo.Close()

	materialRepo, err := db.NewPostgresMaterialRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize material database: %v", err)
	}
	defer materialRepo.Close()

	documentStore, err := storage.NewDocumentStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize document store: %v", err)
	}

	publisher := notify.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if publisher != nil {
		defer publisher.Close()
	}

	chatService := services.NewChatService(chatRepo)
	tutorService := tutor.NewService(chatService, gateway)
	chatHandler := handlers.NewChatHandler(chatService, tutorService)

	testStoreService := services.NewTestStoreService(testRepo)
	testgenService := testgen.NewService(testStoreService, gateway, publisher)
	testHandler := handlers.NewTestHandler(testStoreService, testgenService)

	materialStoreService := services.NewMaterialStoreService(materialRepo)
	ingestService := ingest.NewService(materialStoreService, documentStore, gateway, publisher)
	materialHandler := handlers.NewMaterialHandler(materialStoreService, ingestService, documentStore)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewAuthMiddleware(cfg.JWTSecret))

	chatHandler.RegisterRoutes(api)
	testHandler.RegisterRoutes(api)
	materialHandler.RegisterRoutes(api)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(router)

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, corsHandler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// buildGateway selects the generation backend from LLM_PROVIDER. OpenAI is
// the default; Anthropic is opt-in.
func buildGateway(cfg *config.Config) llm.Gateway {
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatal("ANTHROPIC_API_KEY environment variable is required when LLM_PROVIDER=anthropic")
		}
		gateway, err := llm.NewAnthropicGateway(cfg.AnthropicAPIKey)
		if err != nil {
			log.Fatalf("Failed to initialize Anthropic gateway: %v", err)
		}
		return gateway
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when LLM_PROVIDER=openai")
		}
		gateway, err := llm.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI gateway: %v", err)
		}
		return gateway
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q, expected openai or anthropic", cfg.LLMProvider)
		return nil
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
