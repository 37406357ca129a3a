package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jobagent-labs/web3-job-agent/internal/handlers"
	"github.com/jobagent-labs/web3-job-agent/internal/models"
	"github.com/jobagent-labs/web3-job-agent/internal/services"
	"github.com/jobagent-labs/web3-job-agent/internal/wallet"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	// 2. Initialize Core Services (Dependencies)
	llmService := services.NewLLMService()
	vectorStore := services.NewVectorStore()
	jobService := services.NewJobService(llmService, vectorStore)
	matcherService := services.NewMatcherService()
	agentService := services.NewAgentService(llmService, jobService, matcherService)
	chatService := services.NewChatService(agentService)

	// 3. Background refresh of the welcome message's trending categories
	agentService.StartCategoryRefresher(30 * time.Minute)

	// 4. Wallet provider composition (static config, built once)
	walletProvider := wallet.MustNew(models.WalletConfig{
		AppName:   envOr("APP_NAME", "Web3 Job Agent"),
		ProjectID: mustEnv("WALLETCONNECT_PROJECT_ID"),
		Chains:    wallet.DefaultChains(),
		SSR:       true,
	})

	// 5. Initialize Handlers
	chatHandler := handlers.NewChatHandler(chatService)
	jobHandler := handlers.NewJobHandler(jobService)
	walletHandler := handlers.NewWalletHandler(walletProvider)

	// 6. Setup Router & CORS
	r := gin.Default()
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true // For development only
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// 7. Define Routes, wrapped by the three wallet layers in order
	api := r.Group("/api/v1", walletProvider.Middlewares()...)
	{
		api.GET("/health", handlers.HealthCheck)

		// Chat Routes
		api.POST("/sessions", chatHandler.CreateSession)
		api.GET("/sessions/:id/messages", chatHandler.GetMessages)
		api.POST("/sessions/:id/messages", chatHandler.SendMessage)

		// Job Routes
		api.GET("/jobs", jobHandler.ListJobs)
		api.GET("/jobs/:id", jobHandler.GetJob)
		api.POST("/jobs/search", jobHandler.SearchJobs)

		// Wallet Routes
		api.GET("/wallet/config", walletHandler.GetConfig)
	}

	// 8. Start Server
	port := envOr("PORT", "8080")
	log.Printf("🚀 Server starting on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("CRITICAL ERROR: %s is empty. Did you load the .env file?", key)
	}
	return v
}
