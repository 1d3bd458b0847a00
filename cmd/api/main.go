package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tonspin-backend/internal/config"
	"tonspin-backend/internal/handlers"
	"tonspin-backend/internal/middleware"
	"tonspin-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var redisService *services.RedisService
	var commitments services.CommitmentStore
	var spent services.SpentTicketRegistry
	var recorder services.RoundRecorder

	if cfg.RedisURL != "" {
		redisService, err = services.NewRedisService(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisService.Close()

		commitments = redisService
		spent = redisService
		recorder = redisService
	} else {
		log.Println("REDIS_URL not set, using in-memory stores (single node only)")

		memCommitments := services.NewMemoryCommitmentStore(cfg.CommitmentTTL)
		memSpent := services.NewMemorySpentTicketRegistry(2 * cfg.TicketTTL)
		commitments = memCommitments
		spent = memSpent

		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()

			for range ticker.C {
				memCommitments.Sweep()
				memSpent.Sweep()
			}
		}()
	}

	ticketService := services.NewTicketService(cfg)
	payoutSender := services.NewLedgerPayoutSender(cfg)

	engine, err := services.NewRoundEngine(cfg, commitments, spent, ticketService, payoutSender, recorder)
	if err != nil {
		log.Fatalf("Failed to create round engine: %v", err)
	}

	wsHandler := handlers.NewWebSocketHandler()
	engine.SetBroadcaster(wsHandler)

	gameHandler := handlers.NewGameHandler(engine, redisService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api")
	{
		api.GET("/ws", wsHandler.HandleWebSocket)

		rounds := api.Group("/rounds")
		{
			rounds.POST("/commit",
				middleware.RateLimitMiddleware(redisService, "commit", 30, time.Minute),
				gameHandler.Commit)
			rounds.POST("/reveal",
				middleware.RateLimitMiddleware(redisService, "reveal", 30, time.Minute),
				gameHandler.Reveal)
			rounds.GET("/recent", gameHandler.GetRecentRounds)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("/redeem",
				middleware.RateLimitMiddleware(redisService, "redeem", 60, time.Minute),
				gameHandler.Redeem)
			tickets.POST("/escalate",
				middleware.RateLimitMiddleware(redisService, "escalate", 60, time.Minute),
				gameHandler.Escalate)
		}

		api.POST("/fairness/verify", gameHandler.VerifyFairness)
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
