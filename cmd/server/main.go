package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/cache"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/handlers"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/llm"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/middleware"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/recognition"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/repository"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Ending Collection Backend",
		// Item photos up to 10MB each, a few per request plus overhead.
		BodyLimit: 32 * 1024 * 1024, // 32MB
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	threadCache := cache.NewThreadCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	groupInviteRepo := repository.NewGroupInviteRepository(db)
	itemRepo := repository.NewItemRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	embeddingRepo := repository.NewEmbeddingRepository(db)

	// Initialize S3/MinIO storage (best-effort; upload endpoints fail with 502 if missing)
	var blobStore service.BlobStore
	if cfg, err := storage.LoadBlobConfigFromEnv(); err != nil {
		log.Printf("WARNING: blob storage not configured: %v", err)
	} else if bs, err := storage.NewBlobStorage(cfg); err != nil {
		log.Printf("WARNING: failed to initialize blob storage: %v", err)
	} else {
		blobStore = bs
		log.Printf("Blob storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	// Image recognition sidecar
	var detector service.ObjectDetector
	if d, err := recognition.NewDetectorFromEnv(); err != nil {
		log.Printf("WARNING: recognition not configured: %v", err)
	} else {
		detector = d
	}

	// Chat-completion and embedding API for the RAG sidebar
	var languageModel service.LanguageModel
	if lm, err := llm.NewClientFromEnv(); err != nil {
		log.Printf("WARNING: language model not configured: %v", err)
	} else {
		languageModel = lm
	}

	// Initialize services
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	groupService := service.NewGroupService(groupRepo)
	inviteService := service.NewInviteService(groupInviteRepo, groupRepo, userRepo)
	itemService := service.NewItemService(itemRepo, groupRepo, embeddingRepo, blobStore, detector, threadCache)
	messageService := service.NewMessageService(messageRepo, itemRepo, groupRepo, embeddingRepo, blobStore, threadCache)
	reactionService := service.NewReactionService(reactionRepo, messageRepo, itemRepo, groupRepo)
	ragService := service.NewRAGService(embeddingRepo, messageRepo, itemRepo, groupRepo, languageModel, threadCache)

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(messageService)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, blobStore)
	groupHandler := handlers.NewGroupHandler(groupService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	itemHandler := handlers.NewItemHandler(itemService)
	messageHandler := handlers.NewMessageHandler(messageService, wsHandler.GetHub())
	reactionHandler := handlers.NewReactionHandler(reactionService, messageService, wsHandler.GetHub())
	ragHandler := handlers.NewRAGHandler(ragService)

	// Public routes
	api := app.Group("/api")
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("/", middleware.AuthRequired())
	protected.Get("/users/me", userHandler.GetMe)
	protected.Post("/users/me/photo", userHandler.UploadPhoto)

	// Group routes
	protected.Post("/groups", groupHandler.CreateGroup)
	protected.Get("/groups", groupHandler.GetMyGroups)
	protected.Get("/groups/:id", groupHandler.GetGroup)
	protected.Get("/groups/:id/members", groupHandler.GetGroupMembers)

	// Invite routes
	protected.Post("/groups/:id/invites", inviteHandler.IssueInvite)
	protected.Get("/join/:token", inviteHandler.PreviewInvite)
	protected.Post("/join/:token", inviteHandler.AcceptInvite)
	protected.Delete("/invites/:id", inviteHandler.RevokeInvite)

	// Item routes
	protected.Post("/groups/:id/items", itemHandler.CreateItem)
	protected.Get("/groups/:id/items", itemHandler.ListGroupItems)
	protected.Post("/items/analyze", itemHandler.AnalyzeItemImage)
	protected.Get("/items/:id", itemHandler.GetItem)
	protected.Get("/items/:id/images", itemHandler.GetItemImages)
	protected.Post("/items/:id/archive", itemHandler.ArchiveItem)
	protected.Delete("/items/:id", itemHandler.DeleteItem)

	// Thread and message routes
	protected.Get("/threads/:id/messages", messageHandler.GetThreadMessages)
	protected.Post("/threads/:id/messages", messageHandler.PostMessage)
	protected.Delete("/messages/:id", messageHandler.DeleteMessage)

	// Reaction routes
	protected.Put("/messages/:id/reaction", reactionHandler.SetReaction)
	protected.Delete("/messages/:id/reaction", reactionHandler.RemoveReaction)
	protected.Get("/messages/:id/reactions", reactionHandler.ListReactions)

	// RAG sidebar routes
	protected.Post("/items/:id/index", ragHandler.IndexItem)
	protected.Get("/items/:id/search", ragHandler.SearchItem)
	protected.Get("/items/:id/summary", ragHandler.SummarizeItem)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Ending Collection backend is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
