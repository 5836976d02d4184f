package main

import (
	"context"
	"fmt"
	"os"

	redisclient "github.com/sejmwatch/sejmwatch-backend/internal/clients/redis"
	"github.com/sejmwatch/sejmwatch-backend/internal/config"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/db"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/graph"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/relational"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos"
	httpserver "github.com/sejmwatch/sejmwatch-backend/internal/http"
	httpH "github.com/sejmwatch/sejmwatch-backend/internal/http/handlers"
	httpMW "github.com/sejmwatch/sejmwatch-backend/internal/http/middleware"
	"github.com/sejmwatch/sejmwatch-backend/internal/modules/chat"
	"github.com/sejmwatch/sejmwatch-backend/internal/observability"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/neo4jdb"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/openai"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/tracing"
	"github.com/sejmwatch/sejmwatch-backend/internal/services"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Config load failed", "error", err)
	}

	ctx := context.Background()
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{})
	defer func() {
		if err := shutdownOTel(ctx); err != nil {
			log.Warn("OTel shutdown failed", "error", err)
		}
	}()
	trace := tracing.NewSink(log)

	// Postgres
	pool, err := db.NewPool(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	defer pool.Close()
	if err := pool.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	pg := pool.DB()

	// Neo4j
	neo, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Fatal("Neo4j init failed", "error", err)
	}
	defer neo.Close(ctx)

	// Redis (optional: chat works without the embedding cache)
	var cache redisclient.EmbeddingCache
	if c, err := redisclient.NewEmbeddingCache(log); err != nil {
		log.Warn("Redis init failed, embedding cache disabled", "error", err)
	} else {
		cache = c
		defer c.Close()
	}

	// OpenAI
	ai, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(pg, log)
	userTokenRepo := repos.NewUserTokenRepo(pg, log)
	conversationRepo := repos.NewConversationRepo(pg, log)
	messageRepo := repos.NewConversationMessageRepo(pg, log)
	printRepo := repos.NewPrintRepo(pg, log)

	// Retrieval
	vectorSearcher := graph.NewVectorSearcher(neo, log)
	printSearcher := relational.NewPrintSearcher(pg, log)

	// Services
	log.Info("Setting up services...")
	authService, err := services.NewAuthService(pg, log, userRepo, userTokenRepo)
	if err != nil {
		log.Fatal("Auth service init failed", "error", err)
	}
	conversationService := services.NewConversationService(log, conversationRepo, messageRepo)
	printService := services.NewPrintService(log, printRepo)

	chatUsecases, err := chat.NewUsecases(chat.UsecasesDeps{
		DB:            pg,
		Log:           log,
		AI:            ai,
		Cache:         cache,
		Graph:         vectorSearcher,
		Rel:           printSearcher,
		Conversations: conversationRepo,
		Messages:      messageRepo,
		Prints:        printRepo,
		Trace:         trace,
		Cfg:           cfg.Chat,
	})
	if err != nil {
		log.Fatal("Chat usecases init failed", "error", err)
	}

	// HTTP
	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:          log,
		ServiceName:  "sejmwatch",
		AllowOrigins: cfg.Server.AllowOrigins,

		AuthHandler:    httpH.NewAuthHandler(authService),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, authService),

		ChatHandler:         httpH.NewChatHandler(log, chatUsecases),
		ConversationHandler: httpH.NewConversationHandler(conversationService),
		PrintHandler:        httpH.NewPrintHandler(printService),

		HealthHandler: httpH.NewHealthHandler(),
	})

	addr := ":" + cfg.Server.Port
	log.Info("Starting HTTP server", "addr", addr)
	if err := server.Run(addr); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
