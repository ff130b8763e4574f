package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"docuchat/internal/api"
	"docuchat/internal/chatlog"
	"docuchat/internal/config"
	"docuchat/internal/extract"
	"docuchat/internal/service/ai"
	"docuchat/internal/service/chat"
	"docuchat/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open document store: %v", err)
	}
	defer docs.Close()
	log.Printf("document store: %s, ttl %s", cfg.Store.Backend, cfg.DocumentTTL())

	extractor, err := extract.New(ctx)
	if err != nil {
		log.Fatalf("init extractor: %v", err)
	}

	completions, err := ai.NewService(cfg)
	if err != nil {
		log.Fatalf("init completion service: %v", err)
	}
	if cfg.Active().APIKey == "" {
		log.Printf("provider %s has no API key, chat endpoints return 503 until one is configured", cfg.Provider)
	} else {
		log.Printf("provider: %s, model: %s", cfg.Provider, completions.Model())
	}

	turnLog := chatlog.New(cfg.Logging.Endpoint, 0, 0)
	defer turnLog.Close()
	if cfg.Logging.Endpoint != "" {
		log.Printf("conversation log: %s", cfg.Logging.Endpoint)
	}

	service := chat.NewService(cfg, completions, extractor, docs, turnLog)
	handlers := api.NewHandler(service, cfg)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	if err := router.Run(cfg.Server.Address); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
