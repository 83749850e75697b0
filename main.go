package main

import (
	"context"
	"log"
	"os"
	"time"

	"medchat/internal/api"
	"medchat/internal/config"
	"medchat/internal/redis"
	"medchat/internal/retrieval"
	"medchat/internal/service/ai"
	"medchat/internal/service/assistant"
	"medchat/internal/storage"
	"medchat/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("MEDCHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("MEDCHAT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	assistantService, err := assistant.NewService(db)
	if err != nil {
		log.Fatalf("init assistant service: %v", err)
	}

	ctx := context.Background()
	var (
		retriever ai.Retriever
		searcher  api.Searcher
	)
	if cfg.Retrieval.IndexURL != "" {
		retrievalClient, err := retrieval.NewClient(ctx, cfg)
		if err != nil {
			log.Fatalf("init retrieval client: %v", err)
		}
		retriever = retrievalClient
		searcher = retrievalClient
	} else {
		log.Println("retrieval index not configured, answering without knowledge base context")
	}

	aiService, err := ai.NewService(ctx, cfg, cfg.BasicConfig.Provider, cfg.BasicConfig.Model, retriever)
	if err != nil {
		log.Fatalf("init ai service: %v", err)
	}

	workerCfg := worker.DispatcherConfig{
		MinWorkers:        cfg.BasicConfig.MinWorkers,
		MaxWorkers:        cfg.BasicConfig.MaxWorkers,
		QueueSize:         cfg.BasicConfig.QueueSize,
		WorkerIdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
	}
	manager := worker.NewManager(assistantService, aiService, workerCfg)

	cacheTTL := time.Duration(cfg.Redis.ReplyCacheTTL) * time.Minute
	handlers := api.NewHandler(assistantService, manager, searcher, rdb, cacheTTL, cfg.BasicConfig.MaxMessageChars)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8080"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
