package main

import (
	"crypto/tls"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskflow-api/api"
	"taskflow-api/config"
	"taskflow-api/domain"
	"taskflow-api/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	var tasks domain.TaskStore
	var categories domain.CategoryStore
	switch cfg.Backend {
	case config.BackendMemory:
		tasks = storage.NewMemoryTasks(cfg.StoreLatency)
		categories = storage.NewMemoryCategories(cfg.StoreLatency)
	case config.BackendSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		defer db.Close()
		tasks = db.Tasks()
		categories = db.Categories()
	case config.BackendTable:
		tables, err := storage.NewTables(cfg.StorageConnStr, cfg.TasksTable, cfg.CategoriesTable)
		if err != nil {
			log.Fatalf("table storage: %v", err)
		}
		tasks = tables.Tasks()
		categories = tables.Categories()
	}

	if cfg.RedisConnStr != "" {
		rc := redis.NewClient(redisOptions(cfg.RedisConnStr))
		tasks = storage.NewTaskCache(tasks, rc, cfg.CacheTTL)
		categories = storage.NewCategoryCache(categories, rc, cfg.CacheTTL)
	}

	var pub api.Publisher = storage.NopPublisher{}
	if cfg.ChangeQueue != "" {
		qp, err := storage.NewQueuePublisher(cfg.StorageConnStr, cfg.ChangeQueue)
		if err != nil {
			log.Fatalf("change queue: %v", err)
		}
		pub = qp
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	logger := log.New()
	api.Register(e, tasks, categories, pub, logger)

	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}

// redisOptions understands both redis URLs and the comma separated
// host,password=...,ssl=true form used by managed caches.
func redisOptions(connStr string) *redis.Options {
	opts, err := redis.ParseURL(connStr)
	if err == nil {
		return opts
	}
	parts := strings.Split(connStr, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
