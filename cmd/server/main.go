package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/gamingcommunity/internal/bootstrap"
	"anoa.com/gamingcommunity/internal/config"
	searchService "anoa.com/gamingcommunity/internal/modules/search/service"
	"anoa.com/gamingcommunity/internal/scheduler"
	"anoa.com/gamingcommunity/internal/server"
	"anoa.com/gamingcommunity/pkg/cache"
	"anoa.com/gamingcommunity/pkg/database"
	"anoa.com/gamingcommunity/pkg/logger"
	"anoa.com/gamingcommunity/pkg/storage"
	"anoa.com/gamingcommunity/pkg/token"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New(logger.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	db, err := database.Connect(database.Options{
		Driver:   cfg.DBDriver,
		URL:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		LogSQL:   cfg.IsDevelopment() && cfg.LogLevel == "debug",
	})
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zl.Warn("database close failed", zap.Error(err))
		}
	}()

	if err := bootstrap.Migrate(db); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUser(db, cfg.AdminEmail, cfg.AdminPassword, zl); err != nil {
			zl.Fatal("failed to seed admin user", zap.Error(err))
		}
	}

	sched := scheduler.New(zl.Named("scheduler"))
	deps := server.Deps{
		Config:    cfg,
		DB:        db,
		Tokens:    token.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		Log:       zl,
		Scheduler: sched,
	}

	if redisClient := connectRedis(cfg, zl); redisClient != nil {
		deps.Redis = redisClient
		defer redisClient.Close()
	}

	if cfg.MeiliSearchHost != "" {
		host := cfg.MeiliSearchHost
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		deps.Search = searchService.NewMeiliSearchService(meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey)))
		zl.Info("search enabled", zap.String("host", host))
	} else {
		zl.Info("MEILISEARCH_HOST not set, search disabled")
	}

	images, err := storage.NewCloudinaryStorage(storage.Credentials{
		URL:       cfg.CloudinaryURL,
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	})
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		zl.Info("cloudinary not configured, uploads disabled")
	case err != nil:
		zl.Fatal("failed to initialize cloudinary storage", zap.Error(err))
	default:
		deps.Images = images
	}

	srv := server.NewServer(deps)

	for _, job := range srv.Jobs() {
		if err := sched.Register(job); err != nil {
			zl.Fatal("failed to register job", zap.Error(err))
		}
	}
	sched.Start()

	httpServer := srv.HTTPServer(":" + cfg.Port)
	go func() {
		zl.Info("server listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.AppEnv))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server exited with error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(ctx)
}

// connectRedis returns nil when redis is not configured or unreachable; the
// features that need it degrade instead of blocking startup.
func connectRedis(cfg *config.Config, zl *zap.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		zl.Info("REDIS_URL not set, live activity and stats cache disabled")
		return nil
	}
	client, err := cache.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		zl.Warn("redis unavailable, continuing without it", zap.Error(err))
		return nil
	}
	zl.Info("redis connected")
	return client
}
