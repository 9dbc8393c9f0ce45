package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/api"
	"github.com/pageza/recipebox/backend/internal/database"
	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/router"
	"github.com/pageza/recipebox/backend/internal/server"
	"github.com/pageza/recipebox/backend/internal/service"
	"github.com/pageza/recipebox/backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if config.IsDevelopment() {
		// A missing .env file is fine; the environment may already be set.
		_ = godotenv.Load()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.LogLevel)
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db, database.MigrationFiles); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	s3Cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return err
	}
	mediaOpts := []service.MediaOption{
		service.WithMaxImageBytes(cfg.MaxImageBytes),
		service.WithStoreTimeout(cfg.MediaStoreTimeout),
	}
	recipeImages := service.NewMediaManager(
		storage.NewS3BlobStore(s3Cfg.Client, s3Cfg.BucketName, s3Cfg.RecipePrefix, s3Cfg.PublicBaseURL), mediaOpts...)
	avatars := service.NewMediaManager(
		storage.NewS3BlobStore(s3Cfg.Client, s3Cfg.BucketName, s3Cfg.AvatarPrefix, s3Cfg.PublicBaseURL), mediaOpts...)

	authService := service.NewAuthService(db, cfg.JWTSecret)
	recipeService := service.NewRecipeService(db, recipeImages)
	deps := api.Dependencies{
		DB:            db,
		Auth:          authService,
		Recipes:       recipeService,
		Profiles:      service.NewProfileService(db, avatars),
		Drafts:        service.NewDraftService(storage.NewRedisDraftBackend(redisClient), recipeService),
		RateLimiter:   middleware.NewWriteRateLimiter(redisClient, cfg.RateLimitPerMinute),
		MaxImageBytes: int64(cfg.MaxImageBytes),
	}
	srv := server.New(cfg, router.SetupRouter(deps, cfg.CORSOrigins))

	srv.OnStop(func() error {
		slog.Info("closing database")
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown requested")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
