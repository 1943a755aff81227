package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mgoveia/recipevault-be/internal/api"
	"github.com/mgoveia/recipevault-be/internal/config"
	"github.com/mgoveia/recipevault-be/internal/database"
	"github.com/mgoveia/recipevault-be/internal/imagestore"
	"github.com/mgoveia/recipevault-be/internal/logger"
	"github.com/mgoveia/recipevault-be/internal/services"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the image store
	var images imagestore.Store
	var mediaDir string
	switch cfg.ImageStore {
	case "s3":
		images, err = imagestore.NewS3Store(context.Background(), imagestore.S3Options{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3User,
			SecretKey: cfg.S3Password,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 image store")
		}
	default:
		diskStore, err := imagestore.NewDiskStore(cfg.MediaRoot)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize disk image store")
		}
		images = diskStore
		mediaDir = diskStore.Root()
	}

	// Set up services
	userService := services.NewUserService(db)
	recipeService := services.NewRecipeService(db)
	attributeService := services.NewAttributeService(db)

	// Set up router
	router := api.NewRouter(userService, recipeService, attributeService, images, mediaDir)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
