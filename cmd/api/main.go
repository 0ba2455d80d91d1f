package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/config"
	"github.com/campuslink/campuslink-api/internal/database"
	"github.com/campuslink/campuslink-api/internal/handler"
	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/repository"
	"github.com/campuslink/campuslink-api/internal/router"
	"github.com/campuslink/campuslink-api/internal/service"
	cloud "github.com/campuslink/campuslink-api/pkg/cloudinary"
	"github.com/campuslink/campuslink-api/pkg/expo"
	"github.com/campuslink/campuslink-api/pkg/googleauth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Client{}, &models.User{},
		&models.Tag{}, &models.Subscription{}, &models.Message{},
		&models.Event{}, &models.CheckIn{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	clientRepo := repository.NewClientRepository(db)
	userRepo := repository.NewUserRepository(db)
	tagRepo := repository.NewTagRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	eventRepo := repository.NewEventRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)

	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	googleVerifier := googleauth.New(cfg.GoogleClientID, logger)
	authService := service.NewAuthService(clientRepo, userRepo, tokenService, googleVerifier, cfg.GatewayTimeout, logger)

	registry := service.NewRoomRegistry(logger)
	notifier := expo.New(cfg.ExpoPushURL, logger)
	notificationService := service.NewNotificationService(subscriptionRepo, clientRepo, notifier, natsConn, cfg.GatewayTimeout, logger)
	messageService := service.NewMessageService(messageRepo, tagRepo, userRepo, notificationService, registry, redisClient, validate, logger)
	realtimeService := service.NewRealtimeService(authService, messageService, tagRepo, subscriptionRepo, registry, logger)
	tagService := service.NewTagService(tagRepo, subscriptionRepo, logger)
	eventService := service.NewEventService(eventRepo, checkInRepo, userRepo, redisClient, logger)
	moderationService := service.NewModerationService(messageRepo, userRepo, clientRepo, authService, logger)

	deps := router.Dependencies{
		ClientHandler:     handler.NewClientHandler(authService, validate, logger),
		TagHandler:        handler.NewTagHandler(tagService, logger),
		MessageHandler:    handler.NewMessageHandler(messageService, validate, logger),
		ModerationHandler: handler.NewModerationHandler(moderationService, validate, logger),
		EventHandler:      handler.NewEventHandler(eventService, logger),
		RealtimeHandler:   handler.NewRealtimeHandler(realtimeService, logger),
		AuthMiddleware:    middleware.Protected(authService),
	}

	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploadService := service.NewUploadService(uploader, logger)
		deps.UploadHandler = handler.NewUploadHandler(uploadService, logger)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	notificationService.Start(workerCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
