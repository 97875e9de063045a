package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boadwuma-backend/internal/config"
	appmiddleware "boadwuma-backend/internal/middleware"
	"boadwuma-backend/internal/modules/chat"
	"boadwuma-backend/internal/modules/providers"
	"boadwuma-backend/internal/modules/requests"
	"boadwuma-backend/internal/modules/tracking"
	"boadwuma-backend/internal/modules/users"
	"boadwuma-backend/internal/platform/events"
	"boadwuma-backend/internal/platform/geo"
	"boadwuma-backend/internal/platform/notify"
	"boadwuma-backend/internal/platform/ws"
	"boadwuma-backend/pkg/payment"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	var publisher events.PublisherInterface
	if cfg.RabbitMQURL != "" {
		pub, err := events.NewPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer pub.Close()
		publisher = pub
	} else {
		log.Println("RABBITMQ_URL not set, status events will not be published")
	}

	var notifier requests.NotifierInterface = notify.LogNotifier{}
	if cfg.AWSRegion != "" && cfg.EmailSender != "" {
		sesNotifier, err := notify.NewSESNotifier(ctx, cfg.AWSRegion, cfg.EmailSender)
		if err != nil {
			log.Fatalf("Failed to initialize SES: %v", err)
		}
		notifier = sesNotifier
	}

	hub := ws.New()

	userRepo := users.NewRepository(pool)
	providerRepo := providers.NewRepository(pool)
	requestRepo := requests.NewRepository(pool)
	chatRepo := chat.NewRepository(pool)
	trackingStore := tracking.NewStore(rdb, cfg.TrackingEntryTTL)

	userSvc := users.NewService(userRepo, cfg.JWTSecret)
	providerSvc := providers.NewService(providerRepo)
	paymentSvc := payment.NewStripeService(cfg.StripeAPIKey)

	requestSvc := requests.NewService(
		requestRepo,
		geo.NewSimulated(),
		trackingStore,
		chatRepo,
		publisher,
		hub,
		notifier,
		userSvc,
		providerSvc,
		paymentSvc,
	)
	trackingSvc := tracking.NewService(trackingStore, requestSvc, hub)
	chatSvc := chat.NewService(chatRepo, requestSvc, hub)

	userHandler := users.NewHandler(userSvc)
	providerHandler := providers.NewHandler(providerSvc)
	requestHandler := requests.NewHandler(requestSvc)
	trackingHandler := tracking.NewHandler(trackingSvc)
	chatHandler := chat.NewHandler(chatSvc)
	wsHandler := ws.NewHandler(hub)

	if cfg.PendingRequestTTL > 0 {
		reaper := requests.NewReaper(requestRepo, requestSvc, cfg.PendingRequestTTL)
		go reaper.Run(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	userHandler.RegisterPublicRoutes(api)

	protected := api.Group("", appmiddleware.JWT(cfg.JWTSecret), appmiddleware.ExtractClaims)
	userHandler.RegisterRoutes(protected)
	providerHandler.RegisterRoutes(protected)
	requestHandler.RegisterRoutes(protected)
	trackingHandler.RegisterRoutes(protected)
	chatHandler.RegisterRoutes(protected)

	e.GET("/ws", wsHandler.Serve)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
