package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/clients"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/config"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/handlers"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/repository"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/routes"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/services"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/worker"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/pkg/logger"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// deliveryLog is written by the channel services and read by the status API.
type deliveryLog interface {
	services.DeliveryLog
	handlers.DeliveryLogReader
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logr := logger.New(cfg.LogLevel, cfg.LogFormat)
	metricsCollector := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize delivery log
	var deliveries deliveryLog
	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			logr.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		store := repository.NewDeliveryLogStore(db)
		if err := store.Migrate(); err != nil {
			logr.Error("failed to migrate delivery log", slog.Any("error", err))
			os.Exit(1)
		}
		deliveries = store
	} else {
		logr.Warn("DATABASE_URL not set, keeping delivery log in memory")
		deliveries = repository.NewMemoryDeliveryLog(0)
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(redisOptions(cfg.RedisURL))
		defer redisClient.Close()
	}

	// Initialize broker
	broker := connectBroker(cfg.Broker, logr)
	defer broker.Close()

	// Initialize provider clients
	signer, err := clients.NewSigner(cfg.Solapi.APIKey, cfg.Solapi.APISecret, cfg.Solapi.TimeZone)
	if err != nil {
		logr.Warn("alimtalk signing is not configured, alimtalk sends will fail", slog.Any("error", err))
	}
	httpClient := clients.NewHTTPClient(clients.Timeouts{
		Connect:  cfg.Provider.ConnectTimeout,
		Response: cfg.Provider.ResponseTimeout,
	})
	alimtalkClient := clients.NewAlimtalkClient(cfg.Solapi.BaseURL, signer, httpClient, logr)
	friendtalkClient := clients.NewFriendtalkClient(cfg.Kakao.BaseURL, cfg.Kakao.AdminKey, httpClient, logr)
	mailClient := clients.NewMailClient(clients.MailSettings{
		Host:        cfg.Mail.Host,
		Port:        cfg.Mail.Port,
		Username:    cfg.Mail.Username,
		Password:    cfg.Mail.Password,
		UseTLS:      cfg.Mail.UseTLS,
		UseSSL:      cfg.Mail.UseSSL,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		DialTimeout: cfg.Provider.ConnectTimeout,
	}, logr)

	// Initialize services
	options := func(routingKey string) services.Options {
		return services.Options{
			Producer:    broker.producer,
			RoutingKey:  routingKey,
			DeliveryLog: deliveries,
			Metrics:     metricsCollector,
			Logger:      logr,
			SendTimeout: cfg.Provider.SendTimeout,
		}
	}
	kakaoService := services.NewKakaoService(alimtalkClient, friendtalkClient, services.DefaultTemplates(), services.KakaoSettings{
		SenderKey:   cfg.Kakao.SenderKey,
		SenderPhone: cfg.Kakao.SenderPhone,
	}, options(cfg.Broker.KakaoRoutingKey))
	emailService := services.NewEmailService(mailClient, options(cfg.Broker.EmailRoutingKey))
	dispatcher := services.NewDispatcher(emailService, kakaoService, options(cfg.Broker.NotificationRoutingKey))

	// Start consumers
	consumerDone := make(chan struct{})
	if workers := broker.workers; len(workers) > 0 {
		var guard worker.Guard
		if redisClient != nil {
			guard = services.NewRedeliveryGuard(repository.NewRedisRepository(redisClient), cfg.Broker.DedupeTTL)
		}
		consumer := worker.NewConsumer(dispatcher, guard, metricsCollector, logr)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx, broker.serve(consumer)...); err != nil {
				logr.Error("consumer stopped", slog.Any("error", err))
			}
		}()
	} else {
		close(consumerDone)
	}

	// Initialize handlers
	notificationHandler := handlers.NewNotificationHandler(kakaoService, emailService, dispatcher)
	statusHandler := handlers.NewStatusHandler(deliveries)

	// Initialize router
	router := gin.Default()
	router.Use(metricsCollector.GinMiddleware())
	router.GET("/metrics", gin.WrapH(metricsCollector.Handler()))

	// Setup routes
	routes.SetupRoutes(router, notificationHandler, statusHandler, routes.Options{
		APIToken:  cfg.APIToken,
		RateLimit: cfg.RateLimit,
		Redis:     redisClient,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server listen failed", slog.Any("error", err))
			stop()
		}
	}()
	logr.Info("dispatcher started", slog.String("port", cfg.Port), slog.Bool("broker", broker.producer != nil))

	<-ctx.Done()
	logr.Info("shutting down server")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", slog.Any("error", err))
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		logr.Warn("consumers did not stop in time")
	}

	logr.Info("server exiting")
}

func redisOptions(url string) *redis.Options {
	if opts, err := redis.ParseURL(url); err == nil {
		return opts
	}
	return &redis.Options{Addr: url}
}
