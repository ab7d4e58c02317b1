package routes

import (
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/handlers"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
)

// Options configure the middleware in front of the API.
type Options struct {
	APIToken  string
	RateLimit int
	Redis     *redis.Client
}

// SetupRoutes configures the routes for the application.
func SetupRoutes(
	router *gin.Engine,
	notificationHandler *handlers.NotificationHandler,
	statusHandler *handlers.StatusHandler,
	opts Options,
) {
	router.Use(middleware.CorrelationIDMiddleware())

	// One breaker per provider, so a failing channel never rejects requests
	// for the other channel or for delivery status.
	kakaoBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "kakao-api"})
	emailBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "email-api"})

	// Setup routes
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(opts.APIToken))
	v1.Use(middleware.RateLimitMiddleware(opts.Redis, opts.RateLimit, time.Minute))
	{
		notifications := v1.Group("/notifications")
		{
			notifications.POST("/send", notificationHandler.SendNotification)
			notifications.POST("/multi-channel", notificationHandler.SendMultiChannel)
			notifications.GET("/:request_id/status", statusHandler.GetStatus)

			kakao := notifications.Group("/kakao", middleware.CircuitBreakerMiddleware(kakaoBreaker))
			kakao.POST("/alimtalk", notificationHandler.SendAlimtalk)
			kakao.POST("/alimtalk/async", notificationHandler.SendAlimtalkAsync)
			kakao.POST("/friendtalk", notificationHandler.SendFriendtalk)
			kakao.POST("/friendtalk/async", notificationHandler.SendFriendtalkAsync)

			email := notifications.Group("/email", middleware.CircuitBreakerMiddleware(emailBreaker))
			email.POST("", notificationHandler.SendEmail)
			email.POST("/async", notificationHandler.SendEmailAsync)
		}
	}

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)
}
