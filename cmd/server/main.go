package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relaymesh/push-relay/internal/config"
	"github.com/relaymesh/push-relay/internal/httperr"
	"github.com/relaymesh/push-relay/internal/logger"
	"github.com/relaymesh/push-relay/internal/metrics"
	"github.com/relaymesh/push-relay/internal/relay"
	"github.com/relaymesh/push-relay/internal/session"
)

func main() {
	config.LoadConfig()

	log := logger.New(logger.FromConfig(config.AppConfig.LogLevel, config.AppConfig.LogFormat))

	// Set Gin mode
	log.Info("setting gin mode", "mode", config.AppConfig.GinMode)
	gin.SetMode(config.AppConfig.GinMode)

	// Initialize services
	sessionManager := session.NewManager(session.NewFirebaseFactory(log), log)
	relayService := relay.NewService(config.AppConfig.SecretKey, sessionManager, log)

	// Initialize handlers
	relayHandler := relay.NewHandler(relayService, log)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware
	allowedOrigin := config.AppConfig.CORSAllowedOrigins
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(requestIDMiddleware())
	router.Use(bodyLimitMiddleware(config.AppConfig.MaxBodyBytes))
	router.Use(relayTimeoutMiddleware(time.Duration(config.AppConfig.RelayTimeoutSeconds) * time.Second))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if config.AppConfig.MetricsEnabled {
		router.GET("/metrics", metrics.Handler())
	}

	// Relay API routes
	api := router.Group("/api")
	{
		api.POST("/send", relayHandler.SendNotification)
	}

	port := ":" + config.AppConfig.Port
	log.Info("relay listening", "port", port)

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.AppConfig.ServerShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}

// requestIDMiddleware issues a request ID and threads it through the
// request context so every log line can be correlated.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// bodyLimitMiddleware caps the request body. Encrypted credential blobs are
// small; anything larger is rejected before parsing.
func bodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httperr.AbortWithBadRequest(c, "request body too large", map[string]interface{}{
				"max_bytes": maxBytes,
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// relayTimeoutMiddleware bounds each request so a slow provider cannot
// hold connections open indefinitely.
func relayTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
