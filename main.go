package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicreport/auth"
	"civicreport/config"
	"civicreport/database"
	"civicreport/handlers"
	"civicreport/middleware"
	"civicreport/push"
	"civicreport/rabbitmq"
	"civicreport/service"
	"civicreport/version"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const serviceName = "civicreport"

func main() {
	// Load configuration
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Create database connection
	db, err := database.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to create database connection")
	}
	defer db.Close()

	// Ensure schema and seeded reference data
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to ensure database schema")
	}
	if err := db.SeedReferenceData(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to seed reference data")
	}

	if err := os.MkdirAll(cfg.PhotoDir, 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create photo storage directory")
	}

	// Initialize RabbitMQ publisher for lifecycle events. The broker is
	// optional; without it events are skipped.
	var events service.EventPublisher
	var publisher *rabbitmq.Publisher
	if amqpURL := cfg.GetAMQPURL(); amqpURL != "" {
		publisher, err = rabbitmq.NewPublisher(amqpURL, cfg.RabbitMQExchange, cfg.RabbitMQEventRoutingKey)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize RabbitMQ publisher, continuing without lifecycle events")
		} else {
			events = publisher
			log.Infof("RabbitMQ publisher initialized: exchange=%s, routing_key=%s", cfg.RabbitMQExchange, cfg.RabbitMQEventRoutingKey)
		}
	}

	// Wire the push notification path and the report service
	pushClient := push.NewClient(cfg.PushGatewayURL, cfg.PushTimeout)
	notifier := service.NewLifecycleNotifier(db, pushClient)
	svc := service.New(db, notifier, events)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.New(db, svc, tokens, cfg)

	router := setupRouter(h, tokens)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close RabbitMQ publisher")
		}
	}

	log.Info("Server exited")
}

func setupRouter(h *handlers.Handlers, tokens *auth.Manager) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())

	router.GET("/health", h.Health)
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get(serviceName))
	})

	api := router.Group("/api/v1")
	{
		// Public routes
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.GET("/categories", h.ListCategories)
		api.GET("/photos/:filename", h.GetPhoto)

		// Authenticated routes
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(tokens))
		{
			authorized.GET("/user", h.GetUser)
			authorized.GET("/user/points", h.GetUserPoints)
			authorized.GET("/user/reports", h.GetUserOwnReports)

			authorized.POST("/reports", h.CreateReport)
			authorized.GET("/reports", h.ListReports)
			authorized.GET("/reports/:id", h.GetReport)
			authorized.PATCH("/reports/:id", h.UpdateReport)
			authorized.GET("/reports/:id/details", h.GetReportDetail)

			authorized.POST("/device-tokens", h.RegisterDeviceToken)
			authorized.GET("/device-tokens", h.ListDeviceTokens)
			authorized.POST("/device-tokens/unregister", h.UnregisterDeviceToken)
			authorized.DELETE("/device-tokens", h.DeleteDeviceToken)

			// Admin/curator routes
			managers := authorized.Group("")
			managers.Use(middleware.RequireManager())
			{
				managers.PATCH("/reports/:id/status", h.UpdateStatus)
				managers.DELETE("/reports/:id", h.DeleteReport)
				managers.POST("/reports/:id/details", h.CreateReportDetail)
				managers.PATCH("/reports/:id/details", h.UpdateReportDetail)

				managers.GET("/users", h.ListUsers)
				managers.PATCH("/users/:id/role", h.UpdateUserRole)
				managers.DELETE("/users/:id", h.DeleteUser)

				managers.GET("/dashboard/overview", h.GetDashboardOverview)
				managers.GET("/dashboard/resolution", h.GetDashboardResolution)
				managers.GET("/dashboard/categories", h.GetDashboardCategories)
				managers.GET("/dashboard/financial", h.GetDashboardFinancial)
			}
		}
	}

	return router
}
