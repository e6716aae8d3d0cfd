package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"notify-center/internal/handlers"
	"notify-center/internal/ingest"
	"notify-center/internal/middleware"
	"notify-center/internal/ratelimit"
	"notify-center/internal/services"
	"notify-center/internal/store"
	"notify-center/pkg/metrics"
)

// @title Notify Center API
// @version 1.0
// @description Notification and real-time event delivery for the ticket desk
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initConfig()
	metrics.Init()

	st, closeStore, err := initStore(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer closeStore()

	dedupTTL := time.Duration(viper.GetInt("notifications.dedup_ttl_seconds")) * time.Second
	mailboxSize := viper.GetInt("notifications.mailbox_size")
	keepalive := time.Duration(viper.GetInt("notifications.keepalive_seconds")) * time.Second

	dedup := services.NewDedupWindow(dedupTTL)
	router := services.NewRouter()
	broadcaster := services.NewBroadcaster(mailboxSize)
	service := services.NewNotificationService(st, dedup, router, broadcaster)
	limiter := ratelimit.NewLimiter()

	notificationHandler := handlers.NewNotificationHandler(service)
	streamHandler := handlers.NewStreamHandler(broadcaster, keepalive)
	wsHandler := handlers.NewWebSocketHandler(broadcaster, keepalive)

	engine := initRouter(notificationHandler, streamHandler, wsHandler, limiter)

	if viper.GetBool("kafka.enabled") {
		consumer := ingest.NewConsumer(ingest.Config{
			Brokers: viper.GetStringSlice("kafka.brokers"),
			Topic:   viper.GetString("kafka.topic"),
			GroupID: viper.GetString("kafka.group_id"),
		}, service)
		go func() {
			if err := consumer.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("kafka ingest stopped: %v", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", viper.GetString("app.host"), viper.GetInt("app.port"))

	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
		// Request contexts descend from ctx, so cancel() below ends open
		// SSE and WebSocket streams instead of riding out the shutdown
		// timeout.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Printf("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/notify-center")
	viper.AutomaticEnv()
	// So env vars like DATABASE_HOST (not DATABASE.HOST) override config keys like database.host
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.ReadInConfig()

	viper.SetDefault("app.host", "0.0.0.0")
	viper.SetDefault("app.port", 8080)
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("notifications.dedup_ttl_seconds", 300)
	viper.SetDefault("notifications.mailbox_size", 50)
	viper.SetDefault("notifications.keepalive_seconds", 30)
	viper.SetDefault("rate_limit.max_calls", 20)
	viper.SetDefault("rate_limit.period_seconds", 60)
	viper.SetDefault("kafka.group_id", "notify-center")
}

// initStore opens the configured storage backend. The memory driver exists
// for local development and tests; everything else goes through postgres.
func initStore(ctx context.Context) (store.Store, func(), error) {
	if viper.GetString("database.driver") == "memory" {
		return store.NewMemoryStore(), func() {}, nil
	}

	db, err := store.NewDatabase()
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.NewPostgresStore(db), db.Close, nil
}

func initRouter(
	notificationHandler *handlers.NotificationHandler,
	streamHandler *handlers.StreamHandler,
	wsHandler *handlers.WebSocketHandler,
	limiter *ratelimit.Limiter) *gin.Engine {

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	maxCalls := viper.GetInt("rate_limit.max_calls")
	period := time.Duration(viper.GetInt("rate_limit.period_seconds")) * time.Second

	api := router.Group("/api/v1")
	api.Use(middleware.IdentityMiddleware(viper.GetString("jwt.secret")))
	{
		api.GET("/notifications", notificationHandler.List)
		api.POST("/notifications",
			middleware.RateLimitMiddleware(limiter, maxCalls, period),
			notificationHandler.Create)
		api.GET("/notifications/all", notificationHandler.ListAll)
		api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
		api.DELETE("/notifications/:id", notificationHandler.Delete)
		api.GET("/notifications/stream", streamHandler.Stream)
		api.GET("/ws", wsHandler.HandleConnection)
	}

	return router
}
