package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/qs3c/uslugi_go_server/config"
	"github.com/qs3c/uslugi_go_server/internal/api"
	"github.com/qs3c/uslugi_go_server/internal/api/handler"
	"github.com/qs3c/uslugi_go_server/internal/database"
	"github.com/qs3c/uslugi_go_server/internal/pkg/lock"
	"github.com/qs3c/uslugi_go_server/internal/pkg/pubsub"
	"github.com/qs3c/uslugi_go_server/internal/pkg/ws"
	"github.com/qs3c/uslugi_go_server/internal/repository"
	"github.com/qs3c/uslugi_go_server/internal/scheduler"
	"github.com/qs3c/uslugi_go_server/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// WebSocket hub fed from the redis notification channel
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Run(context.Background(), func(event *pubsub.Event) {
			_ = wsHub.SendToUser(event.UserID, &ws.Message{
				Type: event.Type,
				Data: event,
			})
		})
		if err != nil && err != context.Canceled {
			log.Printf("Notification subscriber stopped: %v", err)
		}
	}()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	publisher := pubsub.NewPublisher(rdb)
	notificationService := service.NewNotificationService(notificationRepo, publisher)
	promotionService := service.NewPromotionService(userRepo, paymentRepo, notificationService, cfg)
	rankingService := service.NewRankingService(userRepo, promotionService)

	// Background jobs: promotion tick + daily counter reset
	tickLocker := lock.NewLocker(rdb, scheduler.TickLockKey, scheduler.TickLockTTL)
	jobs, err := scheduler.NewService(db, userRepo, paymentRepo, tickLocker, &cfg.Promotion)
	if err != nil {
		log.Fatalf("Failed to init scheduler: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	// Handlers
	paymentHandler := handler.NewPaymentHandler(promotionService)
	masterHandler := handler.NewMasterHandler(rankingService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// Router
	router := api.NewRouter(
		paymentHandler,
		masterHandler,
		notificationHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
