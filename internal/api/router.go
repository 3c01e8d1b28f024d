package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/uslugi_go_server/config"
	"github.com/qs3c/uslugi_go_server/internal/api/handler"
	"github.com/qs3c/uslugi_go_server/internal/api/middleware"
)

type Router struct {
	paymentHandler      *handler.PaymentHandler
	masterHandler       *handler.MasterHandler
	notificationHandler *handler.NotificationHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	paymentHandler *handler.PaymentHandler,
	masterHandler *handler.MasterHandler,
	notificationHandler *handler.NotificationHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		paymentHandler:      paymentHandler,
		masterHandler:       masterHandler,
		notificationHandler: notificationHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket notification push
		api.GET("/ws", r.websocketHandler.Handle)

		// Public listing
		api.GET("/masters/top", r.masterHandler.Top)

		// Authenticated endpoints
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			payments := authenticated.Group("/payments")
			{
				payments.POST("/promote", r.paymentHandler.Promote)
				payments.POST("/:id/confirm", r.paymentHandler.Confirm)
				payments.POST("/extra-request", r.paymentHandler.ExtraRequest)
				payments.GET("", r.paymentHandler.List)
			}

			notifications := authenticated.Group("/notifications")
			{
				notifications.GET("", r.notificationHandler.List)
				notifications.POST("/:id/read", r.notificationHandler.MarkRead)
			}
		}
	}

	return engine
}
