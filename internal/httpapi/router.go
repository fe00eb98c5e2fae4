package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sparkmatch/sparkmatch/internal/interfaces"
	"github.com/sparkmatch/sparkmatch/internal/middleware"
)

// Handler wires the service layer to HTTP routes.
type Handler struct {
	matching  interfaces.MatchingServiceInterface
	rooms     interfaces.ChatRoomServiceInterface
	messaging interfaces.MessagingServiceInterface
	health    []HealthCheck
}

func NewHandler(matching interfaces.MatchingServiceInterface, rooms interfaces.ChatRoomServiceInterface, messaging interfaces.MessagingServiceInterface, checks ...HealthCheck) *Handler {
	return &Handler{
		matching:  matching,
		rooms:     rooms,
		messaging: messaging,
		health:    checks,
	}
}

// RouterConfig controls optional router middleware.
type RouterConfig struct {
	ServiceName    string
	EnableTracing  bool
	RateLimitMax   int
	RateLimitEvery time.Duration
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ServiceName:    "sparkmatch",
		EnableTracing:  true,
		RateLimitMax:   60,
		RateLimitEvery: time.Second,
	}
}

// Router builds the gin engine with the full middleware chain and all
// routes.
func (h *Handler) Router(config RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logging(nil))
	if config.EnableTracing {
		router.Use(otelgin.Middleware(config.ServiceName))
	}
	if config.RateLimitMax > 0 {
		router.Use(middleware.RateLimit(config.RateLimitMax, config.RateLimitEvery))
	}

	router.GET("/health", h.healthCheck)

	api := router.Group("/api")
	api.Use(middleware.RequireUser())
	{
		api.POST("/likes/:id", h.like)
		api.DELETE("/likes/:id", h.unlike)
		api.GET("/likes", h.listLikes)

		api.GET("/matches", h.listMatches)
		api.PATCH("/matches/:id/read", h.markMatchRead)

		chat := api.Group("/chat")
		{
			chat.POST("/rooms", h.createRoom)
			chat.GET("/rooms", h.listRooms)
			chat.GET("/rooms/with/:id", h.roomWith)
			chat.GET("/rooms/:id", h.roomByID)

			chat.POST("/rooms/:id/messages", h.sendMessage)
			chat.GET("/rooms/:id/messages", h.listMessages)
			chat.PATCH("/rooms/:id/messages/read", h.markMessagesRead)
			chat.PATCH("/messages/:id/delivered", h.markMessageDelivered)
			chat.DELETE("/messages/:id", h.deleteMessage)
		}
	}

	return router
}
