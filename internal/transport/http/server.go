package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/auth"
	"github.com/parley-chat/parley-server/internal/config"
	"github.com/parley-chat/parley-server/internal/core"
	"github.com/parley-chat/parley-server/internal/media"
	"github.com/parley-chat/parley-server/internal/store"
)

// Routers bundles the core components the transport layer dispatches to.
type Routers struct {
	Registry  *core.Registry
	Broadcast *core.BroadcastRouter
	Private   *core.PrivateRouter
	Pager     *core.Pager
	Directory *core.Directory
}

// NewServer builds the HTTP server: REST API, websocket endpoint, media
// files, health and metrics.
func NewServer(routers Routers, authService *auth.Service, st store.Store, blobs *media.DiskStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))
	engine.Use(MetricsMiddleware())

	roomHandlers := NewRoomHandlers(routers.Registry, routers.Pager, cfg.DefaultPageSize, logger)
	privateHandlers := NewPrivateMessageHandlers(routers.Pager, logger)
	userHandlers := NewUserHandlers(authService, st, logger)
	fileHandlers := NewFileHandlers(blobs, logger)
	wsHandler := NewWSHandler(routers, authService, logger, cfg.MaxMessageBytes)

	api := engine.Group("/api/v1")
	{
		api.POST("/rooms", roomHandlers.CreateRoom)
		api.GET("/rooms/:roomId", roomHandlers.JoinRoom)
		api.GET("/rooms/:roomId/messages", roomHandlers.GetMessages)

		api.GET("/messages/:sender/:receiver", privateHandlers.GetConversation)

		api.POST("/users/register", userHandlers.Register)
		api.POST("/users/login", userHandlers.Login)
		api.GET("/users/search", userHandlers.Search)

		api.POST("/files/upload", AuthMiddleware(authService, logger), fileHandlers.Upload)
	}

	engine.Static("/media", blobs.Dir())
	engine.GET("/ws", gin.WrapH(wsHandler))
	engine.GET("/health", func(c *gin.Context) { c.String(stdhttp.StatusOK, "ok") })
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
