package handlers

import (
	"net/http"

	_ "laundrybot/docs"
	"laundrybot/internal/logger"
	"laundrybot/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may be
// nil, in which case /metrics is not served.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	// Plain-text endpoints used by the power meter and the button box.
	h.registerDeviceRoutes(router)

	h.registerAPIRoutes(router)

	// Snapshot stream over WebSocket, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerDeviceRoutes(r *gin.Engine) {
	device := r.Group("/api")
	{
		device.POST("/update", h.submitReadings)
		device.POST("/button", h.pushButton)
		device.GET("/status", h.getStatus)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/snapshot", h.getSnapshot)
		api.POST("/readings", h.submitReadingsJSON)
		api.POST("/button", h.pushButtonJSON)
		api.GET("/loads", h.getLoads)
		api.GET("/events", h.getEvents)
	}
}
