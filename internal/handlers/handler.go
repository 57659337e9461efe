package handlers

import (
	"net/http"

	"statusboard/internal/logger"
	"statusboard/internal/platform"
	"statusboard/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler wires the portal HTTP layer to the services and logging.
type Handler struct {
	services *service.Service
	image    platform.ImageTarget
	power    platform.Power

	// adminHash is the bcrypt hash guarding mutating endpoints; empty
	// means the portal is open, which is the usual state on the
	// device's own access point.
	adminHash string

	log *logger.Logger
}

func NewHandler(services *service.Service, image platform.ImageTarget, power platform.Power, adminHash string, log *logger.Logger) *Handler {
	return &Handler{
		services:  services,
		image:     image,
		power:     power,
		adminHash: adminHash,
		log:       log,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", h.portalPage)
	router.GET("/health", h.health)
	router.GET("/status", h.getStatus)
	router.GET("/logs", h.getLogs)

	// Live status push over the same port.
	router.GET("/ws", h.wsConnect)

	router.GET("/config", h.getConfig)

	protected := router.Group("/", h.adminRequired)
	{
		protected.POST("/config", h.saveConfig)
		protected.POST("/firmware", h.uploadFirmware)
		protected.POST("/firmware/check", h.checkFirmware)
	}

	// Captive-portal probes from phones and laptops land on arbitrary
	// paths; send them all to the setup page.
	router.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})

	return router
}
