package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршруты для управления инцидентами
	incidents := api.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.PUT("/:id", h.updateIncident)
		incidents.PATCH("/:id/close", h.closeIncident)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
