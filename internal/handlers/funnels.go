package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"funnel-tracker/internal/funnel"
	"funnel-tracker/internal/models"
)

func (h *Handler) ListFunnelTypes(c *gin.Context) {
	defs := funnel.All()
	c.JSON(http.StatusOK, models.ListResponse{Data: defs, Total: len(defs)})
}

func (h *Handler) GetFunnelType(c *gin.Context) {
	id := c.Param("id")
	def, ok := funnel.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown funnel type: " + id})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"funnel_type":         def,
		"default_stage_names": funnel.DefaultStageNames(id),
		"optimization_events": funnel.OptimizationEvents(id),
	})
}
