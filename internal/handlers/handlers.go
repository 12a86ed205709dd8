package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"funnel-tracker/internal/config"
	"funnel-tracker/internal/export"
	"funnel-tracker/internal/metrics"
	"funnel-tracker/internal/models"
	"funnel-tracker/internal/monitoring"
	"funnel-tracker/internal/storage"
	"funnel-tracker/internal/transformer"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
	readinessTimeout = 2 * time.Second
)

type Handler struct {
	config      *config.Config
	transformer *transformer.Transformer
	store       storage.ProspectStore
	calculator  *metrics.Calculator
	exporter    *export.Exporter
	monitor     *monitoring.Collector
	logger      *logrus.Logger
}

func New(cfg *config.Config, transformer *transformer.Transformer, store storage.ProspectStore,
	calculator *metrics.Calculator, exporter *export.Exporter, monitor *monitoring.Collector,
	logger *logrus.Logger) *Handler {
	return &Handler{
		config:      cfg,
		transformer: transformer,
		store:       store,
		calculator:  calculator,
		exporter:    exporter,
		monitor:     monitor,
		logger:      logger,
	}
}

// RegisterRoutes mounts every endpoint on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.monitor.Middleware())

	// Health endpoints
	router.GET("/healthz", h.HealthCheck)
	router.GET("/readyz", h.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(h.monitor.Handler()))

	// Funnel catalogue
	router.GET("/funnel-types", h.ListFunnelTypes)
	router.GET("/funnel-types/:id", h.GetFunnelType)

	// Stateless planner
	router.POST("/scaling-timeline", h.PlanScalingTimeline)

	api := router.Group("/", Identity())
	api.GET("/prospects", h.ListProspects)
	api.POST("/prospects", h.CreateProspect)
	api.GET("/prospects/:id", h.GetProspect)
	api.PUT("/prospects/:id", h.UpdateProspect)
	api.DELETE("/prospects/:id", h.DeleteProspect)
	api.GET("/prospects/:id/stages", h.GetStages)
	api.GET("/prospects/:id/metrics", h.GetMetrics)
	api.POST("/prospects/:id/projection", h.Projection)
	api.GET("/prospects/:id/scaling-timeline", h.ProspectScalingTimeline)
	api.POST("/prospects/:id/export", h.ExportProspect)

	admin := api.Group("/admin", RequireRole(RoleSuperadmin))
	admin.GET("/prospects", h.AdminListProspects)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "funnel-tracker",
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Prospect store is not reachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"store":   h.config.StoreDriver,
			"message": "Prospect store is not reachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"store":  h.config.StoreDriver,
	})
}

// respondStoreError maps a store failure to a response.
func (h *Handler) respondStoreError(c *gin.Context, err error, action string) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prospect not found"})
		return
	}
	h.logger.WithError(err).WithField("action", action).Error("Prospect store failure")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
}

func (h *Handler) respondInvalid(c *gin.Context, quality models.RecordQuality) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid input",
		"issues":  transformer.Issues(quality),
		"quality": quality,
	})
}

// paginate slices items by the limit and offset query parameters.
func paginate(c *gin.Context, items []models.Prospect) (models.ListResponse, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return models.ListResponse{}, false
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return models.ListResponse{}, false
	}

	// Apply pagination, clamping before adding so large offsets cannot overflow
	total := len(items)
	start := min(offset, total)
	end := start + min(limit, total-start)

	return models.ListResponse{
		Data:    items[start:end],
		Total:   total,
		Page:    offset/limit + 1,
		Limit:   limit,
		HasMore: end < total,
	}, true
}

// cloneProspect deep-copies p so request data can be decoded over it
// without touching the stored record.
func cloneProspect(p models.Prospect) (models.Prospect, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return models.Prospect{}, err
	}
	var out models.Prospect
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.Prospect{}, err
	}
	return out, nil
}
