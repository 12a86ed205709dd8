package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"funnel-tracker/internal/export"
	"funnel-tracker/internal/metrics"
	"funnel-tracker/internal/models"
	"funnel-tracker/internal/monitoring"
)

const (
	metricsUnavailable    = "Enter the current daily spend and stage 1 CPA to see metrics"
	projectionUnavailable = "Enter a daily spend and stage 1 CPA, current or projected, to see a projection"
)

func (h *Handler) GetMetrics(c *gin.Context) {
	p, ok := h.loadProspect(c)
	if !ok {
		return
	}

	report := h.calculator.CurrentMetrics(p)
	if report == nil {
		h.monitor.RecordCalculation(monitoring.KindMetrics, monitoring.ResultUnavailable)
		c.JSON(http.StatusOK, models.MetricsResponse{
			ProspectID: p.ID,
			Available:  false,
			Message:    metricsUnavailable,
		})
		return
	}

	h.monitor.RecordCalculation(monitoring.KindMetrics, monitoring.ResultOK)
	c.JSON(http.StatusOK, models.MetricsResponse{
		ProspectID: p.ID,
		Available:  true,
		Metrics:    report,
	})
}

// Projection evaluates the funnel with the body's hypothetical values layered
// over the saved projection. With ?save=true the values are stored on the
// prospect.
func (h *Handler) Projection(c *gin.Context) {
	p, ok := h.loadProspect(c)
	if !ok {
		return
	}

	var overrides models.ProjectionInputs
	if err := c.ShouldBindJSON(&overrides); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if quality := h.transformer.ValidateOverrides(overrides); !quality.IsValid {
		h.respondInvalid(c, quality)
		return
	}

	save, err := strconv.ParseBool(c.DefaultQuery("save", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "save must be true or false"})
		return
	}

	response := models.ProjectionResponse{ProspectID: p.ID}
	if save {
		p.ProjectionInputs = p.ProjectionInputs.Merge(overrides)
		updated, err := h.store.Update(c.Request.Context(), p)
		if err != nil {
			h.respondStoreError(c, err, "save projection")
			return
		}
		p = updated
		overrides = models.ProjectionInputs{}
		response.Saved = true
		h.logger.WithField("prospect_id", p.ID).Info("Projection saved")
	}

	response.Projection = h.calculator.Projection(p, overrides)
	response.Timeline = h.calculator.ScalingTimeline(p, overrides, nil)
	response.Available = response.Projection != nil
	if !response.Available {
		response.Message = projectionUnavailable
		h.monitor.RecordCalculation(monitoring.KindProjection, monitoring.ResultUnavailable)
	} else {
		h.monitor.RecordCalculation(monitoring.KindProjection, monitoring.ResultOK)
	}

	c.JSON(http.StatusOK, response)
}

// ProspectScalingTimeline plans from the current daily spend to the
// projected spend, or to ?target= when given.
func (h *Handler) ProspectScalingTimeline(c *gin.Context) {
	p, ok := h.loadProspect(c)
	if !ok {
		return
	}

	var target *float64
	if raw := c.Query("target"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target must be a positive number"})
			return
		}
		current := models.Float(p.CurrentDailySpend)
		increment := h.calculator.ResolveProjection(p, models.ProjectionInputs{}).ScalingIncrementPercent
		if current > 0 && v > current && metrics.ScalingStepsNeeded(current, v, increment) > metrics.MaxScalingSteps {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target takes too many increases to reach"})
			return
		}
		target = &v
	}

	timeline := h.calculator.ScalingTimeline(p, models.ProjectionInputs{}, target)
	h.monitor.RecordCalculation(monitoring.KindTimeline, timelineResult(timeline))

	c.JSON(http.StatusOK, gin.H{
		"prospect_id":      p.ID,
		"scaling_timeline": timeline,
	})
}

func (h *Handler) PlanScalingTimeline(c *gin.Context) {
	var req models.TimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if req.IncrementPercent == 0 {
		req.IncrementPercent = h.config.DefaultScalingIncrement
	}
	if req.FrequencyDays == 0 {
		req.FrequencyDays = h.config.DefaultScalingFrequency
	}
	if quality := h.transformer.ValidateTimelineRequest(req); !quality.IsValid {
		h.respondInvalid(c, quality)
		return
	}

	timeline := metrics.PlanScalingTimeline(req.CurrentSpend, req.TargetSpend, req.IncrementPercent, req.FrequencyDays)
	h.monitor.RecordCalculation(monitoring.KindTimeline, timelineResult(timeline))

	c.JSON(http.StatusOK, timeline)
}

func (h *Handler) ExportProspect(c *gin.Context) {
	p, ok := h.loadProspect(c)
	if !ok {
		return
	}

	report, err := h.exporter.Export(c.Request.Context(), p)
	if err != nil {
		h.monitor.RecordCalculation(monitoring.KindExport, monitoring.ResultError)
		if errors.Is(err, export.ErrSinkNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Export sink is not configured"})
			return
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"prospect_id": p.ID,
		}).Error("Failed to export to sink")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to export prospect report"})
		return
	}

	h.monitor.RecordCalculation(monitoring.KindExport, monitoring.ResultOK)
	c.JSON(http.StatusAccepted, gin.H{
		"status": "success",
		"report": report,
	})
}

func timelineResult(t models.ScalingTimeline) string {
	if len(t.Steps) == 0 {
		return monitoring.ResultUnavailable
	}
	return monitoring.ResultOK
}
