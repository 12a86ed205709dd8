package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"funnel-tracker/internal/funnel"
	"funnel-tracker/internal/models"
	"funnel-tracker/internal/storage"
)

func (h *Handler) ListProspects(c *gin.Context) {
	h.listProspects(c, storage.SearchFilter{
		UserID: currentUser(c),
		Query:  c.Query("q"),
		Status: c.Query("status"),
	})
}

// AdminListProspects browses every user's prospects, optionally narrowed
// to one user.
func (h *Handler) AdminListProspects(c *gin.Context) {
	h.listProspects(c, storage.SearchFilter{
		UserID: c.Query("user_id"),
		Query:  c.Query("q"),
		Status: c.Query("status"),
	})
}

func (h *Handler) listProspects(c *gin.Context, filter storage.SearchFilter) {
	if s := filter.Status; s != "" && s != "all" && !models.ProspectStatus(s).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + s})
		return
	}

	prospects, err := h.store.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondStoreError(c, err, "list prospects")
		return
	}

	response, ok := paginate(c, prospects)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) CreateProspect(c *gin.Context) {
	var in models.Prospect
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	in.ID = ""
	in.UserID = currentUser(c)

	normalized, quality := h.transformer.NormalizeProspect(in)
	if !quality.IsValid {
		h.respondInvalid(c, quality)
		return
	}

	created, err := h.store.Create(c.Request.Context(), normalized)
	if err != nil {
		h.respondStoreError(c, err, "create prospect")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"prospect_id": created.ID,
		"user_id":     created.UserID,
		"funnel_type": created.FunnelType,
	}).Info("Prospect created")

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetProspect(c *gin.Context) {
	p, ok := h.loadProspect(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProspect applies the fields present in the body to the stored
// prospect. A field sent as null is cleared.
func (h *Handler) UpdateProspect(c *gin.Context) {
	existing, ok := h.loadProspect(c)
	if !ok {
		return
	}

	merged, err := cloneProspect(existing)
	if err != nil {
		h.respondStoreError(c, err, "update prospect")
		return
	}
	if err := c.ShouldBindJSON(&merged); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	merged.ID = existing.ID
	merged.UserID = existing.UserID
	merged.CreatedAt = existing.CreatedAt

	normalized, quality := h.transformer.NormalizeProspect(merged)
	if !quality.IsValid {
		h.respondInvalid(c, quality)
		return
	}

	updated, err := h.store.Update(c.Request.Context(), normalized)
	if err != nil {
		h.respondStoreError(c, err, "update prospect")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"prospect_id": updated.ID,
		"status":      updated.Status,
	}).Info("Prospect updated")

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteProspect(c *gin.Context) {
	p, ok := h.loadProspect(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), p.ID); err != nil {
		h.respondStoreError(c, err, "delete prospect")
		return
	}

	h.logger.WithField("prospect_id", p.ID).Info("Prospect deleted")
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetStages(c *gin.Context) {
	p, ok := h.loadProspect(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prospect_id": p.ID,
		"funnel_type": p.FunnelType,
		"stages":      funnel.ActiveStages(p),
	})
}

// loadProspect fetches the prospect named in the path. Prospects owned by
// someone else look missing unless the caller is a superadmin.
func (h *Handler) loadProspect(c *gin.Context) (models.Prospect, bool) {
	p, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err, "load prospect")
		return models.Prospect{}, false
	}
	if p.UserID != currentUser(c) && !isSuperadmin(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prospect not found"})
		return models.Prospect{}, false
	}
	return p, true
}
