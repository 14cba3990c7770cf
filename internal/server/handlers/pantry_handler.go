package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/auth"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

// ListPantry returns the caller's items, optionally filtered by ?status=.
func (h *Handler) ListPantry(c *gin.Context) {
	items, err := h.svc.Pantry.List(c.Request.Context(), auth.UserID(c), models.ItemStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// UpdateItemStatus marks an item active, consumed, donated or discarded.
func (h *Handler) UpdateItemStatus(c *gin.Context) {
	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.svc.Pantry.UpdateStatus(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeletePantryItem removes an item for good.
func (h *Handler) DeletePantryItem(c *gin.Context) {
	if err := h.svc.Pantry.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSettings returns reminder settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Pantry.Settings(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings changes reminder days or the notification phone.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req models.PantrySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	settings, err := h.svc.Pantry.UpdateSettings(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ExportPantry appends the caller's items to the configured spreadsheet.
func (h *Handler) ExportPantry(c *gin.Context) {
	rows, err := h.svc.Pantry.Export(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("pantry exported", zap.String("user_id", auth.UserID(c)), zap.Int("rows", rows))
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Dashboard returns stats, expiring-soon and recent items.
func (h *Handler) Dashboard(c *gin.Context) {
	board, err := h.svc.Dashboard.Build(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
