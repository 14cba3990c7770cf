package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/expiry-tracker/internal/auth"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/service/receipts"
)

const receiptField = "receipt"

// UploadReceipt reads the multipart "receipt" image and runs extraction.
func (h *Handler) UploadReceipt(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile(receiptField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "receipt image is too large"})
			return
		}
		h.fail(c, receipts.ErrNoImage)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, err)
		return
	}

	view, err := h.svc.Receipts.Upload(c.Request.Context(), auth.UserID(c), image)
	if err != nil {
		if errors.Is(err, receipts.ErrExtraction) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": h.svc.Receipts.State(auth.UserID(c)).Message,
				"state": h.svc.Receipts.State(auth.UserID(c)),
			})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": view, "state": h.svc.Receipts.State(auth.UserID(c))})
}

// UploadState reports idle/loading/success/error for the caller's last upload.
func (h *Handler) UploadState(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Receipts.State(auth.UserID(c)))
}

// GetDraft returns the receipt under review.
func (h *Handler) GetDraft(c *gin.Context) {
	h.respondDraft(c)(h.svc.Receipts.Draft(auth.UserID(c)))
}

// UpdateDraft changes the store or purchase date of the draft.
func (h *Handler) UpdateDraft(c *gin.Context) {
	var req models.DraftUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respondDraft(c)(h.svc.Receipts.UpdateDraft(auth.UserID(c), req))
}

// AddDraftItem appends a blank item and opens it for editing.
func (h *Handler) AddDraftItem(c *gin.Context) {
	view, item, err := h.svc.Receipts.AddItem(auth.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft": view, "item": item})
}

// BeginEdit opens an item for editing.
func (h *Handler) BeginEdit(c *gin.Context) {
	h.respondDraft(c)(h.svc.Receipts.BeginEdit(auth.UserID(c), c.Param("id")))
}

// UpdateEdit applies a patch to an item being edited.
func (h *Handler) UpdateEdit(c *gin.Context) {
	var patch models.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.respondDraft(c)(h.svc.Receipts.UpdateEdit(auth.UserID(c), c.Param("id"), patch))
}

// SaveEdit commits an item's pending edit.
func (h *Handler) SaveEdit(c *gin.Context) {
	h.respondDraft(c)(h.svc.Receipts.SaveEdit(auth.UserID(c), c.Param("id")))
}

// CancelEdit drops an item's pending edit.
func (h *Handler) CancelEdit(c *gin.Context) {
	h.respondDraft(c)(h.svc.Receipts.CancelEdit(auth.UserID(c), c.Param("id")))
}

// DeleteDraftItem removes an item from the draft.
func (h *Handler) DeleteDraftItem(c *gin.Context) {
	h.respondDraft(c)(h.svc.Receipts.DeleteItem(auth.UserID(c), c.Param("id")))
}

// EstimateDraftItem asks the model for an item's shelf life.
func (h *Handler) EstimateDraftItem(c *gin.Context) {
	h.respondDraft(c)(h.svc.Receipts.EstimateItem(c.Request.Context(), auth.UserID(c), c.Param("id")))
}

// ConfirmDraft moves the draft into the pantry.
func (h *Handler) ConfirmDraft(c *gin.Context) {
	record, err := h.svc.Receipts.Confirm(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// DiscardDraft throws the draft away.
func (h *Handler) DiscardDraft(c *gin.Context) {
	h.svc.Receipts.Discard(auth.UserID(c))
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondDraft(c *gin.Context) func(models.DraftView, error) {
	return func(view models.DraftView, err error) {
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
