package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/repository"
	"github.com/mamadbah2/expiry-tracker/internal/service/accounts"
	"github.com/mamadbah2/expiry-tracker/internal/service/dashboard"
	"github.com/mamadbah2/expiry-tracker/internal/service/donation"
	"github.com/mamadbah2/expiry-tracker/internal/service/pantry"
	"github.com/mamadbah2/expiry-tracker/internal/service/receipts"
)

// Services groups everything the HTTP layer talks to.
type Services struct {
	Accounts  *accounts.Service
	Receipts  *receipts.Manager
	Pantry    *pantry.Service
	Dashboard *dashboard.Service
	Donations *donation.Service
}

// Handler adapts the services to gin.
type Handler struct {
	svc            Services
	maxUploadBytes int64
	logger         *zap.Logger
}

// New constructs the HTTP handler adapter.
func New(svc Services, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": messageFor(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, accounts.ErrInvalidEmail),
		errors.Is(err, accounts.ErrWeakPassword),
		errors.Is(err, receipts.ErrNoImage),
		errors.Is(err, receipts.ErrNotImage),
		errors.Is(err, receipts.ErrUnnamedItem),
		errors.Is(err, receipts.ErrInvalidDate),
		errors.Is(err, pantry.ErrInvalidStatus),
		errors.Is(err, pantry.ErrInvalidSettings),
		errors.Is(err, donation.ErrInvalidZip),
		errors.Is(err, donation.ErrInvalidLocation):
		return http.StatusBadRequest
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, receipts.ErrNoDraft),
		errors.Is(err, receipts.ErrItemNotFound),
		errors.Is(err, donation.ErrZipNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrEmailExists),
		errors.Is(err, receipts.ErrUploadInProgress),
		errors.Is(err, receipts.ErrNotEditing),
		errors.Is(err, receipts.ErrEditsPending):
		return http.StatusConflict
	case errors.Is(err, receipts.ErrExtraction):
		return http.StatusBadGateway
	case errors.Is(err, pantry.ErrExportDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, receipts.ErrNoImage):
		return receipts.MsgNoImage
	case errors.Is(err, receipts.ErrNotImage):
		return receipts.MsgNotImage
	case errors.Is(err, donation.ErrInvalidZip):
		return donation.MsgInvalidZip
	case errors.Is(err, accounts.ErrInvalidEmail),
		errors.Is(err, accounts.ErrWeakPassword),
		errors.Is(err, accounts.ErrEmailExists),
		errors.Is(err, accounts.ErrInvalidCredentials):
		return accounts.DisplayMessage(err)
	}
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
