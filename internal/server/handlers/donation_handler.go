package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

// NearbyDonations lists centers around ?lat=&lng=, with an optional ?radius=
// in meters.
func (h *Handler) NearbyDonations(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	radius := 0
	if raw := c.Query("radius"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a whole number of meters"})
			return
		}
		radius = n
	}

	result, err := h.svc.Donations.FindNearby(c.Request.Context(), models.Location{Lat: lat, Lng: lng}, radius)
	if err != nil {
		h.donationFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ZipDonations geocodes the zip code (path or ?zip=) and lists centers
// around it.
func (h *Handler) ZipDonations(c *gin.Context) {
	zip := c.Param("zip")
	if zip == "" {
		zip = c.Query("zip")
	}
	result, err := h.svc.Donations.FindByZip(c.Request.Context(), zip)
	if err != nil {
		h.donationFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Upstream lookup failures surface as 502 rather than 500.
func (h *Handler) donationFailure(c *gin.Context, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Warn("donation lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to find donation centers right now"})
		return
	}
	h.fail(c, err)
}
