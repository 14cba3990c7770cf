package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/auth"
	"github.com/mamadbah2/expiry-tracker/internal/metrics"
	"github.com/mamadbah2/expiry-tracker/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.Handler, tokens *auth.TokenManager, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(m.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	api.POST("/auth/signup", handler.Signup)
	api.POST("/auth/login", handler.Login)

	secured := api.Group("")
	secured.Use(auth.RequireAuth(tokens))

	secured.POST("/receipts/upload", handler.UploadReceipt)
	secured.GET("/receipts/state", handler.UploadState)
	secured.GET("/receipts/draft", handler.GetDraft)
	secured.PUT("/receipts/draft", handler.UpdateDraft)
	secured.DELETE("/receipts/draft", handler.DiscardDraft)
	secured.POST("/receipts/draft/confirm", handler.ConfirmDraft)
	secured.POST("/receipts/draft/items", handler.AddDraftItem)
	secured.DELETE("/receipts/draft/items/:id", handler.DeleteDraftItem)
	secured.POST("/receipts/draft/items/:id/estimate", handler.EstimateDraftItem)
	secured.POST("/receipts/draft/items/:id/edit", handler.BeginEdit)
	secured.PATCH("/receipts/draft/items/:id/edit", handler.UpdateEdit)
	secured.PUT("/receipts/draft/items/:id/edit", handler.SaveEdit)
	secured.DELETE("/receipts/draft/items/:id/edit", handler.CancelEdit)

	secured.GET("/pantry", handler.ListPantry)
	secured.GET("/pantry/settings", handler.GetSettings)
	secured.PUT("/pantry/settings", handler.UpdateSettings)
	secured.POST("/pantry/export", handler.ExportPantry)
	secured.PATCH("/pantry/:id/status", handler.UpdateItemStatus)
	secured.DELETE("/pantry/:id", handler.DeletePantryItem)

	secured.GET("/dashboard", handler.Dashboard)

	secured.GET("/donations/nearby", handler.NearbyDonations)
	secured.GET("/donations/zip", handler.ZipDonations)
	secured.GET("/donations/zip/:zip", handler.ZipDonations)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_id", auth.UserID(c)))
	}
}
