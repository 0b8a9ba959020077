package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/pkg/container"
)

// SetupRouter wires all domain routes onto a gin engine. Everything under
// /api/v1 is authenticated except the health check and the gateway webhook.
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		// The gateway calls back without a user token; authenticity comes
		// from the HMAC signature instead.
		c.LedgerHandler.RegisterWebhookRoutes(v1)

		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))
		{
			c.ItemHandler.RegisterRoutes(authed)
			c.ReservationHandler.RegisterRoutes(authed)
			c.LedgerHandler.RegisterRoutes(authed)
			c.TradeHandler.RegisterRoutes(authed)
			c.WarehouseHandler.RegisterRoutes(authed)
			c.LogisticsHandler.RegisterRoutes(authed)
			c.ReturnsHandler.RegisterRoutes(authed)

			c.ReturnsHandler.RegisterAdminRoutes(authed)

			admin := authed.Group("")
			admin.Use(middleware.AdminMiddleware())
			c.LedgerHandler.RegisterAdminRoutes(admin)
		}
	}

	return router
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := c.Redis.HealthCheck(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": c.Config.App.Version,
		})
	}
}
