// Package web exposes schedule management and execution history over a JSON HTTP API.
package web

import (
	"net/http"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the API engine. metrics is mounted on /metrics when non-nil.
func NewRouter(svc ScheduleService, metrics http.Handler, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	schedules := NewScheduleHandler(svc, log)
	history := NewHistoryHandler(svc, log)

	v1 := router.Group("/api/v1")

	s := v1.Group("/schedules")
	s.POST("", schedules.Create)
	s.GET("", schedules.ListByOwner)
	s.GET("/:id", schedules.Get)
	s.PATCH("/:id", schedules.Update)
	s.POST("/:id/toggle", schedules.Toggle)
	s.DELETE("/:id", schedules.Delete)
	s.GET("/:id/history", history.ListBySchedule)

	o := v1.Group("/owners/:owner")
	o.GET("/history", history.ListByOwner)
	o.DELETE("/history/:entry", history.DeleteEntry)
	o.DELETE("/schedules/:id/history", history.DeleteBySchedule)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Debug("HTTP request",
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status_code", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		)
	}
}
