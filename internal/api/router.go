package api

import (
	"net/http"

	"lineup/queue-engine/internal/api/handler/business"
	"lineup/queue-engine/internal/api/handler/queue"

	"github.com/gin-gonic/gin"
)

// SetupAPIRoutes
// @title						Lineup queue service
// @version         			1.0.0
// @description     			Per-business waiting lines with SMS notifications
// @BasePath  					/
func (s *Server) SetupAPIRoutes(
	queueHandler *queue.QueueHandler,
	businessHandler *business.BusinessHandler,
	metricsHandler http.Handler,
) {
	r := s.engine

	r.GET("/metrics", gin.WrapH(metricsHandler))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("v1")
	{
		v1.POST("/businesses", businessHandler.Create)
		v1.GET("/businesses/:business_id", businessHandler.Get)

		b := v1.Group("/businesses/:business_id")
		b.POST("/entries", queueHandler.Join)
		b.POST("/advance", queueHandler.Advance)
		b.POST("/reset", queueHandler.Reset)
		b.GET("/queue", queueHandler.Queue)
		b.GET("/stats", queueHandler.Stats)
		b.GET("/history", queueHandler.History)
		b.GET("/position", queueHandler.Position)
		b.GET("/ws", queueHandler.Live)

		e := v1.Group("/entries/:id")
		e.GET("", queueHandler.Entry)
		e.POST("/cancel", queueHandler.Cancel)
		e.POST("/serving", queueHandler.MarkServing)
		e.POST("/complete", queueHandler.Complete)
		e.POST("/no-show", queueHandler.MarkNoShow)
	}
}
