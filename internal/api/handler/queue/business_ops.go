package queue

import (
	"net/http"
	"time"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/pkg/paginator"

	"github.com/gin-gonic/gin"
)

// Advance godoc
// @Summary      Serve next
// @Description  Notify the first waiting customer that their turn is near
// @Tags         Queue
// @Produce      json
// @Param        business_id path string true "Business id"
// @Success      200 {object} domain.QueueEntry
// @Failure      409 {object} map[string]interface{} "Nobody is waiting"
// @Failure      503 {object} map[string]interface{} "Notification queue is full, retry later"
// @Router       /v1/businesses/{business_id}/advance [post]
func (h *QueueHandler) Advance(c *gin.Context) {
	entry, err := h.waitlistService.Advance(c, c.Param(constant.BusinessIDKey))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *QueueHandler) Reset(c *gin.Context) {
	n, err := h.waitlistService.Reset(c, c.Param(constant.BusinessIDKey))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": n})
}

func (h *QueueHandler) Queue(c *gin.Context) {
	entries, err := h.waitlistService.Queue(c, c.Param(constant.BusinessIDKey))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "success",
		"data":    entries,
	})
}

func (h *QueueHandler) Stats(c *gin.Context) {
	stats, err := h.waitlistService.Stats(c, c.Param(constant.BusinessIDKey))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// History godoc
// @Summary      Served history
// @Description  Most recently served customers with pagination
// @Tags         Queue
// @Produce      json
// @Param        business_id path string true "Business id"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Number of items per page" default(10)
// @Router       /v1/businesses/{business_id}/history [get]
func (h *QueueHandler) History(c *gin.Context) {
	items, err := h.waitlistService.History(c, c.Param(constant.BusinessIDKey))
	if err != nil {
		abort(c, err)
		return
	}

	pagination := paginator.New(c)
	page := paginator.Slice(items, pagination)

	c.JSON(http.StatusOK, gin.H{
		"message": "success",
		"data":    page,
		"meta": gin.H{
			"page_size": pagination.Size,
			"page":      pagination.Page,
			"total":     len(items),
		},
	})
}

func (h *QueueHandler) Position(c *gin.Context) {
	contact := c.Query("contact")
	if contact == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "error": "contact is required"})
		return
	}

	view, err := h.waitlistService.Position(c, c.Param(constant.BusinessIDKey), contact)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *QueueHandler) Live(c *gin.Context) {
	businessID := c.Param(constant.BusinessIDKey)

	entries, err := h.waitlistService.Queue(c, businessID)
	if err != nil {
		abort(c, err)
		return
	}

	h.hub.Serve(c, businessID, domain.NewQueueSnapshot(businessID, entries, time.Now()))
}
