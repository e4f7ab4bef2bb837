package queue

import (
	"net/http"

	"lineup/queue-engine/internal/api/request"
	"lineup/queue-engine/internal/constant"

	"github.com/gin-gonic/gin"
)

// Join godoc
// @Summary      Join a queue
// @Description  Admit a customer to the waiting line of a business
// @Tags         Queue
// @Accept       json
// @Produce      json
// @Param        business_id path string true "Business id"
// @Param        request body request.JoinQueueRequest true "Customer"
// @Success      201 {object} domain.Admission
// @Failure      400 {object} map[string]interface{} "Invalid request body"
// @Failure      404 {object} map[string]interface{} "Unknown business"
// @Failure      429 {object} map[string]interface{} "Queue is full"
// @Router       /v1/businesses/{business_id}/entries [post]
func (h *QueueHandler) Join(c *gin.Context) {
	var req request.JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "error": err.Error()})
		return
	}

	adm, err := h.waitlistService.Join(c, c.Param(constant.BusinessIDKey), req.DisplayName, req.Contact)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, adm)
}
