package queue

import (
	"context"
	"net/http"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *QueueHandler) Cancel(c *gin.Context) {
	h.entryOp(c, h.waitlistService.Cancel)
}

func (h *QueueHandler) MarkServing(c *gin.Context) {
	h.entryOp(c, h.waitlistService.MarkServing)
}

func (h *QueueHandler) Complete(c *gin.Context) {
	h.entryOp(c, h.waitlistService.Complete)
}

func (h *QueueHandler) MarkNoShow(c *gin.Context) {
	h.entryOp(c, h.waitlistService.MarkNoShow)
}

func (h *QueueHandler) Entry(c *gin.Context) {
	h.entryOp(c, h.waitlistService.Entry)
}

func (h *QueueHandler) entryOp(c *gin.Context, op func(context.Context, string) (domain.QueueEntry, error)) {
	entry, err := op(c, c.Param(constant.EntryIDKey))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
