package queue

import (
	"context"
	"net/http"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type QueueHandler struct {
	waitlistService waitlistService
	hub             liveHub
}

type waitlistService interface {
	Join(ctx context.Context, businessID, displayName, contact string) (domain.Admission, error)
	Advance(ctx context.Context, businessID string) (domain.QueueEntry, error)
	Reset(ctx context.Context, businessID string) (int, error)
	Cancel(ctx context.Context, entryID string) (domain.QueueEntry, error)
	MarkServing(ctx context.Context, entryID string) (domain.QueueEntry, error)
	Complete(ctx context.Context, entryID string) (domain.QueueEntry, error)
	MarkNoShow(ctx context.Context, entryID string) (domain.QueueEntry, error)
	Entry(ctx context.Context, entryID string) (domain.QueueEntry, error)
	Queue(ctx context.Context, businessID string) ([]domain.QueueEntry, error)
	Stats(ctx context.Context, businessID string) (domain.Statistics, error)
	History(ctx context.Context, businessID string) ([]domain.HistoryItem, error)
	Position(ctx context.Context, businessID, contact string) (domain.PositionView, error)
}

type liveHub interface {
	Serve(c *gin.Context, businessID string, initial domain.QueueSnapshot)
}

func New(waitlistService waitlistService, hub liveHub) *QueueHandler {
	return &QueueHandler{
		waitlistService: waitlistService,
		hub:             hub,
	}
}

// status maps service errors onto HTTP status codes.
func status(err error) int {
	switch {
	case errors.Is(err, constant.ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, constant.ErrBusinessNotFound), errors.Is(err, constant.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, constant.ErrInvalidTransition),
		errors.Is(err, constant.ErrNoActiveEntries),
		errors.Is(err, constant.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, constant.ErrResourceExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, constant.ErrDispatchQueueFull), errors.Is(err, constant.ErrDispatcherStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, gin.H{
		"code":  code,
		"error": err.Error(),
	})
}
