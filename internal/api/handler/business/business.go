package business

import (
	"net/http"

	"lineup/queue-engine/internal/api/request"
	"lineup/queue-engine/internal/constant"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Create godoc
// @Summary      Register a business
// @Tags         Business
// @Accept       json
// @Produce      json
// @Param        request body request.CreateBusinessRequest true "Business"
// @Success      201 {object} map[string]interface{}
// @Failure      409 {object} map[string]interface{} "Business already exists"
// @Router       /v1/businesses [post]
func (h *BusinessHandler) Create(c *gin.Context) {
	var req request.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.businessService.Create(c, req.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, constant.ErrInvalidEntry):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, constant.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": "business already exists"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": b.ID, "name": b.Name})
}

func (h *BusinessHandler) Get(c *gin.Context) {
	id := c.Param(constant.BusinessIDKey)

	name, err := h.businessService.Name(c, id)
	if err != nil {
		if errors.Is(err, constant.ErrBusinessNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "name": name})
}
