package paginator

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultSize = 10
	maxSize     = 100
)

type Paginate struct {
	From, Size, Page int
}

func New(c *gin.Context) Paginate {
	sizeStr := c.DefaultQuery("page_size", strconv.Itoa(defaultSize))
	pageStr := c.DefaultQuery("page", "1")

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		page = 1
	}

	return Paginate{
		From: (page - 1) * size,
		Size: size,
		Page: page,
	}
}

// Slice returns the window of items selected by p.
func Slice[T any](items []T, p Paginate) []T {
	if p.From >= len(items) {
		return []T{}
	}
	end := p.From + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[p.From:end]
}
