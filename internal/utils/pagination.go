package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams extracts and validates pagination parameters from the request.
// "page_size" is accepted as an alias of "limit".
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	rawLimit := c.Query("limit")
	if rawLimit == "" {
		rawLimit = c.DefaultQuery("page_size", strconv.Itoa(constants.DefaultPageSize))
	}
	limit, _ := strconv.Atoi(rawLimit)

	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
