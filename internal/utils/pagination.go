package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const defaultLimit = 20

var limitOptions = []int{10, 20, 50, 100}

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	HasMore     bool  `json:"has_more"`
}

type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// GetPaginationParams reads page and limit from the query string. Limits
// outside the supported options fall back to the default.
func GetPaginationParams(c *fiber.Ctx) PaginationParams {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	valid := false
	for _, option := range limitOptions {
		if limit == option {
			valid = true
			break
		}
	}
	if !valid {
		limit = defaultLimit
	}

	return PaginationParams{Page: page, Limit: limit}
}

func CalculatePagination(page, limit int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}

	lastPage := int(math.Ceil(float64(total) / float64(limit)))
	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		LastPage:    lastPage,
		HasMore:     page < lastPage,
	}
}

func PaginatedResponseBuilder(c *fiber.Ctx, message string, data interface{}, pagination PaginationMeta) error {
	return c.JSON(PaginatedResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// GetOffset converts a page into a SQL offset.
func GetOffset(page, limit int) int {
	return (page - 1) * limit
}
