package blog

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ParsePagination reads the raw page and per_page query values and applies
// the listing bounds. Anything non-numeric falls back to the defaults.
func ParsePagination(pageRaw, perPageRaw string) (page, perPage int) {
	page = atoiOr(pageRaw, DefaultPage)
	perPage = atoiOr(perPageRaw, DefaultPerPage)
	return clampPagination(page, perPage)
}

func clampPagination(page, perPage int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// lastPage is never below 1, even for an empty table
func lastPage(total int64, perPage int) int {
	if total <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

func atoiOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}
