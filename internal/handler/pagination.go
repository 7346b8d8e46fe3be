package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPerPage = 100
	maxPerPage     = 1000
)

// page is a 1-based window over a list.
type page struct {
	Page    int
	PerPage int
}

// parsePage reads ?page and ?perPage.  Missing values default to the first
// page of defaultPerPage items.
func parsePage(c echo.Context) (page, error) {
	p := page{Page: 1, PerPage: defaultPerPage}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page{}, errors.New("page must be a positive integer")
		}
		p.Page = n
	}
	if v := c.QueryParam("perPage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPerPage {
			return page{}, errors.New("perPage must be between 1 and 1000")
		}
		p.PerPage = n
	}
	return p, nil
}

// paginate returns the items on page p, empty past the end.
func paginate[T any](items []T, p page) []T {
	pages := (len(items) + p.PerPage - 1) / p.PerPage
	if p.Page-1 >= pages {
		return []T{}
	}
	start := (p.Page - 1) * p.PerPage
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// listResponse is the envelope of every list endpoint.
func listResponse[T any](items []T, p page) echo.Map {
	return echo.Map{
		"items":   paginate(items, p),
		"page":    p.Page,
		"perPage": p.PerPage,
		"total":   len(items),
	}
}
