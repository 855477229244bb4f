package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GenreStats godoc
// @Summary Active book count per genre, most popular first
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]int
// @Router /api/stats/genres [get]
func (h *Handler) GenreStats(c echo.Context) error {
	stats, err := h.catalogSvc.GenreStats(c.Request().Context())
	if err != nil {
		return h.httpError(c, "GenreStats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// AuthorStats godoc
// @Summary Active book count per author, most prolific first
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]int
// @Router /api/stats/authors [get]
func (h *Handler) AuthorStats(c echo.Context) error {
	stats, err := h.catalogSvc.AuthorStats(c.Request().Context())
	if err != nil {
		return h.httpError(c, "AuthorStats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Summary godoc
// @Summary Genre and author counts in one response
// @Tags stats
// @Produce json
// @Success 200 {object} model.StatsSummary
// @Router /api/stats [get]
func (h *Handler) Summary(c echo.Context) error {
	summary, err := h.catalogSvc.Summary(c.Request().Context())
	if err != nil {
		return h.httpError(c, "Summary", err)
	}
	return c.JSON(http.StatusOK, summary)
}
