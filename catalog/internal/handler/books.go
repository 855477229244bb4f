package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/catalog-service/catalog/internal/model"
)

// CreateBook godoc
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param book body model.CreateBookRequest true "book"
// @Success 201 {object} model.Book
// @Failure 400 {object} echo.HTTPError
// @Router /api/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.catalogSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return h.httpError(c, "CreateBook", err)
	}
	return c.JSON(http.StatusCreated, book)
}

// ListBooks godoc
// @Summary List active books ordered by title
// @Tags books
// @Produce json
// @Param page query int false "page, from 1" default(1)
// @Param per_page query int false "page size, at most 100" default(10)
// @Success 200 {array} model.Book
// @Router /api/books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	params, err := listParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	books, err := h.catalogSvc.ListBooks(c.Request().Context(), params)
	if err != nil {
		return h.httpError(c, "ListBooks", err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Get a book by id, including inactive ones
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.Book
// @Failure 404 {object} echo.HTTPError
// @Router /api/books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.catalogSvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.httpError(c, "GetBook", err)
	}
	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary Partially update a book
// @Description Only supplied fields change. A supplied authors or genres list replaces the current one.
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param book body model.UpdateBookRequest true "fields to change"
// @Success 200 {object} model.Book
// @Failure 404 {object} echo.HTTPError
// @Router /api/books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req model.UpdateBookRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.catalogSvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return h.httpError(c, "UpdateBook", err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Delete a book
// @Description soft=true (default) marks the book inactive, soft=false removes it. Deleting a missing id succeeds.
// @Tags books
// @Param id path int true "book id"
// @Param soft query bool false "soft delete" default(true)
// @Success 204
// @Router /api/books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	soft, err := queryBool(c, "soft", true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = h.catalogSvc.DeleteBook(c.Request().Context(), id, soft); err != nil {
		return h.httpError(c, "DeleteBook", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchBooks godoc
// @Summary Search active books
// @Tags books
// @Produce json
// @Param title query string false "case-insensitive substring"
// @Param author query string false "case-insensitive substring"
// @Param genre query string false "exact genre name"
// @Param year_from query int false "inclusive"
// @Param year_to query int false "inclusive"
// @Param isbn query string false "exact"
// @Param available_only query bool false "copies_available > 0"
// @Param sort_by query string false "title|author|year" default(title)
// @Param sort_order query string false "asc|desc" default(asc)
// @Param page query int false "page, from 1" default(1)
// @Param per_page query int false "page size, at most 100" default(10)
// @Success 200 {object} model.SearchResult
// @Failure 400 {object} echo.HTTPError
// @Router /api/books/search [get]
func (h *Handler) SearchBooks(c echo.Context) error {
	params, err := searchParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.catalogSvc.SearchBooks(c.Request().Context(), params)
	if err != nil {
		return h.httpError(c, "SearchBooks", err)
	}
	return c.JSON(http.StatusOK, res)
}

func listParams(c echo.Context) (model.ListParams, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return model.ListParams{}, err
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		return model.ListParams{}, err
	}
	if page != nil && *page > model.MaxPage {
		return model.ListParams{}, errors.New("page is too large")
	}
	return model.ListParams{
		Page:    valueOr(page, model.DefaultPage),
		PerPage: valueOr(perPage, model.DefaultPerPage),
	}, nil
}

func searchParams(c echo.Context) (model.SearchParams, error) {
	paging, err := listParams(c)
	if err != nil {
		return model.SearchParams{}, err
	}
	yearFrom, err := queryInt(c, "year_from")
	if err != nil {
		return model.SearchParams{}, err
	}
	yearTo, err := queryInt(c, "year_to")
	if err != nil {
		return model.SearchParams{}, err
	}
	availableOnly, err := queryBool(c, "available_only", false)
	if err != nil {
		return model.SearchParams{}, err
	}
	return model.SearchParams{
		Title:         c.QueryParam("title"),
		Author:        c.QueryParam("author"),
		Genre:         c.QueryParam("genre"),
		YearFrom:      yearFrom,
		YearTo:        yearTo,
		ISBN:          c.QueryParam("isbn"),
		AvailableOnly: availableOnly,
		SortBy:        model.ParseSortField(strings.ToLower(c.QueryParam("sort_by"))),
		SortOrder:     model.SortOrder(strings.ToLower(c.QueryParam("sort_order"))),
		ListParams:    paging,
	}, nil
}
