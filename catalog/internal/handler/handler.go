package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/catalog/internal/errs"
	md "github.com/Astemirdum/catalog-service/pkg/middleware"
	"github.com/Astemirdum/catalog-service/pkg/validate"
	_ "github.com/Astemirdum/catalog-service/swagger"
)

const internalErrorMessage = "internal server error"

type Handler struct {
	catalogSvc CatalogService
	log        *zap.Logger
}

func New(catalogSvc CatalogService, log *zap.Logger) *Handler {
	h := &Handler{
		catalogSvc: catalogSvc,
		log:        log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		md.NewRateLimiter(apiRPS),
	)
	h.registerRoutes(api)

	return e
}

func (h *Handler) registerRoutes(api *echo.Group) {
	api.POST("/books", h.CreateBook)
	api.GET("/books", h.ListBooks)
	api.GET("/books/search", h.SearchBooks)
	api.GET("/books/:id", h.GetBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)

	api.GET("/stats", h.Summary)
	api.GET("/stats/genres", h.GenreStats)
	api.GET("/stats/authors", h.AuthorStats)
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.catalogSvc.Health(c.Request().Context()); err != nil {
		h.log.Warn("health", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable")
	}
	return c.String(http.StatusOK, "OK")
}

// httpError maps core failures to statuses. Internal details stay in the log.
func (h *Handler) httpError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		h.log.Error(op,
			zap.Error(err),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
		return echo.NewHTTPError(http.StatusInternalServerError, internalErrorMessage)
	}
}
