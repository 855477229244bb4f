package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/catalog/internal/errs"
	"github.com/Astemirdum/catalog-service/catalog/internal/handler"
	service_mocks "github.com/Astemirdum/catalog-service/catalog/internal/handler/mocks"
	"github.com/Astemirdum/catalog-service/catalog/internal/model"
	"github.com/Astemirdum/catalog-service/pkg/validate"
)

var ts = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func intPtr(v int) *int { return &v }

func duneBook() model.Book {
	return model.Book{
		ID:              1,
		Title:           "Dune",
		Authors:         []model.Author{{ID: 1, Name: "Frank Herbert"}},
		Genres:          []model.Genre{{ID: 2, Name: "Sci-Fi"}},
		PublicationYear: 1965,
		CopiesAvailable: 3,
		IsActive:        true,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}

const duneJSON = `{"id":1,"title":"Dune","authors":[{"id":1,"name":"Frank Herbert"}],"genres":[{"id":2,"name":"Sci-Fi"}],"publication_year":1965,"isbn":null,"copies_available":3,"is_active":true,"created_at":"2024-01-02T03:04:05Z","updated_at":"2024-01-02T03:04:05Z"}`

type response struct {
	expectedCode int
	// expectedBody is compared exactly; bodyContains only checks a fragment.
	expectedBody string
	bodyContains string
}

type mockBehavior func(r *service_mocks.MockCatalogService)

type testCase struct {
	name         string
	method       string
	target       string
	body         string
	mockBehavior mockBehavior
	response     response
}

func runCases(t *testing.T, route string, register func(e *echo.Echo, h *handler.Handler), tests []testCase) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockCatalogService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			register(e, h)

			r := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code, route)
			got := strings.Trim(w.Body.String(), "\n")
			if tt.response.bodyContains != "" {
				require.Contains(t, got, tt.response.bodyContains)
				return
			}
			require.Equal(t, tt.response.expectedBody, got)
		})
	}
}

func noCalls(*service_mocks.MockCatalogService) {}

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()
	tests := []testCase{
		{
			name:   "ok",
			method: http.MethodPost,
			target: "/api/books",
			body:   `{"title":"Dune","authors":["Frank Herbert"],"genres":["Sci-Fi"],"publication_year":1965}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().
					CreateBook(context.Background(), model.CreateBookRequest{
						Title:           "Dune",
						Authors:         []string{"Frank Herbert"},
						Genres:          []string{"Sci-Fi"},
						PublicationYear: intPtr(1965),
					}).
					Return(duneBook(), nil)
			},
			response: response{expectedCode: http.StatusCreated, expectedBody: duneJSON},
		},
		{
			name:         "err. title required",
			method:       http.MethodPost,
			target:       "/api/books",
			body:         `{"authors":["Frank Herbert"],"publication_year":1965}`,
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, bodyContains: "'Title' failed on the 'required' tag"},
		},
		{
			name:         "err. authors required",
			method:       http.MethodPost,
			target:       "/api/books",
			body:         `{"title":"Dune","publication_year":1965}`,
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, bodyContains: "'Authors' failed on the 'required' tag"},
		},
		{
			name:         "err. negative copies",
			method:       http.MethodPost,
			target:       "/api/books",
			body:         `{"title":"Dune","authors":["A"],"publication_year":1965,"copies_available":-1}`,
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, bodyContains: "'CopiesAvailable' failed on the 'gte' tag"},
		},
		{
			name:         "err. malformed json",
			method:       http.MethodPost,
			target:       "/api/books",
			body:         `{"title":`,
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, bodyContains: "message"},
		},
		{
			name:   "err. validation from service",
			method: http.MethodPost,
			target: "/api/books",
			body:   `{"title":"Dune","authors":["A"],"publication_year":1965}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().CreateBook(gomock.Any(), gomock.Any()).
					Return(model.Book{}, errs.Validation("authors: empty name"))
			},
			response: response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"authors: empty name: validation failed"}`},
		},
		{
			name:   "err. internal",
			method: http.MethodPost,
			target: "/api/books",
			body:   `{"title":"Dune","authors":["A"],"publication_year":1965}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().CreateBook(gomock.Any(), gomock.Any()).
					Return(model.Book{}, errors.New("db internal"))
			},
			response: response{expectedCode: http.StatusInternalServerError, expectedBody: `{"message":"internal server error"}`},
		},
	}
	runCases(t, "/api/books", func(e *echo.Echo, h *handler.Handler) {
		e.POST("/api/books", h.CreateBook)
	}, tests)
}

func TestHandler_GetBook(t *testing.T) {
	t.Parallel()
	tests := []testCase{
		{
			name:   "ok",
			method: http.MethodGet,
			target: "/api/books/1",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().GetBook(context.Background(), int64(1)).Return(duneBook(), nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: duneJSON},
		},
		{
			name:   "err. not found",
			method: http.MethodGet,
			target: "/api/books/9",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().GetBook(context.Background(), int64(9)).Return(model.Book{}, errs.NotFound("book %d", 9))
			},
			response: response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"book 9: not found"}`},
		},
		{
			name:         "err. bad id",
			method:       http.MethodGet,
			target:       "/api/books/abc",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"id is invalid"}`},
		},
	}
	runCases(t, "/api/books/:id", func(e *echo.Echo, h *handler.Handler) {
		e.GET("/api/books/:id", h.GetBook)
	}, tests)
}

func TestHandler_UpdateBook(t *testing.T) {
	t.Parallel()
	emptyAuthors := []string{}
	title := "Dune Messiah"
	tests := []testCase{
		{
			name:   "ok. clear authors",
			method: http.MethodPut,
			target: "/api/books/1",
			body:   `{"authors":[]}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				book := duneBook()
				book.Authors = []model.Author{}
				r.EXPECT().
					UpdateBook(context.Background(), int64(1), model.UpdateBookRequest{Authors: &emptyAuthors}).
					Return(book, nil)
			},
			response: response{expectedCode: http.StatusOK, bodyContains: `"authors":[],"genres":[{"id":2,"name":"Sci-Fi"}]`},
		},
		{
			name:   "ok. title only",
			method: http.MethodPut,
			target: "/api/books/1",
			body:   `{"title":"Dune Messiah"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				book := duneBook()
				book.Title = title
				r.EXPECT().
					UpdateBook(context.Background(), int64(1), model.UpdateBookRequest{Title: &title}).
					Return(book, nil)
			},
			response: response{expectedCode: http.StatusOK, bodyContains: `"title":"Dune Messiah"`},
		},
		{
			name:   "err. not found",
			method: http.MethodPut,
			target: "/api/books/9",
			body:   `{"title":"Dune Messiah"}`,
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().UpdateBook(gomock.Any(), int64(9), gomock.Any()).Return(model.Book{}, errs.NotFound("book %d", 9))
			},
			response: response{expectedCode: http.StatusNotFound, expectedBody: `{"message":"book 9: not found"}`},
		},
		{
			name:         "err. blank author",
			method:       http.MethodPut,
			target:       "/api/books/1",
			body:         `{"authors":[""]}`,
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, bodyContains: "failed on the 'required' tag"},
		},
	}
	runCases(t, "/api/books/:id", func(e *echo.Echo, h *handler.Handler) {
		e.PUT("/api/books/:id", h.UpdateBook)
	}, tests)
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	tests := []testCase{
		{
			name:   "ok. soft by default",
			method: http.MethodDelete,
			target: "/api/books/1",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().DeleteBook(context.Background(), int64(1), true).Return(nil)
			},
			response: response{expectedCode: http.StatusNoContent, expectedBody: ""},
		},
		{
			name:   "ok. hard",
			method: http.MethodDelete,
			target: "/api/books/1?soft=false",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().DeleteBook(context.Background(), int64(1), false).Return(nil)
			},
			response: response{expectedCode: http.StatusNoContent, expectedBody: ""},
		},
		{
			name:         "err. soft invalid",
			method:       http.MethodDelete,
			target:       "/api/books/1?soft=maybe",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"soft is invalid"}`},
		},
	}
	runCases(t, "/api/books/:id", func(e *echo.Echo, h *handler.Handler) {
		e.DELETE("/api/books/:id", h.DeleteBook)
	}, tests)
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	tests := []testCase{
		{
			name:   "ok. defaults",
			method: http.MethodGet,
			target: "/api/books",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().ListBooks(context.Background(), model.ListParams{Page: 1, PerPage: 10}).
					Return([]model.Book{duneBook()}, nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: "[" + duneJSON + "]"},
		},
		{
			name:   "ok. empty page",
			method: http.MethodGet,
			target: "/api/books?page=3&per_page=20",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().ListBooks(context.Background(), model.ListParams{Page: 3, PerPage: 20}).
					Return([]model.Book{}, nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: "[]"},
		},
		{
			name:         "err. page invalid",
			method:       http.MethodGet,
			target:       "/api/books?page=x",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"page is invalid"}`},
		},
		{
			name:         "err. page offset overflows",
			method:       http.MethodGet,
			target:       "/api/books?page=92233720368547759&per_page=100",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"page is too large"}`},
		},
		{
			name:         "err. negative per_page",
			method:       http.MethodGet,
			target:       "/api/books?per_page=-5",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, bodyContains: "'PerPage' failed on the 'gte' tag"},
		},
	}
	runCases(t, "/api/books", func(e *echo.Echo, h *handler.Handler) {
		e.GET("/api/books", h.ListBooks)
	}, tests)
}

func TestHandler_SearchBooks(t *testing.T) {
	t.Parallel()
	yearFrom, yearTo := 2000, 2010
	tests := []testCase{
		{
			name:   "ok. all filters",
			method: http.MethodGet,
			target: "/api/books/search?title=dune&author=herb&genre=Sci-Fi&year_from=2000&year_to=2010&isbn=123&available_only=true&sort_by=YEAR&sort_order=desc&page=2&per_page=5",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().SearchBooks(context.Background(), model.SearchParams{
					Title:         "dune",
					Author:        "herb",
					Genre:         "Sci-Fi",
					YearFrom:      &yearFrom,
					YearTo:        &yearTo,
					ISBN:          "123",
					AvailableOnly: true,
					SortBy:        model.SortByYear,
					SortOrder:     model.SortDesc,
					ListParams:    model.ListParams{Page: 2, PerPage: 5},
				}).Return(model.SearchResult{Total: 6, Page: 2, PerPage: 5, Results: []model.Book{duneBook()}}, nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: `{"total":6,"page":2,"per_page":5,"results":[` + duneJSON + `]}`},
		},
		{
			name:   "ok. unknown sort_by falls back to title",
			method: http.MethodGet,
			target: "/api/books/search?sort_by=rating",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().SearchBooks(context.Background(), model.SearchParams{
					SortBy:     model.SortByTitle,
					ListParams: model.ListParams{Page: 1, PerPage: 10},
				}).Return(model.SearchResult{Page: 1, PerPage: 10, Results: []model.Book{}}, nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: `{"total":0,"page":1,"per_page":10,"results":[]}`},
		},
		{
			name:         "err. sort_order invalid",
			method:       http.MethodGet,
			target:       "/api/books/search?sort_order=sideways",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, bodyContains: "'SortOrder' failed on the 'oneof' tag"},
		},
		{
			name:         "err. page too large",
			method:       http.MethodGet,
			target:       "/api/books/search?title=dune&page=92233720368547759",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"page is too large"}`},
		},
		{
			name:         "err. year invalid",
			method:       http.MethodGet,
			target:       "/api/books/search?year_from=20x0",
			mockBehavior: noCalls,
			response:     response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"year_from is invalid"}`},
		},
	}
	runCases(t, "/api/books/search", func(e *echo.Echo, h *handler.Handler) {
		e.GET("/api/books/search", h.SearchBooks)
	}, tests)
}

func TestHandler_Stats(t *testing.T) {
	t.Parallel()
	genres := model.Stats{{Name: "Sci-Fi", Count: 2}, {Name: "Poetry", Count: 0}}
	authors := model.Stats{{Name: "Zed", Count: 3}, {Name: "Abe", Count: 1}}
	tests := []testCase{
		{
			name:   "genres keep count order",
			method: http.MethodGet,
			target: "/api/stats/genres",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().GenreStats(context.Background()).Return(genres, nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: `{"Sci-Fi":2,"Poetry":0}`},
		},
		{
			name:   "authors keep count order",
			method: http.MethodGet,
			target: "/api/stats/authors",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().AuthorStats(context.Background()).Return(authors, nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: `{"Zed":3,"Abe":1}`},
		},
		{
			name:   "summary",
			method: http.MethodGet,
			target: "/api/stats",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().Summary(context.Background()).Return(model.StatsSummary{Genres: genres, Authors: authors}, nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: `{"genres":{"Sci-Fi":2,"Poetry":0},"authors":{"Zed":3,"Abe":1}}`},
		},
		{
			name:   "err. internal",
			method: http.MethodGet,
			target: "/api/stats/genres",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().GenreStats(context.Background()).Return(nil, errors.New("db internal"))
			},
			response: response{expectedCode: http.StatusInternalServerError, expectedBody: `{"message":"internal server error"}`},
		},
	}
	runCases(t, "/api/stats", func(e *echo.Echo, h *handler.Handler) {
		e.GET("/api/stats", h.Summary)
		e.GET("/api/stats/genres", h.GenreStats)
		e.GET("/api/stats/authors", h.AuthorStats)
	}, tests)
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	tests := []testCase{
		{
			name:   "ok",
			method: http.MethodGet,
			target: "/manage/health",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().Health(context.Background()).Return(nil)
			},
			response: response{expectedCode: http.StatusOK, expectedBody: "OK"},
		},
		{
			name:   "err. storage down",
			method: http.MethodGet,
			target: "/manage/health",
			mockBehavior: func(r *service_mocks.MockCatalogService) {
				r.EXPECT().Health(context.Background()).Return(errors.New("conn refused"))
			},
			response: response{expectedCode: http.StatusServiceUnavailable, expectedBody: `{"message":"storage unavailable"}`},
		},
	}
	runCases(t, "/manage/health", func(e *echo.Echo, h *handler.Handler) {
		e.GET("/manage/health", h.Health)
	}, tests)
}
