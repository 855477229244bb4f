package handler

import (
	"context"

	"github.com/Astemirdum/catalog-service/catalog/internal/model"
	"github.com/Astemirdum/catalog-service/catalog/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type CatalogService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64, soft bool) error
	ListBooks(ctx context.Context, params model.ListParams) ([]model.Book, error)
	SearchBooks(ctx context.Context, params model.SearchParams) (model.SearchResult, error)
	GenreStats(ctx context.Context) (model.Stats, error)
	AuthorStats(ctx context.Context) (model.Stats, error)
	Summary(ctx context.Context) (model.StatsSummary, error)
	Health(ctx context.Context) error
}

var _ CatalogService = (*service.Service)(nil)
