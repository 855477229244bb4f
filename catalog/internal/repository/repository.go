package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/catalog/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateBook(ctx context.Context, book model.NewBook) (model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int64, soft bool) error
	ListBooks(ctx context.Context, params model.ListParams) ([]model.Book, error)
	SearchBooks(ctx context.Context, params model.SearchParams) (model.SearchResult, error)
	GenreStats(ctx context.Context) (model.Stats, error)
	AuthorStats(ctx context.Context) (model.Stats, error)
	Ping(ctx context.Context) error
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName       = `books`
	authorsTableName     = `authors`
	genresTableName      = `genres`
	bookAuthorsTableName = `book_authors`
	bookGenresTableName  = `book_genres`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Search issues a count and a page query; repeatable read keeps them on one snapshot.
var readTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

func (r *repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.db, fn)
}

func (r *repository) inReadTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, r.db, readTxOptions, fn)
}

func (r *repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
