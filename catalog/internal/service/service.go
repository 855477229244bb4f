package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/catalog-service/catalog/internal/errs"
	"github.com/Astemirdum/catalog-service/catalog/internal/events"
	"github.com/Astemirdum/catalog-service/catalog/internal/model"
	catalogRepo "github.com/Astemirdum/catalog-service/catalog/internal/repository"
	"github.com/Astemirdum/catalog-service/pkg/kafka"
)

type Service struct {
	log       *zap.Logger
	repo      catalogRepo.Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo catalogRepo.Repository, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		log:       log.Named("service"),
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	nb, err := newBook(req)
	if err != nil {
		return model.Book{}, err
	}
	book, err := s.repo.CreateBook(ctx, nb)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, kafka.EventBook{Type: kafka.BookCreated, BookID: book.ID})
	return book, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	req, err := normalizeUpdate(req)
	if err != nil {
		return model.Book{}, err
	}
	book, err := s.repo.UpdateBook(ctx, id, req)
	if err != nil {
		return model.Book{}, err
	}
	if !req.Empty() {
		s.publish(ctx, kafka.EventBook{Type: kafka.BookUpdated, BookID: id})
	}
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64, soft bool) error {
	if err := s.repo.DeleteBook(ctx, id, soft); err != nil {
		return err
	}
	s.publish(ctx, kafka.EventBook{Type: kafka.BookDeleted, BookID: id, Soft: soft})
	return nil
}

func (s *Service) ListBooks(ctx context.Context, params model.ListParams) ([]model.Book, error) {
	params, err := normalizePaging(params)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBooks(ctx, params)
}

func (s *Service) SearchBooks(ctx context.Context, params model.SearchParams) (model.SearchResult, error) {
	paging, err := normalizePaging(params.ListParams)
	if err != nil {
		return model.SearchResult{}, err
	}
	params.ListParams = paging
	params.SortBy = model.ParseSortField(string(params.SortBy))
	if params.SortOrder == "" {
		params.SortOrder = model.SortAsc
	}
	if params.SortOrder != model.SortAsc && params.SortOrder != model.SortDesc {
		return model.SearchResult{}, errs.Validation("sort_order must be asc or desc")
	}
	params.Title = strings.TrimSpace(params.Title)
	params.Author = strings.TrimSpace(params.Author)
	params.Genre = strings.TrimSpace(params.Genre)
	params.ISBN = strings.TrimSpace(params.ISBN)
	return s.repo.SearchBooks(ctx, params)
}

func (s *Service) GenreStats(ctx context.Context) (model.Stats, error) {
	return s.repo.GenreStats(ctx)
}

func (s *Service) AuthorStats(ctx context.Context) (model.Stats, error) {
	return s.repo.AuthorStats(ctx)
}

// Summary computes both aggregations concurrently.
func (s *Service) Summary(ctx context.Context) (model.StatsSummary, error) {
	var summary model.StatsSummary
	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		stats, err := s.repo.GenreStats(ctx)
		summary.Genres = stats
		return err
	})
	gg.Go(func() error {
		stats, err := s.repo.AuthorStats(ctx)
		summary.Authors = stats
		return err
	})
	if err := gg.Wait(); err != nil {
		return model.StatsSummary{}, err
	}
	return summary, nil
}

func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish never fails the caller: the write is already committed.
func (s *Service) publish(ctx context.Context, event kafka.EventBook) {
	event.Timestamp = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("publish book event",
			zap.String("type", string(event.Type)),
			zap.Int64("book_id", event.BookID),
			zap.Error(err))
	}
}
