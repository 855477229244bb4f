package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/catalog/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere in the value.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// searchFilter selects the distinct ids of active books matching every supplied filter.
func searchFilter(params model.SearchParams) sq.SelectBuilder {
	q := qb.Select("b.id").
		From(booksTableName + " b").
		LeftJoin(bookAuthorsTableName + " ba on ba.book_id = b.id").
		LeftJoin(authorsTableName + " a on a.id = ba.author_id").
		LeftJoin(bookGenresTableName + " bg on bg.book_id = b.id").
		LeftJoin(genresTableName + " g on g.id = bg.genre_id").
		Where(sq.Eq{"b.is_active": true})

	if params.Title != "" {
		q = q.Where(sq.ILike{"b.title": containsPattern(params.Title)})
	}
	if params.Author != "" {
		q = q.Where(sq.ILike{"a.name": containsPattern(params.Author)})
	}
	if params.Genre != "" {
		q = q.Where(sq.Eq{"g.name": params.Genre})
	}
	if params.YearFrom != nil {
		q = q.Where(sq.GtOrEq{"b.publication_year": *params.YearFrom})
	}
	if params.YearTo != nil {
		q = q.Where(sq.LtOrEq{"b.publication_year": *params.YearTo})
	}
	if params.ISBN != "" {
		q = q.Where(sq.Eq{"b.isbn": params.ISBN})
	}
	if params.AvailableOnly {
		q = q.Where(sq.Gt{"b.copies_available": 0})
	}
	return q.GroupBy("b.id")
}

// searchOrder always ends with b.id so that page windows never overlap.
func searchOrder(params model.SearchParams) []string {
	dir := "asc"
	if params.SortOrder == model.SortDesc {
		dir = "desc"
	}
	var col string
	switch model.ParseSortField(string(params.SortBy)) {
	case model.SortByAuthor:
		col = "min(a.name)"
	case model.SortByYear:
		col = "b.publication_year"
	default:
		col = "b.title"
	}
	return []string{col + " " + dir, "b.id " + dir}
}

func searchCount(params model.SearchParams) sq.SelectBuilder {
	return qb.Select("count(*)").FromSelect(searchFilter(params), "filtered")
}

func searchPage(params model.SearchParams) sq.SelectBuilder {
	return searchFilter(params).
		OrderBy(searchOrder(params)...).
		Limit(uint64(params.PerPage)).
		Offset(uint64(params.Offset()))
}

func (r *repository) SearchBooks(ctx context.Context, params model.SearchParams) (model.SearchResult, error) {
	countQuery, countArgs, err := searchCount(params).ToSql()
	if err != nil {
		return model.SearchResult{}, err
	}
	pageQuery, pageArgs, err := searchPage(params).ToSql()
	if err != nil {
		return model.SearchResult{}, err
	}
	r.log.Debug("SearchBooks", zap.String("query", pageQuery), zap.Any("args", pageArgs))

	res := model.SearchResult{
		Page:    params.Page,
		PerPage: params.PerPage,
		Results: []model.Book{},
	}
	err = r.inReadTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, countArgs...).Scan(&res.Total); err != nil {
			return errors.Wrap(err, "count books")
		}
		if res.Total == 0 || params.Offset() >= res.Total {
			return nil
		}
		rows, err := tx.Query(ctx, pageQuery, pageArgs...)
		if err != nil {
			return errors.Wrap(err, "search books")
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return errors.Wrap(err, "pgx.CollectRows")
		}
		res.Results, err = r.loadBooks(ctx, tx, ids)
		return err
	})
	if err != nil {
		return model.SearchResult{}, err
	}
	return res, nil
}
