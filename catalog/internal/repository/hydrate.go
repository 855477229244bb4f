package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/catalog-service/catalog/internal/errs"
	"github.com/Astemirdum/catalog-service/catalog/internal/model"
)

var bookColumns = []string{
	"id", "title", "publication_year", "isbn", "copies_available", "is_active", "created_at", "updated_at",
}

type refRow struct {
	BookID int64  `db:"book_id"`
	ID     int64  `db:"id"`
	Name   string `db:"name"`
}

func (r *repository) getBook(ctx context.Context, tx pgx.Tx, id int64) (model.Book, error) {
	books, err := r.loadBooks(ctx, tx, []int64{id})
	if err != nil {
		return model.Book{}, err
	}
	if len(books) == 0 {
		return model.Book{}, errs.NotFound("book %d", id)
	}
	return books[0], nil
}

// loadBooks returns the aggregates for ids in the order of ids, skipping missing ones.
func (r *repository) loadBooks(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.Book, error) {
	if len(ids) == 0 {
		return []model.Book{}, nil
	}
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select books")
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}

	byID := make(map[int64]model.Book, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	books := make([]model.Book, 0, len(found))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			books = append(books, b)
		}
	}
	if err = r.attachRefs(ctx, tx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// attachRefs fills Authors and Genres of every book with two queries.
func (r *repository) attachRefs(ctx context.Context, tx pgx.Tx, books []model.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]int64, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}

	authors, err := loadRefs(ctx, tx, authorRefs, ids)
	if err != nil {
		return err
	}
	genres, err := loadRefs(ctx, tx, genreRefs, ids)
	if err != nil {
		return err
	}

	for i := range books {
		books[i].Authors = make([]model.Author, 0, len(authors[books[i].ID]))
		for _, a := range authors[books[i].ID] {
			books[i].Authors = append(books[i].Authors, model.Author{ID: a.ID, Name: a.Name})
		}
		books[i].Genres = make([]model.Genre, 0, len(genres[books[i].ID]))
		for _, g := range genres[books[i].ID] {
			books[i].Genres = append(books[i].Genres, model.Genre{ID: g.ID, Name: g.Name})
		}
	}
	return nil
}

func loadRefs(ctx context.Context, tx pgx.Tx, ref refTable, bookIDs []int64) (map[int64][]refRow, error) {
	query, args, err := qb.Select("j.book_id", "r.id", "r.name").
		From(ref.table + " r").
		Join(ref.junction + " j on j." + ref.fk + " = r.id").
		Where(sq.Eq{"j.book_id": bookIDs}).
		OrderBy("r.name").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "select %s", ref.table)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[refRow])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	out := make(map[int64][]refRow, len(bookIDs))
	for _, row := range list {
		out[row.BookID] = append(out[row.BookID], row)
	}
	return out, nil
}
