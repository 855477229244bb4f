package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/catalog/internal/errs"
	"github.com/Astemirdum/catalog-service/catalog/internal/model"
)

func (r *repository) CreateBook(ctx context.Context, nb model.NewBook) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "publication_year", "isbn", "copies_available", "is_active").
		Values(nb.Title, nb.PublicationYear, nb.ISBN, nb.CopiesAvailable, nb.IsActive).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
			return errors.Wrap(err, "insert book")
		}
		if err := r.linkRefs(ctx, tx, authorRefs, id, nb.Authors); err != nil {
			return err
		}
		if err := r.linkRefs(ctx, tx, genreRefs, id, nb.Genres); err != nil {
			return err
		}
		var err error
		book, err = r.getBook(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	var book model.Book
	err := r.inReadTx(ctx, func(tx pgx.Tx) error {
		var err error
		book, err = r.getBook(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error) {
	var book model.Book
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockBook(ctx, tx, id); err != nil {
			return err
		}
		if !req.Empty() {
			query, args, err := qb.Update(booksTableName).
				SetMap(updateSet(req)).
				Where(sq.Eq{"id": id}).
				ToSql()
			if err != nil {
				return err
			}
			r.log.Debug("UpdateBook", zap.String("query", query), zap.Any("args", args))
			if _, err = tx.Exec(ctx, query, args...); err != nil {
				return errors.Wrap(err, "update book")
			}
		}
		if req.Authors != nil {
			if err := r.replaceRefs(ctx, tx, authorRefs, id, *req.Authors); err != nil {
				return err
			}
		}
		if req.Genres != nil {
			if err := r.replaceRefs(ctx, tx, genreRefs, id, *req.Genres); err != nil {
				return err
			}
		}
		var err error
		book, err = r.getBook(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func lockBook(ctx context.Context, tx pgx.Tx, id int64) error {
	query, args, err := qb.Select("id").
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Suffix("for update").
		ToSql()
	if err != nil {
		return err
	}
	var got int64
	if err = tx.QueryRow(ctx, query, args...).Scan(&got); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("book %d", id)
		}
		return errors.Wrap(err, "lock book")
	}
	return nil
}

// updateSet holds only the supplied scalar columns plus updated_at.
// An empty isbn clears the column.
func updateSet(req model.UpdateBookRequest) map[string]any {
	set := map[string]any{
		"updated_at": sq.Expr("now()"),
	}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.PublicationYear != nil {
		set["publication_year"] = *req.PublicationYear
	}
	if req.ISBN != nil {
		if *req.ISBN == "" {
			set["isbn"] = nil
		} else {
			set["isbn"] = *req.ISBN
		}
	}
	if req.CopiesAvailable != nil {
		set["copies_available"] = *req.CopiesAvailable
	}
	if req.IsActive != nil {
		set["is_active"] = *req.IsActive
	}
	return set
}

// DeleteBook is idempotent: a missing id is not an error in either mode.
func (r *repository) DeleteBook(ctx context.Context, id int64, soft bool) error {
	var (
		query string
		args  []any
		err   error
	)
	if soft {
		query, args, err = qb.Update(booksTableName).
			Set("is_active", false).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"id": id}).
			ToSql()
	} else {
		query, args, err = qb.Delete(booksTableName).
			Where(sq.Eq{"id": id}).
			ToSql()
	}
	if err != nil {
		return err
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "delete book")
		}
		r.log.Debug("DeleteBook", zap.Int64("id", id), zap.Bool("soft", soft), zap.Int64("affected", tag.RowsAffected()))
		return nil
	})
}

func (r *repository) ListBooks(ctx context.Context, params model.ListParams) ([]model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"is_active": true}).
		OrderBy("title asc", "id asc").
		Limit(uint64(params.PerPage)).
		Offset(uint64(params.Offset())).
		ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	err = r.inReadTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "select books")
		}
		books, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
		if err != nil {
			return errors.Wrap(err, "pgx.CollectRows")
		}
		return r.attachRefs(ctx, tx, books)
	})
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []model.Book{}
	}
	return books, nil
}
