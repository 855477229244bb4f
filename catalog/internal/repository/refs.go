package repository

import (
	"context"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/catalog/internal/errs"
)

// refTable describes a name-keyed entity linked to books through a junction table.
type refTable struct {
	table    string
	junction string
	fk       string
}

var (
	authorRefs = refTable{table: authorsTableName, junction: bookAuthorsTableName, fk: "author_id"}
	genreRefs  = refTable{table: genresTableName, junction: bookGenresTableName, fk: "genre_id"}
)

const maxGetOrCreateAttempts = 3

func (r *repository) getOrCreateAuthor(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	return r.getOrCreateRef(ctx, tx, authorRefs, name)
}

func (r *repository) getOrCreateGenre(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	return r.getOrCreateRef(ctx, tx, genreRefs, name)
}

// getOrCreateRef resolves name to an id, inserting the row when it is missing.
// A concurrent insert of the same name surfaces as a unique violation; the
// savepoint is rolled back and the lookup repeated.
func (r *repository) getOrCreateRef(ctx context.Context, tx pgx.Tx, ref refTable, name string) (int64, error) {
	for attempt := 1; attempt <= maxGetOrCreateAttempts; attempt++ {
		id, err := lookupRef(ctx, tx, ref, name)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, errors.Wrapf(err, "lookup %s", ref.table)
		}

		id, err = insertRef(ctx, tx, ref, name)
		if err == nil {
			return id, nil
		}
		if !isUniqueViolation(err) {
			return 0, errors.Wrapf(err, "insert %s", ref.table)
		}
		r.log.Debug("getOrCreateRef: concurrent insert",
			zap.String("table", ref.table), zap.String("name", name), zap.Int("attempt", attempt))
	}
	return 0, errs.Internal("get or create %s %q: %d attempts", ref.table, name, maxGetOrCreateAttempts)
}

func lookupRef(ctx context.Context, tx pgx.Tx, ref refTable, name string) (int64, error) {
	query, args, err := qb.Select("id").
		From(ref.table).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	err = tx.QueryRow(ctx, query, args...).Scan(&id)
	return id, err
}

func insertRef(ctx context.Context, tx pgx.Tx, ref refTable, name string) (int64, error) {
	query, args, err := qb.Insert(ref.table).
		Columns("name").
		Values(name).
		Suffix("returning id").
		ToSql()
	if err != nil {
		return 0, err
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	if err = sp.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return 0, errors.Wrap(rbErr, "rollback savepoint")
		}
		return 0, err
	}
	return id, sp.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// lockOrder returns a sorted copy of names. Every transaction inserts new
// names in this order, so two writers sharing names cannot deadlock.
func lockOrder(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return sorted
}

// linkRefs resolves every name and attaches it to the book.
func (r *repository) linkRefs(ctx context.Context, tx pgx.Tx, ref refTable, bookID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	ins := qb.Insert(ref.junction).Columns("book_id", ref.fk)
	for _, name := range lockOrder(names) {
		id, err := r.getOrCreateRef(ctx, tx, ref, name)
		if err != nil {
			return err
		}
		ins = ins.Values(bookID, id)
	}
	query, args, err := ins.Suffix("on conflict do nothing").ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "insert %s", ref.junction)
	}
	return nil
}

// replaceRefs drops every junction row of the book before linking names.
func (r *repository) replaceRefs(ctx context.Context, tx pgx.Tx, ref refTable, bookID int64, names []string) error {
	query, args, err := qb.Delete(ref.junction).
		Where(sq.Eq{"book_id": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "delete %s", ref.junction)
	}
	return r.linkRefs(ctx, tx, ref, bookID, names)
}
