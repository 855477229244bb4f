package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/catalog-service/catalog/internal/model"
)

// statsQuery counts active books per name; names without any keep a zero count.
func statsQuery(ref refTable) (string, []any, error) {
	return qb.Select("r.name", "count(b.id) as count").
		From(ref.table + " r").
		LeftJoin(ref.junction + " j on j." + ref.fk + " = r.id").
		LeftJoin(booksTableName + " b on b.id = j.book_id and b.is_active").
		GroupBy("r.name").
		OrderBy("count desc", "r.name asc").
		ToSql()
}

func (r *repository) GenreStats(ctx context.Context) (model.Stats, error) {
	return r.stats(ctx, genreRefs)
}

func (r *repository) AuthorStats(ctx context.Context) (model.Stats, error) {
	return r.stats(ctx, authorRefs)
}

func (r *repository) stats(ctx context.Context, ref refTable) (model.Stats, error) {
	query, args, err := statsQuery(ref)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s stats", ref.table)
	}
	defer rows.Close()

	stats, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.StatEntry])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return stats, nil
}
