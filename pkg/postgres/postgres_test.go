package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/catalog-service/catalog/migrations"
)

func TestDB_ConnString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		db   DB
		want string
	}{
		{
			name: "dsn wins",
			db:   DB{DSN: "postgres://u:p@db/x", Host: "other"},
			want: "postgres://u:p@db/x",
		},
		{
			name: "discrete fields",
			db:   DB{Host: "db", Port: "5433", Username: "cat", Password: "s3cret", NameDB: "catalog", SSLMode: "require"},
			want: "postgres://cat:s3cret@db:5433/catalog?sslmode=require",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.db.ConnString())
		})
	}
}

// TestMigrate runs against CATALOG_TEST_DB_DSN and applies the schema twice.
func TestMigrate(t *testing.T) {
	dsn := os.Getenv("CATALOG_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("CATALOG_TEST_DB_DSN is not set")
	}
	ctx := context.Background()
	pool, err := NewPostgresDB(ctx, &DB{DSN: dsn}, nil)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, Migrate(pool, migrations.MigrationFiles))
	require.NoError(t, Migrate(pool, migrations.MigrationFiles))

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, "select to_regclass('book_genres') is not null").Scan(&exists))
	require.True(t, exists)
}
