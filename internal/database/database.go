package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// DB is the shared handle used by every repository. Queries are written with
// "?" placeholders and rebound for the active driver.
type DB struct {
	*sqlx.DB

	// Pool is the pgx pool backing DB on Postgres, nil on SQLite.
	Pool   *pgxpool.Pool
	Driver string
}

// New opens the database named by uri. postgres:// and postgresql:// URIs use
// pgx; "sqlite:<path>", "file:<path>" and ":memory:" use the embedded SQLite.
func New(ctx context.Context, uri string) (*DB, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return openPostgres(ctx, uri)
	case strings.HasPrefix(uri, "sqlite:"):
		return openSQLite(ctx, strings.TrimPrefix(uri, "sqlite:"))
	case strings.HasPrefix(uri, "file:"), uri == ":memory:":
		return openSQLite(ctx, uri)
	default:
		return nil, fmt.Errorf("unsupported database uri %q", uri)
	}
}

func openPostgres(ctx context.Context, uri string) (*DB, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), DriverPostgres)
	return &DB{DB: db, Pool: pool, Driver: DriverPostgres}, nil
}

func openSQLite(ctx context.Context, path string) (*DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one writer; also keeps ":memory:" a single database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db, Driver: DriverSQLite}, nil
}

func (db *DB) Close() {
	db.DB.Close()
	if db.Pool != nil {
		db.Pool.Close()
	}
}
