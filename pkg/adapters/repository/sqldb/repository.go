package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
	_ "modernc.org/sqlite" // Local SQLite driver
)

//go:embed migrations
var migrations embed.FS

type dialect struct {
	name       string
	driver     string
	goose      goose.Dialect
	migrations string
}

var (
	sqliteDialect   = dialect{name: "sqlite", driver: "sqlite", goose: goose.DialectSQLite3, migrations: "migrations/sqlite"}
	libsqlDialect   = dialect{name: "libsql", driver: "libsql", goose: goose.DialectTurso, migrations: "migrations/sqlite"}
	postgresDialect = dialect{name: "postgres", driver: "pgx", goose: goose.DialectPostgres, migrations: "migrations/postgres"}
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	sqlx.BindDriver("libsql", sqlx.QUESTION)
}

func dialectFor(databaseURL string) dialect {
	switch {
	case strings.HasPrefix(databaseURL, "libsql://"),
		strings.HasPrefix(databaseURL, "wss://"),
		strings.HasPrefix(databaseURL, "https://") && strings.Contains(databaseURL, "turso.io"):
		return libsqlDialect
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresDialect
	default:
		return sqliteDialect
	}
}

// sqliteDSN turns on foreign keys and a busy timeout unless the caller chose pragmas.
func sqliteDSN(databaseURL string) string {
	if strings.Contains(databaseURL, "_pragma=") {
		return databaseURL
	}
	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	return databaseURL + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Store owns the database handle. It is created once at startup and closed at shutdown.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	log     logging.Logger
}

// Open connects to databaseURL, choosing the driver from its scheme, and
// applies pending migrations.
func Open(ctx context.Context, databaseURL string, log logging.Logger) (*Store, error) {
	d := dialectFor(databaseURL)
	dsn := databaseURL
	if d == sqliteDialect {
		dsn = sqliteDSN(databaseURL)
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d == sqliteDialect {
		// A single writer avoids SQLITE_BUSY and keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}

	s := &Store{db: db, dialect: d, log: log}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle without migrating. driverName selects the
// bind-variable style ("sqlite", "libsql" or "pgx").
func New(db *sql.DB, driverName string, log logging.Logger) *Store {
	d := sqliteDialect
	switch driverName {
	case libsqlDialect.driver:
		d = libsqlDialect
	case postgresDialect.driver:
		d = postgresDialect
	}
	return &Store{db: sqlx.NewDb(db, d.driver), dialect: d, log: log}
}

func (s *Store) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, s.dialect.migrations)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(s.dialect.goose, s.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, r := range results {
		s.log.Info(ctx, "migration applied", "dialect", s.dialect.name, "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

func (s *Store) Dialect() string { return s.dialect.name }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Users() *UserRepository   { return &UserRepository{store: s} }
func (s *Store) Links() *LinkRepository   { return &LinkRepository{store: s} }
func (s *Store) Places() *PlaceRepository { return &PlaceRepository{store: s} }

// withTx runs fn in a transaction, committing on success and rolling back on
// error or panic. fn must use tx for every query.
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx sqlx.ExtContext) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = dbError(cerr)
		}
	}()

	return fn(ctx, tx)
}

func get(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func sel(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// execOwned runs a statement scoped to one row and reports a missing row as not found.
func execOwned(ctx context.Context, q sqlx.ExtContext, query string, args ...any) error {
	res, err := exec(ctx, q, query, args...)
	if err != nil {
		return dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return domain.ErrConflict
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullableNanos(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}

func fromNullableNanos(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := fromNanos(*n)
	return &t
}
