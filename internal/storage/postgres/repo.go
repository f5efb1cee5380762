// Package postgres lands imputed result rows in Postgres using pgx v5. Bulk
// loading goes through the COPY protocol via pgxpool.CopyFrom.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tsimpute/internal/ddl"
	"tsimpute/internal/frame"
	"tsimpute/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN     string           // connection string for pgxpool
	Table   string           // target table, possibly schema-qualified ("public.imputed")
	Columns []storage.Column // ordered destination columns
}

// Repository is a Postgres-backed storage.Sink implementation.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a close function for
// cleanup. The pool is pinged so bad DSNs fail here rather than on first use.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pgxpool ping: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// CreateTable applies CREATE TABLE IF NOT EXISTS for the configured columns.
func (r *Repository) CreateTable(ctx context.Context) error {
	stmt, err := r.createSQL()
	if err != nil {
		return err
	}
	return r.Exec(ctx, stmt)
}

func (r *Repository) createSQL() (string, error) {
	cols := make([]ddl.ColumnDef, 0, len(r.cfg.Columns))
	for _, c := range r.cfg.Columns {
		cols = append(cols, ddl.ColumnDef{
			Name:     pgIdent(c.Name),
			SQLType:  sqlType(c.DType),
			Nullable: c.Nullable,
		})
	}
	return ddl.BuildCreateTableSQL(ddl.TableDef{
		FQN:         pgFQN(r.cfg.Table),
		IfNotExists: true,
		Columns:     cols,
	})
}

// sqlType maps a column dtype to its Postgres SQL type.
func sqlType(dt frame.DType) string {
	switch dt {
	case frame.Bool:
		return "BOOLEAN"
	case frame.Int64:
		return "BIGINT"
	case frame.Float32:
		return "REAL"
	case frame.Float64:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// CopyRows bulk-inserts rows via the COPY protocol. Column names are passed
// to pgx unquoted; pgx quotes identifiers itself.
func (r *Repository) CopyRows(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s)", r.cfg.Table, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("copy into %s: %w", r.cfg.Table, err)
	}
	return n, nil
}

// Exec runs an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.imputed" to
// "public"."imputed". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
