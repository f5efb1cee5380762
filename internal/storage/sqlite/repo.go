// Package sqlite lands imputed result rows in SQLite via database/sql. There
// is no bulk-load protocol like Postgres COPY; batched INSERTs inside a
// single transaction keep throughput acceptable for moderate volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo

	"tsimpute/internal/ddl"
	"tsimpute/internal/frame"
	"tsimpute/internal/storage"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//
	//	"file:imputed.db?cache=shared"
	//	"imputed.db"
	//	":memory:"
	DSN string

	// Table is the target table name. SQLite has no schemas the way Postgres
	// does; dotted names like "main.imputed" pass through unchanged.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []storage.Column
}

// Repository is a SQLite-backed storage.Sink implementation.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// Enable foreign keys by default; ignore error if unsupported.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
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
			Name:     sqlIdent(c.Name),
			SQLType:  sqlType(c.DType),
			Nullable: c.Nullable,
		})
	}
	return ddl.BuildCreateTableSQL(ddl.TableDef{
		FQN:         sqlIdent(r.cfg.Table),
		IfNotExists: true,
		Columns:     cols,
	})
}

// sqlType maps a column dtype to its SQLite storage class. SQLite has no
// native boolean; the driver stores bools as 0/1 INTEGER.
func sqlType(dt frame.DType) string {
	switch dt {
	case frame.Bool, frame.Int64:
		return "INTEGER"
	case frame.Float32, frame.Float64:
		return "REAL"
	default:
		return "TEXT"
	}
}

// CopyRows inserts the given rows into the configured table using a single
// transaction and a prepared INSERT statement. len(row) must equal
// len(columns) for every row.
func (r *Repository) CopyRows(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyRows: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqlIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqlIdent(r.cfg.Table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyRows: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sqlStmt string) error {
	if strings.TrimSpace(sqlStmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlStmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// sqlIdent quotes an identifier for SQLite. Dotted names quote each segment.
func sqlIdent(id string) string {
	parts := strings.Split(id, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
