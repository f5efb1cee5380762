// Package storage contains storage-agnostic contracts for landing imputed
// result rows in a database. Concrete backends register a Factory at init
// time; callers open a Sink through New and stay backend-agnostic from then
// on. The all subpackage blank-imports every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tsimpute/internal/frame"
)

// Column describes one destination column by logical dtype. Backends map the
// dtype to their own SQL type when bootstrapping the table.
type Column struct {
	Name     string
	DType    frame.DType
	Nullable bool
}

// Config selects and parameterizes a backend.
type Config struct {
	Kind    string // registered backend name, e.g. "postgres" or "sqlite"
	DSN     string
	Table   string // target table, possibly schema-qualified ("public.imputed")
	Columns []Column
}

// Sink is an open backend connection. CreateTable bootstraps the destination
// from the configured columns; CopyRows bulk-inserts rows aligned to the
// given column order and reports how many landed.
type Sink interface {
	CreateTable(ctx context.Context) error
	CopyRows(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Close()
}

// Factory opens a Sink for a Config. Implementations should validate the
// parts of Config they consume and fail fast on bad DSNs.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a Factory for the given storage kind. It
// is typically called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New opens a Sink for cfg.Kind. Callers do not need to know which backend
// they are using; importing the storage/all package makes every built-in
// kind available.
func New(ctx context.Context, cfg Config) (Sink, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind=%q", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// Kinds reports the registered backend names in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
