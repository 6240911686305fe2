package registry

import (
	"context"
	"errors"
	"sort"

	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/repository"
)

// RegisterResult reports what a Register call actually did.
type RegisterResult int

const (
	Inserted RegisterResult = iota
	AlreadyExists
)

// UnregisterResult reports what an Unregister call actually did.
type UnregisterResult int

const (
	Removed UnregisterResult = iota
	NotFound
)

// Registry owns the canonical watchlist symbol set. All reads and writes
// go through the SymbolStore; the store's uniqueness constraint is the
// single source of truth for duplicate registrations.
type Registry struct {
	store repository.SymbolStore
}

func NewRegistry(store repository.SymbolStore) *Registry {
	return &Registry{store: store}
}

// ListAll returns the current durable symbol set, sorted.
func (r *Registry) ListAll(ctx context.Context) ([]string, error) {
	symbols, err := r.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Contains reports whether the symbol is currently registered.
func (r *Registry) Contains(ctx context.Context, symbol string) (bool, error) {
	return r.store.Find(ctx, symbol)
}

// Register inserts the symbol if absent. A duplicate-key fault from the
// store is an expected race between concurrent adders, not an error, and
// folds into AlreadyExists.
func (r *Registry) Register(ctx context.Context, symbol string) (RegisterResult, error) {
	err := r.store.Insert(ctx, symbol)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return AlreadyExists, nil
	}
	if err != nil {
		return 0, err
	}
	return Inserted, nil
}

// Unregister deletes the symbol if present. Removing an absent symbol is
// idempotently satisfied and reported as NotFound, not an error.
func (r *Registry) Unregister(ctx context.Context, symbol string) (UnregisterResult, error) {
	removed, err := r.store.DeleteOne(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return NotFound, nil
	}
	return Removed, nil
}
