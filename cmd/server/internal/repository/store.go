package repository

import (
	"context"
	"errors"
)

// ErrDuplicateKey is returned by Insert when the symbol is already present.
// The store's uniqueness constraint, not in-process locking, is the
// concurrency boundary: multiple server instances may share one store.
var ErrDuplicateKey = errors.New("repository: duplicate key")

// SymbolStore is the durable home of the watchlist symbol set.
type SymbolStore interface {
	Find(ctx context.Context, symbol string) (bool, error)
	Insert(ctx context.Context, symbol string) error
	DeleteOne(ctx context.Context, symbol string) (int64, error)
	FindAll(ctx context.Context) ([]string, error)
	Close() error
}

// EventBus fans watchlist change events out to every server instance
// sharing the store. Publish happens only after the corresponding write
// has been confirmed.
type EventBus interface {
	Publish(ctx context.Context, payload []byte) error
	Run(ctx context.Context, onMessage func(payload []byte))
	Close() error
}
