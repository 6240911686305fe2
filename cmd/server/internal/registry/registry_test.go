package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/registry"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/testutils"
)

func TestRegistry_Register_New(t *testing.T) {
	store := testutils.NewMockStore()
	reg := registry.NewRegistry(store)

	result, err := reg.Register(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, registry.Inserted, result)
	assert.True(t, store.Symbols["AAPL"])
}

func TestRegistry_Register_DuplicateFoldsToAlreadyExists(t *testing.T) {
	store := testutils.NewMockStore("AAPL")
	reg := registry.NewRegistry(store)

	result, err := reg.Register(context.Background(), "AAPL")
	require.NoError(t, err, "duplicate registration is an expected race, not an error")
	assert.Equal(t, registry.AlreadyExists, result)
}

func TestRegistry_Register_StoreFaultPropagates(t *testing.T) {
	store := testutils.NewMockStore()
	store.InsertErr = errors.New("store down")
	reg := registry.NewRegistry(store)

	_, err := reg.Register(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestRegistry_Unregister(t *testing.T) {
	store := testutils.NewMockStore("AAPL")
	reg := registry.NewRegistry(store)

	result, err := reg.Unregister(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, registry.Removed, result)

	result, err = reg.Unregister(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, registry.NotFound, result)
}

func TestRegistry_ListAll_Sorted(t *testing.T) {
	store := testutils.NewMockStore("TSLA", "AAPL", "GOOG")
	reg := registry.NewRegistry(store)

	symbols, err := reg.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOG", "TSLA"}, symbols)
}

func TestRegistry_Contains(t *testing.T) {
	store := testutils.NewMockStore("AAPL")
	reg := registry.NewRegistry(store)

	ok, err := reg.Contains(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.Contains(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.False(t, ok)
}
