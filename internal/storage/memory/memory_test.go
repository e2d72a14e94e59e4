package storage_test

import (
	"context"
	"testing"

	appstorage "photowall/internal/storage"
	storage "photowall/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	store := storage.New(0)

	require.NoError(t, store.Set(ctx, "k1", "v1"))

	val, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	require.NoError(t, store.Remove(ctx, "k1"))

	_, err = store.Get(ctx, "k1")
	assert.ErrorIs(t, err, appstorage.ErrKeyNotFound)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := storage.New(0)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, appstorage.ErrKeyNotFound)
}

func TestMemoryStore_CapacityExceeded(t *testing.T) {
	ctx := context.Background()
	// ключ "a" + значение из 8 байт = 9 байт, лимит 10
	store := storage.New(10)

	require.NoError(t, store.Set(ctx, "a", "12345678"))

	err := store.Set(ctx, "b", "12345678")
	assert.ErrorIs(t, err, appstorage.ErrCapacityExceeded)

	// после удаления место освобождается
	require.NoError(t, store.Remove(ctx, "a"))
	assert.NoError(t, store.Set(ctx, "b", "12345678"))
}

func TestMemoryStore_OverwriteCountsDelta(t *testing.T) {
	ctx := context.Background()
	store := storage.New(10)

	require.NoError(t, store.Set(ctx, "a", "12345678"))
	// перезапись того же ключа меньшим значением проходит
	require.NoError(t, store.Set(ctx, "a", "1234"))

	val, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1234", val)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_RemoveMissingIsNoop(t *testing.T) {
	store := storage.New(0)

	assert.NoError(t, store.Remove(context.Background(), "ghost"))
}
