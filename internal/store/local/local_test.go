package local_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvella/finvella/internal/store"
	"github.com/finvella/finvella/internal/store/local"
)

func newKV(t *testing.T) *local.KV {
	t.Helper()

	kv, err := local.OpenKV(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	return kv
}

func TestKV_RoundTrip(t *testing.T) {
	kv := newKV(t)

	_, ok, err := kv.GetItem("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.SetItem("k", "v1"))
	require.NoError(t, kv.SetItem("k", "v2"))

	value, ok, err := kv.GetItem("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", value)

	require.NoError(t, kv.RemoveItem("k"))
	require.NoError(t, kv.RemoveItem("k")) // removing twice is fine

	_, ok, err = kv.GetItem("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKV_GuestFlag(t *testing.T) {
	kv := newKV(t)

	active, err := kv.GuestActive()
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, kv.SetGuestActive(true))

	active, err = kv.GuestActive()
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, kv.SetGuestActive(false))

	active, err = kv.GuestActive()
	require.NoError(t, err)
	assert.False(t, active)
}

type doc struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestAdapter_SetGetDelete(t *testing.T) {
	adapter := local.NewAdapter(newKV(t))
	ctx := context.Background()

	_, err := adapter.Get(ctx, "things", "a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, adapter.Set(ctx, "things", "a", doc{Name: "first", Value: 1}, false))

	raw, err := adapter.Get(ctx, "things", "a")
	require.NoError(t, err)

	var got doc
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, doc{Name: "first", Value: 1}, got)

	require.NoError(t, adapter.Delete(ctx, "things", "a"))
	_, err = adapter.Get(ctx, "things", "a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, adapter.Delete(ctx, "things", "a"))
}

func TestAdapter_MergeOverlaysTopLevelFields(t *testing.T) {
	adapter := local.NewAdapter(newKV(t))
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "goals", "g1", map[string]any{"name": "Trip", "savedAmount": 10.0}, false))
	require.NoError(t, adapter.Set(ctx, "goals", "g1", map[string]any{"savedAmount": 60.0}, true))

	raw, err := adapter.Get(ctx, "goals", "g1")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Trip", got["name"])
	assert.Equal(t, 60.0, got["savedAmount"])
}

func TestAdapter_MergeOnMissingDocCreatesIt(t *testing.T) {
	adapter := local.NewAdapter(newKV(t))
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "settings", "config", map[string]any{"theme": "light"}, true))

	raw, err := adapter.Get(ctx, "settings", "config")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"light"}`, string(raw))
}

func TestAdapter_ListPreservesInsertionOrder(t *testing.T) {
	adapter := local.NewAdapter(newKV(t))
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "chat", "b", map[string]any{"timestamp": 2.0}, false))
	require.NoError(t, adapter.Set(ctx, "chat", "a", map[string]any{"timestamp": 1.0}, false))

	docs, err := adapter.List(ctx, "chat", store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.JSONEq(t, `{"timestamp":2}`, string(docs[0]))
}

func TestAdapter_ListOrderBy(t *testing.T) {
	adapter := local.NewAdapter(newKV(t))
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "chat", "b", map[string]any{"timestamp": 20.0}, false))
	require.NoError(t, adapter.Set(ctx, "chat", "a", map[string]any{"timestamp": 3.0}, false))

	docs, err := adapter.List(ctx, "chat", store.ListOptions{OrderBy: "timestamp"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Numeric ordering, not lexical: 3 before 20.
	assert.JSONEq(t, `{"timestamp":3}`, string(docs[0]))
	assert.JSONEq(t, `{"timestamp":20}`, string(docs[1]))
}

func TestAdapter_Clear(t *testing.T) {
	adapter := local.NewAdapter(newKV(t))
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "chat", "a", map[string]any{"x": 1.0}, false))
	require.NoError(t, adapter.Clear(ctx, "chat"))

	docs, err := adapter.List(ctx, "chat", store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
