package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/finvella/finvella/internal/store"
)

// Keys for guest-mode data in the local store. One key per collection; the
// mode key marks that a guest session is active on this device.
const (
	keyPrefix    = "finvella_guest_"
	GuestModeKey = keyPrefix + "mode"
)

// GuestActive reports whether the guest flag is set.
func (k *KV) GuestActive() (bool, error) {
	value, ok, err := k.GetItem(GuestModeKey)
	if err != nil {
		return false, err
	}

	return ok && value == "true", nil
}

// SetGuestActive sets or clears the guest flag.
func (k *KV) SetGuestActive(on bool) error {
	if !on {
		return k.RemoveItem(GuestModeKey)
	}

	return k.SetItem(GuestModeKey, "true")
}

// entry wraps a stored document with its id so documents that do not carry
// an id field (merge fragments, settings) stay addressable.
type entry struct {
	ID  string          `json:"id"`
	Doc json.RawMessage `json:"doc"`
}

// Adapter implements store.Adapter over the local KV. Each collection is
// held as one JSON array under a guest key, so a whole collection is
// rewritten per operation, the way browser local storage is used.
type Adapter struct {
	kv *KV

	// Serializes read-modify-write cycles on collection values; background
	// dispatches may target the same collection concurrently.
	mu sync.Mutex
}

func NewAdapter(kv *KV) *Adapter {
	return &Adapter{kv: kv}
}

var _ store.Adapter = (*Adapter)(nil)

func collectionKey(collection string) string {
	return keyPrefix + collection
}

func (a *Adapter) load(collection string) ([]entry, error) {
	value, ok, err := a.kv.GetItem(collectionKey(collection))
	if err != nil || !ok {
		return nil, err
	}

	var entries []entry
	if err := json.Unmarshal([]byte(value), &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", collection, err)
	}

	return entries, nil
}

func (a *Adapter) save(collection string, entries []entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", collection, err)
	}

	return a.kv.SetItem(collectionKey(collection), string(data))
}

func (a *Adapter) Get(_ context.Context, collection, id string) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.load(collection)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.ID == id {
			return e.Doc, nil
		}
	}

	return nil, store.ErrNotFound
}

func (a *Adapter) List(_ context.Context, collection string, opts store.ListOptions) ([]json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.load(collection)
	if err != nil {
		return nil, err
	}

	if opts.OrderBy != "" {
		sortEntries(entries, opts.OrderBy)
	}

	docs := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		docs[i] = e.Doc
	}

	return docs, nil
}

func (a *Adapter) Set(_ context.Context, collection, id string, doc any, merge bool) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s/%s: %w", collection, id, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.load(collection)
	if err != nil {
		return err
	}

	for i, e := range entries {
		if e.ID != id {
			continue
		}

		if merge {
			merged, err := mergeDocs(e.Doc, data)
			if err != nil {
				return fmt.Errorf("merging document %s/%s: %w", collection, id, err)
			}

			entries[i].Doc = merged
		} else {
			entries[i].Doc = data
		}

		return a.save(collection, entries)
	}

	entries = append(entries, entry{ID: id, Doc: data})

	return a.save(collection, entries)
}

func (a *Adapter) Delete(_ context.Context, collection, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.load(collection)
	if err != nil {
		return err
	}

	kept := entries[:0]

	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}

	return a.save(collection, kept)
}

func (a *Adapter) Clear(_ context.Context, collection string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.kv.RemoveItem(collectionKey(collection))
}

// mergeDocs overlays the top-level fields of overlay onto base.
func mergeDocs(base, overlay json.RawMessage) (json.RawMessage, error) {
	var baseMap, overlayMap map[string]json.RawMessage

	if err := json.Unmarshal(base, &baseMap); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(overlay, &overlayMap); err != nil {
		return nil, err
	}

	for k, v := range overlayMap {
		baseMap[k] = v
	}

	return json.Marshal(baseMap)
}

// sortEntries orders entries ascending by a top-level document field,
// numbers numerically and everything else by its text form.
func sortEntries(entries []entry, field string) {
	key := func(e entry) (float64, string, bool) {
		var m map[string]any
		if err := json.Unmarshal(e.Doc, &m); err != nil {
			return 0, "", false
		}

		switch v := m[field].(type) {
		case float64:
			return v, "", true
		case string:
			return 0, v, false
		default:
			return 0, fmt.Sprint(v), false
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ni, si, numI := key(entries[i])
		nj, sj, numJ := key(entries[j])

		if numI && numJ {
			return ni < nj
		}

		if numI != numJ {
			return numI
		}

		return si < sj
	})
}
