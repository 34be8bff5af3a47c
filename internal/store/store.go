package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names all document collections a session persists into.
// Both adapter variants understand the same set.
const (
	CollectionSettings = "settings"
	CollectionExpenses = "expenses"
	CollectionGoals    = "goals"
	CollectionChat     = "chat"
)

// SettingsDocID is the id of the singleton settings document.
const SettingsDocID = "config"

// ErrNotFound is returned by Get when no document exists under the id.
var ErrNotFound = errors.New("document not found")

// ListOptions controls collection reads.
type ListOptions struct {
	// OrderBy names a top-level document field to sort ascending by.
	// Empty means storage order.
	OrderBy string
}

//go:generate mockgen -source=store.go -destination=adapter_mock.go -package=store

// Adapter is the persistence capability a session writes through. It is a
// stateless translation layer: the session manager owns all in-memory state
// and an adapter owns nothing. Implementations exist for the remote
// document store (authenticated sessions) and the device-local store
// (guest sessions).
type Adapter interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	List(ctx context.Context, collection string, opts ListOptions) ([]json.RawMessage, error)

	// Set writes one document. With merge set, top-level fields of doc are
	// overlaid onto any existing document instead of replacing it.
	Set(ctx context.Context, collection, id string, doc any, merge bool) error

	// Delete removes one document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, collection, id string) error

	// Clear removes every document in the collection.
	Clear(ctx context.Context, collection string) error
}

// Settings is the shape of the singleton settings document shared by both
// adapter variants.
type Settings struct {
	Budget       json.RawMessage `json:"budget,omitempty"`
	CurrencyCode string          `json:"currencyCode,omitempty"`
	Theme        string          `json:"theme,omitempty"`
}
