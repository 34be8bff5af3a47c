package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/store"
)

// Registry is the composition root for session managers: one Manager per
// active identity, constructed and initialized lazily on first use and torn
// down on logout. Nothing here is ambient; callers hold a reference.
type Registry struct {
	remote RemoteFactory
	local  store.Adapter
	flags  GuestFlag
	logger *slog.Logger

	mu       sync.Mutex
	managers map[string]*registryEntry
}

type registryEntry struct {
	manager *Manager
	init    sync.Once
}

func NewRegistry(remote RemoteFactory, localAdapter store.Adapter, flags GuestFlag, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		remote:   remote,
		local:    localAdapter,
		flags:    flags,
		logger:   logger,
		managers: make(map[string]*registryEntry),
	}
}

// For returns the manager for identity, creating and initializing it on
// first use. Concurrent first calls share one initialization.
func (r *Registry) For(ctx context.Context, identity auth.Identity) *Manager {
	r.mu.Lock()

	entry, ok := r.managers[identity.UID]
	if !ok {
		entry = &registryEntry{
			manager: New(Config{
				Auth:   staticAuth{identity: identity},
				Remote: r.remote,
				Local:  r.local,
				Flags:  r.flags,
				Logger: r.logger.With("uid", identity.UID),
			}),
		}
		r.managers[identity.UID] = entry
	}

	r.mu.Unlock()

	entry.init.Do(func() {
		entry.manager.Initialize(ctx)
	})

	return entry.manager
}

// Drop tears down the manager for uid after its pending writes settle.
func (r *Registry) Drop(uid string) {
	r.mu.Lock()
	entry, ok := r.managers[uid]
	delete(r.managers, uid)
	r.mu.Unlock()

	if ok {
		entry.manager.Wait()
	}
}

// Shutdown waits for every manager's pending writes.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.managers))

	for _, e := range r.managers {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.manager.Wait()
	}
}

// staticAuth answers for a request identity that was already verified by
// the HTTP auth middleware. Sign-out is a client concern there (the token
// is simply discarded), so it is a no-op here.
type staticAuth struct {
	identity auth.Identity
}

func (s staticAuth) Current(_ context.Context) (*auth.Identity, error) {
	identity := s.identity
	return &identity, nil
}

func (s staticAuth) SignOut(_ context.Context) error {
	return nil
}
