// Package session keeps one paging.Loader per session scope and fetch
// configuration, so observers that come and go within a scope share the
// same loaded state instead of refetching.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/headlines"
	"github.com/pders01/headlines/internal/paging"
)

// ScopeID names one session, e.g. one TUI run or one CLI invocation.
type ScopeID string

// NewScope mints a fresh scope id.
func NewScope() ScopeID {
	return ScopeID(uuid.NewString())
}

type entryKey struct {
	scope ScopeID
	fc    paging.FetchConfig
}

type entry struct {
	loader    *paging.Loader
	observers int
}

// Registry is safe for concurrent use.
type Registry struct {
	client headlines.Client

	mu      sync.Mutex
	entries map[entryKey]*entry
}

func NewRegistry(client headlines.Client) *Registry {
	return &Registry{
		client:  client,
		entries: make(map[entryKey]*entry),
	}
}

// Attach returns the loader for (scope, fc), creating it and starting its
// first refresh when none exists yet.
func (r *Registry) Attach(scope ScopeID, fc paging.FetchConfig) *paging.Loader {
	key := entryKey{scope: scope, fc: fc}

	r.mu.Lock()
	if e, ok := r.entries[key]; ok {
		e.observers++
		r.mu.Unlock()
		return e.loader
	}

	loader := paging.NewLoader(paging.NewPageSource(r.client, fc), fc.PageSize)
	r.entries[key] = &entry{loader: loader, observers: 1}
	r.mu.Unlock()

	debuglog.WithFields(map[string]any{"scope": string(scope), "country": fc.Country, "page_size": fc.PageSize}).
		Infof("session loader created")
	loader.Refresh()
	return loader
}

// Detach records that one observer went away. The loader is kept until the
// scope is closed.
func (r *Registry) Detach(scope ScopeID, fc paging.FetchConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[entryKey{scope: scope, fc: fc}]; ok && e.observers > 0 {
		e.observers--
	}
}

// Observers reports how many observers are attached to (scope, fc).
func (r *Registry) Observers(scope ScopeID, fc paging.FetchConfig) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[entryKey{scope: scope, fc: fc}]; ok {
		return e.observers
	}
	return 0
}

// Close tears down every loader of scope. Closing an unknown scope is a
// no-op.
func (r *Registry) Close(scope ScopeID) {
	r.mu.Lock()
	var closing []*paging.Loader
	for key, e := range r.entries {
		if key.scope == scope {
			closing = append(closing, e.loader)
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	for _, l := range closing {
		l.Close()
	}
	if len(closing) > 0 {
		debuglog.Debugf("session %s closed %d loader(s)", scope, len(closing))
	}
}

// CloseAll tears down every scope.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[entryKey]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.loader.Close()
	}
}
