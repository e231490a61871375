package registry

import (
	"sort"
	"sync"

	"github.com/yatin-commits/crypto-relay/internal/model"
)

// Registry tracks per-client subscription sets and the derived active set.
type Registry struct {
	mu   sync.RWMutex
	subs map[model.ClientID]map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		subs: make(map[model.ClientID]map[string]struct{}),
	}
}

// SetSubscription replaces the client's subscription set with the normalized
// input and returns the new active symbol set. Duplicate and differently-cased
// symbols collapse to one entry; empty symbols are dropped.
func (r *Registry) SetSubscription(id model.ClientID, symbols []string) []string {
	set := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		if sym := model.NormalizeSymbol(raw); sym != "" {
			set[sym] = struct{}{}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs[id] = set
	return r.activeLocked()
}

// RemoveClient deletes the client's entry and returns the recomputed active
// set. Removing an unknown or already-removed client is a no-op.
func (r *Registry) RemoveClient(id model.ClientID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subs, id)
	return r.activeLocked()
}

// ActiveSymbols returns the union of all live clients' subscription sets.
func (r *Registry) ActiveSymbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeLocked()
}

// Subscribers returns the ids of all clients whose set contains symbol.
func (r *Registry) Subscribers(symbol string) []model.ClientID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []model.ClientID
	for id, set := range r.subs {
		if _, ok := set[symbol]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Symbols returns the client's current subscription set, nil if unknown.
func (r *Registry) Symbols(id model.ClientID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.subs[id]
	if !ok {
		return nil
	}
	symbols := make([]string, 0, len(set))
	for sym := range set {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// ClientCount returns the number of live clients.
func (r *Registry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// activeLocked recomputes the active set (caller must hold a lock).
func (r *Registry) activeLocked() []string {
	union := make(map[string]struct{})
	for _, set := range r.subs {
		for sym := range set {
			union[sym] = struct{}{}
		}
	}

	active := make([]string, 0, len(union))
	for sym := range union {
		active = append(active, sym)
	}
	sort.Strings(active)
	return active
}
