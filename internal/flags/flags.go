// Package flags supports feature flags that enable experimental behavior.
package flags

import (
	"sort"
	"sync"
)

// Flag is a named feature switch.
type Flag struct {
	Name    string
	Enabled bool
}

// Flagger holds feature flags in memory. When the flagger is disabled every
// query reports the flag as absent or off, regardless of stored state.
type Flagger struct {
	mu      sync.RWMutex
	enabled bool
	store   map[string]Flag
}

// NewFlagger returns a flagger with an empty in-memory store.
func NewFlagger(enabled bool) *Flagger {
	return &Flagger{
		enabled: enabled,
		store:   map[string]Flag{},
	}
}

// Create registers a flag if one with the given name does not already
// exist. The stored state of an existing flag is canonical; creating it
// again with a different enabled state does not overwrite it.
// Returns the stored flag, or false if flagging is disabled.
func (f *Flagger) Create(name string, isEnabled bool) (Flag, bool) {
	if !f.enabled {
		return Flag{}, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.store[name]; ok {
		return existing, true
	}

	flag := Flag{Name: name, Enabled: isEnabled}
	f.store[name] = flag
	return flag, true
}

// Exists reports whether a flag with the given name has been registered.
func (f *Flagger) Exists(name string) bool {
	if !f.enabled {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	_, ok := f.store[name]
	return ok
}

// IsEnabled reports whether the named flag is on. Unknown flags report the
// given default.
func (f *Flagger) IsEnabled(name string, def bool) bool {
	if !f.enabled {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	flag, ok := f.store[name]
	if !ok {
		return def
	}
	return flag.Enabled
}

// Get returns the named flag.
func (f *Flagger) Get(name string) (Flag, bool) {
	if !f.enabled {
		return Flag{}, false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	flag, ok := f.store[name]
	return flag, ok
}

// All lists every registered flag, sorted by name. Always empty when
// flagging is disabled.
func (f *Flagger) All() []Flag {
	if !f.enabled {
		return nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Flag, 0, len(f.store))
	for _, flag := range f.store {
		out = append(out, flag)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}
