// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  main blank-imports the
// components it ships, calls Init(deps) on each enabled one, and lets it
// mount its routes on the shared router.
//
// Notes
// -----
// • Components mount onto the root router directly.  chi panics when two
//   sub-routers are Mount()ed at the same prefix, so Routes receives the
//   router instead of returning one.
// • All() is sorted by name so route registration order is stable.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Routes should register both the canonical API path and any alias, e.g.:
//
//	r.Get("/api/site-settings", c.get)
//	r.Get("/settings", c.get)
type Component interface {
	Name() string
	Init(Deps) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.  Registering the
// same name twice is a programming error.
func Register(c Component) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[c.Name()]; dup {
		panic(fmt.Sprintf("component %q registered twice", c.Name()))
	}
	registry[c.Name()] = c
}

// All returns every registered component ordered by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every registered component accepted by enabled and
// registers its routes on r.  It returns the names that were mounted.
func Mount(r chi.Router, deps Deps, enabled func(name string) bool) ([]string, error) {
	var names []string
	for _, c := range All() {
		if enabled != nil && !enabled(c.Name()) {
			continue
		}
		if err := c.Init(deps); err != nil {
			return names, fmt.Errorf("init component %s: %w", c.Name(), err)
		}
		c.Routes(r)
		names = append(names, c.Name())
	}
	return names, nil
}
