package ai

import "fmt"

// Registry holds the configured providers in registration order. Lookup by
// an unknown or empty name falls back to the first registered provider, so
// resolution is deterministic.
type Registry struct {
	order     []string
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

func (r *Registry) Register(p Provider) {
	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// Resolve returns the provider registered under name, or the first
// registered provider when the name is unknown. It returns an error only
// when the registry is empty.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if len(r.order) > 0 {
		return r.providers[r.order[0]], nil
	}
	return nil, fmt.Errorf("no AI providers are configured")
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}
