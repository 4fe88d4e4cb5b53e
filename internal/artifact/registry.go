package artifact

import "sync"

// Registry is the mapping from artifact id to Artifact, populated during
// manifest loading and consulted by the dependency graph builder and the
// scheduler for the remainder of a build run.
type Registry struct {
	mu        sync.RWMutex
	artifacts map[string]Artifact
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{artifacts: make(map[string]Artifact)}
}

// Get returns the artifact registered at id, or false if none exists.
func (r *Registry) Get(id string) (Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.artifacts[id]
	return a, ok
}

// Put inserts or overwrites the artifact at its own id.
func (r *Registry) Put(a Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[a.ID()] = a
}

// RegisterFetch creates-or-shares a Fetch artifact for the given raw URL.
// URLs are normalized before dedup so that two fetch dependencies whose URLs
// normalize equal resolve to the very same Artifact instance and id.
func (r *Registry) RegisterFetch(rawURL string) (*Fetch, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	id := FetchID(normalized)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.artifacts[id]; ok {
		return existing.(*Fetch), nil
	}

	f := &Fetch{URL: normalized}
	r.artifacts[id] = f
	return f, nil
}

// IDs returns every registered artifact id, in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.artifacts))
	for id := range r.artifacts {
		ids = append(ids, id)
	}
	return ids
}

// Recipes returns every registered *Recipe, in no particular order.
func (r *Registry) Recipes() []*Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recipes []*Recipe
	for _, a := range r.artifacts {
		if rec, ok := a.(*Recipe); ok {
			recipes = append(recipes, rec)
		}
	}
	return recipes
}

// Len returns the number of registered artifacts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.artifacts)
}
