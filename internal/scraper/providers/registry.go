package providers

import (
	"sort"
	"strings"

	"rentora-utils/internal/config"
)

// Registry maps provider identifiers to their scraper variants. Lookup is
// case-insensitive and tolerates the known aliases of each provider. Adding
// a portal means adding a variant and a registry entry, nothing else.
type Registry struct {
	scrapers map[string]ProviderScraper
}

// NewRegistry builds a registry over the given variants
func NewRegistry(scrapers ...ProviderScraper) *Registry {
	r := &Registry{scrapers: make(map[string]ProviderScraper)}
	for _, s := range scrapers {
		r.Register(s)
	}
	return r
}

// DefaultRegistry returns the registry with every supported provider wired in
func DefaultRegistry(cfg *config.Config) *Registry {
	return NewRegistry(
		NewEngieRomania(cfg),
		NewEonRomania(cfg),
	)
}

// Register adds a variant under its canonical id and all of its aliases
func (r *Registry) Register(s ProviderScraper) {
	r.scrapers[normalizeID(s.ID())] = s
	for _, alias := range s.Aliases() {
		r.scrapers[normalizeID(alias)] = s
	}
}

// Resolve returns the scraper for the provider identifier. The boolean makes
// "unsupported provider" a plain outcome the caller can report to the user,
// distinct from in-run failures.
func (r *Registry) Resolve(providerID string) (ProviderScraper, bool) {
	s, ok := r.scrapers[normalizeID(providerID)]
	return s, ok
}

// IDs returns the sorted canonical ids of all registered providers
func (r *Registry) IDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range r.scrapers {
		if !seen[s.ID()] {
			seen[s.ID()] = true
			ids = append(ids, s.ID())
		}
	}
	sort.Strings(ids)
	return ids
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
