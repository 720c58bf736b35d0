package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vodbridge/vodbridge/config"
	"github.com/vodbridge/vodbridge/internal/domain"
)

// ErrSourceNotFound is returned when no configured source matches the
// requested display name.
var ErrSourceNotFound = errors.New("source not found")

// Registry holds the configured catalog sources. It is built once at startup
// and read-only afterwards, so it is safe to share across goroutines.
type Registry struct {
	sources []domain.Source
	byName  map[string]domain.Source
}

// New builds a registry from the configured source list, preserving order.
func New(sources []config.SourceConfig) (*Registry, error) {
	r := &Registry{
		sources: make([]domain.Source, 0, len(sources)),
		byName:  make(map[string]domain.Source, len(sources)),
	}

	seenKeys := make(map[string]bool, len(sources))
	for _, sc := range sources {
		src := domain.Source{
			Key:       sc.Key,
			Name:      sc.Name,
			API:       strings.TrimRight(sc.API, "?&"),
			VerifyTLS: !sc.InsecureSkipVerify,
		}
		if seenKeys[src.Key] {
			return nil, fmt.Errorf("duplicate source key %q", src.Key)
		}
		if _, dup := r.byName[src.Name]; dup {
			return nil, fmt.Errorf("duplicate source name %q", src.Name)
		}
		seenKeys[src.Key] = true
		r.sources = append(r.sources, src)
		r.byName[src.Name] = src
	}

	return r, nil
}

// List returns all sources in configuration order.
func (r *Registry) List() []domain.Source {
	out := make([]domain.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Names returns the display names of all sources in configuration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, src := range r.sources {
		names[i] = src.Name
	}
	return names
}

// FindByName looks up a source by its display name. The returned error lists
// the available names so callers can surface them directly.
func (r *Registry) FindByName(name string) (domain.Source, error) {
	src, ok := r.byName[name]
	if !ok {
		return domain.Source{}, fmt.Errorf("%w: %q (available: %s)", ErrSourceNotFound, name, strings.Join(r.Names(), ", "))
	}
	return src, nil
}

// Len returns the number of configured sources.
func (r *Registry) Len() int {
	return len(r.sources)
}
