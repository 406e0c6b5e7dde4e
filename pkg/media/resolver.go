package media

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resolver turns references into servable strings. Resolution never
// fails: anything it cannot serve resolves to the category default.
type Resolver struct {
	// defaults overrides the conventional default path per category.
	defaults map[Category]string
}

// NewResolver creates a resolver with the conventional defaults.
func NewResolver() *Resolver {
	return &Resolver{defaults: map[Category]string{}}
}

// NewResolverFromFile creates a resolver with per-category default
// overrides loaded from a YAML file of the form `category: path`.
func NewResolverFromFile(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults file: %w", err)
	}

	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse defaults file: %w", err)
	}

	defaults := make(map[Category]string, len(raw))
	for k, v := range raw {
		defaults[Category(k)] = v
	}
	return &Resolver{defaults: defaults}, nil
}

// Resolve returns the servable form of a reference: a fully-qualified
// URL for remote objects, a root-relative path otherwise. It is
// idempotent; resolving its own output returns the same string.
func (r *Resolver) Resolve(ref Reference) string {
	stored := strings.TrimSpace(ref.Stored)
	if stored == "" {
		return r.defaultFor(ref.Category)
	}

	if strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		return stored
	}

	if !strings.HasPrefix(stored, "/") {
		return "/" + stored
	}
	return stored
}

func (r *Resolver) defaultFor(category Category) string {
	if path, ok := r.defaults[category]; ok && path != "" {
		return path
	}
	return DefaultPath(category)
}
