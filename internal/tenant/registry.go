package tenant

import (
	"fmt"
	"os"

	"travelquote_backend/platform/apperr"

	"gopkg.in/yaml.v3"
)

// Registry holds all configured tenants, keyed by tenant ID.
type Registry struct {
	tenants map[string]*Tenant
}

type registryFile struct {
	Tenants []*Tenant `yaml:"tenants"`
}

// LoadRegistry reads the tenant registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses tenant registry YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tenants file: %w", err)
	}

	tenants := make(map[string]*Tenant, len(file.Tenants))
	for _, t := range file.Tenants {
		if t.ID == "" {
			return nil, fmt.Errorf("tenant with empty id in registry")
		}
		if _, exists := tenants[t.ID]; exists {
			return nil, fmt.Errorf("duplicate tenant id %q in registry", t.ID)
		}
		tenants[t.ID] = t
	}

	return &Registry{tenants: tenants}, nil
}

// Get returns the tenant with the given ID.
func (r *Registry) Get(id string) (*Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, apperr.NotFound("unknown tenant")
	}
	return t, nil
}

// IDs returns all registered tenant IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	return ids
}
