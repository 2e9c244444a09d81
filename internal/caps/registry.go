package caps

import (
	"fmt"
	"sort"
)

// Capability is one named bundle of values and functions a snippet may bind
// via an import-like statement. Build materializes the bundle against a
// run's Runtime so output-producing members write to the captured streams.
type Capability struct {
	Name  string
	Doc   string
	Build func(rt *Runtime) map[string]any
}

// Registry holds the process-wide capability set. It is populated at startup
// and read-only afterwards.
type Registry struct {
	caps map[string]*Capability
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]*Capability)}
}

// Register adds a capability. Duplicate names are an error.
func (r *Registry) Register(c *Capability) error {
	if _, ok := r.caps[c.Name]; ok {
		return fmt.Errorf("capability %q already registered", c.Name)
	}
	r.caps[c.Name] = c
	return nil
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Doc returns the doc string for a registered capability.
func (r *Registry) Doc(name string) string {
	if c, ok := r.caps[name]; ok {
		return c.Doc
	}
	return ""
}

// Resolve materializes a capability (or one member of it) for a run.
// The returned value is what gets bound into the working namespace.
func (r *Registry) Resolve(rt *Runtime, capability, member string) (any, error) {
	c, ok := r.caps[capability]
	if !ok {
		return nil, fmt.Errorf("capability %q is not available", capability)
	}

	bundle := c.Build(rt)
	if member == "" {
		return bundle, nil
	}

	v, ok := bundle[member]
	if !ok {
		return nil, fmt.Errorf("capability %q has no member %q", capability, member)
	}
	return v, nil
}

// Default returns a registry with every builtin capability registered.
func Default() *Registry {
	r := NewRegistry()
	for _, c := range []*Capability{
		mathCap(),
		stringsCap(),
		statsCap(),
		seqCap(),
		randCap(),
		timeCap(),
		jsonCap(),
		plotCap(),
	} {
		// Names are distinct by construction.
		r.Register(c)
	}
	return r
}
