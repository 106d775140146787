// Package components manages the named HTML component templates the pages
// are assembled from. Registration is explicit and happens once during
// application initialization; registering a name that already exists is a
// no-op, so repeated initialization is safe.
package components

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"sync"
)

// Registry holds named component templates sharing one template set, so
// components can reference each other by name.
type Registry struct {
	mu   sync.RWMutex
	root *template.Template
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		root: template.New("components"),
	}
}

// Register parses src as the component named name and adds it to the set.
// If the name is already registered the existing template is kept and
// returned; the duplicate source is ignored.
func (r *Registry) Register(name, src string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.root.Lookup(name); existing != nil {
		return existing, nil
	}

	tmpl, err := r.root.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse component %q: %w", name, err)
	}
	return tmpl, nil
}

// Has reports whether a component with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root.Lookup(name) != nil
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, t := range r.root.Templates() {
		if t.Name() == "components" {
			continue
		}
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}

// Render executes the named component with data.
func (r *Registry) Render(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.root.Lookup(name) == nil {
		return fmt.Errorf("component %q is not registered", name)
	}
	return r.root.ExecuteTemplate(w, name, data)
}
