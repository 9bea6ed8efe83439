// Package catalog holds the list of models a user can pick from in the chat UI.
package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownModel is returned when a model is not part of the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Model is a selectable backend model.
type Model struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog is an ordered set of models. The first model is the default.
type Catalog struct {
	models []Model
	index  map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(
		Model{Name: "phi3", Description: "Small, fast & efficient. Best for Q&A."},
		Model{Name: "llama3", Description: "Powerful general-purpose model."},
		Model{Name: "mistral", Description: "Compact and strong at reasoning tasks."},
	)
}

// New builds a catalog from the given models. Later duplicates are ignored.
func New(models ...Model) *Catalog {
	c := &Catalog{
		models: make([]Model, 0, len(models)),
		index:  make(map[string]int, len(models)),
	}

	for _, m := range models {
		if m.Name == "" {
			continue
		}
		if _, ok := c.index[m.Name]; ok {
			continue
		}
		c.index[m.Name] = len(c.models)
		c.models = append(c.models, m)
	}

	return c
}

// FromNames builds a catalog from plain model names, reusing the built-in
// descriptions where one exists.
func FromNames(names []string) *Catalog {
	builtin := Default()

	models := make([]Model, 0, len(names))
	for _, name := range names {
		m, err := builtin.Lookup(name)
		if err != nil {
			m = Model{Name: name}
		}
		models = append(models, m)
	}

	return New(models...)
}

// DefaultModel returns the name of the first model, or "" for an empty catalog.
func (c *Catalog) DefaultModel() string {
	if len(c.models) == 0 {
		return ""
	}
	return c.models[0].Name
}

// Models returns a copy of the models in order.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Names returns the model names in order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.models))
	for _, m := range c.models {
		names = append(names, m.Name)
	}
	return names
}

// Has reports whether the named model is in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Lookup returns the named model.
func (c *Catalog) Lookup(name string) (Model, error) {
	i, ok := c.index[name]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownModel, name, c.Names())
	}
	return c.models[i], nil
}

// Describe returns the description of the named model, or "" if unknown.
func (c *Catalog) Describe(name string) string {
	m, err := c.Lookup(name)
	if err != nil {
		return ""
	}
	return m.Description
}
