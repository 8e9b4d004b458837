package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrSchemaNotFound is returned when a schema name is not registered
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrModelNotFound is returned when a model name is not registered
	ErrModelNotFound = errors.New("model not found")
	// ErrSealed is returned when registering into a sealed registry
	ErrSealed = errors.New("registry is sealed")
)

// Registry holds every schema and storage model of an application.
// It is populated at startup, sealed once, and then shared read-only.
type Registry struct {
	schemas map[string]*Schema
	models  map[string]*Model
	mu      sync.RWMutex

	sealOnce sync.Once
	sealErr  error
	sealed   bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*Schema),
		models:  make(map[string]*Model),
	}
}

// Register adds a schema
func (r *Registry) Register(schema *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if schema.Name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}
	if _, exists := r.schemas[schema.Name]; exists {
		return fmt.Errorf("schema %s is already registered", schema.Name)
	}

	r.schemas[schema.Name] = schema
	return nil
}

// RegisterModel adds a storage model
func (r *Registry) RegisterModel(model *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if model.Name == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if _, exists := r.models[model.Name]; exists {
		return fmt.Errorf("model %s is already registered", model.Name)
	}
	for name, field := range model.Fields {
		if field.Kind == ModelReverse {
			return fmt.Errorf("model %s: field %s: reverse fields are derived, not declared", model.Name, name)
		}
	}

	r.models[model.Name] = model
	return nil
}

// Seal validates the registry and derives reverse relations. It runs once;
// later calls return the first result.
func (r *Registry) Seal() error {
	r.sealOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if err := r.validate(); err != nil {
			r.sealErr = err
			return
		}
		if err := r.deriveReverseFields(); err != nil {
			r.sealErr = err
			return
		}
		r.sealed = true
	})
	return r.sealErr
}

// Sealed reports whether Seal completed successfully
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Schema returns the named schema
func (r *Registry) Schema(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return schema, nil
}

// Model returns the named storage model
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, exists := r.models[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return model, nil
}

// List returns the registered schema names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered schemas
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.schemas)
}

// Graph returns the relation graph between registered schemas
func (r *Registry) Graph() *RelationshipGraph {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return NewRelationshipGraph(r.schemas)
}

// validate checks cross references between schemas and models.
// Callers hold the write lock.
func (r *Registry) validate() error {
	var problems []string

	for _, name := range sortedKeys(r.schemas) {
		schema := r.schemas[name]
		if schema.Model != "" {
			if _, ok := r.models[schema.Model]; !ok {
				problems = append(problems, fmt.Sprintf("schema %s: unknown model %s", name, schema.Model))
			}
		}
		for _, field := range schema.Relations() {
			target := field.Relation.Target
			if target == "" {
				continue
			}
			if _, ok := r.schemas[target]; !ok {
				problems = append(problems, fmt.Sprintf("schema %s: field %s: unknown target schema %s", name, field.Name, target))
			}
		}
	}

	for _, name := range sortedKeys(r.models) {
		model := r.models[name]
		for _, fieldName := range sortedKeys(model.Fields) {
			field := model.Fields[fieldName]
			if !field.IsForward() {
				continue
			}
			if _, ok := r.models[field.Target]; !ok {
				problems = append(problems, fmt.Sprintf("model %s: field %s: unknown target model %s", name, fieldName, field.Target))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid registry:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// deriveReverseFields adds a ModelReverse field to the target of every
// forward relation. Callers hold the write lock.
func (r *Registry) deriveReverseFields() error {
	for _, name := range sortedKeys(r.models) {
		model := r.models[name]
		for _, fieldName := range sortedKeys(model.Fields) {
			field := model.Fields[fieldName]
			if !field.IsForward() {
				continue
			}

			target := r.models[field.Target]
			accessor := ReverseAccessorName(model.Name, field.RelatedName)
			if existing, clash := target.Fields[accessor]; clash {
				return fmt.Errorf("model %s: reverse accessor %s for %s.%s clashes with %s field",
					target.Name, accessor, model.Name, fieldName, existing.Kind)
			}
			target.Fields[accessor] = &ModelField{
				Name:      accessor,
				Kind:      ModelReverse,
				Target:    model.Name,
				QueryName: ReverseQueryName(model.Name, field.RelatedName),
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
