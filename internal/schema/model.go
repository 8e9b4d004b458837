package schema

import (
	"fmt"
	"strings"
)

// ModelFieldKind is the storage-level kind of a model field
type ModelFieldKind int

const (
	// ModelColumn is a plain column
	ModelColumn ModelFieldKind = iota
	// ModelForeignKey is a many-to-one relation declared on this model
	ModelForeignKey
	// ModelManyToMany is a many-to-many relation declared on this model
	ModelManyToMany
	// ModelReverse is the far side of a relation declared on another model
	ModelReverse
)

// String returns the string representation of the model field kind
func (k ModelFieldKind) String() string {
	switch k {
	case ModelColumn:
		return "column"
	case ModelForeignKey:
		return "foreign_key"
	case ModelManyToMany:
		return "many_to_many"
	case ModelReverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// ParseModelFieldKind converts a string to a ModelFieldKind. Reverse fields
// are derived by the registry and cannot be declared.
func ParseModelFieldKind(s string) (ModelFieldKind, error) {
	switch s {
	case "", "column":
		return ModelColumn, nil
	case "foreign_key":
		return ModelForeignKey, nil
	case "many_to_many":
		return ModelManyToMany, nil
	default:
		return 0, fmt.Errorf("unknown model field kind: %s", s)
	}
}

// ModelField is one field of a storage model
type ModelField struct {
	Name string
	Kind ModelFieldKind

	// Target is the related model for relation kinds
	Target string

	// RelatedName overrides the reverse accessor and query name on Target
	RelatedName string

	// QueryName is the name the storage engine expects in lookups that
	// traverse a reverse relation. Only set for ModelReverse.
	QueryName string
}

// IsForward reports whether the field is a relation declared on its own model
func (f *ModelField) IsForward() bool {
	return f.Kind == ModelForeignKey || f.Kind == ModelManyToMany
}

// Model describes a storage model
type Model struct {
	Name   string
	Fields map[string]*ModelField
}

// NewModel creates an empty model
func NewModel(name string) *Model {
	return &Model{
		Name:   name,
		Fields: make(map[string]*ModelField),
	}
}

// AddColumn adds a plain column
func (m *Model) AddColumn(name string) *Model {
	m.Fields[name] = &ModelField{Name: name, Kind: ModelColumn}
	return m
}

// AddForeignKey adds a many-to-one relation to target
func (m *Model) AddForeignKey(name, target, relatedName string) *Model {
	m.Fields[name] = &ModelField{Name: name, Kind: ModelForeignKey, Target: target, RelatedName: relatedName}
	return m
}

// AddManyToMany adds a many-to-many relation to target
func (m *Model) AddManyToMany(name, target, relatedName string) *Model {
	m.Fields[name] = &ModelField{Name: name, Kind: ModelManyToMany, Target: target, RelatedName: relatedName}
	return m
}

// Field returns the named model field
func (m *Model) Field(name string) (*ModelField, bool) {
	f, ok := m.Fields[name]
	return f, ok
}

// ReverseAccessorName is the attribute name a reverse relation is exposed
// under on the target model: the related name when set, otherwise the
// lowercased declaring model followed by "_set".
func ReverseAccessorName(declaring string, relatedName string) string {
	if relatedName != "" {
		return relatedName
	}
	return strings.ToLower(declaring) + "_set"
}

// ReverseQueryName is the name lookups must use to traverse a reverse
// relation: the related name when set, otherwise the lowercased declaring
// model.
func ReverseQueryName(declaring string, relatedName string) string {
	if relatedName != "" {
		return relatedName
	}
	return strings.ToLower(declaring)
}
