// Package schema describes the externally visible shape of API resources and
// the storage models behind them. A Schema maps external field names to Field
// descriptors; relational fields reference their target schema by name so the
// graph may contain cycles without any eager construction.
package schema

import (
	"fmt"
	"sort"
)

// Kind distinguishes scalar fields from relational ones
type Kind int

const (
	// KindScalar is a plain attribute with no nested schema
	KindScalar Kind = iota
	// KindRelation points at another resource
	KindRelation
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Multiplicity is the cardinality of a relation
type Multiplicity int

const (
	// One is a single related object
	One Multiplicity = iota
	// Many is a list of related objects
	Many
)

// String returns the string representation of the multiplicity
func (m Multiplicity) String() string {
	switch m {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return "unknown"
	}
}

// ParseMultiplicity converts a string to a Multiplicity
func ParseMultiplicity(s string) (Multiplicity, error) {
	switch s {
	case "", "one":
		return One, nil
	case "many":
		return Many, nil
	default:
		return 0, fmt.Errorf("unknown multiplicity: %s", s)
	}
}

// Relation describes the target of a relational field.
// Target may be empty for relations that are only ever rendered as IDs and
// therefore have no nested schema to traverse.
type Relation struct {
	Target       string
	Multiplicity Multiplicity
}

// Field describes one externally visible schema field
type Field struct {
	Name     string // external name
	Source   string // internal storage name, defaults to Name
	Kind     Kind
	Relation *Relation // set when Kind == KindRelation
	Deferred bool      // not part of the eager field set
}

// NewScalar creates a scalar field
func NewScalar(name, source string) *Field {
	return &Field{Name: name, Source: source, Kind: KindScalar}
}

// NewRelation creates a relational field
func NewRelation(name, source, target string, multiplicity Multiplicity) *Field {
	return &Field{
		Name:     name,
		Source:   source,
		Kind:     KindRelation,
		Relation: &Relation{Target: target, Multiplicity: multiplicity},
	}
}

// StorageName returns the internal name of the field
func (f *Field) StorageName() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Name
}

// IsRelation reports whether the field is relational
func (f *Field) IsRelation() bool {
	return f.Kind == KindRelation && f.Relation != nil
}

// Schema describes one resource type. Schemas are read-only once registered.
type Schema struct {
	Name  string
	Model string // storage model backing this schema

	all   map[string]*Field
	eager map[string]*Field
	order []string
}

// NewSchema creates an empty schema for the given storage model
func NewSchema(name, model string) *Schema {
	return &Schema{
		Name:  name,
		Model: model,
		all:   make(map[string]*Field),
		eager: make(map[string]*Field),
	}
}

// AddField adds a field to the schema. Adding a name twice replaces the
// previous descriptor but keeps its position.
func (s *Schema) AddField(field *Field) *Schema {
	if _, exists := s.all[field.Name]; !exists {
		s.order = append(s.order, field.Name)
	}
	s.all[field.Name] = field
	if field.Deferred {
		delete(s.eager, field.Name)
	} else {
		s.eager[field.Name] = field
	}
	return s
}

// Fields returns the eager field set, excluding deferred fields.
// The returned map must not be modified.
func (s *Schema) Fields() map[string]*Field {
	return s.eager
}

// AllFields returns every field, deferred ones included. It copies the field
// set and is meant as a fallback when Fields misses.
func (s *Schema) AllFields() map[string]*Field {
	result := make(map[string]*Field, len(s.all))
	for name, field := range s.all {
		result[name] = field
	}
	return result
}

// Field looks up a field. The eager set is consulted first; the complete set
// only when the name is missing from it.
func (s *Schema) Field(name string) (*Field, bool) {
	if field, ok := s.eager[name]; ok {
		return field, true
	}
	field, ok := s.AllFields()[name]
	return field, ok
}

// FieldNames returns field names in declaration order
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Relations returns the relational fields sorted by name
func (s *Schema) Relations() []*Field {
	var relations []*Field
	for _, field := range s.all {
		if field.IsRelation() {
			relations = append(relations, field)
		}
	}
	sort.Slice(relations, func(i, j int) bool {
		return relations[i].Name < relations[j].Name
	})
	return relations
}
