package filter

import (
	"github.com/conduit-lang/drest/internal/schema"
)

// DefaultPrimaryKeyAlias is the segment passed through unresolved
const DefaultPrimaryKeyAlias = "pk"

// Schemas looks up schemas and their storage models by name.
// *schema.Registry satisfies it.
type Schemas interface {
	Schema(name string) (*schema.Schema, error)
	Model(name string) (*schema.Model, error)
}

// Resolver translates external field paths into storage lookups
type Resolver struct {
	schemas Schemas
	pkAlias string
}

// NewResolver creates a resolver. An empty pkAlias selects
// DefaultPrimaryKeyAlias.
func NewResolver(schemas Schemas, pkAlias string) *Resolver {
	if pkAlias == "" {
		pkAlias = DefaultPrimaryKeyAlias
	}
	return &Resolver{schemas: schemas, pkAlias: pkAlias}
}

// Resolve walks segments starting at root and returns the internal name of
// every segment along with the terminal field. The terminal field is nil
// when the path ends in the primary key alias.
func (r *Resolver) Resolve(root *schema.Schema, segments []string) ([]string, *schema.Field, error) {
	if len(segments) == 0 {
		return nil, nil, newError(ErrMalformedKey, "Invalid filter key: empty field path")
	}

	s := root
	path := make([]string, 0, len(segments))
	var field *schema.Field
	last := len(segments) - 1

	for i, name := range segments {
		// the primary key does not change relation depth
		if name == r.pkAlias {
			path = append(path, name)
			field = nil
			continue
		}

		f, ok := s.Field(name)
		if !ok {
			return nil, nil, newError(ErrUnknownField, "Invalid filter field: %s", name)
		}
		field = f
		path = append(path, r.storageName(s, f))

		if i == last {
			break
		}

		nested, ok := r.nested(f)
		if !ok {
			return nil, nil, newError(ErrInvalidNested, "Invalid nested filter field: %s", name)
		}
		s = nested
	}

	return path, field, nil
}

// Descend follows a relation path from root and returns the schema it ends
// at. Every segment must be a relation with a nested schema.
func (r *Resolver) Descend(root *schema.Schema, relation []string) (*schema.Schema, error) {
	s := root
	for _, name := range relation {
		f, ok := s.Field(name)
		if !ok {
			return nil, newError(ErrUnknownField, "Invalid filter field: %s", name)
		}
		nested, ok := r.nested(f)
		if !ok {
			return nil, newError(ErrInvalidNested, "Invalid nested filter field: %s", name)
		}
		s = nested
	}
	return s, nil
}

// storageName returns the lookup name for f. Reverse relations are
// addressed by their query name rather than their accessor.
func (r *Resolver) storageName(s *schema.Schema, f *schema.Field) string {
	name := f.StorageName()
	if s.Model == "" {
		return name
	}

	model, err := r.schemas.Model(s.Model)
	if err != nil {
		return name
	}
	if mf, ok := model.Field(name); ok && mf.Kind == schema.ModelReverse && mf.QueryName != "" {
		return mf.QueryName
	}
	return name
}

// nested returns the schema a relational field points at. Many-valued
// relations resolve to their element schema, which is the target itself.
func (r *Resolver) nested(f *schema.Field) (*schema.Schema, bool) {
	if !f.IsRelation() || f.Relation.Target == "" {
		return nil, false
	}
	target, err := r.schemas.Schema(f.Relation.Target)
	if err != nil {
		return nil, false
	}
	return target, true
}
