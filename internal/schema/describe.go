package schema

// FieldInfo is the serializable description of a field
type FieldInfo struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Kind     string `json:"kind"`
	Target   string `json:"target,omitempty"`
	Many     bool   `json:"many,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`
}

// Info is the serializable description of a schema
type Info struct {
	Name   string      `json:"name"`
	Model  string      `json:"model,omitempty"`
	Fields []FieldInfo `json:"fields"`
}

// Describe returns the schema's fields in declaration order
func (s *Schema) Describe() Info {
	info := Info{Name: s.Name, Model: s.Model, Fields: make([]FieldInfo, 0, len(s.order))}
	for _, name := range s.order {
		field := s.all[name]
		fi := FieldInfo{
			Name:     field.Name,
			Source:   field.StorageName(),
			Kind:     field.Kind.String(),
			Deferred: field.Deferred,
		}
		if field.IsRelation() {
			fi.Target = field.Relation.Target
			fi.Many = field.Relation.Multiplicity == Many
		}
		info.Fields = append(info.Fields, fi)
	}
	return info
}

// Describe returns every schema sorted by name
func (r *Registry) Describe() []Info {
	names := r.List()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		if s, err := r.Schema(name); err == nil {
			infos = append(infos, s.Describe())
		}
	}
	return infos
}
