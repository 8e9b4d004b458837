package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
)

// Definitions is the declarative form of a registry. Names are carried as
// values rather than map keys because viper folds keys to lower case.
type Definitions struct {
	Models  []ModelDefinition  `mapstructure:"models"`
	Schemas []SchemaDefinition `mapstructure:"schemas"`
}

// ModelDefinition declares a storage model
type ModelDefinition struct {
	Name   string                 `mapstructure:"name"`
	Fields []ModelFieldDefinition `mapstructure:"fields"`
}

// ModelFieldDefinition declares one model field
type ModelFieldDefinition struct {
	Name        string `mapstructure:"name"`
	Kind        string `mapstructure:"kind"`
	Target      string `mapstructure:"target"`
	RelatedName string `mapstructure:"related_name"`
}

// SchemaDefinition declares a schema
type SchemaDefinition struct {
	Name   string            `mapstructure:"name"`
	Model  string            `mapstructure:"model"`
	Fields []FieldDefinition `mapstructure:"fields"`
}

// FieldDefinition declares one schema field. A field is relational when
// Relation is true or Target is set.
type FieldDefinition struct {
	Name     string `mapstructure:"name"`
	Source   string `mapstructure:"source"`
	Relation bool   `mapstructure:"relation"`
	Target   string `mapstructure:"target"`
	Many     bool   `mapstructure:"many"`
	Deferred bool   `mapstructure:"deferred"`
}

// LoadFile reads definitions from a YAML, JSON or TOML file and returns a
// sealed registry. Schema fields may not use any of the reserved names.
func LoadFile(path string, reserved ...string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	return decode(v, reserved)
}

// Load reads definitions of the given format ("yaml", "json", ...) from r
// and returns a sealed registry
func Load(r io.Reader, format string, reserved ...string) (*Registry, error) {
	v := viper.New()
	v.SetConfigType(format)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to read schema definitions: %w", err)
	}

	return decode(v, reserved)
}

func decode(v *viper.Viper, reserved []string) (*Registry, error) {
	var defs Definitions
	if err := v.Unmarshal(&defs); err != nil {
		return nil, fmt.Errorf("failed to decode schema definitions: %w", err)
	}
	return defs.Build(reserved...)
}

// Build registers every definition into a new registry and seals it.
// Reserved names, such as the primary key alias, are rejected as schema
// field names.
func (d *Definitions) Build(reserved ...string) (*Registry, error) {
	registry := NewRegistry()

	for _, md := range d.Models {
		model := NewModel(md.Name)
		for _, fd := range md.Fields {
			if fd.Name == "" {
				return nil, fmt.Errorf("model %s: field name cannot be empty", md.Name)
			}
			kind, err := ParseModelFieldKind(fd.Kind)
			if err != nil {
				return nil, fmt.Errorf("model %s: field %s: %w", md.Name, fd.Name, err)
			}
			switch kind {
			case ModelForeignKey:
				model.AddForeignKey(fd.Name, fd.Target, fd.RelatedName)
			case ModelManyToMany:
				model.AddManyToMany(fd.Name, fd.Target, fd.RelatedName)
			default:
				model.AddColumn(fd.Name)
			}
		}
		if err := registry.RegisterModel(model); err != nil {
			return nil, err
		}
	}

	for _, sd := range d.Schemas {
		schema := NewSchema(sd.Name, sd.Model)
		for _, fd := range sd.Fields {
			if err := checkFieldName(fd.Name, reserved); err != nil {
				return nil, fmt.Errorf("schema %s: %w", sd.Name, err)
			}
			var field *Field
			if fd.Relation || fd.Target != "" {
				multiplicity := One
				if fd.Many {
					multiplicity = Many
				}
				field = NewRelation(fd.Name, fd.Source, fd.Target, multiplicity)
			} else {
				field = NewScalar(fd.Name, fd.Source)
			}
			field.Deferred = fd.Deferred
			schema.AddField(field)
		}
		if err := registry.Register(schema); err != nil {
			return nil, err
		}
	}

	if err := registry.Seal(); err != nil {
		return nil, err
	}
	return registry, nil
}

// checkFieldName rejects names a filter key cannot address: the key
// grammar splits on "." and "|", a leading "-" selects exclusion, and a
// leading "_" collides with the tree's bucket keys
func checkFieldName(name string, reserved []string) error {
	switch {
	case name == "":
		return fmt.Errorf("field name cannot be empty")
	case strings.ContainsAny(name, ".|"):
		return fmt.Errorf("field name %q cannot contain \".\" or \"|\"", name)
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "_"):
		return fmt.Errorf("field name %q cannot start with %q", name, name[:1])
	}
	for _, r := range reserved {
		if name == r {
			return fmt.Errorf("field name %q is reserved", name)
		}
	}
	return nil
}
