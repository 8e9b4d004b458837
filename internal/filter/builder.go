// Package filter turns request filter parameters such as
//
//	filter{users.events.capacity.gte}=10
//
// into a Tree of resolved conditions grouped by relation and by include or
// exclude bucket. Field names are translated from their external spelling to
// storage lookups by walking the schema graph.
package filter

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/schema"
)

// Config holds builder configuration
type Config struct {
	// PrimaryKeyAlias is passed through without resolution
	PrimaryKeyAlias string
	// DefaultBucket receives keys without the exclusion marker
	DefaultBucket Bucket
}

// DefaultConfig returns the default builder configuration
func DefaultConfig() Config {
	return Config{
		PrimaryKeyAlias: DefaultPrimaryKeyAlias,
		DefaultBucket:   Include,
	}
}

// String identifies the settings that change how parameters translate
func (c Config) String() string {
	return fmt.Sprintf("pk=%s;bucket=%s", c.PrimaryKeyAlias, c.DefaultBucket)
}

// Entry is one fully parsed filter parameter
type Entry struct {
	Key      string
	Relation []string
	Bucket   Bucket
	Node     *Node
}

// Builder parses filter parameters into trees. It keeps no per-request
// state and is safe for concurrent use once its schemas are sealed.
type Builder struct {
	schemas  Schemas
	resolver *Resolver
	config   Config
	logger   *zap.Logger
}

// NewBuilder creates a builder over schemas. A nil logger disables logging.
func NewBuilder(schemas Schemas, config Config, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PrimaryKeyAlias == "" {
		config.PrimaryKeyAlias = DefaultPrimaryKeyAlias
	}
	return &Builder{
		schemas:  schemas,
		resolver: NewResolver(schemas, config.PrimaryKeyAlias),
		config:   config,
		logger:   logger,
	}
}

// Config returns the builder configuration
func (b *Builder) Config() Config {
	return b.config
}

// Parse lexes, normalizes and resolves a single parameter against root
func (b *Builder) Parse(root *schema.Schema, key string, values []string) (*Entry, error) {
	entry, err := b.parse(root, key, values)
	if err != nil {
		return nil, withKey(err, key)
	}
	return entry, nil
}

func (b *Builder) parse(root *schema.Schema, key string, values []string) (*Entry, error) {
	lexed, err := ParseKey(key, b.config.DefaultBucket)
	if err != nil {
		return nil, err
	}

	segments, op := SplitOperator(lexed.Segments)
	op, value, err := Normalize(op, values)
	if err != nil {
		return nil, err
	}

	target := root
	if len(lexed.Relation) > 0 {
		target, err = b.resolver.Descend(root, lexed.Relation)
		if err != nil {
			return nil, err
		}
	}

	path, field, err := b.resolver.Resolve(target, segments)
	if err != nil {
		return nil, err
	}

	node, err := NewNode(path, op, value, field)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Key:      key,
		Relation: lexed.Relation,
		Bucket:   lexed.Bucket,
		Node:     node,
	}, nil
}

// Insert parses one parameter and adds it to tree. The tree is left
// untouched when the parameter is invalid.
func (b *Builder) Insert(tree *Tree, root *schema.Schema, key string, values []string) error {
	entry, err := b.Parse(root, key, values)
	if err != nil {
		b.logger.Debug("rejected filter",
			zap.String("schema", root.Name),
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	if replaced := tree.Insert(entry.Relation, entry.Bucket, entry.Node); replaced != nil {
		b.logger.Debug("filter replaced earlier filter",
			zap.String("schema", root.Name),
			zap.String("key", key),
			zap.String("lookup", replaced.Key()))
	}

	b.logger.Debug("parsed filter",
		zap.String("schema", root.Name),
		zap.String("key", key),
		zap.Strings("relation", entry.Relation),
		zap.Stringer("bucket", entry.Bucket),
		zap.String("lookup", entry.Node.Key()))
	return nil
}

// Build parses every parameter against root. All invalid parameters are
// reported together; when any parameter fails no tree is returned.
func (b *Builder) Build(root *schema.Schema, params *Params) (*Tree, error) {
	tree := NewTree()
	var result *multierror.Error

	for _, key := range params.Keys() {
		if err := b.Insert(tree, root, key, params.Get(key)); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return tree, nil
}

// BuildFor looks up the named root schema and builds a tree against it
func (b *Builder) BuildFor(resource string, params *Params) (*Tree, error) {
	root, err := b.schemas.Schema(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve resource: %w", err)
	}
	return b.Build(root, params)
}
