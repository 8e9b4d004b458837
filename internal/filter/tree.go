package filter

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	includeKey = "_include"
	excludeKey = "_exclude"
)

// Tree groups filter nodes by relation path and bucket. Every level keeps
// insertion order; a node replaces an earlier node with the same key in the
// same bucket and takes over its position.
type Tree struct {
	relations *orderedmap.OrderedMap[string, *Tree]
	include   *orderedmap.OrderedMap[string, *Node]
	exclude   *orderedmap.OrderedMap[string, *Node]
}

// NewTree creates an empty tree
func NewTree() *Tree {
	return &Tree{
		relations: orderedmap.New[string, *Tree](),
		include:   orderedmap.New[string, *Node](),
		exclude:   orderedmap.New[string, *Node](),
	}
}

// Insert places node under relation in bucket and returns the node it
// replaced, if any
func (t *Tree) Insert(relation []string, bucket Bucket, node *Node) *Node {
	level := t
	for _, name := range relation {
		child, ok := level.relations.Get(name)
		if !ok {
			child = NewTree()
			level.relations.Set(name, child)
		}
		level = child
	}

	previous, _ := level.bucket(bucket).Set(node.Key(), node)
	return previous
}

// At returns the subtree for a relation path
func (t *Tree) At(relation ...string) (*Tree, bool) {
	level := t
	for _, name := range relation {
		child, ok := level.relations.Get(name)
		if !ok {
			return nil, false
		}
		level = child
	}
	return level, true
}

// Get returns the node stored under key in bucket at this level
func (t *Tree) Get(bucket Bucket, key string) (*Node, bool) {
	return t.bucket(bucket).Get(key)
}

// Nodes returns the nodes of bucket at this level in insertion order
func (t *Tree) Nodes(bucket Bucket) []*Node {
	m := t.bucket(bucket)
	nodes := make([]*Node, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		nodes = append(nodes, pair.Value)
	}
	return nodes
}

// Relations returns the names of the child relations in insertion order
func (t *Tree) Relations() []string {
	names := make([]string, 0, t.relations.Len())
	for pair := t.relations.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of nodes in the tree, all levels included
func (t *Tree) Len() int {
	n := t.include.Len() + t.exclude.Len()
	for pair := t.relations.Oldest(); pair != nil; pair = pair.Next() {
		n += pair.Value.Len()
	}
	return n
}

// Walk visits every node depth first: the include and exclude buckets of a
// level, then its relations in insertion order. Returning an error stops
// the walk.
func (t *Tree) Walk(fn func(relation []string, bucket Bucket, node *Node) error) error {
	return t.walk(nil, fn)
}

func (t *Tree) walk(relation []string, fn func([]string, Bucket, *Node) error) error {
	for _, bucket := range []Bucket{Include, Exclude} {
		for _, node := range t.Nodes(bucket) {
			path := make([]string, len(relation))
			copy(path, relation)
			if err := fn(path, bucket, node); err != nil {
				return err
			}
		}
	}
	for pair := t.relations.Oldest(); pair != nil; pair = pair.Next() {
		if err := pair.Value.walk(append(relation, pair.Key), fn); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) bucket(b Bucket) *orderedmap.OrderedMap[string, *Node] {
	if b == Exclude {
		return t.exclude
	}
	return t.include
}

// MarshalJSON encodes each level as an object holding its relations by
// name followed by the non-empty "_include" and "_exclude" buckets
func (t *Tree) MarshalJSON() ([]byte, error) {
	out := orderedmap.New[string, interface{}]()
	for pair := t.relations.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	if t.include.Len() > 0 {
		out.Set(includeKey, t.include)
	}
	if t.exclude.Len() > 0 {
		out.Set(excludeKey, t.exclude)
	}
	return json.Marshal(out)
}
