package filter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, path []string, op Operator, value interface{}) *Node {
	t.Helper()
	node, err := NewNode(path, op, value, nil)
	require.NoError(t, err)
	return node
}

func TestTreeInsert(t *testing.T) {
	tree := NewTree()

	a := mustNode(t, []string{"a"}, OpNone, "1")
	b := mustNode(t, []string{"b"}, OpNone, "2")
	assert.Nil(t, tree.Insert(nil, Include, a))
	assert.Nil(t, tree.Insert(nil, Include, b))

	nested := mustNode(t, []string{"name"}, OpNone, "x")
	tree.Insert([]string{"groups", "location"}, Exclude, nested)

	assert.Equal(t, []*Node{a, b}, tree.Nodes(Include))
	assert.Empty(t, tree.Nodes(Exclude))
	assert.Equal(t, []string{"groups"}, tree.Relations())
	assert.Equal(t, 3, tree.Len())

	sub, ok := tree.At("groups", "location")
	require.True(t, ok)
	assert.Equal(t, []*Node{nested}, sub.Nodes(Exclude))

	_, ok = tree.At("groups", "nope")
	assert.False(t, ok)

	root, ok := tree.At()
	require.True(t, ok)
	assert.Same(t, tree, root)
}

func TestTreeOverwriteKeepsPosition(t *testing.T) {
	tree := NewTree()
	first := mustNode(t, []string{"a"}, OpNone, "1")
	tree.Insert(nil, Include, first)
	tree.Insert(nil, Include, mustNode(t, []string{"b"}, OpNone, "2"))

	second := mustNode(t, []string{"a"}, OpNone, "3")
	assert.Same(t, first, tree.Insert(nil, Include, second))

	nodes := tree.Nodes(Include)
	require.Len(t, nodes, 2)
	assert.Same(t, second, nodes[0])
	assert.Equal(t, "b", nodes[1].Key())

	got, ok := tree.Get(Include, "a")
	require.True(t, ok)
	assert.Equal(t, "3", got.Value())
}

func TestTreeBucketsAreIndependent(t *testing.T) {
	tree := NewTree()
	tree.Insert(nil, Include, mustNode(t, []string{"name"}, OpNone, "x"))
	tree.Insert(nil, Exclude, mustNode(t, []string{"name"}, OpNone, "y"))

	in, ok := tree.Get(Include, "name")
	require.True(t, ok)
	ex, ok := tree.Get(Exclude, "name")
	require.True(t, ok)
	assert.Equal(t, "x", in.Value())
	assert.Equal(t, "y", ex.Value())
}

func TestTreeWalk(t *testing.T) {
	tree := NewTree()
	tree.Insert([]string{"groups"}, Include, mustNode(t, []string{"name"}, OpNone, "g"))
	tree.Insert(nil, Exclude, mustNode(t, []string{"b"}, OpNone, "2"))
	tree.Insert(nil, Include, mustNode(t, []string{"a"}, OpNone, "1"))
	tree.Insert([]string{"groups", "location"}, Include, mustNode(t, []string{"uid"}, OpNone, "l"))
	tree.Insert([]string{"events"}, Include, mustNode(t, []string{"capacity"}, OpGt, "5"))

	type visit struct {
		relation []string
		bucket   Bucket
		key      string
	}
	var visits []visit
	err := tree.Walk(func(relation []string, bucket Bucket, node *Node) error {
		visits = append(visits, visit{relation, bucket, node.Key()})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []visit{
		{[]string{}, Include, "a"},
		{[]string{}, Exclude, "b"},
		{[]string{"groups"}, Include, "name"},
		{[]string{"groups", "location"}, Include, "uid"},
		{[]string{"events"}, Include, "capacity__gt"},
	}, visits)

	stop := errors.New("stop")
	count := 0
	err = tree.Walk(func([]string, Bucket, *Node) error {
		count++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func TestTreeMarshalJSON(t *testing.T) {
	tree := NewTree()
	tree.Insert(nil, Include, mustNode(t, []string{"name"}, OpNone, "x"))
	tree.Insert([]string{"groups"}, Exclude, mustNode(t, []string{"name"}, OpIn, []string{"a", "b"}))

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"groups": {
			"_exclude": {
				"name__in": {"path": ["name"], "operator": "in", "value": ["a", "b"]}
			}
		},
		"_include": {
			"name": {"path": ["name"], "value": "x"}
		}
	}`, string(data))

	empty, err := json.Marshal(NewTree())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(empty))
}
