package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDescribe(t *testing.T) {
	groups := NewRelation("groups", "", "group", Many)
	groups.Deferred = true
	s := NewSchema("user", "User").
		AddField(NewScalar("displayName", "name")).
		AddField(groups).
		AddField(NewRelation("creator", "", "", One))

	assert.Equal(t, Info{
		Name:  "user",
		Model: "User",
		Fields: []FieldInfo{
			{Name: "displayName", Source: "name", Kind: "scalar"},
			{Name: "groups", Source: "groups", Kind: "relation", Target: "group", Many: true, Deferred: true},
			{Name: "creator", Source: "creator", Kind: "relation"},
		},
	}, s.Describe())
}

func TestRegistryDescribe(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewSchema("b", "")))
	require.NoError(t, r.Register(NewSchema("a", "")))

	infos := r.Describe()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "b", infos[1].Name)
	assert.Empty(t, infos[0].Fields)
	assert.NotNil(t, infos[0].Fields)
}
