package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldStorageName(t *testing.T) {
	assert.Equal(t, "name", NewScalar("name", "").StorageName())
	assert.Equal(t, "full_name", NewScalar("name", "full_name").StorageName())
}

func TestFieldIsRelation(t *testing.T) {
	assert.False(t, NewScalar("name", "").IsRelation())
	assert.True(t, NewRelation("groups", "", "group", Many).IsRelation())
	assert.False(t, (&Field{Name: "broken", Kind: KindRelation}).IsRelation())
}

func TestSchemaFieldSets(t *testing.T) {
	s := NewSchema("user", "User")
	s.AddField(NewScalar("name", ""))
	groups := NewRelation("groups", "", "group", Many)
	groups.Deferred = true
	s.AddField(groups)

	t.Run("eager set excludes deferred", func(t *testing.T) {
		_, ok := s.Fields()["groups"]
		assert.False(t, ok)
		_, ok = s.Fields()["name"]
		assert.True(t, ok)
	})

	t.Run("complete set includes deferred", func(t *testing.T) {
		_, ok := s.AllFields()["groups"]
		assert.True(t, ok)
		assert.Len(t, s.AllFields(), 2)
	})

	t.Run("lookup falls back to complete set", func(t *testing.T) {
		field, ok := s.Field("groups")
		require.True(t, ok)
		assert.Same(t, groups, field)

		_, ok = s.Field("missing")
		assert.False(t, ok)
	})
}

func TestSchemaAddFieldReplaces(t *testing.T) {
	s := NewSchema("user", "User")
	s.AddField(NewScalar("name", ""))
	s.AddField(NewScalar("uid", ""))

	deferred := NewScalar("name", "full_name")
	deferred.Deferred = true
	s.AddField(deferred)

	assert.Equal(t, []string{"name", "uid"}, s.FieldNames())
	_, eager := s.Fields()["name"]
	assert.False(t, eager)

	field, ok := s.Field("name")
	require.True(t, ok)
	assert.Equal(t, "full_name", field.StorageName())
}

func TestSchemaRelations(t *testing.T) {
	s := NewSchema("user", "User")
	s.AddField(NewScalar("name", ""))
	s.AddField(NewRelation("location", "", "location", One))
	s.AddField(NewRelation("groups", "", "group", Many))

	relations := s.Relations()
	require.Len(t, relations, 2)
	assert.Equal(t, "groups", relations[0].Name)
	assert.Equal(t, "location", relations[1].Name)
}

func TestParseMultiplicity(t *testing.T) {
	m, err := ParseMultiplicity("")
	require.NoError(t, err)
	assert.Equal(t, One, m)

	m, err = ParseMultiplicity("many")
	require.NoError(t, err)
	assert.Equal(t, Many, m)

	_, err = ParseMultiplicity("several")
	assert.Error(t, err)
}

func TestReverseNames(t *testing.T) {
	assert.Equal(t, "user_set", ReverseAccessorName("User", ""))
	assert.Equal(t, "user", ReverseQueryName("User", ""))
	assert.Equal(t, "users", ReverseAccessorName("User", "users"))
	assert.Equal(t, "users", ReverseQueryName("User", "users"))
}
