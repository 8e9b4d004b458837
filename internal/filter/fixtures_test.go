package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/drest/internal/schema"
)

// newTestRegistry builds a users/groups/locations/events graph. It contains
// cycles (user -> location -> user) and a deferred relation.
func newTestRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()

	require.NoError(t, r.RegisterModel(schema.NewModel("Location").
		AddColumn("name").
		AddColumn("uid")))
	require.NoError(t, r.RegisterModel(schema.NewModel("Group").
		AddColumn("name").
		AddColumn("uid").
		AddForeignKey("location", "Location", "")))
	require.NoError(t, r.RegisterModel(schema.NewModel("User").
		AddColumn("name").
		AddColumn("uid").
		AddColumn("is_active").
		AddManyToMany("groups", "Group", "users").
		AddForeignKey("location", "Location", "").
		AddForeignKey("creator", "User", "created")))
	require.NoError(t, r.RegisterModel(schema.NewModel("Event").
		AddColumn("name").
		AddColumn("capacity").
		AddForeignKey("owner", "User", "events")))

	groups := schema.NewRelation("groups", "", "group", schema.Many)
	groups.Deferred = true

	require.NoError(t, r.Register(schema.NewSchema("location", "Location").
		AddField(schema.NewScalar("uid", "")).
		AddField(schema.NewScalar("name", "")).
		AddField(schema.NewRelation("users", "user_set", "user", schema.Many)).
		AddField(schema.NewRelation("groups", "group_set", "group", schema.Many))))
	require.NoError(t, r.Register(schema.NewSchema("group", "Group").
		AddField(schema.NewScalar("uid", "")).
		AddField(schema.NewScalar("name", "")).
		AddField(schema.NewRelation("location", "", "location", schema.One)).
		AddField(schema.NewRelation("members", "users", "user", schema.Many))))
	require.NoError(t, r.Register(schema.NewSchema("user", "User").
		AddField(schema.NewScalar("uid", "")).
		AddField(schema.NewScalar("displayName", "name")).
		AddField(schema.NewScalar("active", "is_active")).
		AddField(groups).
		AddField(schema.NewRelation("location", "", "location", schema.One)).
		AddField(schema.NewRelation("events", "", "event", schema.Many)).
		AddField(schema.NewRelation("creator", "", "", schema.One))))
	require.NoError(t, r.Register(schema.NewSchema("event", "Event").
		AddField(schema.NewScalar("name", "")).
		AddField(schema.NewScalar("capacity", "")).
		AddField(schema.NewRelation("owner", "", "user", schema.One))))

	require.NoError(t, r.Seal())
	return r
}

func mustSchema(t *testing.T, r *schema.Registry, name string) *schema.Schema {
	t.Helper()
	s, err := r.Schema(name)
	require.NoError(t, err)
	return s
}
