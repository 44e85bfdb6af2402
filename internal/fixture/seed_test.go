package fixture

import (
	"context"
	"testing"

	"github.com/alexanderramin/tierboard/internal/repository"
	"github.com/alexanderramin/tierboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed_AppliesEverything(t *testing.T) {
	seed, err := LoadSeed("testdata/growth.yaml")
	require.NoError(t, err)
	assert.Len(t, seed.Issues, 6)
	assert.Equal(t, SeedValues{"Sales"}, seed.Issues[1].Fields["Department"])
	assert.Equal(t, SeedValues{"2"}, seed.Issues[1].Fields["Weight"])

	database := testutil.NewTestDB(t)
	ctx := context.Background()
	require.NoError(t, seed.Apply(ctx, testutil.NewTestUoW(database)))

	it, err := repository.NewSQLiteIssueRepo(database).GetByID(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "Kim", it.AssignedTo.Name)
	assert.Equal(t, "In Progress", it.Status.Name)
	require.Len(t, it.CustomFields, 4)
	assert.Equal(t, "Weight", it.CustomFields[0].Name)
	assert.Equal(t, "Department", it.CustomFields[2].Name)
	assert.True(t, it.CustomFields[2].Multiple)

	g, err := repository.NewSQLiteGroupRepo(database).GetByID(ctx, 40)
	require.NoError(t, err)
	assert.Len(t, g.Users, 2)
}

func TestSeed_ApplyIsRepeatableForReferenceData(t *testing.T) {
	seed, err := ParseSeed([]byte(`
projects: [{id: 1, name: Goals}]
users: [{id: 5, name: Kim}]
groups: [{id: 40, name: Growth, members: [5]}]
`))
	require.NoError(t, err)

	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	require.NoError(t, seed.Apply(context.Background(), uow))
	require.NoError(t, seed.Apply(context.Background(), uow))
}

func TestParseSeed_ReportsAllDanglingReferences(t *testing.T) {
	_, err := ParseSeed([]byte(`
projects: [{id: 1, name: Goals}]
users: [{id: 5, name: Kim}]
groups: [{id: 40, name: Growth, members: [5, 8]}]
issues:
  - {id: 1, project: 2, subject: a, assignee: 9}
  - {id: 1, project: 1, subject: "", done_ratio: 150, fields: {Weight: "1"}}
`))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `group "Growth": unknown member 8`)
	assert.Contains(t, msg, "issue #1: unknown project 2")
	assert.Contains(t, msg, "issue #1: unknown assignee 9")
	assert.Contains(t, msg, "issue #1: duplicate id")
	assert.Contains(t, msg, "issue #1: subject is required")
	assert.Contains(t, msg, "done_ratio 150 outside 0..100")
	assert.Contains(t, msg, `unknown custom field "Weight"`)
}

func TestParseSeed_RejectsMappingFieldValue(t *testing.T) {
	_, err := ParseSeed([]byte(`
projects: [{id: 1, name: Goals}]
custom_fields: [{id: 11, name: Weight}]
issues:
  - {id: 1, project: 1, subject: a, fields: {Weight: {nested: 1}}}
`))
	assert.Error(t, err)
}
