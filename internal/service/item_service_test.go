package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/tierboard/internal/contract"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/fields"
	"github.com/alexanderramin/tierboard/internal/testutil"
	"github.com/alexanderramin/tierboard/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaWithIDs() fields.Schema {
	s := fields.DefaultSchema()
	ids := map[fields.Tag]int{
		fields.TagWeight:     11,
		fields.TagQ1:         21,
		fields.TagQ2:         22,
		fields.TagQ3:         23,
		fields.TagQ4:         24,
		fields.TagDepartment: 31,
		fields.TagGoal:       32,
	}
	for tag, id := range ids {
		spec := s.Fields[tag]
		spec.ID = id
		s.Fields[tag] = spec
	}
	return s
}

func TestCreateItem_WritesFieldsByID(t *testing.T) {
	ft := testutil.NewFakeTracker(
		testutil.NewTestItem("Grow revenue", testutil.WithID(100), testutil.WithProject(3, "Goals")),
	)
	obs := &recordingObserver{}
	svc := NewItemService(ft, schemaWithIDs(), obs)

	resp, err := svc.CreateItem(context.Background(), contract.CreateItemRequest{
		ParentID:   100,
		Subject:    "  Win 3 enterprise deals ",
		AssigneeID: 5,
		Weight:     "2",
		Department: "Sales",
		Targets: map[domain.PeriodTag]string{
			domain.PeriodQ2: "1",
			domain.PeriodQ3: "2",
			domain.PeriodQ4: "",
		},
	})
	require.NoError(t, err)

	require.Len(t, ft.Created, 1)
	created := ft.Created[0]
	assert.Equal(t, 3, created.ProjectID, "project inherited from parent")
	assert.Equal(t, 100, created.ParentID)
	assert.Equal(t, "Win 3 enterprise deals", created.Subject)
	assert.Equal(t, []tracker.FieldAssignment{
		{ID: 11, Value: "2"},
		{ID: 22, Value: "1"},
		{ID: 23, Value: "2"},
		{ID: 31, Value: "Sales"},
	}, created.CustomFields)

	pid, ok := resp.Item.ParentID()
	require.True(t, ok)
	assert.Equal(t, 100, pid)
	require.Len(t, obs.events, 1)
	assert.Equal(t, "create-item", obs.events[0].Name)
	assert.Equal(t, resp.Item.ID, obs.events[0].Fields["item_id"])
}

func TestCreateItem_UnmappedFieldRejected(t *testing.T) {
	ft := testutil.NewFakeTracker()
	svc := NewItemService(ft, schemaWithIDs())

	_, err := svc.CreateItem(context.Background(), contract.CreateItemRequest{
		ProjectID: 1,
		Subject:   "Reduce churn",
		Unit:      "%",
	})
	var pe *contract.ProgressError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, contract.ProgressErrFieldUnmapped, pe.Code)
	assert.Contains(t, pe.Message, `"Unit"`)
	assert.Empty(t, ft.Created)
}

func TestCreateItem_Validation(t *testing.T) {
	svc := NewItemService(testutil.NewFakeTracker(), schemaWithIDs())

	cases := []struct {
		name string
		req  contract.CreateItemRequest
		code contract.ProgressErrorCode
	}{
		{"blank subject", contract.CreateItemRequest{ProjectID: 1, Subject: "  "}, contract.ProgressErrInvalidValue},
		{"ratio out of range", contract.CreateItemRequest{ProjectID: 1, Subject: "x", DoneRatio: 120}, contract.ProgressErrInvalidValue},
		{"no project", contract.CreateItemRequest{Subject: "x"}, contract.ProgressErrInvalidValue},
		{"non-quarter target", contract.CreateItemRequest{ProjectID: 1, Subject: "x",
			Targets: map[domain.PeriodTag]string{domain.PeriodHalf: "3"}}, contract.ProgressErrInvalidPeriod},
	}
	for _, tc := range cases {
		_, err := svc.CreateItem(context.Background(), tc.req)
		var pe *contract.ProgressError
		require.ErrorAs(t, err, &pe, tc.name)
		assert.Equal(t, tc.code, pe.Code, tc.name)
	}
}

func TestCreateItem_MissingParent(t *testing.T) {
	svc := NewItemService(testutil.NewFakeTracker(), schemaWithIDs())

	_, err := svc.CreateItem(context.Background(), contract.CreateItemRequest{ParentID: 55, Subject: "x"})
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}
