package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValue_DecodeShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		null bool
		list bool
	}{
		{`"3"`, "3", false, false},
		{`null`, "", true, false},
		{`["a","b"]`, "a,b", false, true},
		{`[]`, "", false, true},
		{`2.5`, "2.5", false, false},
		{`true`, "true", false, false},
	}
	for _, tc := range cases {
		var v FieldValue
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &v), "raw=%s", tc.raw)
		assert.Equal(t, tc.want, v.String(), "raw=%s", tc.raw)
		assert.Equal(t, tc.null, v.Null, "raw=%s", tc.raw)
		assert.Equal(t, tc.list, v.List, "raw=%s", tc.raw)
	}
}

func TestFieldValue_ObjectsDecodeEmpty(t *testing.T) {
	var v FieldValue
	require.NoError(t, json.Unmarshal([]byte(`{"label":"Ops"}`), &v))
	assert.Equal(t, "", v.String())
	assert.False(t, v.Null)
	assert.JSONEq(t, `{"label":"Ops"}`, string(v.Raw))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Ops"}`, string(data))
}

func TestFieldValue_ListSkipsObjectEntries(t *testing.T) {
	var v FieldValue
	require.NoError(t, json.Unmarshal([]byte(`["Sales",{"x":1},null]`), &v))
	assert.True(t, v.List)
	assert.Equal(t, []string{"Sales"}, v.Values)
}

func TestItem_DecodesWithMalformedField(t *testing.T) {
	payload := `{
		"id": 8,
		"subject": "Ship",
		"custom_fields": [
			{"id": 11, "name": "Weight", "value": {"amount": 3}},
			{"id": 14, "name": "Departments", "value": {"label": "Ops"}}
		]
	}`
	var it Item
	require.NoError(t, json.Unmarshal([]byte(payload), &it))
	require.Len(t, it.CustomFields, 2)
	assert.Equal(t, "", it.CustomFields[0].Value.String())
	assert.Equal(t, "", it.CustomFields[1].Value.String())
}

func TestItem_DecodesTrackerPayload(t *testing.T) {
	payload := `{
		"id": 42,
		"subject": "Raise NPS",
		"parent": {"id": 7},
		"done_ratio": 30,
		"assigned_to": {"id": 5, "name": "Kim"},
		"watchers": [{"id": 9}, {"id": 5}, {"id": 9}],
		"project": {"id": 1, "name": "Goals"},
		"custom_fields": [
			{"id": 11, "name": "Weight", "value": "2"},
			{"id": 12, "name": "Departments", "multiple": true, "value": ["Sales", "Ops"]},
			{"id": 13, "name": "Q1", "value": null}
		]
	}`
	var it Item
	require.NoError(t, json.Unmarshal([]byte(payload), &it))

	pid, ok := it.ParentID()
	require.True(t, ok)
	assert.Equal(t, 7, pid)
	assert.Equal(t, 5, it.AssigneeID())
	assert.Equal(t, []int{5, 9}, it.WatcherIDs())
	require.Len(t, it.CustomFields, 3)
	assert.Equal(t, "Sales,Ops", it.CustomFields[1].Value.String())
	assert.True(t, it.CustomFields[2].Value.Null)
	assert.Equal(t, StateInProgress, it.State())
}

func TestItem_ParentIDAbsent(t *testing.T) {
	it := &Item{ID: 1}
	_, ok := it.ParentID()
	assert.False(t, ok)

	it.Parent = &IDRef{ID: 0}
	_, ok = it.ParentID()
	assert.False(t, ok)
}

func TestItem_State(t *testing.T) {
	assert.Equal(t, StateNotStarted, (&Item{DoneRatio: 0}).State())
	assert.Equal(t, StateInProgress, (&Item{DoneRatio: 99}).State())
	assert.Equal(t, StateDone, (&Item{DoneRatio: 100}).State())
	assert.Equal(t, StateDone, (&Item{DoneRatio: 140}).State())
}

func TestFieldValue_MarshalRoundTripsShape(t *testing.T) {
	data, err := json.Marshal(ListValue("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(data))

	data, err = json.Marshal(FieldValue{Null: true})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestStateOf_ClampsBeforeBucketing(t *testing.T) {
	assert.Equal(t, StateNotStarted, StateOf(-10))
	assert.Equal(t, StateInProgress, StateOf(1))
	assert.Equal(t, StateInProgress, StateOf(99))
	assert.Equal(t, StateDone, StateOf(130))
	assert.Equal(t, 0, ClampRatio(-1))
	assert.Equal(t, 100, ClampRatio(101))
}
