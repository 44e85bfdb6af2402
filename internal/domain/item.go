package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IDName is the {id, name} reference shape the tracker uses for projects,
// statuses, trackers and users.
type IDName struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// IDRef is a bare {id} reference, used for parent pointers.
type IDRef struct {
	ID int `json:"id"`
}

// Status is an issue status available on the tracker.
type Status struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed,omitempty"`
}

// User is a tracker user or group member.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login,omitempty"`
}

// Group is a named set of users; it seeds the team dimension of a dashboard.
type Group struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Users []User `json:"users,omitempty"`
}

// Item is a single work unit (issue) as returned by the tracker.
type Item struct {
	ID              int           `json:"id"`
	Subject         string        `json:"subject"`
	Parent          *IDRef        `json:"parent,omitempty"`
	DoneRatio       int           `json:"done_ratio"`
	Status          *Status       `json:"status,omitempty"`
	AssignedTo      *IDName       `json:"assigned_to,omitempty"`
	Watchers        []IDName      `json:"watchers,omitempty"`
	Project         IDName        `json:"project"`
	CustomFields    []CustomField `json:"custom_fields,omitempty"`
	AllowedStatuses []Status      `json:"allowed_statuses,omitempty"`
}

// ParentID returns the parent pointer, if any. The referenced item may be
// absent from the current fetch.
func (it *Item) ParentID() (int, bool) {
	if it == nil || it.Parent == nil || it.Parent.ID == 0 {
		return 0, false
	}
	return it.Parent.ID, true
}

// AssigneeID returns the assigned user id, or 0.
func (it *Item) AssigneeID() int {
	if it == nil || it.AssignedTo == nil {
		return 0
	}
	return it.AssignedTo.ID
}

// WatcherIDs returns the sorted, de-duplicated watcher ids.
func (it *Item) WatcherIDs() []int {
	if it == nil || len(it.Watchers) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(it.Watchers))
	ids := make([]int, 0, len(it.Watchers))
	for _, w := range it.Watchers {
		if _, ok := seen[w.ID]; ok {
			continue
		}
		seen[w.ID] = struct{}{}
		ids = append(ids, w.ID)
	}
	sort.Ints(ids)
	return ids
}

// State buckets the item by its overall done ratio.
func (it *Item) State() ProgressState {
	return StateOf(it.DoneRatio)
}

// CustomField is one entry of an item's loosely-structured custom field list.
type CustomField struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Multiple bool       `json:"multiple,omitempty"`
	Value    FieldValue `json:"value"`
}

// FieldValue holds a custom field value, which the tracker sends as a
// string, a list of strings, a number, or null. Any other shape decodes
// as an empty value with the payload kept in Raw.
type FieldValue struct {
	Values []string
	Null   bool
	List   bool
	Raw    json.RawMessage
}

// StringValue builds a scalar FieldValue.
func StringValue(s string) FieldValue {
	return FieldValue{Values: []string{s}}
}

// ListValue builds a multi-valued FieldValue.
func ListValue(vals ...string) FieldValue {
	return FieldValue{Values: vals, List: true}
}

// String returns the scalar value, or list entries joined with ",".
// Null yields "".
func (v FieldValue) String() string {
	if v.Null || len(v.Values) == 0 {
		return ""
	}
	if len(v.Values) == 1 {
		return v.Values[0]
	}
	return strings.Join(v.Values, ",")
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = FieldValue{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		v.Null = true
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding field value: %w", err)
		}
		v.Values = []string{s}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decoding field value list: %w", err)
		}
		v.List = true
		for _, r := range raw {
			var elem FieldValue
			if err := elem.UnmarshalJSON(r); err != nil {
				return err
			}
			if !elem.Null && elem.Raw == nil {
				v.Values = append(v.Values, elem.String())
			}
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decoding field value: %w", err)
		}
		v.Values = []string{strconv.FormatBool(b)}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decoding field value: %w", err)
		}
		v.Values = []string{n.String()}
	default:
		// Objects and anything else read as empty so one odd field cannot
		// fail the whole item.
		v.Raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Null:
		return []byte("null"), nil
	case v.Raw != nil:
		return v.Raw, nil
	case v.List:
		vals := v.Values
		if vals == nil {
			vals = []string{}
		}
		return json.Marshal(vals)
	default:
		return json.Marshal(v.String())
	}
}
