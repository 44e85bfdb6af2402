package fields

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/alexanderramin/tierboard/internal/domain"
	"gopkg.in/yaml.v3"
)

// Tag identifies a custom field the reconciliation core understands.
type Tag string

const (
	TagWeight     Tag = "weight"
	TagQ1         Tag = "q1"
	TagQ2         Tag = "q2"
	TagQ3         Tag = "q3"
	TagQ4         Tag = "q4"
	TagDepartment Tag = "department"
	TagGoal       Tag = "goal"
	TagUnit       Tag = "unit"
)

// KnownTags is the closed set of recognized tags.
var KnownTags = []Tag{TagWeight, TagQ1, TagQ2, TagQ3, TagQ4, TagDepartment, TagGoal, TagUnit}

// FieldSpec binds a tag to the deployment's field name and, when known, its
// numeric id (needed to write the field on create).
type FieldSpec struct {
	Name string `yaml:"name"`
	ID   int    `yaml:"id,omitempty"`
}

// Schema maps recognized tags to the deployment's custom fields.
type Schema struct {
	Fields map[Tag]FieldSpec `yaml:"fields"`
}

// DefaultSchema returns the field names used when no schema file is given.
func DefaultSchema() Schema {
	return Schema{Fields: map[Tag]FieldSpec{
		TagWeight:     {Name: "Weight"},
		TagQ1:         {Name: "Q1"},
		TagQ2:         {Name: "Q2"},
		TagQ3:         {Name: "Q3"},
		TagQ4:         {Name: "Q4"},
		TagDepartment: {Name: "Department"},
		TagGoal:       {Name: "Goal"},
		TagUnit:       {Name: "Unit"},
	}}
}

// LoadSchema reads a YAML schema file. Tags missing from the file keep their
// default names.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("reading field schema: %w", err)
	}
	var parsed Schema
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Schema{}, fmt.Errorf("parsing field schema %s: %w", path, err)
	}

	schema := DefaultSchema()
	for tag, spec := range parsed.Fields {
		if !isKnown(tag) {
			return Schema{}, fmt.Errorf("field schema %s: unknown tag %q", path, tag)
		}
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			spec.Name = schema.Fields[tag].Name
		}
		schema.Fields[tag] = spec
	}
	if err := schema.Validate(); err != nil {
		return Schema{}, fmt.Errorf("field schema %s: %w", path, err)
	}
	return schema, nil
}

// Validate rejects schemas where two tags share a field name or id.
func (s Schema) Validate() error {
	names := make(map[string]Tag)
	ids := make(map[int]Tag)
	tags := make([]string, 0, len(s.Fields))
	for tag := range s.Fields {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)
	for _, t := range tags {
		tag := Tag(t)
		spec := s.Fields[tag]
		if spec.Name == "" {
			return fmt.Errorf("tag %q has no field name", tag)
		}
		if prev, ok := names[spec.Name]; ok {
			return fmt.Errorf("tags %q and %q both map to field %q", prev, tag, spec.Name)
		}
		names[spec.Name] = tag
		if spec.ID != 0 {
			if prev, ok := ids[spec.ID]; ok {
				return fmt.Errorf("tags %q and %q both map to field id %d", prev, tag, spec.ID)
			}
			ids[spec.ID] = tag
		}
	}
	return nil
}

// Name returns the field name bound to tag, or "" when the tag is unmapped.
func (s Schema) Name(tag Tag) string {
	return s.Fields[tag].Name
}

// ID returns the field id bound to tag, or 0 when unknown.
func (s Schema) ID(tag Tag) int {
	return s.Fields[tag].ID
}

// QuarterTag returns the field tag holding a quarter's target.
func QuarterTag(p domain.PeriodTag) (Tag, bool) {
	switch p {
	case domain.PeriodQ1:
		return TagQ1, true
	case domain.PeriodQ2:
		return TagQ2, true
	case domain.PeriodQ3:
		return TagQ3, true
	case domain.PeriodQ4:
		return TagQ4, true
	}
	return "", false
}

func isKnown(tag Tag) bool {
	for _, t := range KnownTags {
		if t == tag {
			return true
		}
	}
	return false
}
