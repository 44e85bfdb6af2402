package period

import (
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/spf13/pflag"
)

// Value is a pflag.Value holding a period tag.
type Value struct {
	tag domain.PeriodTag
}

var _ pflag.Value = (*Value)(nil)

// NewValue returns a flag value preset to def.
func NewValue(def domain.PeriodTag) *Value {
	return &Value{tag: def}
}

func (v *Value) String() string { return string(v.tag) }

func (v *Value) Set(s string) error {
	tag, err := ParseTag(s)
	if err != nil {
		return err
	}
	v.tag = tag
	return nil
}

func (v *Value) Type() string { return "period" }

// Tag returns the parsed tag.
func (v *Value) Tag() domain.PeriodTag { return v.tag }
