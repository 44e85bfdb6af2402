package fields

import (
	"strings"
	"unicode"

	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/shopspring/decimal"
)

// Strategy selects how a field name is matched against an item's fields.
type Strategy int

const (
	// MatchExact requires the field name to equal the target.
	MatchExact Strategy = iota
	// MatchDigitStripped compares names with all digits removed and takes
	// the first match. It absorbs year or sequence numbers drifting in
	// period column names.
	MatchDigitStripped
	// ExactThenDigitStripped tries MatchExact and falls back to
	// MatchDigitStripped.
	ExactThenDigitStripped
)

// Lookup finds the field named name on item using the given strategy.
func Lookup(item *domain.Item, name string, strategy Strategy) (domain.CustomField, bool) {
	if item == nil || name == "" {
		return domain.CustomField{}, false
	}
	switch strategy {
	case MatchExact:
		return lookupExact(item, name)
	case MatchDigitStripped:
		return lookupDigitStripped(item, name)
	case ExactThenDigitStripped:
		if f, ok := lookupExact(item, name); ok {
			return f, true
		}
		return lookupDigitStripped(item, name)
	}
	return domain.CustomField{}, false
}

func lookupExact(item *domain.Item, name string) (domain.CustomField, bool) {
	for _, f := range item.CustomFields {
		if f.Name == name {
			return f, true
		}
	}
	return domain.CustomField{}, false
}

func lookupDigitStripped(item *domain.Item, name string) (domain.CustomField, bool) {
	target := stripDigits(name)
	for _, f := range item.CustomFields {
		if stripDigits(f.Name) == target {
			return f, true
		}
	}
	return domain.CustomField{}, false
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}

// Value returns the value of the field named exactly name, or "" when the
// field is absent or null.
func Value(item *domain.Item, name string) string {
	f, ok := Lookup(item, name, MatchExact)
	if !ok {
		return ""
	}
	return f.Value.String()
}

// HasValue reports whether the named field holds something other than an
// empty string or a numeric zero.
func HasValue(item *domain.Item, name string) bool {
	return IsMeaningful(Value(item, name))
}

// IsMeaningful is the non-empty, non-zero test shared by HasValue and the
// progress columns. Any numeric spelling of zero ("0.0", "00") counts as
// zero.
func IsMeaningful(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if d, err := decimal.NewFromString(v); err == nil {
		return !d.IsZero()
	}
	return true
}

// Weight returns the item's weight from the schema's weight field. Absent
// and non-numeric values yield zero. Negative values are also zeroed so a
// bad entry cannot cancel out its siblings' weight.
func Weight(item *domain.Item, schema Schema) decimal.Decimal {
	raw := strings.TrimSpace(Value(item, schema.Name(TagWeight)))
	if raw == "" {
		return decimal.Zero
	}
	w, err := decimal.NewFromString(raw)
	if err != nil || w.IsNegative() {
		return decimal.Zero
	}
	return w
}

// Set is the typed view of an item's custom fields.
type Set struct {
	Values  map[Tag]string
	IDs     map[Tag]int
	Unknown []domain.CustomField
}

// Get returns the value bound to tag, or "".
func (s Set) Get(tag Tag) string {
	return s.Values[tag]
}

// Has reports whether the tag carries a meaningful value.
func (s Set) Has(tag Tag) bool {
	return IsMeaningful(s.Values[tag])
}

// Resolve maps an item's fields onto the schema's tags by exact name.
// Fields the schema does not recognize are kept in Unknown.
func Resolve(item *domain.Item, schema Schema) Set {
	set := Set{Values: make(map[Tag]string), IDs: make(map[Tag]int)}
	if item == nil {
		return set
	}
	byName := make(map[string]Tag, len(schema.Fields))
	for tag, spec := range schema.Fields {
		byName[spec.Name] = tag
	}
	for _, f := range item.CustomFields {
		tag, ok := byName[f.Name]
		if !ok {
			set.Unknown = append(set.Unknown, f)
			continue
		}
		if _, seen := set.Values[tag]; seen {
			continue
		}
		set.Values[tag] = f.Value.String()
		set.IDs[tag] = f.ID
	}
	return set
}
