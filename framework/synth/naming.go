package synth

import (
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

// CaseStyle is the identifier style of generated names.
type CaseStyle string

const (
	SnakeCase  CaseStyle = "snake_case"
	CamelCase  CaseStyle = "camelCase"
	PascalCase CaseStyle = "PascalCase"
)

// Valid reports whether c is a known style.
func (c CaseStyle) Valid() bool {
	switch c {
	case SnakeCase, CamelCase, PascalCase:
		return true
	}
	return false
}

// Naming is the naming convention for accessors.
type Naming struct {
	Case         CaseStyle
	GetterPrefix string
	SetterPrefix string
	// BoolPrefix replaces GetterPrefix for boolean fields when UseBoolPrefix
	// is set, unless the base name already reads as a predicate.
	BoolPrefix    string
	UseBoolPrefix bool
	// BareGetters names getters after the base name alone when stripping
	// member prefixes and suffixes changed it.
	BareGetters    bool
	MemberPrefixes []string
	MemberSuffixes []string
}

// DefaultNaming returns snake_case names with get/set/is prefixes.
func DefaultNaming() Naming {
	return Naming{
		Case:           SnakeCase,
		GetterPrefix:   "get",
		SetterPrefix:   "set",
		BoolPrefix:     "is",
		UseBoolPrefix:  true,
		MemberPrefixes: []string{"m_", "s_", "_"},
		MemberSuffixes: []string{"_"},
	}
}

var predicateWords = map[string]bool{
	"is": true, "has": true, "can": true, "should": true,
	"was": true, "will": true, "does": true, "are": true,
}

// BaseName strips the longest matching member prefix and suffix from field.
// A strip that would leave nothing, or a name starting with a digit, is not
// applied.
func (n Naming) BaseName(field string) string {
	base := field
	for _, p := range byLength(n.MemberPrefixes) {
		if rest := strings.TrimPrefix(base, p); rest != base && validName(rest) {
			base = rest
			break
		}
	}
	for _, s := range byLength(n.MemberSuffixes) {
		if rest := strings.TrimSuffix(base, s); rest != base && validName(rest) {
			base = rest
			break
		}
	}
	return base
}

// Format joins the non-empty words with underscores and applies the case
// style.
func (n Naming) Format(words ...string) string {
	var parts []string
	for _, w := range words {
		if w != "" {
			parts = append(parts, w)
		}
	}
	joined := strings.Join(parts, "_")
	switch n.Case {
	case CamelCase:
		return strcase.ToLowerCamel(joined)
	case PascalCase:
		return strcase.ToCamel(joined)
	default:
		return strcase.ToSnake(joined)
	}
}

// GetterName derives a getter name for field. A name equal to the field
// itself is never returned.
func (n Naming) GetterName(field string, boolean bool) string {
	base := n.BaseName(field)
	var name string
	switch {
	case boolean && n.UseBoolPrefix && readsAsPredicate(base):
		name = n.Format(base)
	case boolean && n.UseBoolPrefix:
		name = n.Format(n.BoolPrefix, base)
	case n.BareGetters && base != field:
		name = n.Format(base)
	default:
		name = n.Format(n.GetterPrefix, base)
	}
	if name == field {
		name = n.Format(n.GetterPrefix, base)
	}
	return name
}

// SetterName derives a setter name for field.
func (n Naming) SetterName(field string) string {
	return n.Format(n.SetterPrefix, n.BaseName(field))
}

// ParameterName is the setter parameter name for field.
func (n Naming) ParameterName(field string) string {
	if n.BaseName(field) == "value" || field == "value" {
		return n.Format("new", "value")
	}
	return "value"
}

func readsAsPredicate(base string) bool {
	words := strings.Split(strcase.ToSnake(base), "_")
	return len(words) > 1 && predicateWords[words[0]]
}

func validName(s string) bool {
	return s != "" && (s[0] == '_' || s[0] >= 'a' && s[0] <= 'z' || s[0] >= 'A' && s[0] <= 'Z')
}

func byLength(in []string) []string {
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
