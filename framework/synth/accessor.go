package synth

import (
	"context"
	"regexp"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/semantic"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// AccessorKind tags an Accessor.
type AccessorKind int

const (
	Getter AccessorKind = iota
	Setter
)

func (k AccessorKind) String() string {
	if k == Setter {
		return "setter"
	}
	return "getter"
}

// Accessor is a getter or setter derived from a member variable.
type Accessor struct {
	Kind AccessorKind
	Name string
	// Static accessors belong to static fields and are never const.
	Static bool
	Const  bool
	// Type is the return type of a getter or the parameter type of a setter.
	Type      string
	Parameter string
	Body      string
	Field     *semantic.Symbol
}

var (
	leadingConst  = regexp.MustCompile(`^const\s+`)
	trailingConst = regexp.MustCompile(`\s*\bconst$`)
)

// NewGetter builds the getter of field. It returns nil when field is not a
// member variable.
func NewGetter(ctx context.Context, r semantic.Resolver, field *semantic.Symbol, naming Naming) (*Accessor, error) {
	if field == nil || field.Kind != symbols.KindField {
		return nil, nil
	}
	value, byRef, err := fieldType(ctx, r, field)
	if err != nil {
		return nil, err
	}
	typ := value
	if byRef {
		typ = "const " + value + "&"
	}
	static := field.IsStatic()
	return &Accessor{
		Kind:   Getter,
		Name:   naming.GetterName(field.Name, field.IsBooleanType()),
		Static: static,
		Const:  !static,
		Type:   typ,
		Body:   "return " + field.Name + ";",
		Field:  field,
	}, nil
}

// NewSetter builds the setter of field. It returns nil when field is not a
// member variable or cannot be assigned: const and reference members.
func NewSetter(ctx context.Context, r semantic.Resolver, field *semantic.Symbol, naming Naming) (*Accessor, error) {
	if field == nil || field.Kind != symbols.KindField || field.IsConst() || field.IsReference() {
		return nil, nil
	}
	value, byRef, err := fieldType(ctx, r, field)
	if err != nil {
		return nil, err
	}
	typ := value
	if byRef {
		typ = "const " + value + "&"
	}
	param := naming.ParameterName(field.Name)
	target := field.Name
	if target == param {
		target = "this->" + target
	}
	return &Accessor{
		Kind:      Setter,
		Name:      naming.SetterName(field.Name),
		Static:    field.IsStatic(),
		Type:      typ,
		Parameter: param,
		Body:      target + " = " + param + ";",
		Field:     field,
	}, nil
}

// fieldType returns the field type without top-level const, and whether it
// is passed by const reference.
func fieldType(ctx context.Context, r semantic.Resolver, field *semantic.Symbol) (string, bool, error) {
	typ := field.LeadingType()
	pointer, reference := field.IsPointer(), field.IsReference()
	typ = trailingConst.ReplaceAllString(typ, "")
	if !pointer && !reference {
		typ = leadingConst.ReplaceAllString(typ, "")
	}
	if pointer || reference {
		return typ, false, nil
	}
	primitive, err := field.IsPrimitive(ctx, r, true)
	if err != nil {
		return "", false, err
	}
	return typ, !primitive, nil
}

// Signature is the accessor signature with the name prefixed by scope.
func (a *Accessor) Signature(scope string) string {
	var b strings.Builder
	if a.Kind == Getter {
		b.WriteString(a.Type + " " + scope + a.Name + "()")
		if a.Const {
			b.WriteString(" const")
		}
		return b.String()
	}
	b.WriteString("void " + scope + a.Name + "(" + a.Type + " " + a.Parameter + ")")
	return b.String()
}

// Declaration is the in-class declaration.
func (a *Accessor) Declaration() string {
	return a.staticPrefix() + a.Signature("") + ";"
}

// InlineDefinition is the in-class definition.
func (a *Accessor) InlineDefinition(style BraceStyle, indent, eol string) string {
	return FormatFunction(a.staticPrefix()+a.Signature(""), a.Body, style, indent, eol)
}

// Definition is the out-of-line definition as seen from pos in target.
func (a *Accessor) Definition(ctx context.Context, r semantic.Resolver, target *document.Document, pos protocol.Position, style BraceStyle, opts DefinitionOptions) (string, error) {
	quals, err := a.Field.ScopeQualifiers(ctx, r, target, pos, false)
	if err != nil {
		return "", err
	}
	var scope strings.Builder
	for _, q := range quals {
		scope.WriteString(q.Text)
	}
	eol := target.EOL()
	sig := a.Signature(scope.String())
	if opts.Inline {
		sig = "inline " + sig
	}
	if templates := templateLines(quals); len(templates) > 0 {
		sig = strings.Join(templates, eol) + eol + sig
	}
	return FormatFunction(sig, a.Body, style, target.IndentUnit(), eol), nil
}

func (a *Accessor) staticPrefix() string {
	if a.Static {
		return "static "
	}
	return ""
}
