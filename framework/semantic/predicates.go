package semantic

import (
	"context"
	"regexp"
	"strings"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/mask"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// maxAliasDepth bounds alias chasing in IsPrimitive. Cyclic alias chains stop
// here instead of recursing forever.
const maxAliasDepth = 8

var (
	virtualWord    = regexp.MustCompile(`\bvirtual\b`)
	overrideWord   = regexp.MustCompile(`\b(?:override|final)\b`)
	pureVirtual    = regexp.MustCompile(`=\s*0\s*;?\s*$`)
	deletedDefault = regexp.MustCompile(`=\s*(?:delete|default)\b`)
	constWord      = regexp.MustCompile(`\bconst\b`)
	staticWord     = regexp.MustCompile(`\bstatic\b`)
	inlineWord     = regexp.MustCompile(`\binline\b`)
	constexprWord  = regexp.MustCompile(`\bconstexpr\b`)
	constevalWord  = regexp.MustCompile(`\bconsteval\b`)
	templateWord   = regexp.MustCompile(`\btemplate\b`)
	storageWord    = regexp.MustCompile(`\b(?:static|extern|thread_local)\b`)
	specifierWords = regexp.MustCompile(`\b(?:static|inline|constexpr|consteval|constinit|mutable|virtual|explicit|friend|extern|thread_local|typedef)\b`)
	cvWords        = regexp.MustCompile(`\b(?:const|volatile)\b`)
	primitiveType  = regexp.MustCompile(`^(?:(?:signed|unsigned|short|long)\s+)*(?:void|bool|_Bool|char|char8_t|char16_t|char32_t|wchar_t|int|short|long|signed|unsigned|float|double|(?:std\s*::\s*)?(?:u?int(?:_least|_fast)?(?:8|16|32|64)_t|u?intmax_t|u?intptr_t|size_t|ssize_t|ptrdiff_t|nullptr_t|byte))$`)
	booleanType    = regexp.MustCompile(`^(?:bool|_Bool|std::atomic<bool>|std::atomic_bool)$`)
	lastIdentifier = regexp.MustCompile(`([A-Za-z_]\w*)\s*(?:<[^<>]*>)?\s*$`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	trailingCV     = regexp.MustCompile(`(?:[\s*&;]|\b(?:const|volatile)\b)*$`)
)

// leadingText is the masked text between DeclarationStart and the name.
func (s *Symbol) leadingText() string {
	return slice(s.src.Structural(), s.DeclarationStart(), s.NameSpan().Start)
}

// trailingText is the masked text between the name and DeclarationEnd.
func (s *Symbol) trailingText() string {
	return slice(s.src.Structural(), s.NameSpan().End, s.DeclarationEnd())
}

// qualifiersText is the trailing text of a function after its parameter
// list, before any trailing return type.
func (s *Symbol) qualifiersText() string {
	t := s.trailingText()
	if i := strings.Index(t, "->"); i >= 0 {
		t = t[:i]
	}
	if i := strings.LastIndexByte(t, ')'); i >= 0 {
		t = t[i+1:]
	}
	return t
}

// IsVirtual reports an explicit virtual, or override/final implying it.
func (s *Symbol) IsVirtual() bool {
	if !s.Kind.IsFunction() {
		return false
	}
	return virtualWord.MatchString(s.leadingText()) || overrideWord.MatchString(s.qualifiersText())
}

// IsPureVirtual reports a "= 0" specifier.
func (s *Symbol) IsPureVirtual() bool {
	return s.Kind.IsFunction() && pureVirtual.MatchString(s.trailingText())
}

// IsDeletedOrDefaulted reports "= delete" or "= default".
func (s *Symbol) IsDeletedOrDefaulted() bool {
	return s.Kind.IsFunction() && deletedDefault.MatchString(s.trailingText())
}

// IsConst reports a const-qualified member function, or a variable whose
// declared type is itself const. A pointer to const is not const.
func (s *Symbol) IsConst() bool {
	if s.Kind.IsFunction() {
		return constWord.MatchString(s.qualifiersText())
	}
	leading := s.leadingText()
	if constexprWord.MatchString(leading) {
		return true
	}
	if i := strings.LastIndexAny(leading, "*&"); i >= 0 {
		leading = leading[i+1:]
	}
	return constWord.MatchString(leading)
}

// IsStatic reports a static specifier.
func (s *Symbol) IsStatic() bool { return staticWord.MatchString(s.leadingText()) }

// IsInline reports an inline specifier.
func (s *Symbol) IsInline() bool { return inlineWord.MatchString(s.leadingText()) }

// IsConstexpr reports a constexpr specifier.
func (s *Symbol) IsConstexpr() bool { return constexprWord.MatchString(s.leadingText()) }

// IsConsteval reports a consteval specifier.
func (s *Symbol) IsConsteval() bool { return constevalWord.MatchString(s.leadingText()) }

// IsPointer reports a pointer type, or a function returning one.
func (s *Symbol) IsPointer() bool {
	return strings.HasSuffix(stripCV(s.LeadingType()), "*")
}

// IsReference reports an lvalue or rvalue reference type.
func (s *Symbol) IsReference() bool {
	return strings.HasSuffix(stripCV(s.LeadingType()), "&")
}

// IsTemplate reports a template statement in front of the declaration.
func (s *Symbol) IsTemplate() bool {
	return templateWord.MatchString(slice(s.src.Structural(), s.TrueStart(), s.DeclarationStart()))
}

// IsConstructor reports a function named after its class.
func (s *Symbol) IsConstructor() bool {
	if !s.Kind.IsFunction() || strings.HasPrefix(s.Name, "~") {
		return false
	}
	if p := s.Parent(); p != nil && p.Kind.IsClassType() {
		return p.Name == s.Name
	}
	if q := s.Qualifiers; len(q) > 0 {
		return q[len(q)-1] == s.Name
	}
	return false
}

// IsDestructor reports a function named ~Class.
func (s *Symbol) IsDestructor() bool {
	return s.Kind.IsFunction() && strings.HasPrefix(s.Name, "~")
}

// IsOperator reports an operator overload or conversion function.
func (s *Symbol) IsOperator() bool {
	n := s.Name
	return s.Kind.IsFunction() && strings.HasPrefix(n, "operator") && (len(n) == len("operator") || !isIdent(n[len("operator")]))
}

// IsFunctionDeclaration reports a function without a body.
func (s *Symbol) IsFunctionDeclaration() bool {
	return s.Kind.IsFunction() && !s.HasBody()
}

// IsFunctionDefinition reports a function with a body.
func (s *Symbol) IsFunctionDefinition() bool {
	return s.Kind.IsFunction() && s.HasBody()
}

// IsMemberOf reports whether the symbol belongs to class, lexically or
// through its written qualifiers.
func (s *Symbol) IsMemberOf(class *symbols.Symbol) bool {
	if class == nil || !class.Kind.IsClassType() {
		return false
	}
	want := append(class.ScopeChain(), class.Name)
	got := s.ScopeChain()
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func (s *Symbol) IsAnonymous() bool    { return s.Anonymous }
func (s *Symbol) IsTypedef() bool      { return s.Kind == symbols.KindTypedef }
func (s *Symbol) IsTypeAlias() bool    { return s.Kind.IsTypeAlias() }
func (s *Symbol) IsClassType() bool    { return s.Kind.IsClassType() }
func (s *Symbol) IsFunctionType() bool { return s.Kind.IsFunction() }
func (s *Symbol) IsVariableType() bool { return s.Kind.IsVariable() }

// IsBooleanType reports a variable or function of type bool.
func (s *Symbol) IsBooleanType() bool {
	return booleanType.MatchString(stripCV(s.LeadingType()))
}

// HasUnspecifiedStorage reports a variable without static, extern or
// thread_local.
func (s *Symbol) HasUnspecifiedStorage() bool {
	return s.Kind.IsVariable() && !storageWord.MatchString(s.leadingText())
}

// LeadingType returns the type text in front of the name with specifiers,
// attributes, comments and written qualifiers removed. For a function it is
// the return type.
func (s *Symbol) LeadingType() string {
	if s.Kind == symbols.KindTypeAlias || s.Kind.IsClassType() || s.Kind == symbols.KindEnum {
		return ""
	}
	text := slice(s.src.NonSource(), s.DeclarationStart(), s.NamedScopesSpan().Start)
	return normalizeSpace(specifierWords.ReplaceAllString(text, " "))
}

// AliasedType returns the type a typedef or using-alias names.
func (s *Symbol) AliasedType() string {
	switch s.Kind {
	case symbols.KindTypeAlias:
		rest := slice(s.src.NonSource(), s.NameSpan().End, s.DeclarationEnd())
		if i := strings.IndexByte(rest, '='); i >= 0 {
			rest = rest[i+1:]
		}
		return normalizeSpace(strings.TrimSuffix(strings.TrimSpace(rest), ";"))
	case symbols.KindTypedef:
		text := slice(s.src.NonSource(), s.DeclarationStart(), s.NameSpan().Start)
		text = strings.Replace(text, "typedef", " ", 1)
		return normalizeSpace(text)
	}
	return ""
}

// IsPrimitive reports whether the symbol's type is a fundamental type or an
// enum. With resolveAliases, a non-primitive type name is looked up through r
// and, when it names a typedef or alias, the aliased type is tested in turn.
func (s *Symbol) IsPrimitive(ctx context.Context, r Resolver, resolveAliases bool) (bool, error) {
	return s.isPrimitive(ctx, r, resolveAliases, maxAliasDepth)
}

func (s *Symbol) isPrimitive(ctx context.Context, r Resolver, resolveAliases bool, depth int) (bool, error) {
	switch {
	case s.Kind == symbols.KindEnum:
		return true, nil
	case s.Kind.IsClassType():
		return false, nil
	}
	typeText := s.LeadingType()
	if s.Kind.IsTypeAlias() {
		typeText = s.AliasedType()
	}
	base := baseType(typeText)
	if primitiveType.MatchString(base) {
		return true, nil
	}
	if !resolveAliases || r == nil || depth <= 0 || base == "" {
		return false, nil
	}
	offset, ok := s.typeNameOffset()
	if !ok {
		return false, nil
	}
	loc, err := r.FindDefinition(ctx, s.src.doc.URI(), s.src.doc.PositionAt(offset))
	if err != nil || loc == nil {
		return false, err
	}
	target, err := r.SymbolAt(ctx, *loc)
	if err != nil || target == nil {
		return false, err
	}
	if target.Kind == symbols.KindEnum {
		return true, nil
	}
	if !target.Kind.IsTypeAlias() {
		return false, nil
	}
	return target.isPrimitive(ctx, r, resolveAliases, depth-1)
}

// typeNameOffset locates the last identifier of the type text in the
// document, which is where a definition lookup for the type must point.
func (s *Symbol) typeNameOffset() (int, bool) {
	start, end := s.DeclarationStart(), s.NamedScopesSpan().Start
	if s.Kind == symbols.KindTypeAlias {
		start, end = s.NameSpan().End, s.DeclarationEnd()
	}
	text := mask.Mask(slice(s.src.NonSource(), start, end), mask.AngleBrackets)
	text = trailingCV.ReplaceAllString(text, "")
	loc := lastIdentifier.FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, false
	}
	return start + loc[2], true
}

// TemplateStatements returns the original text of each template clause in
// front of the declaration, outermost first.
func (s *Symbol) TemplateStatements() []string {
	from, to := s.TrueStart(), s.DeclarationStart()
	masked := slice(s.src.Structural(), from, to)
	var out []string
	for _, loc := range templateClause.FindAllStringIndex(masked, -1) {
		out = append(out, s.src.doc.Slice(document.Span{Start: from + loc[0], End: from + loc[1]}))
	}
	return out
}

// TemplateParameterNames returns the parameter names of the innermost
// template clause, with a trailing "..." for packs. Unnamed parameters are
// skipped.
func (s *Symbol) TemplateParameterNames() []string {
	from, to := s.TrueStart(), s.DeclarationStart()
	masked := slice(s.src.Structural(), from, to)
	clauses := templateClause.FindAllStringIndex(masked, -1)
	if len(clauses) == 0 {
		return nil
	}
	last := clauses[len(clauses)-1]
	clause := slice(s.src.NonSource(), from+last[0], from+last[1])
	open := strings.IndexByte(clause, '<')
	if open < 0 || !strings.HasSuffix(clause, ">") {
		return nil
	}
	params := clause[open+1 : len(clause)-1]
	nested := mask.Mask(params, mask.AngleBrackets|mask.Parentheses|mask.Braces)
	var names []string
	for _, part := range splitTopLevel(params, nested, ',') {
		if i := strings.IndexByte(part.masked, '='); i >= 0 {
			part.text = part.text[:i]
			part.masked = part.masked[:i]
		}
		variadic := strings.Contains(part.masked, "...")
		loc := lastIdentifier.FindStringSubmatchIndex(strings.TrimRight(part.masked, " \t\r\n."))
		if loc == nil {
			continue
		}
		name := part.text[loc[2]:loc[3]]
		if keywordParam(name) {
			continue
		}
		if variadic {
			name += "..."
		}
		names = append(names, name)
	}
	return names
}

func keywordParam(name string) bool {
	switch name {
	case "typename", "class", "int", "bool", "auto", "unsigned", "size_t", "char", "long":
		return true
	}
	return false
}

type segment struct {
	text, masked string
}

// splitTopLevel splits text at sep wherever masked (a bracket-masked copy of
// text) has it.
func splitTopLevel(text, masked string, sep byte) []segment {
	var out []segment
	start := 0
	for i := 0; i <= len(masked); i++ {
		if i == len(masked) || masked[i] == sep {
			out = append(out, segment{text: text[start:i], masked: masked[start:i]})
			start = i + 1
		}
	}
	return out
}

func stripCV(t string) string {
	return normalizeSpace(cvWords.ReplaceAllString(t, " "))
}

// baseType drops cv-qualifiers and pointer/reference marks.
func baseType(t string) string {
	t = stripCV(t)
	t = strings.TrimRight(t, " *&")
	return normalizeSpace(t)
}

func normalizeSpace(t string) string {
	t = strings.TrimSpace(whitespaceRun.ReplaceAllString(t, " "))
	t = strings.ReplaceAll(t, " *", "*")
	t = strings.ReplaceAll(t, " &", "&")
	return t
}
