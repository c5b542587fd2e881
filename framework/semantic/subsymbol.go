package semantic

import (
	"context"
	"regexp"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/mask"
)

// SubSymbol is a span inside a symbol's text that is not a symbol itself,
// such as an access specifier or a base class reference. Selection narrows
// it to the identifier.
type SubSymbol struct {
	Span      document.Span
	Selection document.Span
	Range     protocol.Range
	Text      string
}

func (s *Symbol) subSymbol(span, selection document.Span) SubSymbol {
	doc := s.src.doc
	return SubSymbol{
		Span:      span,
		Selection: selection,
		Range:     doc.RangeOf(span),
		Text:      doc.Slice(span),
	}
}

// SelectionRange returns Selection as an LSP range.
func (s *Symbol) SelectionRange(sub SubSymbol) protocol.Range {
	return s.src.doc.RangeOf(sub.Selection)
}

var (
	accessSpecifier = regexp.MustCompile(`\b(public|protected|private)\b(\s+\w+)?\s*:`)
	accessKeyword   = regexp.MustCompile(`\b(?:public|protected|private|virtual)\b`)
)

// AccessSpecifiers returns the access labels of a class body in order.
func (s *Symbol) AccessSpecifiers() []SubSymbol {
	var out []SubSymbol
	for _, m := range s.accessLabels() {
		out = append(out, s.subSymbol(
			document.Span{Start: m.start, End: m.end},
			document.Span{Start: m.start, End: m.start + len(m.level.String())},
		))
	}
	return out
}

// BaseClasses returns each base class reference in a class head. The
// selection is the base's own name, without qualifiers or template
// arguments.
func (s *Symbol) BaseClasses() []SubSymbol {
	if !s.Kind.IsClassType() {
		return nil
	}
	from, to := s.NameSpan().End, s.DeclarationEnd()
	masked := slice(s.src.Structural(), from, to)
	colon := -1
	for i := 0; i < len(masked); i++ {
		if masked[i] == ':' && !isDoubleColon(masked, i) {
			colon = i
			break
		}
	}
	if colon < 0 {
		return nil
	}
	from += colon + 1
	masked = masked[colon+1:]
	var out []SubSymbol
	offset := 0
	for _, part := range splitTopLevel(masked, masked, ',') {
		start := from + offset
		offset += len(part.masked) + 1

		lead := len(part.masked) - len(strings.TrimLeft(part.masked, " \t\r\n"))
		trimmed := strings.TrimSpace(part.masked)
		if trimmed == "" {
			continue
		}
		span := document.Span{Start: start + lead, End: start + lead + len(trimmed)}
		name := accessKeyword.ReplaceAllStringFunc(trimmed, func(w string) string { return strings.Repeat(" ", len(w)) })
		loc := lastIdentifier.FindStringSubmatchIndex(strings.TrimRight(name, " \t\r\n."))
		if loc == nil {
			continue
		}
		selection := document.Span{Start: span.Start + loc[2], End: span.Start + loc[3]}
		out = append(out, s.subSymbol(span, selection))
	}
	return out
}

// ImmediateScope returns the innermost written qualifier of an out-of-line
// name, e.g. "Bar" in "Foo::Bar::run".
func (s *Symbol) ImmediateScope() (SubSymbol, bool) {
	sp := s.NamedScopesSpan()
	if sp.Empty() {
		return SubSymbol{}, false
	}
	masked := mask.Mask(slice(s.src.NonSource(), sp.Start, sp.End), mask.AngleBrackets)
	trimmed := strings.TrimRight(masked, " \t\r\n:")
	loc := lastIdentifier.FindStringSubmatchIndex(trimmed)
	if loc == nil {
		return SubSymbol{}, false
	}
	span := document.Span{Start: sp.Start + loc[2], End: sp.Start + len(trimmed)}
	return s.subSymbol(span, document.Span{Start: sp.Start + loc[2], End: sp.Start + loc[3]}), true
}

// ParentClass returns the class the symbol is a member of: the lexically
// enclosing class, or for an out-of-line definition the class its innermost
// qualifier names, found through r.
func (s *Symbol) ParentClass(ctx context.Context, r Resolver) (*Symbol, error) {
	if p := s.ParentSymbol(); p != nil && p.Kind.IsClassType() {
		return p, nil
	}
	scope, ok := s.ImmediateScope()
	if !ok || r == nil {
		return nil, nil
	}
	loc, err := r.FindDefinition(ctx, s.src.doc.URI(), s.src.doc.PositionAt(scope.Selection.Start))
	if err != nil || loc == nil {
		return nil, err
	}
	class, err := r.SymbolAt(ctx, *loc)
	if err != nil || class == nil || !class.Kind.IsClassType() {
		return nil, err
	}
	return class, nil
}
