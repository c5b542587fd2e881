package semantic

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// Qualifier is one emitted component of a scope string.
type Qualifier struct {
	Scope *Symbol
	// Text is the component as written, such as "Widget<T>::".
	Text string
}

// ScopeString returns the qualifier needed to name the symbol from pos in
// target, such as "ns::Widget<T>::". Enclosing scopes are visited from the
// outermost inward. A scope is omitted when pos already lies inside the body
// of an equivalent scope in target; anonymous scopes are always omitted.
// With namespacesOnly the walk stops at the first class scope.
//
// Equivalent scopes in other documents are found through r. A nil r, or a
// lookup that finds nothing, means the qualifier is written.
func (s *Symbol) ScopeString(ctx context.Context, r Resolver, target *document.Document, pos protocol.Position, namespacesOnly bool) (string, error) {
	quals, err := s.ScopeQualifiers(ctx, r, target, pos, namespacesOnly)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, q := range quals {
		b.WriteString(q.Text)
	}
	return b.String(), nil
}

// ScopeQualifiers is ScopeString broken into its emitted components.
func (s *Symbol) ScopeQualifiers(ctx context.Context, r Resolver, target *document.Document, pos protocol.Position, namespacesOnly bool) ([]Qualifier, error) {
	offset := target.OffsetAt(pos)
	var out []Qualifier
	for _, scope := range s.Ancestors() {
		if scope.Anonymous {
			continue
		}
		if namespacesOnly && scope.Kind.IsClassType() {
			break
		}
		if !isScopeKind(scope.Kind) {
			continue
		}
		inside, err := s.insideEquivalent(ctx, r, scope, target, offset)
		if err != nil {
			return nil, err
		}
		if inside {
			continue
		}
		refined := s.Refine(scope)
		var b strings.Builder
		for _, q := range scope.Qualifiers {
			b.WriteString(q + "::")
		}
		b.WriteString(scope.Name)
		if refined.IsTemplate() {
			if params := refined.TemplateParameterNames(); len(params) > 0 {
				b.WriteString("<" + strings.Join(params, ", ") + ">")
			}
		}
		b.WriteString("::")
		out = append(out, Qualifier{Scope: refined, Text: b.String()})
	}
	return out, nil
}

func isScopeKind(k symbols.Kind) bool {
	return k == symbols.KindNamespace || k.IsClassType() || k == symbols.KindEnum
}

// insideEquivalent reports whether offset in target lies in the body of
// scope or of a scope matching it.
func (s *Symbol) insideEquivalent(ctx context.Context, r Resolver, scope *symbols.Symbol, target *document.Document, offset int) (bool, error) {
	var candidates []*Symbol
	if target.URI() == s.src.doc.URI() {
		for _, m := range scope.Tree().FindMatching(scope) {
			candidates = append(candidates, New(m, s.src))
		}
	} else if r != nil {
		matches, err := r.FindMatchingSymbols(ctx, scope, target.URI())
		if err != nil {
			return false, err
		}
		candidates = matches
	}
	for _, c := range candidates {
		if !c.HasBody() {
			continue
		}
		if offset > c.BodyStart() && offset < c.BodyEnd() {
			return true, nil
		}
	}
	return false, nil
}
