// Package symbols normalizes the analyzer's document symbols into a uniform
// tree. The tree owns every node in a flat arena; a node refers to its parent
// and children by index only.
package symbols

import (
	"regexp"
	"sort"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/mask"
)

// ID indexes a symbol within its tree.
type ID int

// NoID marks a missing parent.
const NoID ID = -1

// Symbol is one named construct reported by the analyzer.
type Symbol struct {
	id       ID
	tree     *Tree
	parent   ID
	children []ID

	// Name is the bare identifier, without qualifiers or template arguments.
	Name string
	// RawName is the name exactly as the analyzer reported it.
	RawName string
	Detail  string
	Kind    Kind
	LSPKind protocol.SymbolKind
	// Range is the analyzer's approximate full range.
	Range protocol.Range
	// NameRange is the exact span of the identifier.
	NameRange protocol.Range
	// Qualifiers are the scope names written in front of the identifier,
	// outermost first (Foo::Bar::baz yields [Foo Bar]).
	Qualifiers []string
	Anonymous  bool

	span     document.Span
	nameSpan document.Span
}

// ID returns the arena index.
func (s *Symbol) ID() ID { return s.id }

// Tree returns the owning tree.
func (s *Symbol) Tree() *Tree { return s.tree }

// Document returns the document the symbol was reported for.
func (s *Symbol) Document() *document.Document { return s.tree.doc }

// Span returns the full range as byte offsets.
func (s *Symbol) Span() document.Span { return s.span }

// NameSpan returns the identifier as byte offsets.
func (s *Symbol) NameSpan() document.Span { return s.nameSpan }

// Parent returns the enclosing symbol, or nil at file scope.
func (s *Symbol) Parent() *Symbol {
	if s.parent == NoID {
		return nil
	}
	return &s.tree.nodes[s.parent]
}

// Children returns the nested symbols in declaration order.
func (s *Symbol) Children() []*Symbol {
	out := make([]*Symbol, 0, len(s.children))
	for _, id := range s.children {
		out = append(out, &s.tree.nodes[id])
	}
	return out
}

// Ancestors returns the enclosing symbols, outermost first.
func (s *Symbol) Ancestors() []*Symbol {
	var chain []*Symbol
	for p := s.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// ScopeChain lists the names of the scopes the symbol belongs to, outermost
// first: the enclosing symbols followed by any written qualifiers.
// Anonymous scopes are transparent.
func (s *Symbol) ScopeChain() []string {
	var chain []string
	for _, a := range s.Ancestors() {
		if a.Anonymous {
			continue
		}
		chain = append(chain, a.Qualifiers...)
		chain = append(chain, a.Name)
	}
	return append(chain, s.Qualifiers...)
}

// QualifiedName joins the scope chain and the name with "::".
func (s *Symbol) QualifiedName() string {
	return strings.Join(append(s.ScopeChain(), s.Name), "::")
}

// Matches reports whether other names the same entity: same name, same kind
// category and same scope chain. Ranges are ignored so the result is stable
// across reanalysis and across documents.
func (s *Symbol) Matches(other *Symbol) bool {
	if s == nil || other == nil {
		return false
	}
	if s.Name != other.Name || s.Kind.Category() != other.Kind.Category() {
		return false
	}
	a, b := s.ScopeChain(), other.ScopeChain()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Tree is the arena of symbols reported for one document.
type Tree struct {
	doc   *document.Document
	nodes []Symbol
	roots []ID
}

// Build converts the analyzer's document symbols into a tree.
func Build(doc *document.Document, raw []protocol.DocumentSymbol) *Tree {
	t := &Tree{doc: doc}
	masked := mask.Mask(doc.Text(), mask.NonSource|mask.AngleBrackets)
	t.roots = t.add(raw, NoID, masked)
	return t
}

func (t *Tree) add(raw []protocol.DocumentSymbol, parent ID, masked string) []ID {
	ordered := append([]protocol.DocumentSymbol(nil), raw...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return before(ordered[i].Range.Start, ordered[j].Range.Start)
	})
	ids := make([]ID, 0, len(ordered))
	for _, ds := range ordered {
		id := ID(len(t.nodes))
		t.nodes = append(t.nodes, Symbol{id: id, tree: t, parent: parent})
		t.populate(id, ds, masked)
		children := t.add(ds.Children, id, masked)
		t.nodes[id].children = children
		ids = append(ids, id)
	}
	return ids
}

var (
	anonymousName = regexp.MustCompile(`^(\(anonymous.*\)|<anonymous.*>|\(unnamed.*\))$`)
	qualifierTail = regexp.MustCompile(`(?:::\s*)?(?:[A-Za-z_]\w*\s*(?:<[^<>]*>)?\s*::\s*)+$`)
	identifier    = regexp.MustCompile(`[A-Za-z_]\w*`)
	defineTail    = regexp.MustCompile(`#\s*define\s+$`)
	typedefWord   = regexp.MustCompile(`\btypedef\b`)
	usingWord     = regexp.MustCompile(`\busing\b`)
	unionWord     = regexp.MustCompile(`\bunion\b`)
	structWord    = regexp.MustCompile(`\bstruct\b`)
	enumWord      = regexp.MustCompile(`\benum\b`)
	classWord     = regexp.MustCompile(`\bclass\b`)
)

func (t *Tree) populate(id ID, ds protocol.DocumentSymbol, masked string) {
	s := &t.nodes[id]
	s.RawName = ds.Name
	s.Detail = ds.Detail
	s.LSPKind = ds.Kind
	s.Range = ds.Range
	s.span = t.doc.SpanOf(ds.Range)

	name := ds.Name
	if anonymousName.MatchString(name) || strings.TrimSpace(name) == "" {
		s.Anonymous = true
		name = ""
	}
	s.Name = baseName(name)

	s.nameSpan = t.doc.SpanOf(ds.SelectionRange)
	if !s.span.ContainsSpan(s.nameSpan) {
		s.nameSpan = document.Span{Start: s.span.Start, End: s.span.Start}
	}
	if s.Name != "" {
		selected := t.doc.Slice(s.nameSpan)
		if selected != s.Name {
			if idx := strings.LastIndex(selected, s.Name); idx >= 0 {
				s.nameSpan = document.Span{Start: s.nameSpan.Start + idx, End: s.nameSpan.Start + idx + len(s.Name)}
			}
		}
	}
	s.NameRange = t.doc.RangeOf(s.nameSpan)

	if m := qualifierTail.FindString(masked[s.span.Start:s.nameSpan.Start]); m != "" {
		s.Qualifiers = identifier.FindAllString(stripAngles(m), -1)
	} else if q := qualifiersFromName(ds.Name); len(q) > 0 {
		s.Qualifiers = q
	}

	s.Kind = classify(s, ds, masked, t)
}

func classify(s *Symbol, ds protocol.DocumentSymbol, masked string, t *Tree) Kind {
	kind := fromLSP(ds.Kind)
	lowerName := strings.ToLower(ds.Name)
	if s.Anonymous {
		switch {
		case strings.Contains(lowerName, "namespace"):
			return KindNamespace
		case strings.Contains(lowerName, "union"):
			return KindUnion
		case strings.Contains(lowerName, "struct"):
			return KindStruct
		case strings.Contains(lowerName, "enum"):
			return KindEnum
		}
	}

	line := t.doc.LineOf(s.nameSpan.Start)
	if defineTail.MatchString(t.doc.Slice(document.Span{Start: line.Span.Start, End: s.nameSpan.Start})) {
		return KindMacro
	}

	leading := mask.Mask(masked[s.span.Start:s.nameSpan.Start], mask.Parentheses)
	switch kind {
	case KindNamespace, KindFunction, KindMethod, KindEnumerator, KindEnum:
	default:
		if typedefWord.MatchString(leading) {
			return KindTypedef
		}
		if usingWord.MatchString(leading) && strings.HasPrefix(strings.TrimSpace(masked[s.nameSpan.End:s.span.End]), "=") {
			return KindTypeAlias
		}
	}

	parent := s.Parent()
	switch kind {
	case KindClass, KindStruct:
		braceless := mask.Mask(leading, mask.Braces)
		switch {
		case unionWord.MatchString(braceless):
			return KindUnion
		case structWord.MatchString(braceless):
			return KindStruct
		case enumWord.MatchString(braceless):
			return KindEnum
		case classWord.MatchString(braceless):
			return KindClass
		}
		return kind
	case KindFunction:
		if parent != nil && parent.Kind.IsClassType() {
			return KindMethod
		}
	case KindVariable:
		if parent != nil && parent.Kind.IsClassType() {
			return KindField
		}
		if parent != nil && parent.Kind == KindEnum {
			return KindEnumerator
		}
	}
	return kind
}

// baseName drops qualifiers and template arguments from an analyzer name.
func baseName(name string) string {
	if name == "" {
		return ""
	}
	parts := splitQualified(name)
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "operator") {
		return last
	}
	if idx := strings.IndexByte(last, '<'); idx > 0 {
		last = last[:idx]
	}
	return strings.TrimSpace(last)
}

func qualifiersFromName(name string) []string {
	parts := splitQualified(name)
	if len(parts) < 2 {
		return nil
	}
	out := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		if idx := strings.IndexByte(p, '<'); idx > 0 {
			p = p[:idx]
		}
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitQualified splits on "::" outside angle brackets and parentheses.
func splitQualified(name string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<', '(':
			if !strings.HasPrefix(name[start:i], "operator") {
				depth++
			}
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && i+1 < len(name) && name[i+1] == ':' {
				parts = append(parts, name[start:i])
				start = i + 2
				i++
			}
		}
	}
	return append(parts, name[start:])
}

func stripAngles(s string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
		}
	}
	return b.String()
}

// Document returns the document the tree was built from.
func (t *Tree) Document() *document.Document { return t.doc }

// URI returns the document identity.
func (t *Tree) URI() string { return t.doc.URI() }

// Len returns the number of symbols.
func (t *Tree) Len() int { return len(t.nodes) }

// Get returns the symbol with the given id.
func (t *Tree) Get(id ID) *Symbol {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Roots returns the file-scope symbols.
func (t *Tree) Roots() []*Symbol {
	out := make([]*Symbol, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, &t.nodes[id])
	}
	return out
}

// Walk visits symbols depth-first in declaration order. Returning false from
// fn skips the symbol's children.
func (t *Tree) Walk(fn func(*Symbol) bool) {
	var visit func(ids []ID)
	visit = func(ids []ID) {
		for _, id := range ids {
			s := &t.nodes[id]
			if fn(s) {
				visit(s.children)
			}
		}
	}
	visit(t.roots)
}

// At returns the innermost symbol whose full range contains pos.
func (t *Tree) At(pos protocol.Position) *Symbol {
	return t.AtOffset(t.doc.OffsetAt(pos))
}

// AtOffset is At for a byte offset.
func (t *Tree) AtOffset(offset int) *Symbol {
	var found *Symbol
	ids := t.roots
	for len(ids) > 0 {
		var next []ID
		for _, id := range ids {
			s := &t.nodes[id]
			if offset >= s.span.Start && offset <= s.span.End {
				found = s
				next = s.children
				break
			}
		}
		ids = next
	}
	return found
}

// NameAt returns the symbol whose identifier contains pos, falling back to
// the innermost symbol containing it.
func (t *Tree) NameAt(pos protocol.Position) *Symbol {
	offset := t.doc.OffsetAt(pos)
	var found *Symbol
	t.Walk(func(s *Symbol) bool {
		if offset >= s.nameSpan.Start && offset <= s.nameSpan.End && !s.nameSpan.Empty() {
			found = s
		}
		return offset >= s.span.Start && offset <= s.span.End
	})
	if found != nil {
		return found
	}
	return t.AtOffset(offset)
}

// FindMatching returns every symbol in the tree that Matches sym.
func (t *Tree) FindMatching(sym *Symbol) []*Symbol {
	var out []*Symbol
	t.Walk(func(s *Symbol) bool {
		if s.Matches(sym) {
			out = append(out, s)
		}
		return true
	})
	return out
}

func before(a, b protocol.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}
