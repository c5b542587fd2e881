package semantic

import (
	"regexp"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/mask"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// maxTrailingScan bounds the search for the statement terminating a class or
// enum that declares instances after its closing brace.
const maxTrailingScan = 64 << 10

// Symbol is a tree symbol bound to its document text. Boundaries are computed
// on first use and cached on the instance. A Symbol is a short-lived view: it
// is not safe for concurrent use and must be rebuilt after the document
// changes.
type Symbol struct {
	*symbols.Symbol
	src *Source

	trueStart, trueEnd       memo
	declStart, declEnd       memo
	bodyStart, bodyEnd       memo
	statementEnd             memo
	leadingComment, trailing memo
	scopes                   spanMemo
}

type memo struct {
	ok bool
	v  int
}

func (m *memo) get(compute func() int) int {
	if !m.ok {
		m.v, m.ok = compute(), true
	}
	return m.v
}

type spanMemo struct {
	ok bool
	v  document.Span
}

// New refines sym. src may be nil, in which case a private Source is created
// for the symbol's document.
func New(sym *symbols.Symbol, src *Source) *Symbol {
	if src == nil {
		src = NewSource(sym.Document())
	}
	return &Symbol{Symbol: sym, src: src}
}

// Source returns the masked document views the symbol scans.
func (s *Symbol) Source() *Source { return s.src }

// Document returns the symbol's document.
func (s *Symbol) Document() *document.Document { return s.src.doc }

// Refine wraps another symbol of the same document, sharing the masked views.
func (s *Symbol) Refine(other *symbols.Symbol) *Symbol {
	if other == nil {
		return nil
	}
	if other.Document() == s.src.doc {
		return New(other, s.src)
	}
	return New(other, nil)
}

// ParentSymbol returns the refined lexical parent, or nil at file scope.
func (s *Symbol) ParentSymbol() *Symbol {
	return s.Refine(s.Parent())
}

// ChildSymbols returns the refined children in declaration order.
func (s *Symbol) ChildSymbols() []*Symbol {
	children := s.Children()
	out := make([]*Symbol, 0, len(children))
	for _, c := range children {
		out = append(out, New(c, s.src))
	}
	return out
}

var (
	templateTail   = regexp.MustCompile(`(?:\btemplate\s*<[^<>]*>\s*)+$`)
	templateHead   = regexp.MustCompile(`^\s*(?:template\s*<[^<>]*>\s*)+`)
	templateClause = regexp.MustCompile(`\btemplate\s*<[^<>]*>`)
	namespaceTail  = regexp.MustCompile(`\b(?:inline\s+)?namespace\s+(?:[A-Za-z_]\w*\s*::\s*)*$`)
	qualifierTail  = regexp.MustCompile(`(?:::\s*)?(?:[A-Za-z_]\w*\s*(?:<[^<>]*>)?\s*::\s*)+$`)
)

// TrueStart is the start of any template statements or qualified namespace
// prefix preceding the reported range, otherwise the reported start.
func (s *Symbol) TrueStart() int {
	return s.trueStart.get(func() int {
		start := s.Span().Start
		floor := s.scanFloor()
		window := slice(s.src.Structural(), floor, start)
		re := templateTail
		if s.Kind == symbols.KindNamespace {
			re = namespaceTail
		}
		if loc := re.FindStringIndex(window); loc != nil {
			return floor + loc[0]
		}
		return start
	})
}

// scanFloor is the earliest offset a backward scan may reach: the end of the
// previous sibling, else the start of the parent, else the document start.
func (s *Symbol) scanFloor() int {
	start := s.Span().Start
	var siblings []*symbols.Symbol
	floor := 0
	if p := s.Parent(); p != nil {
		siblings = p.Children()
		floor = p.NameSpan().End
		if floor > start {
			floor = p.Span().Start
		}
	} else {
		siblings = s.Tree().Roots()
	}
	for _, sib := range siblings {
		if sib == s.Symbol {
			break
		}
		if end := sib.Span().End; end > floor {
			floor = end
		}
	}
	if floor > start {
		floor = start
	}
	return floor
}

// TrueEnd extends class and enum ranges over instance declarations following
// the closing brace, up to the terminating semicolon. Other kinds end where
// the analyzer says.
func (s *Symbol) TrueEnd() int {
	return s.trueEnd.get(func() int {
		sp := s.Span()
		if !s.Kind.IsClassType() && s.Kind != symbols.KindEnum {
			return sp.End
		}
		text := s.src.Structural()
		if strings.HasSuffix(strings.TrimSpace(slice(text, sp.Start, sp.End)), ";") {
			return sp.End
		}
		window := mask.Mask(slice(text, sp.End, sp.End+maxTrailingScan), mask.Braces)
		for i := 0; i < len(window); i++ {
			switch window[i] {
			case ';':
				return sp.End + i + 1
			case '}':
				return sp.End
			}
		}
		return sp.End
	})
}

// DeclarationStart skips a template clause at the head of the reported range.
func (s *Symbol) DeclarationStart() int {
	return s.declStart.get(func() int {
		sp := s.Span()
		head := slice(s.src.Structural(), sp.Start, s.NameSpan().Start)
		if loc := templateHead.FindStringIndex(head); loc != nil {
			return sp.Start + loc[1]
		}
		return sp.Start
	})
}

// DeclarationEnd is the end of the declaration proper: before the body, the
// terminating semicolon, or a constructor's member initializer list.
// Trailing whitespace is excluded.
func (s *Symbol) DeclarationEnd() int {
	return s.declEnd.get(func() int {
		text := s.src.Structural()
		nameEnd := s.NameSpan().End
		limit := s.TrueEnd()
		if limit > len(text) {
			limit = len(text)
		}
		stop := limit
		scansBody := s.hasBodyKind()
		ctor := s.IsConstructor()
	scan:
		for i := nameEnd; i < limit; i++ {
			switch c := text[i]; {
			case c == ';':
				stop = i
				break scan
			case c == '{' && scansBody:
				stop = i
				break scan
			case c == ':' && ctor && !isDoubleColon(text, i):
				stop = i
				break scan
			}
		}
		for stop > nameEnd && isSpace(text[stop-1]) {
			stop--
		}
		return stop
	})
}

func (s *Symbol) hasBodyKind() bool {
	k := s.Kind
	return k.IsFunction() || k.IsClassType() || k == symbols.KindEnum || k == symbols.KindNamespace
}

func (s *Symbol) body() (int, int) {
	start := s.bodyStart.get(func() int {
		declEnd := s.DeclarationEnd()
		if !s.hasBodyKind() {
			return declEnd
		}
		end := s.Span().End
		window := mask.Mask(slice(s.src.Structural(), declEnd, end), mask.Braces)
		open := strings.LastIndexByte(window, '{')
		if open < 0 {
			return declEnd
		}
		return declEnd + open
	})
	end := s.bodyEnd.get(func() int {
		declEnd := s.DeclarationEnd()
		if start == declEnd && !s.openBraceAt(start) {
			return declEnd
		}
		end := s.Span().End
		window := mask.Mask(slice(s.src.Structural(), start, end), mask.Braces)
		if close := strings.LastIndexByte(window, '}'); close > 0 {
			return start + close + 1
		}
		return end
	})
	return start, end
}

func (s *Symbol) openBraceAt(offset int) bool {
	text := s.src.Structural()
	return offset < len(text) && text[offset] == '{'
}

// HasBody reports whether a brace-delimited body was found.
func (s *Symbol) HasBody() bool {
	if !s.hasBodyKind() {
		return false
	}
	start, _ := s.body()
	return s.openBraceAt(start)
}

// BodyStart is the offset of the opening brace of the body. Without a body
// it equals DeclarationEnd.
func (s *Symbol) BodyStart() int {
	start, _ := s.body()
	return start
}

// BodyEnd is the offset just past the closing brace of the body. Without a
// body it equals DeclarationEnd.
func (s *Symbol) BodyEnd() int {
	_, end := s.body()
	return end
}

// StatementEnd is TrueEnd extended over a semicolon that closes the
// statement on the same line.
func (s *Symbol) StatementEnd() int {
	return s.statementEnd.get(func() int {
		end := s.TrueEnd()
		text := s.src.Structural()
		i := end
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		if i < len(text) && text[i] == ';' {
			return i + 1
		}
		return end
	})
}

// LeadingCommentStart extends TrueStart over the comment block directly
// above the symbol. A blank line or code on the comment's line ends the
// block.
func (s *Symbol) LeadingCommentStart() int {
	return s.leadingComment.get(func() int {
		text := s.src.doc.Text()
		pos := s.TrueStart()
		for {
			r, ok := s.src.commentBefore(pos)
			if !ok {
				return pos
			}
			gap := text[r.End:pos]
			if strings.TrimSpace(gap) != "" || strings.Count(gap, "\n") > 1 {
				return pos
			}
			line := s.src.doc.LineOf(r.Start)
			if strings.TrimSpace(text[line.Span.Start:r.Start]) != "" {
				return pos
			}
			pos = r.Start
		}
	})
}

// TrailingCommentEnd extends StatementEnd over a comment starting on the
// same line.
func (s *Symbol) TrailingCommentEnd() int {
	return s.trailing.get(func() int {
		end := s.StatementEnd()
		text := s.src.doc.Text()
		i := end
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		if r, ok := s.src.commentAt(i); ok {
			return r.End
		}
		return end
	})
}

// Range helpers.

// TrueRange spans TrueStart to TrueEnd.
func (s *Symbol) TrueRange() protocol.Range {
	return s.src.doc.RangeOf(document.Span{Start: s.TrueStart(), End: s.TrueEnd()})
}

// DeclarationSpan spans DeclarationStart to DeclarationEnd.
func (s *Symbol) DeclarationSpan() document.Span {
	return document.Span{Start: s.DeclarationStart(), End: s.DeclarationEnd()}
}

// BodySpan covers the body including its braces.
func (s *Symbol) BodySpan() document.Span {
	start, end := s.body()
	return document.Span{Start: start, End: end}
}

// BodyContent covers the body between its braces.
func (s *Symbol) BodyContent() document.Span {
	if !s.HasBody() {
		return document.Span{Start: s.DeclarationEnd(), End: s.DeclarationEnd()}
	}
	start, end := s.body()
	inner := document.Span{Start: start + 1, End: end}
	if end > start && end <= len(s.src.Structural()) && s.src.Structural()[end-1] == '}' {
		inner.End = end - 1
	}
	return inner
}

// ExtendedSpan covers the symbol with its attached comments.
func (s *Symbol) ExtendedSpan() document.Span {
	return document.Span{Start: s.LeadingCommentStart(), End: s.TrailingCommentEnd()}
}

// Text returns the original text between TrueStart and TrueEnd.
func (s *Symbol) Text() string {
	return s.src.doc.Slice(document.Span{Start: s.TrueStart(), End: s.TrueEnd()})
}

// DeclarationText returns the original declaration text.
func (s *Symbol) DeclarationText() string {
	return s.src.doc.Slice(s.DeclarationSpan())
}

// NamedScopesSpan covers the qualifiers written in front of the name, such
// as "Foo::Bar::" in "void Foo::Bar::run()". It is empty when there are none.
func (s *Symbol) NamedScopesSpan() document.Span {
	if !s.scopes.ok {
		nameStart := s.NameSpan().Start
		s.scopes.v = document.Span{Start: nameStart, End: nameStart}
		head := slice(s.src.Structural(), s.DeclarationStart(), nameStart)
		if loc := qualifierTail.FindStringIndex(head); loc != nil {
			s.scopes.v.Start = s.DeclarationStart() + loc[0]
		}
		s.scopes.ok = true
	}
	return s.scopes.v
}

// NamedScopes returns the qualifier text as written, e.g. "Foo::Bar::".
func (s *Symbol) NamedScopes() string {
	return s.src.doc.Slice(s.NamedScopesSpan())
}

// AllScopes returns the semantic scope chain: the enclosing symbols
// followed by any written qualifiers, outermost first.
func (s *Symbol) AllScopes() []string {
	return s.ScopeChain()
}

func isDoubleColon(text string, i int) bool {
	return i+1 < len(text) && text[i+1] == ':' || i > 0 && text[i-1] == ':'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
