package tools

import (
	"context"
	"os"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
)

// TreeSitterAnalyzer reports symbols from a tree-sitter parse. It needs no
// external process and no compilation database; definition lookups only
// see type names of documents it has parsed.
type TreeSitterAnalyzer struct {
	mu     sync.Mutex
	parser *sitter.Parser
	docs   map[string]*document.Document
	types  map[string][]protocol.Location
}

// NewTreeSitterAnalyzer creates an analyzer for C++.
func NewTreeSitterAnalyzer() *TreeSitterAnalyzer {
	p := sitter.NewParser()
	p.SetLanguage(cpp.GetLanguage())
	return &TreeSitterAnalyzer{
		parser: p,
		docs:   make(map[string]*document.Document),
		types:  make(map[string][]protocol.Location),
	}
}

func (a *TreeSitterAnalyzer) DocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.DocumentSymbol, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	src := []byte(doc.Text())
	tree, err := a.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	b := &tsBuilder{doc: doc, src: src}
	syms := b.children(tree.RootNode(), false)
	a.docs[doc.URI()] = doc
	a.index(doc.URI(), syms)
	return syms, nil
}

// index records the type names of uri, replacing earlier entries.
func (a *TreeSitterAnalyzer) index(uri string, syms []protocol.DocumentSymbol) {
	for name, locs := range a.types {
		kept := locs[:0]
		for _, l := range locs {
			if string(l.URI) != uri {
				kept = append(kept, l)
			}
		}
		a.types[name] = kept
	}
	var walk func([]protocol.DocumentSymbol)
	walk = func(list []protocol.DocumentSymbol) {
		for _, s := range list {
			switch s.Kind {
			case protocol.SymbolKindClass, protocol.SymbolKindStruct, protocol.SymbolKindEnum:
				name := s.Name
				if i := strings.LastIndex(name, "::"); i >= 0 {
					name = name[i+2:]
				}
				a.types[name] = append(a.types[name], protocol.Location{URI: protocol.DocumentURI(uri), Range: s.SelectionRange})
			}
			walk(s.Children)
		}
	}
	walk(syms)
}

// Definition resolves the identifier at pos to a type of the same name,
// preferring the document it appears in.
func (a *TreeSitterAnalyzer) Definition(_ context.Context, uri string, pos protocol.Position) ([]protocol.Location, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	doc, ok := a.docs[uri]
	if !ok {
		data, err := os.ReadFile(document.PathFromURI(uri))
		if err != nil {
			return nil, err
		}
		doc = document.New(uri, string(data))
	}
	name := identifierAt(doc.Text(), doc.OffsetAt(pos))
	if name == "" {
		return nil, nil
	}
	var local, other []protocol.Location
	for _, l := range a.types[name] {
		if string(l.URI) == uri {
			local = append(local, l)
		} else {
			other = append(other, l)
		}
	}
	return append(local, other...), nil
}

func (a *TreeSitterAnalyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.parser.Close()
	return nil
}

func identifierAt(text string, offset int) string {
	start, end := offset, offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	return text[start:end]
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// tsBuilder converts a C++ syntax tree into the symbols clangd would report
// for it.
type tsBuilder struct {
	doc *document.Document
	src []byte
}

func (b *tsBuilder) children(n *sitter.Node, inClass bool) []protocol.DocumentSymbol {
	var out []protocol.DocumentSymbol
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		out = append(out, b.symbols(c, c, inClass)...)
	}
	return out
}

// symbols converts n. outer is the node the reported range starts at, the
// template declaration wrapping n if any.
func (b *tsBuilder) symbols(n, outer *sitter.Node, inClass bool) []protocol.DocumentSymbol {
	switch n.Type() {
	case "template_declaration":
		var out []protocol.DocumentSymbol
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() != "template_parameter_list" {
				out = append(out, b.symbols(c, outer, inClass)...)
			}
		}
		return out

	case "namespace_definition":
		body := n.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		name, sel := "(anonymous namespace)", document.Span{Start: int(n.StartByte()), End: int(n.StartByte()) + len("namespace")}
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name, sel = nameNode.Content(b.src), b.span(nameNode)
		}
		return []protocol.DocumentSymbol{b.symbol(name, protocol.SymbolKindNamespace, b.span(outer).Start, int(n.EndByte()), sel, b.children(body, false))}

	case "class_specifier", "struct_specifier", "union_specifier":
		body := n.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		kind := protocol.SymbolKindStruct
		if n.Type() == "class_specifier" {
			kind = protocol.SymbolKindClass
		}
		keyword := strings.TrimSuffix(n.Type(), "_specifier")
		name := "(anonymous " + keyword + ")"
		sel := document.Span{Start: int(n.StartByte()), End: int(n.StartByte()) + len(keyword)}
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name, sel = nameNode.Content(b.src), b.span(nameNode)
		}
		return []protocol.DocumentSymbol{b.symbol(name, kind, b.span(outer).Start, int(n.EndByte()), sel, b.children(body, true))}

	case "enum_specifier":
		body := n.ChildByFieldName("body")
		nameNode := n.ChildByFieldName("name")
		if body == nil || nameNode == nil {
			return nil
		}
		var members []protocol.DocumentSymbol
		for i := 0; i < int(body.NamedChildCount()); i++ {
			e := body.NamedChild(i)
			if e.Type() != "enumerator" {
				continue
			}
			if en := e.ChildByFieldName("name"); en != nil {
				members = append(members, b.symbol(en.Content(b.src), protocol.SymbolKindEnumMember, int(e.StartByte()), int(e.EndByte()), b.span(en), nil))
			}
		}
		return []protocol.DocumentSymbol{b.symbol(nameNode.Content(b.src), protocol.SymbolKindEnum, b.span(outer).Start, int(n.EndByte()), b.span(nameNode), members)}

	case "function_definition":
		decl := n.ChildByFieldName("declarator")
		if decl == nil {
			return nil
		}
		nameNode, _ := unwrapDeclarator(decl)
		if nameNode == nil {
			return nil
		}
		return []protocol.DocumentSymbol{b.symbol(nameNode.Content(b.src), functionKind(nameNode, inClass), b.span(outer).Start, int(n.EndByte()), b.span(nameNode), nil)}

	case "field_declaration", "declaration", "type_definition":
		return b.declarators(n, outer, inClass)

	case "alias_declaration":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return nil
		}
		return []protocol.DocumentSymbol{b.symbol(nameNode.Content(b.src), protocol.SymbolKindClass, b.span(outer).Start, b.trimEnd(int(n.EndByte())), b.span(nameNode), nil)}

	case "preproc_def", "preproc_function_def":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return nil
		}
		return []protocol.DocumentSymbol{b.symbol(nameNode.Content(b.src), protocol.SymbolKindConstant, int(n.StartByte()), b.trimEnd(int(n.EndByte())), b.span(nameNode), nil)}

	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "declaration_list" {
				return b.children(body, inClass)
			}
			return b.symbols(body, body, inClass)
		}
	case "declaration_list", "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif":
		return b.children(n, inClass)
	}
	return nil
}

// declarators reports one symbol per declarator of a declaration. The first
// symbol's range starts with the declaration; later ones cover only their
// declarator.
func (b *tsBuilder) declarators(n, outer *sitter.Node, inClass bool) []protocol.DocumentSymbol {
	typeNode := n.ChildByFieldName("type")
	var out []protocol.DocumentSymbol
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if typeNode != nil && c.StartByte() == typeNode.StartByte() && c.EndByte() == typeNode.EndByte() {
			continue
		}
		if !declaratorTypes[c.Type()] && !(n.Type() == "type_definition" && c.Type() == "type_identifier") {
			continue
		}
		nameNode, function := unwrapDeclarator(c)
		if nameNode == nil {
			continue
		}
		var kind protocol.SymbolKind
		switch {
		case n.Type() == "type_definition":
			kind = protocol.SymbolKindClass
		case function:
			kind = functionKind(nameNode, inClass)
		case inClass:
			kind = protocol.SymbolKindField
		default:
			kind = protocol.SymbolKindVariable
		}
		start := int(c.StartByte())
		if len(out) == 0 {
			start = b.span(outer).Start
		}
		end := int(c.EndByte())
		if c.Type() == "init_declarator" && !function {
			if d := c.ChildByFieldName("declarator"); d != nil {
				end = int(d.EndByte())
			}
		}
		out = append(out, b.symbol(nameNode.Content(b.src), kind, start, end, b.span(nameNode), nil))
	}
	if typeNode != nil && n.Type() != "type_definition" {
		switch typeNode.Type() {
		case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
			return append(b.symbols(typeNode, outer, inClass), out...)
		}
	}
	return out
}

var declaratorTypes = map[string]bool{
	"identifier":               true,
	"field_identifier":         true,
	"qualified_identifier":     true,
	"destructor_name":          true,
	"operator_name":            true,
	"function_declarator":      true,
	"init_declarator":          true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"parenthesized_declarator": true,
}

// unwrapDeclarator returns the name inside a declarator chain and whether the
// chain declares a function.
func unwrapDeclarator(n *sitter.Node) (*sitter.Node, bool) {
	function := false
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name",
			"operator_name", "type_identifier", "template_function":
			return n, function
		case "function_declarator":
			function = true
			n = n.ChildByFieldName("declarator")
		case "init_declarator", "pointer_declarator", "array_declarator", "parenthesized_declarator", "attributed_declarator":
			next := n.ChildByFieldName("declarator")
			if next == nil && n.NamedChildCount() > 0 {
				next = n.NamedChild(int(n.NamedChildCount()) - 1)
			}
			n = next
		case "reference_declarator":
			if n.NamedChildCount() == 0 {
				return nil, function
			}
			n = n.NamedChild(int(n.NamedChildCount()) - 1)
		default:
			return nil, function
		}
	}
	return nil, function
}

func functionKind(name *sitter.Node, inClass bool) protocol.SymbolKind {
	if inClass || name.Type() == "qualified_identifier" {
		return protocol.SymbolKindMethod
	}
	return protocol.SymbolKindFunction
}

func (b *tsBuilder) span(n *sitter.Node) document.Span {
	return document.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// trimEnd backs over trailing whitespace and a semicolon.
func (b *tsBuilder) trimEnd(end int) int {
	for end > 0 && strings.IndexByte(" \t\r\n;", b.src[end-1]) >= 0 {
		end--
	}
	return end
}

func (b *tsBuilder) symbol(name string, kind protocol.SymbolKind, start, end int, sel document.Span, children []protocol.DocumentSymbol) protocol.DocumentSymbol {
	return protocol.DocumentSymbol{
		Name:           name,
		Kind:           kind,
		Range:          b.doc.RangeOf(document.Span{Start: start, End: end}),
		SelectionRange: b.doc.RangeOf(sel),
		Children:       children,
	}
}
