package actions

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/config"
	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/semantic"
	"github.com/lexcodex/cppsynth/framework/symbols"
	"github.com/lexcodex/cppsynth/framework/synth"
)

// placement is where an out-of-line definition goes.
type placement struct {
	doc    *document.Document
	offset int
	indent string
	prefix string
	suffix string
}

func (p *placement) position() protocol.Position {
	return p.doc.PositionAt(p.offset)
}

func (p *placement) edit(def string) Edit {
	return insertAt(p.doc, p.offset, p.prefix+synth.Indent(def, p.indent)+p.suffix)
}

// placement finds where the definition of a member of anchor's class, or
// of anchor itself, goes. The paired file is preferred when configured and
// present: after the definition of the nearest preceding sibling, else at
// the end of the innermost matching namespace, else at the end of the file.
// Otherwise the definition follows the outermost enclosing class.
func (s *Session) placement(ctx context.Context, anchor *semantic.Symbol, loc config.DefinitionLocation) (*placement, error) {
	uri := anchor.Document().URI()
	if loc == config.PairedFile {
		paired, err := s.ws.PairedURI(ctx, uri)
		if err != nil {
			return nil, err
		}
		if paired != "" && paired != uri {
			tree, err := s.ws.Symbols(ctx, paired)
			if err != nil {
				return nil, err
			}
			return s.pairedPlacement(ctx, anchor, tree)
		}
		s.log.Debugf("no paired file for %s, defining in the current file", uri)
	}
	return afterClass(anchor), nil
}

func afterClass(anchor *semantic.Symbol) *placement {
	top := anchor
	for p := top.ParentSymbol(); p != nil && p.Kind.IsClassType(); p = p.ParentSymbol() {
		top = p
	}
	doc := anchor.Document()
	return &placement{
		doc:    doc,
		offset: top.StatementEnd(),
		indent: doc.LineOf(top.TrueStart()).Indent,
		prefix: doc.EOL() + doc.EOL(),
	}
}

func (s *Session) pairedPlacement(ctx context.Context, anchor *semantic.Symbol, tree *symbols.Tree) (*placement, error) {
	doc := tree.Document()
	eol := doc.EOL()

	siblings := anchor.Tree().Roots()
	if p := anchor.Parent(); p != nil {
		siblings = p.Children()
	}
	idx := -1
	for i, sib := range siblings {
		if sib.ID() == anchor.ID() {
			idx = i
		}
	}
	for i := idx - 1; i >= 0; i-- {
		if !siblings[i].Kind.IsFunction() {
			continue
		}
		matches, err := s.ws.FindMatchingSymbols(ctx, siblings[i], doc.URI())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m.HasBody() {
				md := m.Document()
				return &placement{doc: md, offset: m.StatementEnd(), indent: md.LineOf(m.TrueStart()).Indent, prefix: eol + eol}, nil
			}
		}
	}

	ancestors := anchor.Ancestors()
	for i := len(ancestors) - 1; i >= 0; i-- {
		ns := ancestors[i]
		if ns.Kind != symbols.KindNamespace || ns.Anonymous {
			continue
		}
		matches, err := s.ws.FindMatchingSymbols(ctx, ns, doc.URI())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !m.HasBody() {
				continue
			}
			return namespaceEnd(m.Document(), m), nil
		}
	}

	text := doc.Text()
	p := &placement{doc: doc, offset: len(text), suffix: eol}
	switch {
	case text == "":
	case strings.HasSuffix(text, "\n"):
		p.prefix = eol
	default:
		p.prefix = eol + eol
	}
	return p, nil
}

// namespaceEnd places a definition as the last member of a namespace body.
func namespaceEnd(doc *document.Document, ns *semantic.Symbol) *placement {
	text := doc.Text()
	closing := ns.BodyEnd() - 1
	content := strings.TrimRight(text[ns.BodyStart()+1:closing], " \t\r\n")
	indent := doc.LineOf(ns.TrueStart()).Indent
	eol := doc.EOL()
	if content == "" {
		p := &placement{doc: doc, offset: closing, indent: indent, suffix: eol}
		if closing > 0 && text[closing-1] != '\n' {
			p.prefix = eol
		}
		return p
	}
	return &placement{doc: doc, offset: ns.BodyStart() + 1 + len(content), indent: indent, prefix: eol + eol}
}
