// Package actions runs the user-facing operations: adding definitions,
// declarations and accessors. Each operation returns an EditSet for the
// caller to apply.
package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tliron/commonlog"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/config"
	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/semantic"
	"github.com/lexcodex/cppsynth/framework/symbols"
	"github.com/lexcodex/cppsynth/framework/synth"
)

var (
	// ErrNotApplicable is returned for an operation on a symbol it does not
	// apply to.
	ErrNotApplicable = errors.New("operation not applicable to symbol")
	// ErrNoSymbol is returned when no symbol is found at the position.
	ErrNoSymbol = errors.New("no symbol at position")
)

// Workspace gives operations access to documents and cross-document lookups.
type Workspace interface {
	semantic.Resolver
	// Symbols returns the symbol tree of the document at uri.
	Symbols(ctx context.Context, uri string) (*symbols.Tree, error)
	// PairedURI returns the header or source counterpart of uri, or "".
	PairedURI(ctx context.Context, uri string) (string, error)
	// IsHeader reports whether uri names a header file.
	IsHeader(uri string) bool
	// Source returns the masked views shared by every refined symbol of
	// tree.
	Source(tree *symbols.Tree) *semantic.Source
}

// Session runs operations against one workspace and configuration.
type Session struct {
	ws  Workspace
	cfg *config.Config
	log commonlog.Logger
}

// NewSession creates a session. A nil cfg uses the defaults.
func NewSession(ws Workspace, cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Session{ws: ws, cfg: cfg, log: commonlog.GetLogger("cppsynth.actions")}
}

// SymbolAt returns the refined symbol at pos in the document at uri.
func (s *Session) SymbolAt(ctx context.Context, uri string, pos protocol.Position) (*semantic.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, err := s.ws.Symbols(ctx, uri)
	if err != nil {
		return nil, err
	}
	sym := tree.NameAt(pos)
	if sym == nil {
		sym = tree.At(pos)
	}
	if sym == nil {
		return nil, fmt.Errorf("%w: %s:%d:%d", ErrNoSymbol, uri, pos.Line+1, pos.Character+1)
	}
	return semantic.New(sym, s.ws.Source(tree)), nil
}

// AddDefinition creates an empty definition for the function declared at
// pos, placed according to the configured definition location.
func (s *Session) AddDefinition(ctx context.Context, uri string, pos protocol.Position) (*EditSet, error) {
	decl, err := s.SymbolAt(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	if !decl.IsFunctionDeclaration() || decl.IsDeletedOrDefaulted() || decl.IsPureVirtual() {
		return nil, fmt.Errorf("%w: %s is not a function declaration without body", ErrNotApplicable, decl.Name)
	}

	set := &EditSet{Description: "Add definition of " + decl.QualifiedName()}
	if s.cfg.DefinitionLocation() == config.Inline && decl.Parent() != nil && decl.Parent().Kind.IsClassType() {
		set.Edits = append(set.Edits, inlineBody(decl, s.cfg.BraceStyle()))
		return set, nil
	}

	target, err := s.placement(ctx, decl, s.cfg.DefinitionLocation())
	if err != nil {
		return nil, err
	}
	sig, err := synth.ToDefinition(ctx, s.ws, decl, target.doc, target.position(), synth.DefinitionOptions{Inline: s.ws.IsHeader(target.doc.URI())})
	if err != nil {
		s.log.Warningf("definition of %s: %s", decl.QualifiedName(), err)
		return nil, err
	}
	def := synth.FormatFunction(sig, "", s.cfg.BraceStyle(), target.doc.IndentUnit(), target.doc.EOL())
	set.Edits = append(set.Edits, target.edit(def))
	return set, nil
}

// AddDeclaration declares the out-of-line function defined at pos in its
// class.
func (s *Session) AddDeclaration(ctx context.Context, uri string, pos protocol.Position) (*EditSet, error) {
	def, err := s.SymbolAt(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	if !def.IsFunctionDefinition() || def.NamedScopesSpan().Empty() {
		return nil, fmt.Errorf("%w: %s is not an out-of-line function definition", ErrNotApplicable, def.Name)
	}
	class, err := def.ParentClass(ctx, s.ws)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, fmt.Errorf("%w: class of %s not found", ErrNotApplicable, def.QualifiedName())
	}
	for _, member := range class.ChildSymbols() {
		if member.Name == def.Name && member.Kind.IsFunction() && member.IsFunctionDeclaration() {
			return nil, fmt.Errorf("%w: %s is already declared", ErrNotApplicable, def.QualifiedName())
		}
	}

	in := class.FindPositionForNewMemberFunction(semantic.Public, "", "")
	doc := class.Document()
	text := in.Text(synth.ToDeclaration(def), doc.EOL())
	return &EditSet{
		Description: "Add declaration of " + def.QualifiedName(),
		Edits:       []Edit{insertAt(doc, in.Offset, text)},
	}, nil
}

// AddGetter adds a getter for the member variable at pos.
func (s *Session) AddGetter(ctx context.Context, uri string, pos protocol.Position) (*EditSet, error) {
	return s.addAccessors(ctx, uri, pos, true, false)
}

// AddSetter adds a setter for the member variable at pos.
func (s *Session) AddSetter(ctx context.Context, uri string, pos protocol.Position) (*EditSet, error) {
	return s.addAccessors(ctx, uri, pos, false, true)
}

// AddAccessors adds a getter and, when the field is assignable, a setter.
func (s *Session) AddAccessors(ctx context.Context, uri string, pos protocol.Position) (*EditSet, error) {
	return s.addAccessors(ctx, uri, pos, true, true)
}

func (s *Session) addAccessors(ctx context.Context, uri string, pos protocol.Position, getter, setter bool) (*EditSet, error) {
	field, err := s.SymbolAt(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	if field.Kind != symbols.KindField {
		return nil, fmt.Errorf("%w: %s is not a member variable", ErrNotApplicable, field.Name)
	}
	class := field.ParentSymbol()
	if class == nil || !class.Kind.IsClassType() {
		return nil, fmt.Errorf("%w: %s has no enclosing class", ErrNotApplicable, field.Name)
	}
	naming := s.cfg.SynthNaming()

	var accessors []*synth.Accessor
	if getter {
		g, err := synth.NewGetter(ctx, s.ws, field, naming)
		if err != nil {
			return nil, err
		}
		if g != nil {
			accessors = append(accessors, g)
		}
	}
	if setter {
		st, err := synth.NewSetter(ctx, s.ws, field, naming)
		if err != nil {
			return nil, err
		}
		if st != nil {
			accessors = append(accessors, st)
		} else if !getter {
			return nil, fmt.Errorf("%w: %s cannot be assigned", ErrNotApplicable, field.Name)
		}
	}
	accessors = slices.DeleteFunc(accessors, func(a *synth.Accessor) bool {
		if hasMember(class, a.Name) {
			s.log.Debugf("%s already has a member named %s", class.Name, a.Name)
			return true
		}
		return false
	})
	if len(accessors) == 0 {
		return nil, fmt.Errorf("%w: no new accessor for %s", ErrNotApplicable, field.Name)
	}

	doc := class.Document()
	eol := doc.EOL()
	location := s.cfg.AccessorLocation()
	var members []string
	var definitions []string
	var target *placement
	for _, a := range accessors {
		if location == config.Inline {
			members = append(members, a.InlineDefinition(s.cfg.AccessorBraceStyle(), doc.IndentUnit(), eol))
			continue
		}
		members = append(members, a.Declaration())
		if target == nil {
			if target, err = s.placement(ctx, field, location); err != nil {
				return nil, err
			}
		}
		def, err := a.Definition(ctx, s.ws, target.doc, target.position(), s.cfg.AccessorBraceStyle(), synth.DefinitionOptions{Inline: s.ws.IsHeader(target.doc.URI())})
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}

	// A getter goes above an existing setter; a setter goes below an
	// existing getter.
	setterName := naming.SetterName(field.Name)
	relative := ""
	if accessors[0].Kind == synth.Getter && hasMember(class, setterName) {
		relative = setterName
	} else if getterName := naming.GetterName(field.Name, field.IsBooleanType()); accessors[0].Kind == synth.Setter && hasMember(class, getterName) {
		relative = getterName
	}
	in := class.FindPositionForNewMemberFunction(semantic.Public, relative, setterName)

	names := make([]string, len(accessors))
	for i, a := range accessors {
		names[i] = a.Name
	}
	set := &EditSet{Description: "Add " + strings.Join(names, ", ") + " for " + field.QualifiedName()}
	set.Edits = append(set.Edits, insertAt(doc, in.Offset, in.Text(strings.Join(members, "\n"), eol)))
	if target != nil {
		set.Edits = append(set.Edits, target.edit(strings.Join(definitions, target.doc.EOL()+target.doc.EOL())))
	}
	return set, nil
}

func hasMember(class *semantic.Symbol, name string) bool {
	for _, c := range class.Children() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// inlineBody replaces the semicolon of an in-class declaration with an empty
// body.
func inlineBody(decl *semantic.Symbol, style synth.BraceStyle) Edit {
	doc := decl.Document()
	indent := doc.LineOf(decl.DeclarationStart()).Indent
	body := synth.FormatFunction("", "", style, doc.IndentUnit(), doc.EOL())
	body = strings.ReplaceAll(body, doc.EOL(), doc.EOL()+indent)
	start, end := decl.DeclarationEnd(), decl.StatementEnd()
	if end < start {
		end = start
	}
	return Edit{
		URI:      doc.URI(),
		Offset:   start,
		Length:   end - start,
		Position: doc.PositionAt(start),
		Text:     body,
	}
}

func insertAt(doc *document.Document, offset int, text string) Edit {
	return Edit{URI: doc.URI(), Offset: offset, Position: doc.PositionAt(offset), Text: text}
}
