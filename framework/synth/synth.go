// Package synth turns refined symbols into new source text: out-of-line
// definitions, declarations and accessor members.
package synth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/mask"
	"github.com/lexcodex/cppsynth/framework/semantic"
)

// ErrNoParameterList is returned when a definition is requested for a
// declaration without a parameter list.
var ErrNoParameterList = errors.New("declaration has no parameter list")

// BraceStyle controls where the opening brace of a function body goes.
type BraceStyle string

const (
	SameLine BraceStyle = "same-line"
	NewLine  BraceStyle = "new-line"
	// Compact keeps a single-statement body on the signature line.
	Compact BraceStyle = "compact"
)

// Valid reports whether b is a known style.
func (b BraceStyle) Valid() bool {
	switch b {
	case SameLine, NewLine, Compact:
		return true
	}
	return false
}

// DefinitionOptions tune ToDefinition.
type DefinitionOptions struct {
	// Inline prefixes the definition with inline unless the declaration is
	// already inline, constexpr or consteval. Set it when the definition goes
	// to a header outside the class body.
	Inline bool
}

var (
	outOfLineLeading  = regexp.MustCompile(`\b(?:virtual|static|explicit|friend)\b\s*`)
	outOfLineTrailing = regexp.MustCompile(`\s*\b(?:override|final)\b`)
	pureSpecifier     = regexp.MustCompile(`\s*=\s*0\s*$`)
)

// ToDefinition rewrites the declaration of decl into the signature of its
// out-of-line definition as seen from pos in target: template clauses of
// qualified class templates are prepended, default arguments and specifiers
// that are illegal out of line are removed, the scope qualifier is inserted
// before the name and continuation lines aligned to the parameter list are
// re-aligned. The result has no body; see FormatFunction.
func ToDefinition(ctx context.Context, r semantic.Resolver, decl *semantic.Symbol, target *document.Document, pos protocol.Position, opts DefinitionOptions) (string, error) {
	doc := decl.Document()
	start := decl.DeclarationStart()
	text := strings.TrimRight(doc.Slice(decl.DeclarationSpan()), " \t\r\n;")
	masked := mask.Mask(text, mask.NonSource|mask.AngleBrackets)

	nameStart := clamp(decl.NamedScopesSpan().Start-start, len(text))
	nameEnd := clamp(decl.NameSpan().End-start, len(text))
	if nameEnd < nameStart {
		nameEnd = nameStart
	}
	open := strings.IndexByte(masked[nameEnd:], '(')
	if open < 0 {
		return "", ErrNoParameterList
	}
	open += nameEnd
	closing := matchParen(masked, open)
	if closing < 0 {
		return "", ErrNoParameterList
	}

	quals, err := decl.ScopeQualifiers(ctx, r, target, pos, false)
	if err != nil {
		return "", err
	}
	var scope strings.Builder
	for _, q := range quals {
		scope.WriteString(q.Text)
	}

	head, _ := removeAll(text[:nameStart], masked[:nameStart], outOfLineLeading)
	tail, tailMasked := removeAll(text[closing:], masked[closing:], outOfLineTrailing)
	tail, _ = removeAll(tail, tailMasked, pureSpecifier)

	var b strings.Builder
	if opts.Inline && !decl.IsInline() && !decl.IsConstexpr() && !decl.IsConsteval() {
		b.WriteString("inline ")
	}
	b.WriteString(head)
	b.WriteString(scope.String())
	b.WriteString(text[nameStart:open])
	newOpen := b.Len()
	b.WriteByte('(')
	b.WriteString(StripDefaults(text[open+1 : closing]))
	newClose := b.Len()
	b.WriteString(tail)

	line := doc.LineOf(start + open)
	oldColumn := start + open - line.Span.Start
	signature := realign(b.String(), newOpen, newClose, oldColumn, doc.LineOf(start).Indent)

	templates := templateLines(quals)
	for _, stmt := range decl.TemplateStatements() {
		templates = append(templates, stripTemplateDefaults(stmt))
	}
	if len(templates) == 0 {
		return signature, nil
	}
	eol := target.EOL()
	return strings.Join(templates, eol) + eol + signature, nil
}

// ToDeclaration returns the declaration of a definition: its text from the
// first template clause to the end of the signature with written qualifiers
// removed, terminated by a semicolon.
func ToDeclaration(def *semantic.Symbol) string {
	doc := def.Document()
	scopes := def.NamedScopesSpan()
	text := doc.Slice(document.Span{Start: def.TrueStart(), End: scopes.Start}) +
		doc.Slice(document.Span{Start: scopes.End, End: def.DeclarationEnd()})
	return strings.TrimSpace(strings.TrimRight(text, " \t\r\n;")) + ";"
}

// StripDefaults removes default arguments from a parameter list, keeping the
// original spelling and separators of everything else.
//
//	StripDefaults("int x = 5, std::vector<int> y = {1,2}") == "int x, std::vector<int> y"
func StripDefaults(params string) string {
	masked := mask.Mask(params, mask.NonSource|mask.Brackets)
	var b strings.Builder
	from := 0
	for i := 0; i <= len(masked); i++ {
		if i < len(masked) && masked[i] != ',' {
			continue
		}
		part, partMasked := params[from:i], masked[from:i]
		if eq := defaultAssign(partMasked); eq >= 0 {
			part = strings.TrimRight(part[:eq], " \t\r\n")
		}
		b.WriteString(part)
		if i < len(masked) {
			b.WriteByte(',')
		}
		from = i + 1
	}
	return b.String()
}

// defaultAssign finds the = introducing a default argument, skipping the
// comparison and compound operators that can appear in operator names.
func defaultAssign(masked string) int {
	for i := 0; i < len(masked); i++ {
		if masked[i] != '=' {
			continue
		}
		if i+1 < len(masked) && masked[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && strings.IndexByte("=!<>+-*/%&|^", masked[i-1]) >= 0 {
			continue
		}
		return i
	}
	return -1
}

// FormatFunction joins a signature and a body in the given brace style. The
// body is given without indentation; each of its lines is indented by
// indent. An empty body produces an empty block.
func FormatFunction(signature, body string, style BraceStyle, indent, eol string) string {
	body = strings.TrimSpace(body)
	if style == Compact && !strings.Contains(body, "\n") {
		if body == "" {
			return signature + " {}"
		}
		return signature + " { " + body + " }"
	}
	var b strings.Builder
	b.WriteString(signature)
	if style == NewLine {
		b.WriteString(eol + "{")
	} else {
		b.WriteString(" {")
	}
	b.WriteString(eol)
	if body != "" {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) != "" {
				b.WriteString(indent + line)
			}
			b.WriteString(eol)
		}
	}
	b.WriteString("}")
	return b.String()
}

// Indent prefixes every non-blank line of text with indent.
func Indent(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// templateLines returns the template clauses the emitted class-template
// qualifiers need, outermost first.
func templateLines(quals []semantic.Qualifier) []string {
	var out []string
	for _, q := range quals {
		if !q.Scope.IsTemplate() {
			continue
		}
		for _, stmt := range q.Scope.TemplateStatements() {
			out = append(out, stripTemplateDefaults(stmt))
		}
	}
	return out
}

// stripTemplateDefaults removes default template arguments, which may only
// appear on the first declaration.
func stripTemplateDefaults(stmt string) string {
	masked := mask.Mask(stmt, mask.NonSource|mask.AngleBrackets)
	open := strings.IndexByte(masked, '<')
	closing := strings.LastIndexByte(masked, '>')
	if open < 0 || closing <= open {
		return stmt
	}
	return stmt[:open+1] + StripDefaults(stmt[open+1:closing]) + stmt[closing:]
}

// realign re-indents the continuation lines of a signature. Lines inside the
// parameter list that were aligned one past the old open parenthesis are
// aligned one past the new one; all others lose the declaration's base
// indentation.
func realign(sig string, open, closing, oldColumn int, baseIndent string) string {
	lines := strings.Split(sig, "\n")
	if len(lines) == 1 {
		return sig
	}
	openLine := strings.Count(sig[:open], "\n")
	closeLine := strings.Count(sig[:closing], "\n")
	aligned := make([]bool, len(lines))
	for i := 1; i < len(lines); i++ {
		ws := leadingSpace(lines[i])
		if i > openLine && i <= closeLine && len(ws) == oldColumn+1 {
			aligned[i] = true
			lines[i] = lines[i][len(ws):]
			continue
		}
		lines[i] = strings.TrimPrefix(lines[i], baseIndent)
	}
	origin := strings.LastIndexByte(sig[:open], '\n') + 1
	original := strings.SplitN(sig[origin:], "\n", 2)[0]
	column := open - origin - (len(original) - len(lines[openLine]))
	pad := strings.Repeat(" ", column+1)
	for i, ok := range aligned {
		if ok {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// removeAll deletes every match of re in masked from both text and masked.
func removeAll(text, masked string, re *regexp.Regexp) (string, string) {
	locs := re.FindAllStringIndex(masked, -1)
	if len(locs) == 0 {
		return text, masked
	}
	var t, m strings.Builder
	last := 0
	for _, loc := range locs {
		t.WriteString(text[last:loc[0]])
		m.WriteString(masked[last:loc[0]])
		last = loc[1]
	}
	t.WriteString(text[last:])
	m.WriteString(masked[last:])
	return t.String(), m.String()
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1.
func matchParen(masked string, open int) int {
	depth := 0
	for i := open; i < len(masked); i++ {
		switch masked[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
