package semantic

import (
	"fmt"
	"strings"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// Access is a member access level.
type Access int

const (
	Public Access = iota
	Protected
	Private
)

func (a Access) String() string {
	switch a {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// ParseAccess parses "public", "protected" or "private".
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return Public, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return Public, fmt.Errorf("unknown access level %q", s)
}

// DefaultAccess is private for classes and public for structs and unions.
func (s *Symbol) DefaultAccess() Access {
	if s.Kind == symbols.KindClass {
		return Private
	}
	return Public
}

type accessLabel struct {
	level      Access
	start, end int
}

// accessLabels finds the access specifiers of the body. Nested members and
// parenthesized text are blanked first so labels inside nested classes and
// colons in macro arguments do not count.
func (s *Symbol) accessLabels() []accessLabel {
	if !s.Kind.IsClassType() || !s.HasBody() {
		return nil
	}
	content := s.BodyContent()
	body := []byte(slice(s.src.Structural(), content.Start, content.End))
	for _, child := range s.ChildSymbols() {
		from, to := clampSpan(string(body), child.TrueStart()-content.Start, child.TrueEnd()-content.Start)
		for i := from; i < to; i++ {
			if body[i] != '\n' && body[i] != '\r' {
				body[i] = ' '
			}
		}
	}
	text := string(body)
	var out []accessLabel
	for _, m := range accessSpecifier.FindAllStringSubmatchIndex(text, -1) {
		if m[1] < len(text) && text[m[1]] == ':' {
			continue
		}
		level, err := ParseAccess(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		out = append(out, accessLabel{level: level, start: content.Start + m[0], end: content.Start + m[1]})
	}
	return out
}

// RangesOfAccess partitions the class body by access level and returns the
// regions under level, in order. Label text is excluded from the regions.
func (s *Symbol) RangesOfAccess(level Access) []document.Span {
	if !s.Kind.IsClassType() || !s.HasBody() {
		return nil
	}
	content := s.BodyContent()
	current, from := s.DefaultAccess(), content.Start
	var out []document.Span
	for _, label := range s.accessLabels() {
		if current == level && (label.start > from || from > content.Start) {
			out = append(out, document.Span{Start: from, End: label.start})
		}
		current, from = label.level, label.end
	}
	if current == level {
		out = append(out, document.Span{Start: from, End: content.End})
	}
	return out
}

// Placement says how an insertion relates to the text at its offset.
type Placement int

const (
	// After places the new member on a new line after the offset.
	After Placement = iota
	// Before places the new member on its own line starting at the offset.
	Before
)

// Insertion is where a new member goes inside a class body.
type Insertion struct {
	Offset    int
	Placement Placement
	// Indent is the indentation of the new member.
	Indent string
	// AccessLabel is set when no region of the requested level exists and a
	// label must be written in front of the member.
	AccessLabel string
	LabelIndent string
	// CloseLine is set when the offset is followed by text on the same line
	// that must move to a new line, such as a closing brace.
	CloseLine   bool
	CloseIndent string
}

// Text renders member for this insertion.
func (in Insertion) Text(member, eol string) string {
	var b strings.Builder
	lines := strings.Split(member, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	body := in.Indent + strings.Join(lines, eol+in.Indent)
	switch in.Placement {
	case Before:
		b.WriteString(body)
		b.WriteString(eol)
	default:
		b.WriteString(eol)
		if in.AccessLabel != "" {
			b.WriteString(in.LabelIndent + in.AccessLabel + eol)
		}
		b.WriteString(body)
		if in.CloseLine {
			b.WriteString(eol + in.CloseIndent)
		}
	}
	return b.String()
}

// FindPositionForNewMemberFunction proposes where a new member function of
// the given access level goes. When relativeName names an existing member,
// the function is placed next to it: before it when relativeName equals
// setterName (a getter goes above its setter), after it otherwise. Failing
// that it goes after the last member inside a region of the level, then at
// the end of such a region, then at the end of the body under a new label.
func (s *Symbol) FindPositionForNewMemberFunction(level Access, relativeName, setterName string) Insertion {
	if !s.Kind.IsClassType() || !s.HasBody() {
		return Insertion{Offset: s.StatementEnd(), Indent: s.lineIndent(s.TrueStart())}
	}
	children := s.ChildSymbols()
	if relativeName != "" {
		for _, c := range children {
			if c.Name != relativeName {
				continue
			}
			if setterName != "" && relativeName == setterName {
				return Insertion{
					Offset:    s.src.doc.LineOf(c.LeadingCommentStart()).Span.Start,
					Placement: Before,
					Indent:    s.lineIndent(c.TrueStart()),
				}
			}
			return s.after(c)
		}
	}

	ranges := s.RangesOfAccess(level)
	var last *Symbol
	for _, c := range children {
		end := c.TrailingCommentEnd()
		for _, r := range ranges {
			if end > r.Start && end <= r.End {
				last = c
			}
		}
	}
	if last != nil {
		return s.after(last)
	}

	indent := s.memberIndent(children)
	content := s.BodyContent()
	if len(ranges) > 0 {
		r := ranges[len(ranges)-1]
		return s.appendAt(s.lastNonSpace(r.Start, r.End), indent, "")
	}
	label := level.String() + ":"
	return s.appendAt(s.lastNonSpace(content.Start, content.End), indent, label)
}

func (s *Symbol) after(c *Symbol) Insertion {
	return Insertion{Offset: c.TrailingCommentEnd(), Placement: After, Indent: s.lineIndent(c.TrueStart())}
}

// appendAt inserts after offset, moving anything that follows on the same
// line (the closing brace of a one-line body) to its own line.
func (s *Symbol) appendAt(offset int, indent, label string) Insertion {
	doc := s.src.doc
	line := doc.LineOf(offset)
	rest := strings.TrimSpace(doc.Slice(document.Span{Start: offset, End: line.Span.End}))
	classIndent := s.lineIndent(s.TrueStart())
	return Insertion{
		Offset:      offset,
		Placement:   After,
		Indent:      indent,
		AccessLabel: label,
		LabelIndent: classIndent,
		CloseLine:   rest != "",
		CloseIndent: classIndent,
	}
}

// lastNonSpace returns the offset just past the last non-blank character of
// [start, end), or start.
func (s *Symbol) lastNonSpace(start, end int) int {
	text := s.src.doc.Text()
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return end
}

func (s *Symbol) lineIndent(offset int) string {
	return s.src.doc.LineOf(offset).Indent
}

func (s *Symbol) memberIndent(children []*Symbol) string {
	for _, c := range children {
		line := s.src.doc.LineOf(c.TrueStart())
		if line.FirstNonWhitespace+line.Span.Start == c.TrueStart() {
			return line.Indent
		}
	}
	return s.lineIndent(s.TrueStart()) + s.src.doc.IndentUnit()
}
