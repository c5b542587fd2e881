// Package document provides the read-only text view the synthesis engine
// borrows from the editor: line/offset conversion, end-of-line style and a
// file identity. Offsets are byte offsets into the text; positions follow
// the LSP convention of zero-based lines and UTF-16 character columns.
package document

import (
	"os"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool { return s.End <= s.Start }

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool { return offset >= s.Start && offset < s.End }

// ContainsSpan reports whether other is nested within s.
func (s Span) ContainsSpan(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Line describes a single line of the document without its terminator.
type Line struct {
	Number int
	Text   string
	Span   Span
	// Indent is the leading whitespace of the line.
	Indent string
	// FirstNonWhitespace is the byte column of the first non-blank character.
	FirstNonWhitespace int
	IsBlank            bool
}

// Document is an immutable text buffer.
type Document struct {
	uri   string
	text  string
	lines []int
	eol   string
}

// New builds a document over text identified by documentURI.
func New(documentURI, text string) *Document {
	d := &Document{uri: documentURI, text: text, eol: "\n"}
	d.lines = append(d.lines, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			d.lines = append(d.lines, i+1)
		}
	}
	if idx := strings.IndexByte(text, '\n'); idx > 0 && text[idx-1] == '\r' {
		d.eol = "\r\n"
	}
	return d
}

// Open reads a document from disk.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(URIFromPath(path), string(data)), nil
}

// URIFromPath converts a filesystem path to a file:// URI.
func URIFromPath(path string) string {
	return string(uri.File(path))
}

// PathFromURI converts a file:// URI back to a filesystem path.
func PathFromURI(documentURI string) string {
	if !strings.HasPrefix(documentURI, "file://") {
		return documentURI
	}
	return uri.URI(documentURI).Filename()
}

// URI returns the document identity.
func (d *Document) URI() string { return d.uri }

// Path returns the filesystem path behind the URI.
func (d *Document) Path() string { return PathFromURI(d.uri) }

// Text returns the full text.
func (d *Document) Text() string { return d.text }

// Len returns the text length in bytes.
func (d *Document) Len() int { return len(d.text) }

// EOL returns the end-of-line sequence used by the document.
func (d *Document) EOL() string { return d.eol }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// Slice returns the text covered by span, clamped to the document.
func (d *Document) Slice(s Span) string {
	start, end := d.clamp(s.Start), d.clamp(s.End)
	if end < start {
		return ""
	}
	return d.text[start:end]
}

// GetText returns the text covered by r.
func (d *Document) GetText(r protocol.Range) string {
	return d.Slice(d.SpanOf(r))
}

// LineAt returns the line with the given zero-based number.
func (d *Document) LineAt(line int) Line {
	if line < 0 {
		line = 0
	}
	if line >= len(d.lines) {
		line = len(d.lines) - 1
	}
	start := d.lines[line]
	end := len(d.text)
	if line+1 < len(d.lines) {
		end = d.lines[line+1] - 1
	}
	if end > start && d.text[end-1] == '\r' {
		end--
	}
	text := d.text[start:end]
	trimmed := strings.TrimLeft(text, " \t")
	indent := text[:len(text)-len(trimmed)]
	return Line{
		Number:             line,
		Text:               text,
		Span:               Span{Start: start, End: end},
		Indent:             indent,
		FirstNonWhitespace: len(indent),
		IsBlank:            trimmed == "",
	}
}

// LineOf returns the line containing offset.
func (d *Document) LineOf(offset int) Line {
	return d.LineAt(d.lineIndex(d.clamp(offset)))
}

// OffsetAt converts an LSP position to a byte offset.
func (d *Document) OffsetAt(p protocol.Position) int {
	line := int(p.Line)
	if line >= len(d.lines) {
		return len(d.text)
	}
	l := d.LineAt(line)
	units := int(p.Character)
	offset := l.Span.Start
	for offset < l.Span.End && units > 0 {
		r, size := utf8.DecodeRuneInString(d.text[offset:])
		units -= utf16.RuneLen(r)
		if units < 0 {
			break
		}
		offset += size
	}
	return offset
}

// PositionAt converts a byte offset to an LSP position.
func (d *Document) PositionAt(offset int) protocol.Position {
	offset = d.clamp(offset)
	line := d.lineIndex(offset)
	units := 0
	for i := d.lines[line]; i < offset; {
		r, size := utf8.DecodeRuneInString(d.text[i:])
		units += utf16.RuneLen(r)
		i += size
	}
	return protocol.Position{Line: uint32(line), Character: uint32(units)}
}

// RangeOf converts a span to an LSP range.
func (d *Document) RangeOf(s Span) protocol.Range {
	return protocol.Range{Start: d.PositionAt(s.Start), End: d.PositionAt(s.End)}
}

// SpanOf converts an LSP range to a span.
func (d *Document) SpanOf(r protocol.Range) Span {
	return Span{Start: d.OffsetAt(r.Start), End: d.OffsetAt(r.End)}
}

// IndentUnit guesses the indentation unit: a tab when the first indented
// line starts with one, otherwise the smallest run of leading spaces.
func (d *Document) IndentUnit() string {
	smallest := 0
	for i := range d.lines {
		l := d.LineAt(i)
		if l.IsBlank || l.Indent == "" {
			continue
		}
		if l.Indent[0] == '\t' {
			if smallest == 0 {
				return "\t"
			}
			continue
		}
		n := len(l.Indent) - len(strings.TrimLeft(l.Indent, " "))
		if n > 0 && (smallest == 0 || n < smallest) {
			smallest = n
		}
	}
	if smallest == 0 {
		smallest = 4
	}
	return strings.Repeat(" ", smallest)
}

func (d *Document) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.text) {
		return len(d.text)
	}
	return offset
}

func (d *Document) lineIndex(offset int) int {
	lo, hi := 0, len(d.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.lines[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
