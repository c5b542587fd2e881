package document

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestOffsetPositionRoundTrip(t *testing.T) {
	doc := New("file:///tmp/a.h", "int a;\n  int b;\nint c;")
	require.Equal(t, 3, doc.LineCount())

	pos := doc.PositionAt(9)
	require.Equal(t, protocol.Position{Line: 1, Character: 2}, pos)
	require.Equal(t, 9, doc.OffsetAt(pos))

	require.Equal(t, "int b;", doc.GetText(protocol.Range{
		Start: protocol.Position{Line: 1, Character: 2},
		End:   protocol.Position{Line: 1, Character: 8},
	}))
}

func TestPositionUsesUTF16Columns(t *testing.T) {
	doc := New("file:///tmp/a.cpp", "// é𝄞\nx")
	end := doc.LineAt(0).Span.End
	// "// " = 3, "é" = 1 unit, "𝄞" = 2 units.
	require.Equal(t, uint32(6), doc.PositionAt(end).Character)
	require.Equal(t, end, doc.OffsetAt(protocol.Position{Line: 0, Character: 6}))
}

func TestLineAtReportsIndentation(t *testing.T) {
	doc := New("file:///tmp/a.h", "class A {\r\n\tint a;\r\n};\r\n")
	require.Equal(t, "\r\n", doc.EOL())

	line := doc.LineAt(1)
	require.Equal(t, "\tint a;", line.Text)
	require.Equal(t, "\t", line.Indent)
	require.False(t, line.IsBlank)
	require.Equal(t, "\t", doc.IndentUnit())
}

func TestIndentUnitDefaultsToFourSpaces(t *testing.T) {
	require.Equal(t, "    ", New("file:///tmp/a.h", "int a;").IndentUnit())
	require.Equal(t, "  ", New("file:///tmp/a.h", "struct A {\n  int a;\n    int b;\n};").IndentUnit())
}

func TestLineOfClampsOffsets(t *testing.T) {
	doc := New("file:///tmp/a.h", "a\nb")
	require.Equal(t, 1, doc.LineOf(100).Number)
	require.Equal(t, 0, doc.LineOf(-4).Number)
}
