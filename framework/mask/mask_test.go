package mask

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskPreservesLengthAndLines(t *testing.T) {
	inputs := []string{
		"int a; // trailing { ; ::\nint b;",
		"/* block\n spanning { } lines */ void f();",
		`const char* s = "a { \" } ;"; char c = '}';`,
		"auto r = R\"x(raw ) \" ; {)x\";",
		"[[nodiscard]] int f(int a = (1 + (2)), std::map<int, std::vector<int>> m);",
		"unterminated /* comment",
		"unterminated \"string",
		"é // ünïcödé\r\nx",
	}
	all := NonSource | Brackets
	for _, in := range inputs {
		out := Mask(in, all)
		require.Equal(t, len(in), len(out), "length for %q", in)
		require.Equal(t, strings.Count(in, "\n"), strings.Count(out, "\n"), "lines for %q", in)
		require.Equal(t, strings.Count(in, "\r"), strings.Count(out, "\r"), "carriage returns for %q", in)
	}
}

func TestMaskLeavesUnmaskedBytesIdentical(t *testing.T) {
	in := "int a = 1; // note\nint b = 2;"
	out := Mask(in, Comments)
	assert.Equal(t, "int a = 1;        \nint b = 2;", out)
}

func TestStringsKeepQuotes(t *testing.T) {
	out := Mask(`f("a;b", 'x', 1'000);`, Strings)
	assert.Equal(t, `f("   ", ' ', 1'000);`, out)
}

func TestRawStringIsMasked(t *testing.T) {
	in := `auto s = R"sql(select ";" from t)sql"; int x;`
	out := Mask(in, Strings)
	assert.NotContains(t, out, "select")
	assert.True(t, strings.HasSuffix(out, `"; int x;`))
}

func TestAttributesAreMaskedEntirely(t *testing.T) {
	out := Mask("[[nodiscard, deprecated(\"x;\")]] int f(); __attribute__((unused)) int g;", NonSource)
	assert.Equal(t, strings.Repeat(" ", 31)+" int f(); "+strings.Repeat(" ", 23)+" int g;", out)
}

func TestNestedAngleBrackets(t *testing.T) {
	out := Mask("A<B<C>> x; bool y = a < b && c > d;", AngleBrackets)
	assert.Equal(t, "A<    > x; bool y = a < b && c > d;", out)
}

func TestAngleBracketsIgnoreOperatorsAndArrows(t *testing.T) {
	in := "auto f() -> Foo<int> { return a << 2; } bool operator<(X);"
	out := Mask(in, AngleBrackets)
	assert.Equal(t, "auto f() -> Foo<   > { return a << 2; } bool operator<(X);", out)
}

func TestParenthesesTrackDepth(t *testing.T) {
	out := Mask("f(a, (b), g(c)) + h(1)", Parentheses)
	assert.Equal(t, "f(            ) + h( )", out)
}

func TestBracesIgnoreCommentsAndStrings(t *testing.T) {
	in := "struct S { // }\n  const char* s = \"}\";\n};"
	out := Mask(in, Braces)
	require.Equal(t, len(in), len(out))
	assert.True(t, strings.HasPrefix(out, "struct S {"))
	assert.True(t, strings.HasSuffix(out, "\n};"))
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestUnterminatedBracketExtendsToEnd(t *testing.T) {
	out := Mask("void f(int a, int b", Parentheses)
	assert.Equal(t, "void f(            ", out)
}

func TestFillerInsideMaskedRegionDoesNotConfuse(t *testing.T) {
	out := MaskWith("f(\"(\") + g(x)", Strings|Parentheses, '(')
	assert.Equal(t, "f(((()+g(()", strings.ReplaceAll(out, " ", ""))
}

func TestLineCommentContinuation(t *testing.T) {
	in := "// a \\\n still comment\nint x;"
	out := Mask(in, Comments)
	assert.Equal(t, "      \n              \nint x;", out)
}

func TestRegionsReportTargets(t *testing.T) {
	regions := Regions("/* a */ int x; // b", Comments)
	require.Len(t, regions, 2)
	assert.Equal(t, BlockComments, regions[0].Target)
	assert.Equal(t, 0, regions[0].Start)
	assert.Equal(t, 7, regions[0].End)
	assert.Equal(t, LineComments, regions[1].Target)
}
