package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestTemplateBoundaryRecovery(t *testing.T) {
	text := "template<typename T> class Foo {};\n"
	tree := build(t, "file:///a.h", text, node{name: "Foo", kind: protocol.SymbolKindClass, from: "class Foo", to: "}"})
	foo := find(t, tree, "Foo")

	assert.Equal(t, 0, foo.TrueStart())
	assert.Equal(t, offsetOf(t, text, "class"), foo.DeclarationStart())
	assert.Equal(t, offsetOf(t, text, ";")+1, foo.TrueEnd())
	assert.True(t, foo.IsTemplate())
	assert.Equal(t, []string{"T"}, foo.TemplateParameterNames())
	assert.Equal(t, []string{"template<typename T>"}, foo.TemplateStatements())
}

func TestTemplateInsideRangeAndTrailingInstances(t *testing.T) {
	text := "template <typename T,\n          typename U = std::vector<T>>\nclass Foo {\n    T value;\n} foo1, foo2;\nint z;\n"
	tree := build(t, "file:///a.h", text, node{name: "Foo", kind: protocol.SymbolKindClass, from: "template", to: "}"})
	foo := find(t, tree, "Foo")

	assert.Equal(t, 0, foo.TrueStart())
	assert.Equal(t, offsetOf(t, text, "class Foo"), foo.DeclarationStart())
	assert.Equal(t, offsetOf(t, text, "foo2;")+len("foo2;"), foo.TrueEnd())
	assert.Equal(t, []string{"T", "U"}, foo.TemplateParameterNames())
	assert.Equal(t, "class Foo", foo.DeclarationText())
}

func TestVariadicTemplateParameters(t *testing.T) {
	text := "template <class K, typename... Vs, template <class> class C, int = 3>\nstruct Map { };\n"
	tree := build(t, "file:///a.h", text, node{name: "Map", kind: protocol.SymbolKindStruct, from: "template", to: "};"})
	assert.Equal(t, []string{"K", "Vs...", "C"}, find(t, tree, "Map").TemplateParameterNames())
}

func TestFunctionDeclarationAndBody(t *testing.T) {
	text := "int add(int a, int b = (1+2)) { return a + b; }\n"
	tree := build(t, "file:///a.cpp", text, node{name: "add", kind: protocol.SymbolKindFunction, from: "int add", to: "}"})
	add := find(t, tree, "add")

	assert.Equal(t, "int add(int a, int b = (1+2))", add.DeclarationText())
	require.True(t, add.HasBody())
	assert.Equal(t, offsetOf(t, text, "{"), add.BodyStart())
	assert.Equal(t, offsetOf(t, text, "}")+1, add.BodyEnd())
	assert.True(t, add.IsFunctionDefinition())
	assert.False(t, add.IsFunctionDeclaration())
}

func TestConstructorInitializerList(t *testing.T) {
	text := "class W {\npublic:\n    W(int v) : v_(v), w_{v} {}\n    int v_;\n    int w_;\n};\n"
	tree := build(t, "file:///w.h", text, node{
		name: "W", kind: protocol.SymbolKindClass, from: "class W", to: "};",
		children: []node{
			{name: "W", kind: protocol.SymbolKindConstructor, from: "W(int v)", to: "{}"},
			{name: "v_", kind: protocol.SymbolKindField, from: "int v_"},
			{name: "w_", kind: protocol.SymbolKindField, from: "int w_"},
		},
	})
	ctor := New(tree.Roots()[0].Children()[0], sourceFor(tree))

	require.True(t, ctor.IsConstructor())
	assert.Equal(t, "W(int v)", ctor.DeclarationText())
	assert.Equal(t, offsetOf(t, text, "{}"), ctor.BodyStart())
	assert.Equal(t, offsetOf(t, text, "{}")+2, ctor.BodyEnd())
}

func TestBodyIgnoresBracesInCommentsAndStrings(t *testing.T) {
	text := "void f() {\n    const char* s = \"}\"; // }\n}\nint g;\n"
	tree := build(t, "file:///a.cpp", text, node{name: "f", kind: protocol.SymbolKindFunction, from: "void f", to: "\n}"})
	f := find(t, tree, "f")
	assert.Equal(t, offsetOf(t, text, "\n}\n")+2, f.BodyEnd())
	assert.Equal(t, "void f()", f.DeclarationText())
}

func TestPredicates(t *testing.T) {
	text := `class Shape {
public:
    virtual ~Shape() = default;
    virtual double area() const = 0;
    int sides() const override;
    static constexpr unsigned long kMax = 4;
    const char* name;
    char* const label;
    std::string& ref;
    void reset() = delete;
    inline bool valid() const { return true; }
    static Shape* make(int n = 3);
};
`
	tree := build(t, "file:///shape.h", text, node{
		name: "Shape", kind: protocol.SymbolKindClass, from: "class Shape", to: "};",
		children: []node{
			{name: "~Shape", kind: protocol.SymbolKindMethod, from: "virtual ~Shape", to: "default"},
			{name: "area", kind: protocol.SymbolKindMethod, from: "virtual double area", to: "= 0"},
			{name: "sides", kind: protocol.SymbolKindMethod, from: "int sides", to: "override"},
			{name: "kMax", kind: protocol.SymbolKindField, from: "static constexpr", to: "4"},
			{name: "name", kind: protocol.SymbolKindField, from: "const char* name"},
			{name: "label", kind: protocol.SymbolKindField, from: "char* const label"},
			{name: "ref", kind: protocol.SymbolKindField, from: "std::string& ref"},
			{name: "reset", kind: protocol.SymbolKindMethod, from: "void reset", to: "delete"},
			{name: "valid", kind: protocol.SymbolKindMethod, from: "inline bool valid", to: "}"},
			{name: "make", kind: protocol.SymbolKindMethod, from: "static Shape* make", to: ")"},
		},
	})

	dtor := find(t, tree, "~Shape")
	assert.True(t, dtor.IsDestructor())
	assert.False(t, dtor.IsConstructor())
	assert.True(t, dtor.IsVirtual())
	assert.True(t, dtor.IsDeletedOrDefaulted())

	area := find(t, tree, "area")
	assert.True(t, area.IsPureVirtual())
	assert.True(t, area.IsConst())
	assert.True(t, area.IsVirtual())
	assert.Equal(t, "double", area.LeadingType())

	sides := find(t, tree, "sides")
	assert.True(t, sides.IsVirtual())
	assert.True(t, sides.IsConst())
	assert.False(t, sides.IsPureVirtual())

	kMax := find(t, tree, "kMax")
	assert.True(t, kMax.IsStatic())
	assert.True(t, kMax.IsConstexpr())
	assert.True(t, kMax.IsConst())
	assert.Equal(t, "unsigned long", kMax.LeadingType())
	primitive, err := kMax.IsPrimitive(t.Context(), nil, false)
	require.NoError(t, err)
	assert.True(t, primitive)

	name := find(t, tree, "name")
	assert.False(t, name.IsConst())
	assert.True(t, name.IsPointer())
	assert.Equal(t, "const char*", name.LeadingType())
	assert.True(t, name.HasUnspecifiedStorage())

	label := find(t, tree, "label")
	assert.True(t, label.IsConst())
	assert.True(t, label.IsPointer())

	ref := find(t, tree, "ref")
	assert.True(t, ref.IsReference())
	assert.Equal(t, "std::string&", ref.LeadingType())
	assert.Empty(t, ref.NamedScopes())

	reset := find(t, tree, "reset")
	assert.True(t, reset.IsDeletedOrDefaulted())
	assert.False(t, reset.IsVirtual())

	valid := find(t, tree, "valid")
	assert.True(t, valid.IsInline())
	assert.True(t, valid.IsConst())
	assert.True(t, valid.IsBooleanType())
	assert.True(t, valid.IsFunctionDefinition())

	factory := find(t, tree, "make")
	assert.True(t, factory.IsStatic())
	assert.True(t, factory.IsPointer())
	assert.True(t, factory.IsFunctionDeclaration())
	assert.False(t, factory.IsOperator())
}

func TestLeadingAndTrailingComments(t *testing.T) {
	text := "// file header\n\n// Computes things.\n/* More detail. */\nint compute(); // trailing note\nint x; // about x\nint y;\n"
	tree := build(t, "file:///a.h", text,
		node{name: "compute", kind: protocol.SymbolKindFunction, from: "int compute()"},
		node{name: "x", kind: protocol.SymbolKindVariable, from: "int x"},
		node{name: "y", kind: protocol.SymbolKindVariable, from: "int y"},
	)

	compute := find(t, tree, "compute")
	assert.Equal(t, offsetOf(t, text, "// Computes"), compute.LeadingCommentStart())
	assert.Equal(t, offsetOf(t, text, "int compute();")+len("int compute();"), compute.StatementEnd())
	assert.Equal(t, offsetOf(t, text, "\nint x"), compute.TrailingCommentEnd())

	y := find(t, tree, "y")
	assert.Equal(t, y.TrueStart(), y.LeadingCommentStart())
}

func TestNamedScopesOfOutOfLineDefinition(t *testing.T) {
	text := "int app::Widget::count() const { return 1; }\n"
	tree := build(t, "file:///w.cpp", text, node{
		name: "app::Widget::count", kind: protocol.SymbolKindMethod,
		from: "int app", to: "}", sel: "app::Widget::count",
	})
	count := find(t, tree, "count")
	assert.Equal(t, "app::Widget::", count.NamedScopes())
	assert.Equal(t, []string{"app", "Widget"}, count.AllScopes())
	assert.Equal(t, "int", count.LeadingType())
	assert.True(t, count.IsConst())

	scope, ok := count.ImmediateScope()
	require.True(t, ok)
	assert.Equal(t, "Widget", tree.Document().Slice(scope.Selection))
}

func TestBaseClasses(t *testing.T) {
	text := "class D : public Base<int>, private ns::Other, virtual V {};\n"
	tree := build(t, "file:///d.h", text, node{name: "D", kind: protocol.SymbolKindClass, from: "class D", to: "};"})
	bases := find(t, tree, "D").BaseClasses()
	require.Len(t, bases, 3)
	doc := tree.Document()
	assert.Equal(t, "public Base<int>", bases[0].Text)
	assert.Equal(t, "Base", doc.Slice(bases[0].Selection))
	assert.Equal(t, "private ns::Other", bases[1].Text)
	assert.Equal(t, "Other", doc.Slice(bases[1].Selection))
	assert.Equal(t, "V", doc.Slice(bases[2].Selection))
}

func TestIsPrimitiveResolvesAliases(t *testing.T) {
	text := `using Count = unsigned;
typedef Count Total;
enum Mode { A, B };
using Loop = Loop2;
using Loop2 = Loop;
struct S {
    Total total;
    Mode mode;
    Loop loop;
    std::string text;
};
`
	tree := build(t, "file:///types.h", text,
		node{name: "Count", kind: protocol.SymbolKindClass, from: "using Count = unsigned"},
		node{name: "Total", kind: protocol.SymbolKindClass, from: "typedef Count Total"},
		node{name: "Mode", kind: protocol.SymbolKindEnum, from: "enum Mode", to: "}"},
		node{name: "Loop", kind: protocol.SymbolKindClass, from: "using Loop = Loop2"},
		node{name: "Loop2", kind: protocol.SymbolKindClass, from: "using Loop2 = Loop"},
		node{name: "S", kind: protocol.SymbolKindStruct, from: "struct S", to: "};", children: []node{
			{name: "total", kind: protocol.SymbolKindField, from: "Total total"},
			{name: "mode", kind: protocol.SymbolKindField, from: "Mode mode"},
			{name: "loop", kind: protocol.SymbolKindField, from: "Loop loop"},
			{name: "text", kind: protocol.SymbolKindField, from: "std::string text"},
		}},
	)
	r := newFakeResolver(tree)
	ctx := t.Context()

	assert.Equal(t, "unsigned", find(t, tree, "Count").AliasedType())
	assert.Equal(t, "Count", find(t, tree, "Total").AliasedType())

	cases := map[string]bool{"total": true, "mode": true, "loop": false, "text": false}
	for name, want := range cases {
		got, err := find(t, tree, name).IsPrimitive(ctx, r, true)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	got, err := find(t, tree, "total").IsPrimitive(ctx, r, false)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestParentClassOfOutOfLineDefinition(t *testing.T) {
	header := build(t, "file:///w.h", "class Widget {\n    int count() const;\n};\n", node{
		name: "Widget", kind: protocol.SymbolKindClass, from: "class Widget", to: "};",
		children: []node{{name: "count", kind: protocol.SymbolKindMethod, from: "int count() const"}},
	})
	source := build(t, "file:///w.cpp", "int Widget::count() const { return 1; }\n", node{
		name: "Widget::count", kind: protocol.SymbolKindMethod, from: "int Widget", to: "}", sel: "Widget::count",
	})
	r := newFakeResolver(header, source)

	class, err := find(t, source, "count").ParentClass(t.Context(), r)
	require.NoError(t, err)
	require.NotNil(t, class)
	assert.Equal(t, "Widget", class.Name)

	class, err = find(t, header, "count").ParentClass(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Widget", class.Name)
}
