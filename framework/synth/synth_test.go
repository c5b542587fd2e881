package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

const widget = `namespace app {
class Widget {
public:
    virtual int resize(int width = 10,
                       int height = 20) const override;
    static int instances(bool live = true);
    inline void touch();
    int count() const;
    int m_count;
};
}
`

func widgetFixture(t *testing.T) fixture {
	return parse(t, "file:///widget.h", widget,
		node{name: "app", kind: protocol.SymbolKindNamespace, from: "namespace app", to: "};\n}", children: []node{
			{name: "Widget", kind: protocol.SymbolKindClass, from: "class Widget", to: "};", children: []node{
				{name: "resize", kind: protocol.SymbolKindMethod, from: "virtual int resize", to: "override"},
				{name: "instances", kind: protocol.SymbolKindMethod, from: "static int instances", to: "true)"},
				{name: "touch", kind: protocol.SymbolKindMethod, from: "inline void touch()"},
				{name: "count", kind: protocol.SymbolKindMethod, from: "int count() const"},
				{name: "m_count", kind: protocol.SymbolKindField, from: "int m_count"},
			}},
		}},
	)
}

func TestToDefinitionStripsAndQualifies(t *testing.T) {
	f := widgetFixture(t)
	target := parse(t, "file:///widget.cpp", "#include \"widget.h\"\n").doc()
	ctx := t.Context()

	tests := []struct {
		name   string
		inline bool
		want   string
	}{
		{name: "resize", want: "int app::Widget::resize(int width,\n                        int height) const"},
		{name: "instances", want: "int app::Widget::instances(bool live)"},
		{name: "instances", inline: true, want: "inline int app::Widget::instances(bool live)"},
		{name: "touch", inline: true, want: "inline void app::Widget::touch()"},
		{name: "count", want: "int app::Widget::count() const"},
	}
	for _, tt := range tests {
		got, err := ToDefinition(ctx, nil, f.find(t, tt.name), target, endOf(target), DefinitionOptions{Inline: tt.inline})
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestToDefinitionInsideReopenedNamespace(t *testing.T) {
	f := widgetFixture(t)
	text := "#include \"widget.h\"\nnamespace app {\n\n}\n"
	source := parse(t, "file:///widget.cpp", text,
		node{name: "app", kind: protocol.SymbolKindNamespace, from: "namespace app", to: "\n}"},
	)
	target := source.doc()
	inside := target.PositionAt(len("#include \"widget.h\"\nnamespace app {\n"))

	got, err := ToDefinition(t.Context(), resolverOf(f, source), f.find(t, "count"), target, inside, DefinitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "int Widget::count() const", got)

	got, err = ToDefinition(t.Context(), resolverOf(f, source), f.find(t, "count"), target, endOf(target), DefinitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "int app::Widget::count() const", got)
}

func TestToDefinitionWithoutParameterList(t *testing.T) {
	f := widgetFixture(t)
	_, err := ToDefinition(t.Context(), nil, f.find(t, "m_count"), f.doc(), endOf(f.doc()), DefinitionOptions{})
	require.ErrorIs(t, err, ErrNoParameterList)
}

func TestToDefinitionDropsPureAndExplicit(t *testing.T) {
	text := "struct Shape {\n    virtual void draw() const = 0;\n    explicit Shape(int sides = 3);\n};\n"
	f := parse(t, "file:///shape.h", text,
		node{name: "Shape", kind: protocol.SymbolKindStruct, from: "struct Shape", to: "};", children: []node{
			{name: "draw", kind: protocol.SymbolKindMethod, from: "virtual void draw", to: "= 0"},
			{name: "Shape", kind: protocol.SymbolKindConstructor, from: "explicit Shape", to: "= 3)"},
		}},
	)
	shape := f.find(t, "Shape")
	children := shape.ChildSymbols()
	require.Len(t, children, 2)
	target := parse(t, "file:///shape.cpp", "").doc()

	got, err := ToDefinition(t.Context(), nil, children[0], target, endOf(target), DefinitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "void Shape::draw() const", got)

	got, err = ToDefinition(t.Context(), nil, children[1], target, endOf(target), DefinitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Shape::Shape(int sides)", got)
}

func TestToDefinitionDedentsUnalignedContinuation(t *testing.T) {
	text := "class Layout {\n    void configure(\n        int depth);\n};\n"
	f := parse(t, "file:///layout.h", text,
		node{name: "Layout", kind: protocol.SymbolKindClass, from: "class Layout", to: "};", children: []node{
			{name: "configure", kind: protocol.SymbolKindMethod, from: "void configure(", to: "int depth)"},
		}},
	)
	target := parse(t, "file:///layout.cpp", "").doc()
	got, err := ToDefinition(t.Context(), nil, f.find(t, "configure"), target, endOf(target), DefinitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "void Layout::configure(\n    int depth)", got)
}

func TestToDefinitionOfTemplateMember(t *testing.T) {
	text := `template <typename T, typename A = std::allocator<T>>
class Box {
public:
    template <class U = int>
    void put(U value = U());
};
`
	f := parse(t, "file:///box.h", text,
		node{name: "Box", kind: protocol.SymbolKindClass, from: "class Box", to: "};", children: []node{
			{name: "put", kind: protocol.SymbolKindMethod, from: "void put", to: "U())"},
		}},
	)
	target := parse(t, "file:///box.cpp", "").doc()
	got, err := ToDefinition(t.Context(), nil, f.find(t, "put"), target, endOf(target), DefinitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "template <typename T, typename A>\ntemplate <class U>\nvoid Box<T, A>::put(U value)", got)
}

func TestDeclarationRoundTrip(t *testing.T) {
	f := widgetFixture(t)
	count := f.find(t, "count")
	target := parse(t, "file:///widget.cpp", "").doc()
	sig, err := ToDefinition(t.Context(), nil, count, target, endOf(target), DefinitionOptions{})
	require.NoError(t, err)

	text := FormatFunction(sig, "return m_count;", SameLine, "    ", "\n") + "\n"
	def := parse(t, "file:///widget.cpp", text,
		node{name: "count", kind: protocol.SymbolKindMethod, from: "int app::", to: "}"},
	)
	assert.Equal(t, count.DeclarationText()+";", ToDeclaration(def.find(t, "count")))
}

func TestStripDefaults(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"int x = 5, std::vector<int> y = {1,2}", "int x, std::vector<int> y"},
		{"const char* s = \"a,b\", int n = 1", "const char* s, int n"},
		{"std::function<void(int)> f = nullptr", "std::function<void(int)> f"},
		{"int flags = A | B,\n    bool strict = false", "int flags,\n    bool strict"},
		{"int x, int y", "int x, int y"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripDefaults(tt.in), tt.in)
	}
}

func TestFormatFunction(t *testing.T) {
	sig := "int A::f() const"
	assert.Equal(t, "int A::f() const {\n    return 1;\n}", FormatFunction(sig, "return 1;", SameLine, "    ", "\n"))
	assert.Equal(t, "int A::f() const\r\n{\r\n\treturn 1;\r\n}", FormatFunction(sig, "return 1;", NewLine, "\t", "\r\n"))
	assert.Equal(t, "int A::f() const { return 1; }", FormatFunction(sig, "return 1;", Compact, "    ", "\n"))
	assert.Equal(t, "int A::f() const {}", FormatFunction(sig, "", Compact, "    ", "\n"))
	assert.Equal(t, "int A::f() const {\n}", FormatFunction(sig, "", SameLine, "    ", "\n"))
	assert.Equal(t, "void g() {\n    a();\n\n    b();\n}", FormatFunction("void g()", "a();\n\nb();", Compact, "    ", "\n"))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "    int f() {\n        return 1;\n    }\n", Indent("int f() {\n    return 1;\n}\n", "    "))
}
