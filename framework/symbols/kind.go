package symbols

import "go.lsp.dev/protocol"

// Kind is the unified classification of a C++ construct.
type Kind int

const (
	KindOther Kind = iota
	KindNamespace
	KindClass
	KindStruct
	KindUnion
	KindEnum
	KindEnumerator
	KindFunction
	KindMethod
	KindVariable
	KindField
	KindTypedef
	KindTypeAlias
	KindMacro
)

var kindNames = map[Kind]string{
	KindOther:      "other",
	KindNamespace:  "namespace",
	KindClass:      "class",
	KindStruct:     "struct",
	KindUnion:      "union",
	KindEnum:       "enum",
	KindEnumerator: "enumerator",
	KindFunction:   "function",
	KindMethod:     "method",
	KindVariable:   "variable",
	KindField:      "field",
	KindTypedef:    "typedef",
	KindTypeAlias:  "alias",
	KindMacro:      "macro",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// IsClassType reports class, struct and union.
func (k Kind) IsClassType() bool {
	return k == KindClass || k == KindStruct || k == KindUnion
}

// IsFunction reports free functions and methods.
func (k Kind) IsFunction() bool { return k == KindFunction || k == KindMethod }

// IsVariable reports variables and fields.
func (k Kind) IsVariable() bool { return k == KindVariable || k == KindField }

// IsTypeAlias reports typedefs and using-aliases.
func (k Kind) IsTypeAlias() bool { return k == KindTypedef || k == KindTypeAlias }

// IsType reports every kind that names a type.
func (k Kind) IsType() bool { return k.IsClassType() || k == KindEnum || k.IsTypeAlias() }

// Category groups kinds that can stand for each other across documents, e.g.
// a field declared in a class and the variable defining it in a source file.
func (k Kind) Category() string {
	switch {
	case k.IsClassType():
		return "class"
	case k.IsFunction():
		return "function"
	case k.IsVariable():
		return "variable"
	case k.IsTypeAlias():
		return "alias"
	default:
		return k.String()
	}
}

// fromLSP gives the classification implied by the analyzer's kind alone.
func fromLSP(kind protocol.SymbolKind) Kind {
	switch kind {
	case protocol.SymbolKindNamespace, protocol.SymbolKindModule, protocol.SymbolKindPackage:
		return KindNamespace
	case protocol.SymbolKindClass, protocol.SymbolKindInterface:
		return KindClass
	case protocol.SymbolKindStruct:
		return KindStruct
	case protocol.SymbolKindEnum:
		return KindEnum
	case protocol.SymbolKindEnumMember:
		return KindEnumerator
	case protocol.SymbolKindFunction:
		return KindFunction
	case protocol.SymbolKindMethod, protocol.SymbolKindConstructor, protocol.SymbolKindOperator:
		return KindMethod
	case protocol.SymbolKindField, protocol.SymbolKindProperty:
		return KindField
	case protocol.SymbolKindVariable, protocol.SymbolKindConstant:
		return KindVariable
	default:
		return KindOther
	}
}

// ToLSP maps a unified kind back to the closest analyzer kind.
func (k Kind) ToLSP() protocol.SymbolKind {
	switch k {
	case KindNamespace:
		return protocol.SymbolKindNamespace
	case KindClass, KindUnion, KindTypedef, KindTypeAlias:
		return protocol.SymbolKindClass
	case KindStruct:
		return protocol.SymbolKindStruct
	case KindEnum:
		return protocol.SymbolKindEnum
	case KindEnumerator:
		return protocol.SymbolKindEnumMember
	case KindFunction:
		return protocol.SymbolKindFunction
	case KindMethod:
		return protocol.SymbolKindMethod
	case KindField:
		return protocol.SymbolKindField
	case KindVariable:
		return protocol.SymbolKindVariable
	case KindMacro:
		return protocol.SymbolKindConstant
	default:
		return protocol.SymbolKindNull
	}
}
