package symtab

// Kind tags what an identifier names.
type Kind int

const (
	KindVariable Kind = iota
	KindArray
	KindFunction
	KindLabel
	KindType
	KindConstant
	KindPackage
)

var kindNames = [...]string{
	KindVariable: "variable",
	KindArray:    "array",
	KindFunction: "function",
	KindLabel:    "label",
	KindType:     "type",
	KindConstant: "constant",
	KindPackage:  "package",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Type is the element type of arrays, the return type of functions and the
// primitive type of everything else.
type Type int

const (
	TypeUndefined Type = iota
	TypeInt
	TypeReal
	TypeChar
	TypeString
	TypeBool
	TypeVoid
)

var typeNames = [...]string{
	TypeUndefined: "undefined",
	TypeInt:       "int",
	TypeReal:      "real",
	TypeChar:      "char",
	TypeString:    "string",
	TypeBool:      "bool",
	TypeVoid:      "void",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}
