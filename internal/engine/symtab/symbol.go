package symtab

import "fmt"

type Kind int

const (
	KindUnknown Kind = iota
	KindVar
	KindConst
	KindFunc
	KindType
	KindParam
	KindPackage
	KindBuiltin
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindConst:
		return "const"
	case KindFunc:
		return "func"
	case KindType:
		return "type"
	case KindParam:
		return "param"
	case KindPackage:
		return "package"
	case KindBuiltin:
		return "builtin"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// Position locates a declaration in source. The zero value means "no position".
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Symbol describes a declared identifier. The table stores and returns the
// pointer it was given and never modifies the value behind it.
type Symbol struct {
	Type string
	Kind Kind
	Pos  Position
}

func NewSymbol(typ string) *Symbol {
	return &Symbol{Type: typ}
}

// String returns the type tag; it is what the table dump prints for a binding.
func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Type
}
