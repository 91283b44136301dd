package parser

import "scopecheck/internal/engine/symtab"

var predeclaredTypes = []string{
	"any", "bool", "byte", "comparable", "complex64", "complex128", "error",
	"float32", "float64", "int", "int8", "int16", "int32", "int64", "rune",
	"string", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
}

var predeclaredConsts = map[string]string{
	"true":  "bool",
	"false": "bool",
	"iota":  "int",
	"nil":   "nil",
}

var predeclaredFuncs = []string{
	"append", "cap", "clear", "close", "complex", "copy", "delete", "imag",
	"len", "make", "max", "min", "new", "panic", "print", "println", "real",
	"recover",
}

// declareUniverse fills the table's current scope with Go's predeclared
// identifiers.
func declareUniverse(table *symtab.Table) error {
	for _, name := range predeclaredTypes {
		if err := table.Declare(name, &symtab.Symbol{Type: name, Kind: symtab.KindType}); err != nil {
			return err
		}
	}
	for name, typ := range predeclaredConsts {
		if err := table.Declare(name, &symtab.Symbol{Type: typ, Kind: symtab.KindConst}); err != nil {
			return err
		}
	}
	for _, name := range predeclaredFuncs {
		if err := table.Declare(name, &symtab.Symbol{Type: "builtin", Kind: symtab.KindBuiltin}); err != nil {
			return err
		}
	}
	return nil
}
