package symtab

import (
	"io"
	"strings"
)

const dumpHeader = "=== Sym Table ==="

// String renders every scope, innermost first, one line per scope:
//
//	=== Sym Table ===
//	{x=bool}
//	{f=func, x=int}
//
// An empty table prints "no scopes" in place of the scope lines.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(dumpHeader)
	b.WriteByte('\n')

	views := t.Snapshot()
	if len(views) == 0 {
		b.WriteString("no scopes\n")
	}
	for _, view := range views {
		b.WriteByte('{')
		for i, binding := range view.Bindings {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(binding.Name)
			b.WriteByte('=')
			b.WriteString(binding.Symbol.String())
		}
		b.WriteString("}\n")
	}
	b.WriteByte('\n')
	return b.String()
}

// Print writes String to w. Only w's own failure is reported.
func (t *Table) Print(w io.Writer) error {
	_, err := io.WriteString(w, t.String())
	return err
}
