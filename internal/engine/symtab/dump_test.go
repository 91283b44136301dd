package symtab

import (
	"bytes"
	"errors"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Table
		want  string
	}{
		{
			name:  "fresh table",
			build: New,
			want:  "=== Sym Table ===\n{}\n\n",
		},
		{
			name: "nested scopes innermost first",
			build: func() *Table {
				table := New()
				_ = table.Declare("x", NewSymbol("int"))
				_ = table.Declare("f", NewSymbol("func"))
				table.OpenScope()
				_ = table.Declare("x", NewSymbol("bool"))
				return table
			},
			want: "=== Sym Table ===\n{x=bool}\n{f=func, x=int}\n\n",
		},
		{
			name: "empty table",
			build: func() *Table {
				table := New()
				_ = table.CloseScope()
				return table
			},
			want: "=== Sym Table ===\nno scopes\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.build().String()
			if got != tt.want {
				t.Fatalf("unexpected dump\nwant: %q\n got: %q", tt.want, got)
			}
		})
	}
}

func TestString_DoesNotMutate(t *testing.T) {
	table := New()
	_ = table.Declare("x", NewSymbol("int"))
	first := table.String()
	second := table.String()
	if first != second {
		t.Fatalf("dump is not deterministic: %q vs %q", first, second)
	}
	if table.Depth() != 1 {
		t.Fatalf("expected depth 1 after dump, got %d", table.Depth())
	}
}

func TestPrint(t *testing.T) {
	table := New()
	_ = table.Declare("x", NewSymbol("int"))

	var buf bytes.Buffer
	if err := table.Print(&buf); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != table.String() {
		t.Fatalf("print output %q differs from String %q", buf.String(), table.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrint_ReportsWriterError(t *testing.T) {
	if err := New().Print(failingWriter{}); err == nil {
		t.Fatal("expected writer error to be returned")
	}
}
