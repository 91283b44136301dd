package symtab

import (
	"testing"

	"scopecheck/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsWithOneEmptyScope(t *testing.T) {
	table := New()
	require.Equal(t, 1, table.Depth())

	for _, name := range []string{"foo", "x", "main"} {
		sym, ok, err := table.LookupLocal(name)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, sym)

		sym, ok, err = table.LookupGlobal(name)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, sym)
	}
}

func TestDeclare_LookupLocalReturnsSameSymbol(t *testing.T) {
	table := New()
	sym := NewSymbol("int")
	require.NoError(t, table.Declare("x", sym))

	got, ok, err := table.LookupLocal("x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, sym, got)
}

func TestDeclare_DuplicateInSameScope(t *testing.T) {
	table := New()
	first := NewSymbol("int")
	require.NoError(t, table.Declare("x", first))

	err := table.Declare("x", NewSymbol("bool"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDuplicateName), "got %v", err)

	got, ok, err := table.LookupLocal("x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestDeclare_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		declare string
		sym     *Symbol
	}{
		{name: "empty name", declare: "", sym: NewSymbol("int")},
		{name: "blank name", declare: "  \t", sym: NewSymbol("int")},
		{name: "nil symbol", declare: "x", sym: nil},
		{name: "both missing", declare: "", sym: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := New()
			err := table.Declare(tt.declare, tt.sym)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidArgument), "got %v", err)

			views := table.Snapshot()
			require.Len(t, views, 1)
			assert.Empty(t, views[0].Bindings)
		})
	}
}

func TestDeclare_InvalidArgumentCheckedBeforeEmptyTable(t *testing.T) {
	table := New()
	require.NoError(t, table.CloseScope())

	err := table.Declare("", nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidArgument), "got %v", err)
}

func TestOpenScope_HidesOuterFromLocalOnly(t *testing.T) {
	table := New()
	outer := NewSymbol("int")
	require.NoError(t, table.Declare("x", outer))

	table.OpenScope()
	require.Equal(t, 2, table.Depth())

	_, ok, err := table.LookupLocal("x")
	require.NoError(t, err)
	assert.False(t, ok, "outer binding must not be visible locally")

	got, ok, err := table.LookupGlobal("x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, outer, got)
}

func TestLookupGlobal_InnermostShadowsOuter(t *testing.T) {
	table := New()
	require.NoError(t, table.Declare("x", NewSymbol("int")))
	table.OpenScope()
	table.OpenScope()
	inner := NewSymbol("bool")
	require.NoError(t, table.Declare("x", inner))

	got, ok, err := table.LookupGlobal("x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, inner, got)

	b, ok, err := table.Resolve("x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, b.Scope)
	assert.Equal(t, "x", b.Name)
}

func TestShadowingScenario(t *testing.T) {
	table := New()
	intSym := NewSymbol("int")
	boolSym := NewSymbol("bool")

	require.NoError(t, table.Declare("x", intSym))
	table.OpenScope()
	require.NoError(t, table.Declare("x", boolSym))

	got, ok, err := table.LookupLocal("x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, boolSym, got)

	require.NoError(t, table.CloseScope())

	got, ok, err = table.LookupLocal("x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, intSym, got)
}

func TestEmptyTable(t *testing.T) {
	table := New()
	require.NoError(t, table.CloseScope())
	require.True(t, table.IsEmpty())

	err := table.Declare("y", NewSymbol("int"))
	assert.True(t, errors.IsCode(err, errors.CodeEmptyTable), "declare: %v", err)

	_, ok, err := table.LookupLocal("y")
	assert.False(t, ok)
	assert.True(t, errors.IsCode(err, errors.CodeEmptyTable), "lookup local: %v", err)

	_, ok, err = table.LookupGlobal("y")
	assert.False(t, ok)
	assert.True(t, errors.IsCode(err, errors.CodeEmptyTable), "lookup global: %v", err)

	_, _, err = table.Resolve("y")
	assert.True(t, errors.IsCode(err, errors.CodeEmptyTable), "resolve: %v", err)

	err = table.CloseScope()
	assert.True(t, errors.IsCode(err, errors.CodeEmptyTable), "close: %v", err)
	assert.Equal(t, 0, table.Depth())

	table.OpenScope()
	require.NoError(t, table.Declare("y", NewSymbol("int")))
	_, ok, err = table.LookupLocal("y")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCloseScope_DropsBindings(t *testing.T) {
	table := New()
	table.OpenScope()
	require.NoError(t, table.Declare("tmp", NewSymbol("string")))
	require.NoError(t, table.CloseScope())

	_, ok, err := table.LookupGlobal("tmp")
	require.NoError(t, err)
	assert.False(t, ok)

	table.OpenScope()
	_, ok, err = table.LookupGlobal("tmp")
	require.NoError(t, err)
	assert.False(t, ok, "reopened scope must start empty")
}

func TestReopenAfterEmpty_IsAdditive(t *testing.T) {
	table := New()
	require.NoError(t, table.Declare("a", NewSymbol("int")))
	require.NoError(t, table.CloseScope())
	table.OpenScope()

	_, ok, err := table.LookupGlobal("a")
	require.NoError(t, err)
	assert.False(t, ok, "bindings of closed scopes must not survive")
}

func TestSameSymbolUnderDifferentNames(t *testing.T) {
	table := New()
	shared := NewSymbol("int")
	require.NoError(t, table.Declare("a", shared))
	table.OpenScope()
	require.NoError(t, table.Declare("b", shared))

	a, _, _ := table.LookupGlobal("a")
	b, _, _ := table.LookupGlobal("b")
	assert.Same(t, a, b)
}

func TestSnapshot_IsACopy(t *testing.T) {
	table := New()
	require.NoError(t, table.Declare("b", NewSymbol("bool")))
	require.NoError(t, table.Declare("a", NewSymbol("int")))
	table.OpenScope()
	require.NoError(t, table.Declare("c", NewSymbol("string")))

	views := table.Snapshot()
	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Index)
	assert.Equal(t, 0, views[1].Index)
	require.Len(t, views[1].Bindings, 2)
	assert.Equal(t, "a", views[1].Bindings[0].Name)
	assert.Equal(t, "b", views[1].Bindings[1].Name)

	views[0].Bindings = nil
	_, ok, err := table.LookupLocal("c")
	require.NoError(t, err)
	assert.True(t, ok)
}

type recordingObserver struct {
	opened, closed int
	declared       []string
	lookups        []LookupMode
	failures       int
}

func (r *recordingObserver) ScopeOpened(int) { r.opened++ }
func (r *recordingObserver) ScopeClosed(int) { r.closed++ }
func (r *recordingObserver) Declared(name string, err error) {
	if err != nil {
		r.failures++
		return
	}
	r.declared = append(r.declared, name)
}
func (r *recordingObserver) LookedUp(mode LookupMode, found bool, err error) {
	if err != nil {
		r.failures++
	}
	r.lookups = append(r.lookups, mode)
}

func TestObserver(t *testing.T) {
	table := New()
	obs := &recordingObserver{}
	table.Observe(obs)

	table.OpenScope()
	require.NoError(t, table.Declare("x", NewSymbol("int")))
	_ = table.Declare("x", NewSymbol("int"))
	_, _, _ = table.LookupLocal("x")
	_, _, _ = table.LookupGlobal("y")
	require.NoError(t, table.CloseScope())
	require.NoError(t, table.CloseScope())
	_ = table.CloseScope()

	assert.Equal(t, 1, obs.opened)
	assert.Equal(t, 2, obs.closed)
	assert.Equal(t, []string{"x"}, obs.declared)
	assert.Equal(t, []LookupMode{ModeLocal, ModeGlobal}, obs.lookups)
	assert.Equal(t, 1, obs.failures)
}
