package symtab

import (
	"strings"

	"scopecheck/internal/core/errors"
	"scopecheck/internal/shared/util"
)

type LookupMode string

const (
	ModeLocal  LookupMode = "local"
	ModeGlobal LookupMode = "global"
)

// Observer receives the outcome of every table operation. Implementations
// must not call back into the table.
type Observer interface {
	ScopeOpened(depth int)
	ScopeClosed(depth int)
	Declared(name string, err error)
	LookedUp(mode LookupMode, found bool, err error)
}

// Binding is a read-only view of one name bound in one scope.
type Binding struct {
	Name   string
	Symbol *Symbol
	// Scope counts from the outermost scope, which is 0.
	Scope int
}

// ScopeView is a copy of a single scope's bindings, sorted by name.
type ScopeView struct {
	Index    int
	Bindings []Binding
}

// Table is a stack of lexical scopes, each mapping identifier names to
// symbols. A new Table holds one empty scope. Scopes are opened and closed
// in strict LIFO order; declarations and local lookups act on the innermost
// scope only, global lookups search from the innermost scope outwards.
//
// A Table has no internal locking. Callers sharing one between goroutines
// must serialise every call behind a single mutex.
type Table struct {
	// outermost first; the innermost scope is the last element
	scopes   []map[string]*Symbol
	observer Observer
}

func New() *Table {
	return &Table{
		scopes: []map[string]*Symbol{make(map[string]*Symbol)},
	}
}

// Observe installs o as the table's observer. A nil o disables observation.
func (t *Table) Observe(o Observer) {
	t.observer = o
}

func (t *Table) Depth() int {
	return len(t.scopes)
}

func (t *Table) IsEmpty() bool {
	return len(t.scopes) == 0
}

// Declare binds name to sym in the innermost scope.
//
// It fails with INVALID_ARGUMENT when name is blank or sym is nil, with
// EMPTY_TABLE when no scope is open and with DUPLICATE_NAME when the
// innermost scope already binds name. A failed call changes nothing.
func (t *Table) Declare(name string, sym *Symbol) error {
	err := t.declare(name, sym)
	if t.observer != nil {
		t.observer.Declared(name, err)
	}
	return err
}

func (t *Table) declare(name string, sym *Symbol) error {
	if strings.TrimSpace(name) == "" {
		return invalidArgument("declaration name must not be empty", name)
	}
	if sym == nil {
		return invalidArgument("declaration symbol must not be nil", name)
	}
	if len(t.scopes) == 0 {
		return emptyTable("declare")
	}

	scope := t.scopes[len(t.scopes)-1]
	if _, exists := scope[name]; exists {
		return (&errors.DomainError{
			Code:    errors.CodeDuplicateName,
			Message: "name already declared in the innermost scope",
		}).WithContext(errors.CtxName, name).WithContext(errors.CtxDepth, len(t.scopes))
	}
	scope[name] = sym
	return nil
}

// OpenScope pushes a new, empty innermost scope.
func (t *Table) OpenScope() {
	t.scopes = append(t.scopes, make(map[string]*Symbol))
	if t.observer != nil {
		t.observer.ScopeOpened(len(t.scopes))
	}
}

// CloseScope discards the innermost scope and every binding in it. Closing
// the last scope leaves the table empty; no scope is opened in its place.
func (t *Table) CloseScope() error {
	if len(t.scopes) == 0 {
		return emptyTable("close_scope")
	}
	last := len(t.scopes) - 1
	t.scopes[last] = nil
	t.scopes = t.scopes[:last]
	if t.observer != nil {
		t.observer.ScopeClosed(len(t.scopes))
	}
	return nil
}

// LookupLocal returns the symbol bound to name in the innermost scope. A
// missing binding is reported as ok == false with a nil error.
func (t *Table) LookupLocal(name string) (*Symbol, bool, error) {
	if len(t.scopes) == 0 {
		err := emptyTable("lookup_local")
		t.notifyLookup(ModeLocal, false, err)
		return nil, false, err
	}
	sym, ok := t.scopes[len(t.scopes)-1][name]
	t.notifyLookup(ModeLocal, ok, nil)
	return sym, ok, nil
}

// LookupGlobal returns the symbol bound to name in the closest enclosing
// scope, so inner declarations shadow outer ones.
func (t *Table) LookupGlobal(name string) (*Symbol, bool, error) {
	b, ok, err := t.Resolve(name)
	return b.Symbol, ok, err
}

// Resolve is LookupGlobal that also reports which scope holds the binding.
func (t *Table) Resolve(name string) (Binding, bool, error) {
	if len(t.scopes) == 0 {
		err := emptyTable("lookup_global")
		t.notifyLookup(ModeGlobal, false, err)
		return Binding{}, false, err
	}
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			t.notifyLookup(ModeGlobal, true, nil)
			return Binding{Name: name, Symbol: sym, Scope: i}, true, nil
		}
	}
	t.notifyLookup(ModeGlobal, false, nil)
	return Binding{}, false, nil
}

// Snapshot copies every scope, innermost first.
func (t *Table) Snapshot() []ScopeView {
	views := make([]ScopeView, 0, len(t.scopes))
	for i := len(t.scopes) - 1; i >= 0; i-- {
		scope := t.scopes[i]
		view := ScopeView{Index: i, Bindings: make([]Binding, 0, len(scope))}
		for _, name := range util.SortedStringKeys(scope) {
			view.Bindings = append(view.Bindings, Binding{Name: name, Symbol: scope[name], Scope: i})
		}
		views = append(views, view)
	}
	return views
}

func (t *Table) notifyLookup(mode LookupMode, found bool, err error) {
	if t.observer != nil {
		t.observer.LookedUp(mode, found, err)
	}
}

func invalidArgument(msg, name string) error {
	return (&errors.DomainError{
		Code:    errors.CodeInvalidArgument,
		Message: msg,
	}).WithContext(errors.CtxName, name)
}

func emptyTable(op string) error {
	return (&errors.DomainError{
		Code:    errors.CodeEmptyTable,
		Message: "symbol table has no scopes",
	}).WithContext(errors.CtxOperation, op)
}
