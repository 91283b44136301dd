package parser

import (
	"fmt"

	"scopecheck/internal/core/errors"
	"scopecheck/internal/engine/symtab"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for the scope walker.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *WalkContext, node *sitter.Node) bool

// WalkEngine walks the syntax tree and dispatches node handlers by kind.
type WalkEngine struct {
	handlers map[string]NodeHandler
}

func NewWalkEngine(handlers map[string]NodeHandler) *WalkEngine {
	return &WalkEngine{handlers: handlers}
}

func (e *WalkEngine) Walk(ctx *WalkContext, node *sitter.Node) {
	if node == nil || ctx.err != nil {
		return
	}

	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop {
		e.WalkChildren(ctx, node)
	}
}

func (e *WalkEngine) WalkChildren(ctx *WalkContext, node *sitter.Node) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

// WalkContext carries the table and per-file state through a walk.
type WalkContext struct {
	Source   []byte
	Path     string
	Table    *symtab.Table
	Findings []Finding

	opts Options
	// index of the file scope; anything deeper is inside a declaration body
	fileScope int
	// references are not reported when names may come from a dot import
	dotImport bool
	// package names of imports that may not match their path
	uncertainImports bool
	err              error
}

func (c *WalkContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *WalkContext) Position(node *sitter.Node) symtab.Position {
	return symtab.Position{
		File:   c.Path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

func (c *WalkContext) fail(err error) {
	if c.err == nil {
		c.err = errors.AddContext(err, errors.CtxPath, c.Path)
	}
}

func (c *WalkContext) report(kind FindingKind, name string, pos symtab.Position, msg string) {
	c.Findings = append(c.Findings, Finding{Kind: kind, Name: name, Pos: pos, Message: msg})
}

func (c *WalkContext) open() {
	c.Table.OpenScope()
}

func (c *WalkContext) close() {
	if err := c.Table.CloseScope(); err != nil {
		c.fail(err)
	}
}

// inBody reports whether the innermost scope is below the file scope.
func (c *WalkContext) inBody() bool {
	return c.Table.Depth()-1 > c.fileScope
}

// declare binds the identifier in node to a new symbol in the innermost
// scope, turning table failures into findings.
func (c *WalkContext) declare(node *sitter.Node, kind symtab.Kind, typ string) {
	name := c.Text(node)
	if name == "" || name == "_" {
		return
	}
	sym := &symtab.Symbol{Type: typ, Kind: kind, Pos: c.Position(node)}

	if c.opts.ReportShadowing && c.inBody() && !c.opts.ignored(name) {
		if _, local, err := c.Table.LookupLocal(name); err == nil && !local {
			if outer, ok, err := c.Table.Resolve(name); err == nil && ok && outer.Scope > 0 {
				c.report(FindingShadowed, name, sym.Pos,
					fmt.Sprintf("declaration of %q shadows %s declared at %s", name, outer.Symbol.Kind, outer.Symbol.Pos))
			}
		}
	}

	err := c.Table.Declare(name, sym)
	switch {
	case err == nil:
	case errors.IsCode(err, errors.CodeDuplicateName):
		prev, _, _ := c.Table.LookupLocal(name)
		msg := fmt.Sprintf("%s redeclared in this block", name)
		if prev != nil && prev.Pos.IsValid() {
			msg += fmt.Sprintf(" (previous declaration at %s)", prev.Pos)
		}
		c.report(FindingRedeclared, name, sym.Pos, msg)
	default:
		c.fail(err)
	}
}

// resolve looks the identifier in node up through every scope. selector is
// set when the identifier is the operand of a selector, which is where an
// import with an unexpected package name would show up.
func (c *WalkContext) resolve(node *sitter.Node, selector bool) {
	name := c.Text(node)
	if name == "" || name == "_" {
		return
	}
	_, ok, err := c.Table.LookupGlobal(name)
	if err != nil {
		c.fail(err)
		return
	}
	if ok || !c.opts.ReportUnresolved || c.opts.ignored(name) || c.dotImport {
		return
	}
	if selector && c.uncertainImports {
		return
	}
	c.report(FindingUnresolved, name, c.Position(node), fmt.Sprintf("undefined: %s", name))
}

// fieldChildren returns every child of node stored under field.
func fieldChildren(node *sitter.Node, field string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			out = append(out, node.Child(i))
		}
	}
	return out
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// hasToken reports whether node has an anonymous child spelled tok.
func hasToken(node *sitter.Node, tok string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Kind() == tok {
			return true
		}
	}
	return false
}
