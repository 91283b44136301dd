// # internal/engine/parser/golang.go
package parser

import (
	"path"
	"strconv"
	"strings"

	"scopecheck/internal/engine/symtab"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// goScopes applies Go's block structure to a symtab.Table: every block,
// function and func literal gets a scope, as do the implicit blocks of if,
// for, switch and select statements and of each case clause.
type goScopes struct {
	engine *WalkEngine
}

func newGoScopes() *goScopes {
	g := &goScopes{}
	g.engine = NewWalkEngine(map[string]NodeHandler{
		"package_clause":                 skip,
		"import_declaration":             skip,
		"function_declaration":           g.function,
		"method_declaration":             g.function,
		"func_literal":                   g.function,
		"block":                          g.block,
		"if_statement":                   g.implicitBlock,
		"for_statement":                  g.implicitBlock,
		"expression_switch_statement":    g.exprSwitch,
		"type_switch_statement":          g.typeSwitch,
		"select_statement":               g.selectStmt,
		"short_var_declaration":          g.shortVarDecl,
		"range_clause":                   g.rangeClause,
		"var_declaration":                g.valueDecl,
		"const_declaration":              g.valueDecl,
		"type_declaration":               g.typeDecl,
		"labeled_statement":              g.labeled,
		"parameter_declaration":          g.paramType,
		"variadic_parameter_declaration": g.paramType,
		"selector_expression":            g.selector,
		"qualified_type":                 g.qualifiedType,
		"keyed_element":                  g.keyedElement,
		"identifier":                     g.reference,
		"type_identifier":                g.reference,
		"package_identifier":             g.packageReference,
	})
	return g
}

func skip(*WalkContext, *sitter.Node) bool { return true }

// collectPackage declares the top-level functions, types, variables and
// constants of one file in the current (package) scope. Methods and init
// functions are not package-scope names.
func (g *goScopes) collectPackage(ctx *WalkContext, root *sitter.Node) {
	for _, decl := range namedChildren(root) {
		switch decl.Kind() {
		case "function_declaration":
			name := decl.ChildByFieldName("name")
			if ctx.Text(name) == "init" {
				continue
			}
			ctx.declare(name, symtab.KindFunc, funcType(ctx, decl))
		case "type_declaration":
			for _, spec := range specs(decl, "type_spec", "type_alias") {
				ctx.declare(spec.ChildByFieldName("name"), symtab.KindType, "type")
			}
		case "var_declaration":
			for _, spec := range specs(decl, "var_spec") {
				typ := specType(ctx, spec)
				for _, name := range fieldChildren(spec, "name") {
					ctx.declare(name, symtab.KindVar, typ)
				}
			}
		case "const_declaration":
			for _, spec := range specs(decl, "const_spec") {
				typ := specType(ctx, spec)
				for _, name := range fieldChildren(spec, "name") {
					ctx.declare(name, symtab.KindConst, typ)
				}
			}
		}
	}
}

// declareImports binds each import's package name in the current (file)
// scope and records whether references may hide behind the import.
func (g *goScopes) declareImports(ctx *WalkContext, root *sitter.Node) {
	for _, decl := range namedChildren(root) {
		if decl.Kind() != "import_declaration" {
			continue
		}
		for _, spec := range specs(decl, "import_spec") {
			importPath, err := strconv.Unquote(ctx.Text(spec.ChildByFieldName("path")))
			if err != nil {
				importPath = strings.Trim(ctx.Text(spec.ChildByFieldName("path")), "\"`")
			}
			if alias := spec.ChildByFieldName("name"); alias != nil {
				switch ctx.Text(alias) {
				case ".":
					ctx.dotImport = true
				case "_":
				default:
					ctx.declare(alias, symtab.KindPackage, importPath)
				}
				continue
			}

			name, certain := importName(importPath)
			if !certain {
				ctx.uncertainImports = true
			}
			if name == "" {
				continue
			}
			sym := &symtab.Symbol{Type: importPath, Kind: symtab.KindPackage, Pos: ctx.Position(spec)}
			if err := ctx.Table.Declare(name, sym); err != nil {
				// Two imports resolving to the same guessed name is not worth a finding.
				if prev, ok, _ := ctx.Table.LookupLocal(name); !ok || prev.Kind != symtab.KindPackage {
					ctx.fail(err)
				}
			}
		}
	}
}

// importName guesses the package name of an import path from its last
// element. certain is false when the element is not a plain identifier or
// looks like a major version suffix.
func importName(importPath string) (string, bool) {
	base := path.Base(importPath)
	if isVersionElement(base) {
		base = path.Base(path.Dir(importPath))
		return sanitizeIdent(base), false
	}
	name := sanitizeIdent(base)
	return name, name == base
}

func isVersionElement(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

func sanitizeIdent(s string) string {
	s = strings.TrimPrefix(s, "go-")
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "-", "_")
}

func (g *goScopes) function(ctx *WalkContext, node *sitter.Node) bool {
	ctx.open()

	g.declareTypeParams(ctx, node.ChildByFieldName("type_parameters"))
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		g.declareReceiverTypeParams(ctx, recv)
		g.declareParams(ctx, recv)
	}
	g.declareParams(ctx, node.ChildByFieldName("parameters"))
	if result := node.ChildByFieldName("result"); result != nil {
		if result.Kind() == "parameter_list" {
			g.declareParams(ctx, result)
		} else {
			g.engine.Walk(ctx, result)
		}
	}

	// Parameters and the function body share one block.
	g.engine.WalkChildren(ctx, node.ChildByFieldName("body"))

	ctx.close()
	return true
}

func (g *goScopes) declareParams(ctx *WalkContext, list *sitter.Node) {
	params := namedChildren(list)
	for _, p := range params {
		g.engine.Walk(ctx, p.ChildByFieldName("type"))
	}
	for _, p := range params {
		typ := ctx.Text(p.ChildByFieldName("type"))
		if p.Kind() == "variadic_parameter_declaration" {
			typ = "..." + typ
		}
		for _, name := range fieldChildren(p, "name") {
			ctx.declare(name, symtab.KindParam, typ)
		}
	}
}

func (g *goScopes) declareTypeParams(ctx *WalkContext, list *sitter.Node) {
	params := namedChildren(list)
	for _, p := range params {
		for _, name := range fieldChildren(p, "name") {
			ctx.declare(name, symtab.KindType, "type parameter")
		}
	}
	for _, p := range params {
		g.engine.Walk(ctx, p.ChildByFieldName("type"))
	}
}

// declareReceiverTypeParams binds the type parameter names a generic
// receiver such as (l *List[T]) introduces.
func (g *goScopes) declareReceiverTypeParams(ctx *WalkContext, recv *sitter.Node) {
	var visit func(n *sitter.Node, inArgs bool)
	visit = func(n *sitter.Node, inArgs bool) {
		if n == nil {
			return
		}
		if inArgs && (n.Kind() == "type_identifier" || n.Kind() == "identifier") {
			ctx.declare(n, symtab.KindType, "type parameter")
			return
		}
		args := inArgs || n.Kind() == "type_arguments"
		for _, child := range namedChildren(n) {
			visit(child, args)
		}
	}
	for _, p := range namedChildren(recv) {
		visit(p.ChildByFieldName("type"), false)
	}
}

func (g *goScopes) block(ctx *WalkContext, node *sitter.Node) bool {
	ctx.open()
	g.engine.WalkChildren(ctx, node)
	ctx.close()
	return true
}

// implicitBlock handles if and for statements, whose header declarations
// live in a scope enclosing the body block.
func (g *goScopes) implicitBlock(ctx *WalkContext, node *sitter.Node) bool {
	return g.block(ctx, node)
}

func (g *goScopes) exprSwitch(ctx *WalkContext, node *sitter.Node) bool {
	ctx.open()
	g.engine.Walk(ctx, node.ChildByFieldName("initializer"))
	g.engine.Walk(ctx, node.ChildByFieldName("value"))
	for _, clause := range namedChildren(node) {
		if clause.Kind() != "expression_case" && clause.Kind() != "default_case" {
			continue
		}
		ctx.open()
		g.engine.WalkChildren(ctx, clause)
		ctx.close()
	}
	ctx.close()
	return true
}

func (g *goScopes) typeSwitch(ctx *WalkContext, node *sitter.Node) bool {
	ctx.open()
	g.engine.Walk(ctx, node.ChildByFieldName("initializer"))
	value := node.ChildByFieldName("value")
	g.engine.Walk(ctx, value)
	alias := fieldChildren(node, "alias")

	for _, clause := range namedChildren(node) {
		if clause.Kind() != "type_case" && clause.Kind() != "default_case" {
			continue
		}
		ctx.open()
		types := fieldChildren(clause, "type")
		for _, typ := range types {
			g.engine.Walk(ctx, typ)
		}
		// In single-type clauses the alias has that type; otherwise it keeps the switched type.
		aliasType := "interface"
		if len(types) == 1 {
			aliasType = ctx.Text(types[0])
		}
		for _, list := range alias {
			for _, name := range namedChildren(list) {
				ctx.declare(name, symtab.KindVar, aliasType)
			}
		}
		for i := uint(0); i < clause.ChildCount(); i++ {
			if clause.FieldNameForChild(uint32(i)) == "type" {
				continue
			}
			g.engine.Walk(ctx, clause.Child(i))
		}
		ctx.close()
	}
	ctx.close()
	return true
}

func (g *goScopes) selectStmt(ctx *WalkContext, node *sitter.Node) bool {
	for _, clause := range namedChildren(node) {
		if clause.Kind() != "communication_case" && clause.Kind() != "default_case" {
			continue
		}
		ctx.open()
		comm := clause.ChildByFieldName("communication")
		if comm != nil && comm.Kind() == "receive_statement" && hasToken(comm, ":=") {
			g.engine.Walk(ctx, comm.ChildByFieldName("right"))
			for _, name := range namedChildren(comm.ChildByFieldName("left")) {
				ctx.declare(name, symtab.KindVar, "inferred")
			}
		} else {
			g.engine.Walk(ctx, comm)
		}
		for i := uint(0); i < clause.ChildCount(); i++ {
			if clause.FieldNameForChild(uint32(i)) == "communication" {
				continue
			}
			g.engine.Walk(ctx, clause.Child(i))
		}
		ctx.close()
	}
	return true
}

// shortVarDecl handles :=. The right-hand side is resolved before any name
// is bound, and names already bound in the innermost scope are assigned
// rather than redeclared.
func (g *goScopes) shortVarDecl(ctx *WalkContext, node *sitter.Node) bool {
	g.engine.Walk(ctx, node.ChildByFieldName("right"))

	left := node.ChildByFieldName("left")
	fresh := 0
	for _, id := range namedChildren(left) {
		name := ctx.Text(id)
		if id.Kind() != "identifier" || name == "_" {
			continue
		}
		if _, ok, err := ctx.Table.LookupLocal(name); err != nil {
			ctx.fail(err)
			return true
		} else if ok {
			continue
		}
		ctx.declare(id, symtab.KindVar, "inferred")
		fresh++
	}
	if fresh == 0 && left != nil {
		ctx.report(FindingRedeclared, ctx.Text(left), ctx.Position(node), "no new variables on left side of :=")
	}
	return true
}

func (g *goScopes) rangeClause(ctx *WalkContext, node *sitter.Node) bool {
	g.engine.Walk(ctx, node.ChildByFieldName("right"))
	left := node.ChildByFieldName("left")
	if !hasToken(node, ":=") {
		g.engine.Walk(ctx, left)
		return true
	}
	for _, id := range namedChildren(left) {
		ctx.declare(id, symtab.KindVar, "inferred")
	}
	return true
}

// valueDecl handles var and const declarations. Values are resolved before
// the names come into scope. At file level the names were already bound by
// collectPackage.
func (g *goScopes) valueDecl(ctx *WalkContext, node *sitter.Node) bool {
	kind := symtab.KindVar
	specKind := "var_spec"
	if node.Kind() == "const_declaration" {
		kind = symtab.KindConst
		specKind = "const_spec"
	}
	for _, spec := range specs(node, specKind) {
		g.engine.Walk(ctx, spec.ChildByFieldName("type"))
		for _, value := range fieldChildren(spec, "value") {
			g.engine.Walk(ctx, value)
		}
		if !ctx.inBody() {
			continue
		}
		typ := specType(ctx, spec)
		for _, name := range fieldChildren(spec, "name") {
			ctx.declare(name, kind, typ)
		}
	}
	return true
}

// typeDecl binds local type names before walking their definitions so that
// recursive types resolve. Generic type parameters get their own scope.
func (g *goScopes) typeDecl(ctx *WalkContext, node *sitter.Node) bool {
	typeSpecs := specs(node, "type_spec", "type_alias")
	if ctx.inBody() {
		for _, spec := range typeSpecs {
			ctx.declare(spec.ChildByFieldName("name"), symtab.KindType, "type")
		}
	}
	for _, spec := range typeSpecs {
		params := spec.ChildByFieldName("type_parameters")
		if params != nil {
			ctx.open()
			g.declareTypeParams(ctx, params)
		}
		g.engine.Walk(ctx, spec.ChildByFieldName("type"))
		if params != nil {
			ctx.close()
		}
	}
	return true
}

func (g *goScopes) labeled(ctx *WalkContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == "label" {
			continue
		}
		g.engine.Walk(ctx, node.Child(i))
	}
	return true
}

// paramType covers parameters outside a function declaration (function
// types, interface methods), whose names bind nothing.
func (g *goScopes) paramType(ctx *WalkContext, node *sitter.Node) bool {
	g.engine.Walk(ctx, node.ChildByFieldName("type"))
	return true
}

func (g *goScopes) selector(ctx *WalkContext, node *sitter.Node) bool {
	operand := node.ChildByFieldName("operand")
	if operand != nil && operand.Kind() == "identifier" {
		ctx.resolve(operand, true)
	} else {
		g.engine.Walk(ctx, operand)
	}
	return true
}

func (g *goScopes) qualifiedType(ctx *WalkContext, node *sitter.Node) bool {
	ctx.resolve(node.ChildByFieldName("package"), true)
	return true
}

// keyedElement skips bare identifier keys, which in struct literals name
// fields rather than variables.
func (g *goScopes) keyedElement(ctx *WalkContext, node *sitter.Node) bool {
	parts := namedChildren(node)
	for i, part := range parts {
		if i == 0 && isBareIdentifier(part) {
			continue
		}
		g.engine.Walk(ctx, part)
	}
	return true
}

func isBareIdentifier(node *sitter.Node) bool {
	switch node.Kind() {
	case "identifier", "field_identifier":
		return true
	case "literal_element":
		if node.NamedChildCount() == 1 {
			return isBareIdentifier(node.NamedChild(0))
		}
	}
	return false
}

func (g *goScopes) reference(ctx *WalkContext, node *sitter.Node) bool {
	ctx.resolve(node, false)
	return true
}

func (g *goScopes) packageReference(ctx *WalkContext, node *sitter.Node) bool {
	ctx.resolve(node, true)
	return true
}

// specs returns the spec nodes of a declaration, looking through the
// parenthesised list form.
func specs(decl *sitter.Node, kinds ...string) []*sitter.Node {
	var out []*sitter.Node
	var visit func(n *sitter.Node, depth int)
	visit = func(n *sitter.Node, depth int) {
		for _, child := range namedChildren(n) {
			for _, kind := range kinds {
				if child.Kind() == kind {
					out = append(out, child)
				}
			}
			if depth == 0 && strings.HasSuffix(child.Kind(), "_list") {
				visit(child, depth+1)
			}
		}
	}
	visit(decl, 0)
	return out
}

func specType(ctx *WalkContext, spec *sitter.Node) string {
	if typ := spec.ChildByFieldName("type"); typ != nil {
		return ctx.Text(typ)
	}
	return "inferred"
}

func funcType(ctx *WalkContext, decl *sitter.Node) string {
	sig := "func" + ctx.Text(decl.ChildByFieldName("parameters"))
	if result := decl.ChildByFieldName("result"); result != nil {
		sig += " " + ctx.Text(result)
	}
	return sig
}
