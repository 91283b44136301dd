package parser

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"scopecheck/internal/core/errors"
	"scopecheck/internal/engine/symtab"

	"github.com/gobwas/glob"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Options selects which findings the analyzer reports. Redeclarations and
// syntax errors are always reported.
type Options struct {
	ReportShadowing  bool
	ReportUnresolved bool
	// Names never reported as shadowed or unresolved.
	IgnoreNames []string
}

func (o Options) ignored(name string) bool {
	return slices.Contains(o.IgnoreNames, name)
}

// Analyzer runs Go source through a symtab.Table, one table per package.
type Analyzer struct {
	opts     Options
	observer symtab.Observer
	pool     *ParserPool
	scopes   *goScopes

	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

// NewAnalyzer compiles the exclude patterns, which match directory and file
// base names. observer, when non-nil, is attached to every table the
// analyzer builds.
func NewAnalyzer(opts Options, excludeDirs, excludeFiles []string, observer symtab.Observer) (*Analyzer, error) {
	a := &Analyzer{
		opts:     opts,
		observer: observer,
		pool:     NewParserPool(GoLanguage()),
		scopes:   newGoScopes(),
	}
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
		a.dirGlobs = append(a.dirGlobs, g)
	}
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		a.fileGlobs = append(a.fileGlobs, g)
	}
	return a, nil
}

// AnalyzeSource checks a single file as if it were a whole package.
func (a *Analyzer) AnalyzeSource(path string, src []byte) ([]Finding, error) {
	findings, _, err := a.analyze([]SourceFile{{Path: path, Content: src}})
	return findings, err
}

func (a *Analyzer) AnalyzeFile(path string) ([]Finding, error) {
	content, err := readSource(path)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeSource(path, content)
}

func readSource(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err == nil {
		return content, nil
	}
	code := errors.CodeInternal
	if os.IsNotExist(err) {
		code = errors.CodeNotFound
	}
	return nil, errors.AddContext(errors.Wrap(err, code, "read source"), errors.CtxPath, path)
}

// AnalyzePackage checks files that share a directory. Files are grouped by
// their package clause, so foo and foo_test get separate tables.
func (a *Analyzer) AnalyzePackage(files []SourceFile) ([]Finding, error) {
	findings, _, err := a.analyze(files)
	return findings, err
}

// AnalyzePaths checks every .go file under paths, one directory at a time.
// Cancelling ctx stops the run between directories.
func (a *Analyzer) AnalyzePaths(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	dirs, err := a.ScanDirectories(paths)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(dirs))
	for dir := range dirs {
		keys = append(keys, dir)
	}
	sort.Strings(keys)

	for _, dir := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var files []SourceFile
		for _, path := range dirs[dir] {
			content, err := readSource(path)
			if err != nil {
				return nil, err
			}
			files = append(files, SourceFile{Path: path, Content: content})
		}
		findings, packages, err := a.analyze(files)
		if err != nil {
			return nil, err
		}
		report.Files += len(files)
		report.Packages += packages
		report.Findings = append(report.Findings, findings...)
	}

	sortFindings(report.Findings)
	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

// ScanDirectories returns the .go files under paths keyed by directory,
// skipping excluded directories and files. A path naming a file is taken
// as is.
func (a *Analyzer) ScanDirectories(paths []string) (map[string][]string, error) {
	dirs := make(map[string][]string)
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && a.ExcludedDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || a.ExcludedFile(path) {
				return nil
			}
			dir := filepath.Dir(path)
			dirs[dir] = append(dirs[dir], path)
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "scan source tree"), errors.CtxPath, root)
		}
	}
	for dir := range dirs {
		sort.Strings(dirs[dir])
	}
	return dirs, nil
}

func (a *Analyzer) ExcludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range a.dirGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (a *Analyzer) ExcludedFile(path string) bool {
	base := filepath.Base(path)
	for _, g := range a.fileGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

type parsedFile struct {
	SourceFile
	tree    *sitter.Tree
	root    *sitter.Node
	pkgName string
}

func (a *Analyzer) analyze(files []SourceFile) ([]Finding, int, error) {
	sp, err := a.pool.Get()
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeInternal, "configure parser")
	}
	defer a.pool.Put(sp)

	groups := make(map[string][]*parsedFile)
	var order []string
	for _, f := range files {
		tree := sp.Parse(f.Content, nil)
		if tree == nil {
			return nil, 0, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, f.Path)
		}
		defer tree.Close()

		pf := &parsedFile{SourceFile: f, tree: tree, root: tree.RootNode()}
		pf.pkgName = packageName(pf)
		if _, ok := groups[pf.pkgName]; !ok {
			order = append(order, pf.pkgName)
		}
		groups[pf.pkgName] = append(groups[pf.pkgName], pf)
	}

	var findings []Finding
	for _, name := range order {
		out, err := a.checkPackage(groups[name])
		if err != nil {
			return nil, 0, err
		}
		findings = append(findings, out...)
	}
	sortFindings(findings)
	return findings, len(order), nil
}

// checkPackage builds the scope stack universe, package, file for each file
// of one package and walks it.
func (a *Analyzer) checkPackage(files []*parsedFile) ([]Finding, error) {
	table := symtab.New()
	if a.observer != nil {
		table.Observe(a.observer)
	}
	// New starts with the universe scope.
	if err := declareUniverse(table); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "declare universe")
	}
	table.OpenScope()

	var findings []Finding
	for _, f := range files {
		ctx := a.newContext(f, table)
		a.scopes.collectPackage(ctx, f.root)
		if ctx.err != nil {
			return nil, ctx.err
		}
		findings = append(findings, ctx.Findings...)
	}

	for _, f := range files {
		ctx := a.newContext(f, table)
		if bad := firstError(f.root); bad != nil {
			ctx.report(FindingSyntax, "", ctx.Position(bad), "syntax error")
		}

		ctx.open()
		a.scopes.declareImports(ctx, f.root)
		a.scopes.engine.WalkChildren(ctx, f.root)
		ctx.close()
		if ctx.err != nil {
			return nil, ctx.err
		}
		findings = append(findings, ctx.Findings...)
	}
	return findings, nil
}

func (a *Analyzer) newContext(f *parsedFile, table *symtab.Table) *WalkContext {
	return &WalkContext{
		Source:    f.Content,
		Path:      f.Path,
		Table:     table,
		opts:      a.opts,
		fileScope: 2,
	}
}

func packageName(f *parsedFile) string {
	for _, child := range namedChildren(f.root) {
		if child.Kind() != "package_clause" {
			continue
		}
		for _, id := range namedChildren(child) {
			if id.Kind() == "package_identifier" {
				return string(f.Content[id.StartByte():id.EndByte()])
			}
		}
	}
	return strings.TrimSuffix(filepath.Base(f.Path), ".go")
}

// firstError returns the first ERROR or MISSING node in source order.
func firstError(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if bad := firstError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return node
}
