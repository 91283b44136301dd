package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scopecheck/internal/engine/parser"
	"scopecheck/internal/shared/util"
)

// FindingsMarker names the block WriteMarkdown replaces inside an existing
// document.
const FindingsMarker = "findings"

type MarkdownReportOptions struct {
	ProjectName string
	ProjectRoot string
	Version     string
	GeneratedAt time.Time
	// Sections with more rows than this are folded into <details>; zero
	// never folds.
	CollapseAfter int
}

var markdownSections = []struct {
	kind    parser.FindingKind
	title   string
	anchor  string
	noneMsg string
}{
	{parser.FindingSyntax, "Syntax Errors", "syntax-errors", "All files parsed cleanly."},
	{parser.FindingRedeclared, "Redeclarations", "redeclarations", "No redeclarations detected."},
	{parser.FindingShadowed, "Shadowed Declarations", "shadowed-declarations", "No shadowed declarations detected."},
	{parser.FindingUnresolved, "Unresolved Names", "unresolved-names", "No unresolved names detected."},
}

type MarkdownGenerator struct{}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

func (m *MarkdownGenerator) Generate(report *parser.Report, opts MarkdownReportOptions) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report is required")
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Scope Analysis Report\n")
	b.WriteString("project: " + nonEmpty(opts.ProjectName, "unknown") + "\n")
	b.WriteString("generated_at: " + opts.GeneratedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("version: " + nonEmpty(opts.Version, "unknown") + "\n")
	b.WriteString("---\n\n")
	b.WriteString(m.Body(report, opts))
	return b.String(), nil
}

// Body renders the report without front matter, for injection into an
// existing document.
func (m *MarkdownGenerator) Body(report *parser.Report, opts MarkdownReportOptions) string {
	byKind := make(map[parser.FindingKind][]parser.Finding)
	for _, f := range report.Findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	var b strings.Builder
	b.WriteString("# Scope Analysis Report\n\n")
	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Files | %d |\n", report.Files))
	b.WriteString(fmt.Sprintf("| Packages | %d |\n", report.Packages))
	for _, section := range markdownSections {
		b.WriteString(fmt.Sprintf("| [%s](#%s) | %d |\n", section.title, section.anchor, len(byKind[section.kind])))
	}
	b.WriteString("\n")

	for _, section := range markdownSections {
		m.writeFindings(&b, section.title, section.noneMsg, byKind[section.kind], opts)
	}
	return b.String()
}

func (m *MarkdownGenerator) writeFindings(b *strings.Builder, title, noneMsg string, findings []parser.Finding, opts MarkdownReportOptions) {
	b.WriteString("## " + title + "\n")
	if len(findings) == 0 {
		b.WriteString(noneMsg + "\n\n")
		return
	}
	rows := make([]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, fmt.Sprintf("| `%s` | `%s:%d:%d` | %s |\n",
			nonEmpty(f.Name, "-"),
			relPath(opts.ProjectRoot, f.Pos.File),
			f.Pos.Line,
			f.Pos.Column,
			escapeCell(f.Message),
		))
	}
	m.writeTableWithCollapse(
		b,
		title+" details",
		opts.CollapseAfter > 0 && len(rows) > opts.CollapseAfter,
		[]string{"| Name | Location | Message |\n", "| --- | --- | --- |\n"},
		rows,
	)
}

func (m *MarkdownGenerator) writeTableWithCollapse(b *strings.Builder, summary string, collapse bool, header, rows []string) {
	if collapse {
		b.WriteString("<details>\n")
		b.WriteString("<summary>")
		b.WriteString(summary)
		b.WriteString("</summary>\n\n")
	}
	for _, line := range header {
		b.WriteString(line)
	}
	for _, line := range rows {
		b.WriteString(line)
	}
	b.WriteString("\n")
	if collapse {
		b.WriteString("</details>\n\n")
	}
}

// WriteMarkdown writes the report to path. When path already holds a
// document with findings markers only the marked block is replaced and
// body is used; otherwise full overwrites the file.
func WriteMarkdown(path, full, body string) error {
	content, err := os.ReadFile(path)
	if err == nil && strings.Contains(string(content), markerLine(FindingsMarker, "start")) {
		return InjectSection(path, FindingsMarker, body)
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read markdown file %q: %w", path, err)
	}
	return util.WriteFileWithDirs(path, []byte(full), 0o644)
}

// InjectSection replaces the block between the marker comments in filePath,
// writing through a temp file and rename.
func InjectSection(filePath, marker, section string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read markdown file %q: %w", filePath, err)
	}

	next, err := ReplaceBetweenMarkers(string(content), marker, section)
	if err != nil {
		return err
	}

	dir := filepath.Dir(filePath)
	tmp, err := os.CreateTemp(dir, ".markdown-inject-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", filePath, err)
	}
	tmpName := tmp.Name()

	writeErr := error(nil)
	if _, err := tmp.WriteString(next); err != nil {
		writeErr = fmt.Errorf("write temp markdown file %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close temp markdown file %q: %w", tmpName, err)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace markdown file %q: %w", filePath, err)
	}
	return nil
}

func markerLine(marker, edge string) string {
	return fmt.Sprintf("<!-- scopecheck:%s:%s -->", marker, edge)
}

func ReplaceBetweenMarkers(content, marker, replacement string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return "", fmt.Errorf("markdown marker must not be empty")
	}

	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}

	start := markerLine(marker, "start")
	end := markerLine(marker, "end")
	if strings.Count(content, start) != 1 || strings.Count(content, end) != 1 {
		return "", fmt.Errorf("markdown marker %q must appear exactly once for start and end", marker)
	}

	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if endIdx < startIdx {
		return "", fmt.Errorf("invalid marker order for %q", marker)
	}

	prefix := content[:startIdx+len(start)]
	suffix := content[endIdx:]
	clean := strings.TrimRight(replacement, "\r\n")

	return prefix + newline + clean + newline + suffix, nil
}

func relPath(root, path string) string {
	root = strings.TrimSpace(root)
	path = strings.TrimSpace(path)
	if root == "" || path == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
