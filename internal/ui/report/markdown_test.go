package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scopecheck/internal/engine/parser"
	"scopecheck/internal/engine/symtab"
)

func sampleReport() *parser.Report {
	return &parser.Report{
		Files:    3,
		Packages: 2,
		Findings: []parser.Finding{
			{Kind: parser.FindingRedeclared, Name: "x", Pos: symtab.Position{File: "/repo/a.go", Line: 5, Column: 6}, Message: "x redeclared in this block"},
			{Kind: parser.FindingUnresolved, Name: "y", Pos: symtab.Position{File: "/repo/b.go", Line: 2, Column: 1}, Message: "undefined: y | z"},
		},
	}
}

func TestMarkdownGenerator_Generate(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(sampleReport(), MarkdownReportOptions{
		ProjectName: "demo",
		ProjectRoot: "/repo",
		Version:     "1.0.0",
		GeneratedAt: time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, want := range []string{
		"project: demo",
		"generated_at: 2026-02-13T10:00:00Z",
		"| Files | 3 |",
		"| [Redeclarations](#redeclarations) | 1 |",
		"| `x` | `a.go:5:6` | x redeclared in this block |",
		"undefined: y \\| z",
		"No shadowed declarations detected.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<details>") {
		t.Fatal("expected no folding without CollapseAfter")
	}
}

func TestMarkdownGenerator_Collapse(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(sampleReport(), MarkdownReportOptions{CollapseAfter: 0})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<details>") {
		t.Fatal("unexpected folding")
	}

	report := sampleReport()
	report.Findings = append(report.Findings, report.Findings[1], report.Findings[1])
	out, err = NewMarkdownGenerator().Generate(report, MarkdownReportOptions{CollapseAfter: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<summary>Unresolved Names details</summary>") {
		t.Fatalf("expected unresolved section folded:\n%s", out)
	}
}

func TestMarkdownGenerator_NilReport(t *testing.T) {
	if _, err := NewMarkdownGenerator().Generate(nil, MarkdownReportOptions{}); err == nil {
		t.Fatal("expected error for nil report")
	}
}

func TestReplaceBetweenMarkers(t *testing.T) {
	content := "intro\n<!-- scopecheck:findings:start -->\nold\n<!-- scopecheck:findings:end -->\noutro\n"
	out, err := ReplaceBetweenMarkers(content, FindingsMarker, "new\n\n")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	want := "intro\n<!-- scopecheck:findings:start -->\nnew\n<!-- scopecheck:findings:end -->\noutro\n"
	if out != want {
		t.Fatalf("unexpected output:\n%q", out)
	}

	if _, err := ReplaceBetweenMarkers("no markers", FindingsMarker, "x"); err == nil {
		t.Fatal("expected error without markers")
	}
	reversed := "<!-- scopecheck:findings:end -->\n<!-- scopecheck:findings:start -->\n"
	if _, err := ReplaceBetweenMarkers(reversed, FindingsMarker, "x"); err == nil {
		t.Fatal("expected error for reversed markers")
	}
	if _, err := ReplaceBetweenMarkers(content, " ", "x"); err == nil {
		t.Fatal("expected error for empty marker")
	}
}

func TestWriteMarkdown(t *testing.T) {
	dir := t.TempDir()

	fresh := filepath.Join(dir, "out", "report.md")
	if err := WriteMarkdown(fresh, "FULL", "BODY"); err != nil {
		t.Fatalf("write fresh: %v", err)
	}
	if data, _ := os.ReadFile(fresh); string(data) != "FULL" {
		t.Fatalf("expected full document, got %q", data)
	}

	readme := filepath.Join(dir, "README.md")
	original := "# Project\n<!-- scopecheck:findings:start -->\n<!-- scopecheck:findings:end -->\n"
	if err := os.WriteFile(readme, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteMarkdown(readme, "FULL", "BODY"); err != nil {
		t.Fatalf("inject: %v", err)
	}
	data, _ := os.ReadFile(readme)
	if !strings.HasPrefix(string(data), "# Project\n") || !strings.Contains(string(data), "start -->\nBODY\n<!--") {
		t.Fatalf("expected body injected between markers, got:\n%s", data)
	}
}
