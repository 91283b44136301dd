package parser

import (
	"fmt"
	"sort"
	"time"

	"scopecheck/internal/engine/symtab"
)

type FindingKind string

const (
	// A name declared twice in one scope, or a := that declares nothing new.
	FindingRedeclared FindingKind = "redeclared"
	// A declaration that hides a binding from an enclosing package, file or function scope.
	FindingShadowed FindingKind = "shadowed"
	// A reference no enclosing scope binds.
	FindingUnresolved FindingKind = "unresolved"
	// The file did not parse cleanly; other findings may be incomplete.
	FindingSyntax FindingKind = "syntax"
)

type Finding struct {
	Kind    FindingKind
	Name    string
	Pos     symtab.Position
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Pos, f.Kind, f.Message)
}

// SourceFile is one Go file handed to the analyzer.
type SourceFile struct {
	Path    string
	Content []byte
}

type Report struct {
	Files     int
	Packages  int
	Findings  []Finding
	StartedAt time.Time
	Duration  time.Duration
}

// CountByKind tallies the report's findings.
func (r *Report) CountByKind() map[FindingKind]int {
	counts := make(map[FindingKind]int)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	return counts
}

func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i].Pos, findings[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return findings[i].Kind < findings[j].Kind
	})
}
