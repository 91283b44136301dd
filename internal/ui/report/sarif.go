// # internal/ui/report/sarif.go
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"scopecheck/internal/engine/parser"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

// sarifRules is indexed by finding kind; order is the order rules are listed.
var sarifRules = []struct {
	kind parser.FindingKind
	rule sarifRule
}{
	{parser.FindingRedeclared, sarifRule{
		ID:               "SCOPE001",
		Name:             "Redeclaration",
		ShortDescription: sarifMessage{Text: "A name is declared twice in the same scope."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	}},
	{parser.FindingShadowed, sarifRule{
		ID:               "SCOPE002",
		Name:             "ShadowedDeclaration",
		ShortDescription: sarifMessage{Text: "A declaration hides a binding from an enclosing scope."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
	}},
	{parser.FindingUnresolved, sarifRule{
		ID:               "SCOPE003",
		Name:             "UnresolvedName",
		ShortDescription: sarifMessage{Text: "A name is used that no enclosing scope declares."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	}},
	{parser.FindingSyntax, sarifRule{
		ID:               "SCOPE004",
		Name:             "SyntaxError",
		ShortDescription: sarifMessage{Text: "The file does not parse; scope results may be incomplete."},
		DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
	}},
}

// GenerateSARIF builds a SARIF v2.1.0 document from findings. File URIs are
// made relative to projectRoot so reports are safe to share.
func GenerateSARIF(projectRoot, toolVersion string, findings []parser.Finding) ([]byte, error) {
	present := make(map[parser.FindingKind]bool)
	for _, f := range findings {
		present[f.Kind] = true
	}

	byKind := make(map[parser.FindingKind]sarifRule, len(sarifRules))
	rules := make([]sarifRule, 0, len(sarifRules))
	for _, r := range sarifRules {
		byKind[r.kind] = r.rule
		if present[r.kind] {
			rules = append(rules, r.rule)
		}
	}

	results := make([]sarifResult, 0, len(findings))
	for _, f := range findings {
		rule, ok := byKind[f.Kind]
		if !ok {
			return nil, fmt.Errorf("no SARIF rule for finding kind %q", f.Kind)
		}
		result := sarifResult{
			RuleID:  rule.ID,
			Level:   rule.DefaultConfig.Level,
			Message: sarifMessage{Text: f.Message},
		}
		if f.Pos.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(projectRoot, f.Pos.File),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if f.Pos.IsValid() {
				loc.PhysicalLocation.Region = &sarifRegion{
					StartLine:   f.Pos.Line,
					StartColumn: f.Pos.Column,
				}
			}
			result.Locations = []sarifLocation{loc}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "scopecheck",
						Version: toolVersion,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

// relativeURI converts an absolute file path to a forward-slash URI relative
// to projectRoot. Relative paths are only converted to forward slashes.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		if rel, err := filepath.Rel(projectRoot, filePath); err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
