package types

import (
	"encoding/json"
	"fmt"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// Source is one input file handed to the pipeline.
type Source struct {
	Path    string
	Content []byte
}

// Field is a named field of a struct-like type along with its declared type text
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MethodRecord describes one method found in an impl block
type MethodRecord struct {
	Name                 string   `json:"name"`
	Trait                string   `json:"trait,omitempty"`
	File                 string   `json:"file"`
	Line                 int      `json:"line"`
	HasReceiver          bool     `json:"has_receiver"`
	AccessedFields       []string `json:"accessed_fields"`
	CyclomaticComplexity int      `json:"cyclomatic_complexity"`
	TypeRefs             []string `json:"type_refs"`
}

// TypeRecord is the resolved model of a struct, union or enum
type TypeRecord struct {
	ID                *models.RecordID `json:"id,omitempty"`
	Name              string           `json:"name"`
	Kind              string           `json:"kind"`
	File              string           `json:"file"`
	Line              int              `json:"line"`
	Fields            []Field          `json:"fields"`
	Methods           []MethodRecord   `json:"methods"`
	ExternalTypeRefs  []string         `json:"external_type_refs"`
	LocalTypeRefs     []string         `json:"local_type_refs"`
	ImplementedTraits []string         `json:"implemented_traits"`
}

// FieldNames returns the field names in declaration order.
func (t TypeRecord) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Method returns the method with the given name, if any.
func (t TypeRecord) Method(name string) (MethodRecord, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodRecord{}, false
}

// AnalysisResult holds the three metrics of one type
type AnalysisResult struct {
	ID       *models.RecordID `json:"id,omitempty"`
	TypeName string           `json:"type_name"`
	File     string           `json:"file"`
	LCOM     float64          `json:"lcom"`
	CBO      int              `json:"cbo"`
	WMC      int              `json:"wmc"`
}

// WarningKind classifies a non-fatal problem found during a run
type WarningKind string

const (
	WarnParseFailure   WarningKind = "parse_failure"
	WarnAmbiguousMerge WarningKind = "ambiguous_merge"
	WarnTypeCollision  WarningKind = "type_collision"
	WarnOrphanImpl     WarningKind = "orphan_impl"
)

// Warning is attached to a run instead of failing it
type Warning struct {
	ID      *models.RecordID `json:"id,omitempty"`
	Kind    WarningKind      `json:"kind"`
	File    string           `json:"file,omitempty"`
	Type    string           `json:"type,omitempty"`
	Method  string           `json:"method,omitempty"`
	Message string           `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.File != "" && w.Type != "":
		return fmt.Sprintf("%s: %s (%s): %s", w.Kind, w.File, w.Type, w.Message)
	case w.File != "":
		return fmt.Sprintf("%s: %s: %s", w.Kind, w.File, w.Message)
	case w.Type != "":
		return fmt.Sprintf("%s: %s: %s", w.Kind, w.Type, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// AnalysisReport contains the complete analysis results
type AnalysisReport struct {
	Results       []AnalysisResult
	Types         []TypeRecord
	Warnings      []Warning
	FilesAnalyzed int
	FilesSkipped  int
}

// Lookup returns the resolved record of the named type. ok is false when
// no analyzed file defines it.
func (r AnalysisReport) Lookup(name string) (TypeRecord, bool) {
	for _, t := range r.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeRecord{}, false
}

// WarningsOf returns the warnings of the given kinds.
func (r AnalysisReport) WarningsOf(kinds ...WarningKind) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		for _, k := range kinds {
			if w.Kind == k {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// PrettyPrint returns a formatted summary of the analysis
func (r AnalysisReport) PrettyPrint() string {
	type Summary struct {
		FilesAnalyzed int              `json:"files_analyzed"`
		FilesSkipped  int              `json:"files_skipped"`
		TotalTypes    int              `json:"total_types"`
		TotalMethods  int              `json:"total_methods"`
		Warnings      int              `json:"warnings"`
		Results       []AnalysisResult `json:"results"`
	}

	summary := Summary{
		FilesAnalyzed: r.FilesAnalyzed,
		FilesSkipped:  r.FilesSkipped,
		TotalTypes:    len(r.Types),
		Warnings:      len(r.Warnings),
		Results:       r.Results,
	}
	for _, t := range r.Types {
		summary.TotalMethods += len(t.Methods)
	}

	jsonBytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating summary: %v", err)
	}

	return string(jsonBytes)
}
