package analysis

import (
	"fmt"

	"github.com/TFMV/rsmetrics/types"
)

// LCOM computes the Henderson-Sellers lack of cohesion of a type:
//
//	(m - sum(mA)/a) / (m - 1)
//
// where m is the number of methods, a the number of fields and mA the number
// of methods accessing each field. Accesses to names that are not declared
// fields are ignored. A type with at most one method or without fields
// scores 0. The result is clamped to [0, 1].
func LCOM(t types.TypeRecord) float64 {
	methodCount := len(t.Methods)
	fieldCount := len(t.Fields)
	if methodCount <= 1 || fieldCount == 0 {
		return 0
	}

	sumAccess := 0
	for _, m := range t.Methods {
		accessed := make(map[string]bool, len(m.AccessedFields))
		for _, name := range m.AccessedFields {
			accessed[name] = true
		}
		for _, f := range t.Fields {
			if accessed[f.Name] {
				sumAccess++
			}
		}
	}

	avgMethodsPerField := float64(sumAccess) / float64(fieldCount)
	lcom := (float64(methodCount) - avgMethodsPerField) / float64(methodCount-1)

	return min(max(lcom, 0), 1)
}

// CBO counts the distinct local types a type is coupled to through its
// fields and method signatures. A type never couples to itself.
func CBO(t types.TypeRecord) int {
	coupled := make(map[string]bool, len(t.LocalTypeRefs))
	for _, ref := range t.LocalTypeRefs {
		if ref != t.Name {
			coupled[ref] = true
		}
	}
	return len(coupled)
}

// WMC sums the cyclomatic complexity of a type's methods. It panics on a
// method with complexity below 1, which the parser never produces.
func WMC(t types.TypeRecord) int {
	wmc := 0
	for _, m := range t.Methods {
		if m.CyclomaticComplexity < 1 {
			panic(fmt.Sprintf("analysis: method %s::%s has cyclomatic complexity %d", t.Name, m.Name, m.CyclomaticComplexity))
		}
		wmc += m.CyclomaticComplexity
	}
	return wmc
}

// Measure computes all three metrics for one type.
func Measure(t types.TypeRecord) types.AnalysisResult {
	return types.AnalysisResult{
		TypeName: t.Name,
		File:     t.File,
		LCOM:     LCOM(t),
		CBO:      CBO(t),
		WMC:      WMC(t),
	}
}
