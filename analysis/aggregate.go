package analysis

import (
	"fmt"
	"slices"

	"github.com/TFMV/rsmetrics/parser"
	"github.com/TFMV/rsmetrics/types"
)

type typeState struct {
	record   types.TypeRecord
	typeRefs []string
	methods  map[string]int
	traits   map[string]bool
}

// Aggregate merges per-file extraction results into one record per type.
// It runs in three passes: collect the local type universe, merge impl
// blocks into their owners, then classify every referenced type as local
// or external. The result is in discovery order.
//
// Name collisions and duplicate methods are resolved last-write-wins, in
// the order of files, and reported as warnings.
func Aggregate(files []parser.FileAnalysis) ([]types.TypeRecord, []types.Warning) {
	var warnings []types.Warning
	var order []string
	states := make(map[string]*typeState)

	for _, fa := range files {
		for _, def := range fa.Types {
			st, exists := states[def.Name]
			if exists {
				warnings = append(warnings, types.Warning{
					Kind:    types.WarnTypeCollision,
					File:    fa.Path,
					Type:    def.Name,
					Message: fmt.Sprintf("also defined at %s:%d; last definition wins", st.record.File, st.record.Line),
				})
			} else {
				st = &typeState{
					methods: make(map[string]int),
					traits:  make(map[string]bool),
				}
				states[def.Name] = st
				order = append(order, def.Name)
			}
			st.record.Name = def.Name
			st.record.Kind = def.Kind
			st.record.File = fa.Path
			st.record.Line = def.Line
			st.record.Fields = def.Fields
			st.typeRefs = def.TypeRefs
		}
	}

	for _, fa := range files {
		for _, impl := range fa.Impls {
			st, ok := states[impl.Owner]
			if !ok {
				warnings = append(warnings, types.Warning{
					Kind:    types.WarnOrphanImpl,
					File:    fa.Path,
					Type:    impl.Owner,
					Message: fmt.Sprintf("impl block at line %d is for a type not defined in the analyzed files", impl.Line),
				})
				continue
			}
			if impl.Trait != "" {
				st.traits[impl.Trait] = true
			}
			for _, m := range impl.Methods {
				idx, dup := st.methods[m.Name]
				if !dup {
					st.methods[m.Name] = len(st.record.Methods)
					st.record.Methods = append(st.record.Methods, m)
					continue
				}
				prev := st.record.Methods[idx]
				warnings = append(warnings, types.Warning{
					Kind:    types.WarnAmbiguousMerge,
					File:    fa.Path,
					Type:    impl.Owner,
					Method:  m.Name,
					Message: fmt.Sprintf("method defined in more than one impl block (%s:%d and %s:%d); last definition wins", prev.File, prev.Line, m.File, m.Line),
				})
				st.record.Methods[idx] = m
			}
		}
	}

	records := make([]types.TypeRecord, 0, len(order))
	for _, name := range order {
		records = append(records, resolve(states[name], states))
	}

	return records, warnings
}

// resolve classifies the references of one type against the universe.
func resolve(st *typeState, universe map[string]*typeState) types.TypeRecord {
	rec := st.record
	if rec.Fields == nil {
		rec.Fields = []types.Field{}
	}
	if rec.Methods == nil {
		rec.Methods = []types.MethodRecord{}
	}

	local := make(map[string]bool)
	external := make(map[string]bool)
	classify := func(refs []string) {
		for _, ref := range refs {
			if ref == rec.Name {
				continue
			}
			if _, ok := universe[ref]; ok {
				local[ref] = true
			} else {
				external[ref] = true
			}
		}
	}
	classify(st.typeRefs)
	for _, m := range rec.Methods {
		classify(m.TypeRefs)
	}

	rec.LocalTypeRefs = sortedKeys(local)
	rec.ExternalTypeRefs = sortedKeys(external)
	rec.ImplementedTraits = sortedKeys(st.traits)
	return rec
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
