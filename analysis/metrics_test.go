package analysis_test

import (
	"testing"

	"github.com/TFMV/rsmetrics/analysis"
	"github.com/TFMV/rsmetrics/types"
	"github.com/stretchr/testify/assert"
)

func fields(names ...string) []types.Field {
	out := make([]types.Field, 0, len(names))
	for _, n := range names {
		out = append(out, types.Field{Name: n, Type: "i32"})
	}
	return out
}

func method(name string, complexity int, accessed ...string) types.MethodRecord {
	return types.MethodRecord{
		Name:                 name,
		HasReceiver:          len(accessed) > 0,
		AccessedFields:       accessed,
		CyclomaticComplexity: complexity,
	}
}

func TestLCOM(t *testing.T) {
	tests := []struct {
		name   string
		record types.TypeRecord
		want   float64
	}{
		{
			name:   "no methods",
			record: types.TypeRecord{Name: "T", Fields: fields("a")},
			want:   0,
		},
		{
			name: "single method",
			record: types.TypeRecord{Name: "T", Fields: fields("a", "b"), Methods: []types.MethodRecord{
				method("get", 1),
			}},
			want: 0,
		},
		{
			name: "zero fields",
			record: types.TypeRecord{Name: "T", Methods: []types.MethodRecord{
				method("a", 1), method("b", 1), method("c", 1),
			}},
			want: 0,
		},
		{
			name: "every method accesses every field",
			record: types.TypeRecord{Name: "T", Fields: fields("a", "b"), Methods: []types.MethodRecord{
				method("one", 1, "a", "b"), method("two", 1, "a", "b"), method("three", 1, "a", "b"),
			}},
			want: 0,
		},
		{
			name: "disjoint single-field access",
			record: types.TypeRecord{Name: "T", Fields: fields("a", "b", "c"), Methods: []types.MethodRecord{
				method("one", 1, "a"), method("two", 1, "b"), method("three", 1, "c"),
			}},
			// (3 - 3/3) / 2
			want: 1,
		},
		{
			name: "point with constructor",
			record: types.TypeRecord{Name: "Point", Fields: fields("x", "y"), Methods: []types.MethodRecord{
				method("new", 1), method("distance", 2, "x", "y"),
			}},
			want: 1,
		},
		{
			name: "partial overlap",
			record: types.TypeRecord{Name: "T", Fields: fields("a", "b"), Methods: []types.MethodRecord{
				method("one", 1, "a", "b"), method("two", 1, "a"), method("three", 1),
			}},
			// (3 - 3/2) / 2
			want: 0.75,
		},
		{
			name: "undeclared names are ignored",
			record: types.TypeRecord{Name: "T", Fields: fields("a"), Methods: []types.MethodRecord{
				method("one", 1, "a", "ghost"), method("two", 1, "ghost"),
			}},
			// (2 - 1/1) / 1
			want: 1,
		},
		{
			name: "never accessed fields clamp to one",
			record: types.TypeRecord{Name: "T", Fields: fields("a", "b"), Methods: []types.MethodRecord{
				method("one", 1), method("two", 1),
			}},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysis.LCOM(tt.record)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestCBO(t *testing.T) {
	tests := []struct {
		name string
		refs []string
		want int
	}{
		{name: "no refs", want: 0},
		{name: "distinct refs", refs: []string{"A", "B"}, want: 2},
		{name: "self excluded", refs: []string{"T", "A"}, want: 1},
		{name: "occurrences counted once", refs: []string{"A", "A", "B", "A"}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := types.TypeRecord{Name: "T", LocalTypeRefs: tt.refs}
			assert.Equal(t, tt.want, analysis.CBO(rec))
		})
	}
}

func TestWMC(t *testing.T) {
	assert.Equal(t, 0, analysis.WMC(types.TypeRecord{Name: "Empty"}))
	assert.Equal(t, 1, analysis.WMC(types.TypeRecord{Name: "T", Methods: []types.MethodRecord{method("f", 1)}}))
	assert.Equal(t, 6, analysis.WMC(types.TypeRecord{Name: "T", Methods: []types.MethodRecord{
		method("f", 1), method("g", 3), method("h", 2),
	}}))

	assert.Panics(t, func() {
		analysis.WMC(types.TypeRecord{Name: "T", Methods: []types.MethodRecord{method("broken", 0)}})
	})
}

func TestMeasure(t *testing.T) {
	rec := types.TypeRecord{
		Name:          "Point",
		File:          "src/point.rs",
		Fields:        fields("x", "y"),
		Methods:       []types.MethodRecord{method("new", 1), method("distance", 2, "x", "y")},
		LocalTypeRefs: []string{},
	}

	got := analysis.Measure(rec)
	assert.Equal(t, "Point", got.TypeName)
	assert.Equal(t, "src/point.rs", got.File)
	assert.InDelta(t, 1.0, got.LCOM, 1e-9)
	assert.Equal(t, 0, got.CBO)
	assert.Equal(t, 3, got.WMC)
}
