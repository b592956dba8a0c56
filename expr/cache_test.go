package expr_test

import (
	"testing"

	"github.com/TFMV/rsmetrics/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// fieldTypes parses src and returns the type node of every field declaration.
func fieldTypes(t *testing.T, src string) ([]*tree_sitter.Node, []byte, func()) {
	t.Helper()
	source := []byte(src)

	p := tree_sitter.NewParser()
	require.NoError(t, p.SetLanguage(tree_sitter.NewLanguage(tree_sitter_rust.Language())))
	tree := p.Parse(source, nil)
	require.NotNil(t, tree)

	var nodes []*tree_sitter.Node
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n.Kind() == "field_declaration" {
			nodes = append(nodes, n.ChildByFieldName("type"))
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())

	return nodes, source, func() {
		tree.Close()
		p.Close()
	}
}

func names(refs []expr.TypeRef) []string {
	var out []string
	for _, ref := range refs {
		out = append(out, ref.Name)
	}
	return out
}

func TestCollectTypeRefs(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		want []string
	}{
		{name: "simple type", typ: "Address", want: []string{"Address"}},
		{name: "primitive", typ: "u64", want: nil},
		{name: "reference", typ: "&'a mut Address", want: []string{"Address"}},
		{name: "generic wrapper", typ: "Vec<Address>", want: []string{"Vec", "Address"}},
		{name: "scoped path", typ: "crate::model::Address", want: []string{"Address"}},
		{name: "nested generics", typ: "HashMap<String, Vec<Option<Order>>>", want: []string{"HashMap", "String", "Vec", "Option", "Order"}},
		{name: "tuple and array", typ: "([Item; 4], Order)", want: []string{"Item", "Order"}},
		{name: "associated binding", typ: "Box<dyn Iterator<Item = Order>>", want: []string{"Box", "Iterator", "Order"}},
		{name: "duplicates collapse", typ: "Result<Order, Order>", want: []string{"Result", "Order"}},
		{name: "qualified projection", typ: "Option<<T as Iterator>::Item>", want: []string{"Option"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, source, done := fieldTypes(t, "struct S<'a> { f: "+tt.typ+" }")
			defer done()
			require.Len(t, nodes, 1)
			assert.Equal(t, tt.want, names(expr.CollectTypeRefs(nodes[0], source)))
		})
	}
}

func TestCollectTypeRefs_Qualifier(t *testing.T) {
	nodes, source, done := fieldTypes(t, `struct S<T> {
		a: fmt::Formatter,
		b: std::sync::Arc<Order>,
		c: Option<Self::Item>,
		d: T::Output,
	}`)
	defer done()
	require.Len(t, nodes, 4)

	assert.Equal(t, []expr.TypeRef{{Name: "Formatter", Qualifier: "fmt"}}, expr.CollectTypeRefs(nodes[0], source))
	assert.Equal(t, []expr.TypeRef{{Name: "Arc", Qualifier: "std"}, {Name: "Order"}}, expr.CollectTypeRefs(nodes[1], source))
	assert.Equal(t, []expr.TypeRef{{Name: "Option"}, {Name: "Item", Qualifier: "Self"}}, expr.CollectTypeRefs(nodes[2], source))
	assert.Equal(t, []expr.TypeRef{{Name: "Output", Qualifier: "T"}}, expr.CollectTypeRefs(nodes[3], source))
}

func TestBaseName(t *testing.T) {
	nodes, source, done := fieldTypes(t, `struct S<'a, T> {
		a: Order,
		b: &'a mut Vec<T>,
		c: std::sync::Arc<Order>,
		d: (Order, Item),
	}`)
	defer done()
	require.Len(t, nodes, 4)

	assert.Equal(t, "Order", expr.BaseName(nodes[0], source))
	assert.Equal(t, "Vec", expr.BaseName(nodes[1], source))
	assert.Equal(t, "Arc", expr.BaseName(nodes[2], source))
	assert.Equal(t, "", expr.BaseName(nodes[3], source))
	assert.Equal(t, "", expr.BaseName(nil, source))
}

func TestTypeNameCache(t *testing.T) {
	nodes, source, done := fieldTypes(t, `struct S { a: Vec<Order>, b: Vec<Order>, c: Item }`)
	defer done()
	require.Len(t, nodes, 3)

	cache := expr.NewTypeNameCache(10)
	assert.Equal(t, []string{"Vec", "Order"}, names(cache.Refs(nodes[0], source)))
	assert.Equal(t, 1, cache.Len())

	// same text, served from the cache
	assert.Equal(t, []string{"Vec", "Order"}, names(cache.Refs(nodes[1], source)))
	assert.Equal(t, 1, cache.Len())

	assert.Equal(t, []string{"Item"}, names(cache.Refs(nodes[2], source)))
	assert.Equal(t, 2, cache.Len())

	refs, ok := cache.Get("Item")
	assert.True(t, ok)
	assert.Equal(t, []expr.TypeRef{{Name: "Item"}}, refs)

	assert.Nil(t, cache.Refs(nil, source))

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	_, ok = cache.Get("Item")
	assert.False(t, ok)
}

func TestTypeNameCache_Eviction(t *testing.T) {
	cache := expr.NewTypeNameCache(2)
	cache.Put("A", []expr.TypeRef{{Name: "A"}})
	cache.Put("B", []expr.TypeRef{{Name: "B"}})
	cache.Put("C", []expr.TypeRef{{Name: "C"}})

	_, ok := cache.Get("A")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Len())
}
