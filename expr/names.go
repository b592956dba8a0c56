package expr

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Text returns the source text covered by node.
func Text(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// TypeRef is one named type inside a type expression. Qualifier is the
// first segment of a scoped path (fmt in fmt::Formatter, T in T::Output)
// and empty for a bare name.
type TypeRef struct {
	Name      string
	Qualifier string
}

// CollectTypeRefs returns every named type referenced by a type expression,
// in order of first appearance. Generic wrappers, references, pointers,
// tuples and slices are looked through; scoped paths contribute their last
// segment; primitive types, lifetimes and <T as Trait>::Item projections
// contribute nothing.
//
//	HashMap<String, Vec<crate::model::Address>>  ->  HashMap String Vec Address
func CollectTypeRefs(node *tree_sitter.Node, source []byte) []TypeRef {
	var refs []TypeRef
	seen := make(map[TypeRef]bool)

	add := func(ref TypeRef) {
		if ref.Name != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "type_identifier":
			add(TypeRef{Name: Text(n, source)})
			return
		case "scoped_type_identifier":
			qualifier, ok := firstSegment(n.ChildByFieldName("path"), source)
			if ok {
				add(TypeRef{Name: Text(n.ChildByFieldName("name"), source), Qualifier: qualifier})
			}
			return
		case "type_binding":
			// Item = T: the binding name is an associated type, not a reference
			walk(n.ChildByFieldName("type"))
			return
		case "primitive_type", "lifetime", "line_comment", "block_comment":
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)

	return refs
}

// firstSegment returns the leading segment of a path. ok is false for a
// bracketed <T as Trait> path, which always names an associated type.
func firstSegment(path *tree_sitter.Node, source []byte) (string, bool) {
	for path != nil {
		switch path.Kind() {
		case "scoped_identifier", "scoped_type_identifier":
			next := path.ChildByFieldName("path")
			if next == nil {
				return Text(path.ChildByFieldName("name"), source), true
			}
			path = next
		case "bracketed_type":
			return "", false
		default:
			return Text(path, source), true
		}
	}
	return "", true
}

// BaseName returns the single type a type expression is about: the owner of
// an impl block or the trait being implemented. &'a mut Foo<T> yields Foo.
func BaseName(node *tree_sitter.Node, source []byte) string {
	for node != nil {
		switch node.Kind() {
		case "type_identifier":
			return Text(node, source)
		case "scoped_type_identifier":
			return Text(node.ChildByFieldName("name"), source)
		case "generic_type", "reference_type", "pointer_type":
			node = node.ChildByFieldName("type")
		default:
			return ""
		}
	}
	return ""
}
