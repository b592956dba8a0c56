package parser

import (
	"slices"
	"strconv"

	"github.com/TFMV/rsmetrics/expr"
	"github.com/TFMV/rsmetrics/types"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// visitor walks one syntax tree depth-first and collects type definitions
// and impl blocks. It keeps no state shared with other files.
type visitor struct {
	source    []byte
	path      string
	typeNames *expr.TypeNameCache
	opts      Options
	result    FileAnalysis
}

func (v *visitor) visit(n *tree_sitter.Node) {
	switch n.Kind() {
	case "struct_item":
		v.typeDef(n, "struct")
	case "union_item":
		v.typeDef(n, "union")
	case "enum_item":
		v.enumDef(n)
	case "impl_item":
		v.implBlock(n)
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		v.visit(n.NamedChild(i))
	}
}

func (v *visitor) text(n *tree_sitter.Node) string {
	return expr.Text(n, v.source)
}

func line(n *tree_sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

type fieldDecl struct {
	name string
	typ  *tree_sitter.Node
}

// fieldDecls lists the fields of a field_declaration_list, or the
// positional fields ("0", "1", ...) of an ordered_field_declaration_list.
func (v *visitor) fieldDecls(body *tree_sitter.Node) []fieldDecl {
	if body == nil {
		return nil
	}

	var decls []fieldDecl
	switch body.Kind() {
	case "field_declaration_list":
		for i := uint(0); i < body.NamedChildCount(); i++ {
			child := body.NamedChild(i)
			if child.Kind() != "field_declaration" {
				continue
			}
			decls = append(decls, fieldDecl{
				name: v.text(child.ChildByFieldName("name")),
				typ:  child.ChildByFieldName("type"),
			})
		}
	case "ordered_field_declaration_list":
		for i := uint(0); i < body.NamedChildCount(); i++ {
			child := body.NamedChild(i)
			switch child.Kind() {
			case "attribute_item", "visibility_modifier", "line_comment", "block_comment":
				continue
			}
			decls = append(decls, fieldDecl{
				name: strconv.Itoa(len(decls)),
				typ:  child,
			})
		}
	}
	return decls
}

func (v *visitor) typeDef(n *tree_sitter.Node, kind string) {
	name := v.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}
	generics := v.generics(n, nil)

	def := TypeDef{
		Name: name,
		Kind: kind,
		Line: line(n),
	}
	for _, fd := range v.fieldDecls(n.ChildByFieldName("body")) {
		def.Fields = append(def.Fields, types.Field{
			Name: fd.name,
			Type: v.text(fd.typ),
		})
		def.TypeRefs = v.appendTypeRefs(def.TypeRefs, fd.typ, name, generics)
	}

	v.result.Types = append(v.result.Types, def)
}

// enumDef records an enum. Variants are not fields, but their payload
// types are references like any field type.
func (v *visitor) enumDef(n *tree_sitter.Node) {
	name := v.text(n.ChildByFieldName("name"))
	if name == "" {
		return
	}
	generics := v.generics(n, nil)

	def := TypeDef{
		Name: name,
		Kind: "enum",
		Line: line(n),
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			variant := body.NamedChild(i)
			if variant.Kind() != "enum_variant" {
				continue
			}
			for _, fd := range v.fieldDecls(variant.ChildByFieldName("body")) {
				def.TypeRefs = v.appendTypeRefs(def.TypeRefs, fd.typ, name, generics)
			}
		}
	}

	v.result.Types = append(v.result.Types, def)
}

func (v *visitor) implBlock(n *tree_sitter.Node) {
	owner := expr.BaseName(n.ChildByFieldName("type"), v.source)
	if owner == "" {
		return
	}

	block := ImplBlock{
		Owner: owner,
		Line:  line(n),
	}
	if !isNegativeImpl(n) {
		block.Trait = expr.BaseName(n.ChildByFieldName("trait"), v.source)
	}

	generics := v.generics(n, nil)
	if body := n.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			child := body.NamedChild(i)
			if child.Kind() == "function_item" {
				block.Methods = append(block.Methods, v.method(child, block, generics))
			}
		}
	}

	v.result.Impls = append(v.result.Impls, block)
}

// isNegativeImpl reports impl !Trait for Type.
func isNegativeImpl(n *tree_sitter.Node) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.Child(i).Kind() == "!" {
			return true
		}
	}
	return false
}

func (v *visitor) method(fn *tree_sitter.Node, block ImplBlock, implGenerics map[string]bool) types.MethodRecord {
	generics := v.generics(fn, implGenerics)
	m := types.MethodRecord{
		Name:  v.text(fn.ChildByFieldName("name")),
		Trait: block.Trait,
		File:  v.path,
		Line:  line(fn),
	}

	if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			param := params.NamedChild(i)
			switch param.Kind() {
			case "self_parameter":
				m.HasReceiver = true
			case "parameter":
				if pattern := param.ChildByFieldName("pattern"); pattern != nil && pattern.Kind() == "self" {
					m.HasReceiver = true
				}
				m.TypeRefs = v.appendTypeRefs(m.TypeRefs, param.ChildByFieldName("type"), block.Owner, generics)
			case "attribute_item", "variadic_parameter", "line_comment", "block_comment":
			default:
				m.TypeRefs = v.appendTypeRefs(m.TypeRefs, param, block.Owner, generics)
			}
		}
	}
	m.TypeRefs = v.appendTypeRefs(m.TypeRefs, fn.ChildByFieldName("return_type"), block.Owner, generics)

	w := newBodyWalker(v.source, v.opts, m.HasReceiver)
	if body := fn.ChildByFieldName("body"); body != nil {
		w.walkBody(body)
	}
	m.CyclomaticComplexity = w.complexity
	m.AccessedFields = w.accessedFields()

	return m
}

// generics returns the type parameter names declared on n merged with
// those of the enclosing scope.
func (v *visitor) generics(n *tree_sitter.Node, outer map[string]bool) map[string]bool {
	params := n.ChildByFieldName("type_parameters")
	if params == nil {
		return outer
	}

	names := make(map[string]bool, len(outer))
	for name := range outer {
		names[name] = true
	}
	for i := uint(0); i < params.NamedChildCount(); i++ {
		param := params.NamedChild(i)
		if param.Kind() == "type_identifier" {
			names[v.text(param)] = true
			continue
		}
		for _, field := range []string{"name", "left"} {
			if id := param.ChildByFieldName(field); id != nil && id.Kind() == "type_identifier" {
				names[v.text(id)] = true
				break
			}
		}
	}
	return names
}

// appendTypeRefs adds the base names referenced by the type node to refs,
// skipping generic parameters, references to the owning type itself and
// associated types reached through Self or a generic parameter.
func (v *visitor) appendTypeRefs(refs []string, typ *tree_sitter.Node, owner string, generics map[string]bool) []string {
	for _, ref := range v.typeNames.Refs(typ, v.source) {
		if ref.Qualifier == "Self" || generics[ref.Qualifier] {
			continue
		}
		name := ref.Name
		if name == "Self" || name == owner || generics[name] {
			continue
		}
		if !slices.Contains(refs, name) {
			refs = append(refs, name)
		}
	}
	return refs
}
