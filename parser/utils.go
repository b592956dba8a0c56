package parser

import (
	"slices"

	"github.com/TFMV/rsmetrics/expr"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// bodyWalker accumulates the cyclomatic complexity and the receiver field
// accesses of one method body.
type bodyWalker struct {
	source       []byte
	countBoolOps bool
	recordFields bool
	complexity   int
	accessed     map[string]bool
}

func newBodyWalker(source []byte, opts Options, hasReceiver bool) *bodyWalker {
	return &bodyWalker{
		source:       source,
		countBoolOps: opts.CountBooleanOperators,
		recordFields: hasReceiver,
		complexity:   1, // Base complexity
		accessed:     make(map[string]bool),
	}
}

func (w *bodyWalker) walkBody(body *tree_sitter.Node) {
	for i := uint(0); i < body.ChildCount(); i++ {
		w.walk(body.Child(i))
	}
}

func (w *bodyWalker) walk(n *tree_sitter.Node) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "function_item", "impl_item", "trait_item", "struct_item", "enum_item", "union_item", "mod_item", "macro_definition":
		// nested items are not part of the enclosing method
		return
	case "if_expression", "while_expression", "for_expression", "loop_expression":
		w.complexity++
	case "match_expression":
		if arms := countArms(n.ChildByFieldName("body")); arms > 1 {
			w.complexity += arms - 1
		}
	case "binary_expression":
		if w.countBoolOps {
			if op := n.ChildByFieldName("operator"); op != nil && (op.Kind() == "&&" || op.Kind() == "||") {
				w.complexity++
			}
		}
	case "field_expression":
		if isSelf(n.ChildByFieldName("value"), w.source) {
			w.access(n.ChildByFieldName("field"))
		}
	case "call_expression":
		// self.helper() calls a method, it does not read a field
		if fn := n.ChildByFieldName("function"); fn != nil && fn.Kind() == "field_expression" && isSelf(fn.ChildByFieldName("value"), w.source) {
			w.walk(n.ChildByFieldName("arguments"))
			return
		}
	case "token_tree":
		w.scanTokens(n)
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		w.walk(n.Child(i))
	}
}

// scanTokens finds self.field inside macro arguments, which the grammar
// leaves as flat token trees.
func (w *bodyWalker) scanTokens(tt *tree_sitter.Node) {
	count := tt.ChildCount()
	for i := uint(0); i+2 < count; i++ {
		if !isSelf(tt.Child(i), w.source) || expr.Text(tt.Child(i+1), w.source) != "." {
			continue
		}
		field := tt.Child(i + 2)
		if k := field.Kind(); k != "identifier" && k != "integer_literal" {
			continue
		}
		if i+3 < count {
			if next := tt.Child(i + 3); next.Kind() == "token_tree" && next.ChildCount() > 0 && expr.Text(next.Child(0), w.source) == "(" {
				continue
			}
		}
		w.access(field)
	}
}

func (w *bodyWalker) access(field *tree_sitter.Node) {
	if !w.recordFields || field == nil {
		return
	}
	if name := expr.Text(field, w.source); name != "" {
		w.accessed[name] = true
	}
}

func (w *bodyWalker) accessedFields() []string {
	fields := make([]string, 0, len(w.accessed))
	for name := range w.accessed {
		fields = append(fields, name)
	}
	slices.Sort(fields)
	return fields
}

func isSelf(n *tree_sitter.Node, source []byte) bool {
	return n != nil && expr.Text(n, source) == "self"
}

func countArms(block *tree_sitter.Node) int {
	if block == nil {
		return 0
	}
	arms := 0
	for i := uint(0); i < block.NamedChildCount(); i++ {
		if block.NamedChild(i).Kind() == "match_arm" {
			arms++
		}
	}
	return arms
}
