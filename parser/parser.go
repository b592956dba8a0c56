package parser

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/TFMV/rsmetrics/expr"
	"github.com/TFMV/rsmetrics/types"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// ErrSyntax is returned when a file does not conform to the Rust grammar.
var ErrSyntax = errors.New("syntax error")

var rustLanguage = tree_sitter.NewLanguage(tree_sitter_rust.Language())

// Options tunes what the extractor counts.
type Options struct {
	// CountBooleanOperators adds one to a method's cyclomatic complexity
	// for every && and || it contains.
	CountBooleanOperators bool
}

type Parser struct {
	typeNames *expr.TypeNameCache
	opts      Options
}

func NewParser(cache *expr.TypeNameCache, opts Options) *Parser {
	return &Parser{
		typeNames: cache,
		opts:      opts,
	}
}

// TypeDef is a struct, union or enum as declared in one file
type TypeDef struct {
	Name     string
	Kind     string
	Line     int
	Fields   []types.Field
	TypeRefs []string
}

// ImplBlock is one impl block, inherent or trait, and the methods it declares
type ImplBlock struct {
	Owner   string
	Trait   string
	Line    int
	Methods []types.MethodRecord
}

// FileAnalysis represents the extraction results of a single file
type FileAnalysis struct {
	Path  string
	Types []TypeDef
	Impls []ImplBlock
}

// ReferencedTypes returns every base type name referenced in field,
// parameter or return position anywhere in the file, sorted.
func (fa FileAnalysis) ReferencedTypes() []string {
	seen := make(map[string]bool)
	for _, t := range fa.Types {
		for _, ref := range t.TypeRefs {
			seen[ref] = true
		}
	}
	for _, impl := range fa.Impls {
		for _, m := range impl.Methods {
			for _, ref := range m.TypeRefs {
				seen[ref] = true
			}
		}
	}

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}

// ParseFile reads path from disk and extracts it.
func (p *Parser) ParseFile(path string) (FileAnalysis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileAnalysis{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.ParseSource(path, content)
}

// ParseSource extracts the types and impl blocks of one Rust source file.
// Files with any syntax error are rejected with ErrSyntax.
func (p *Parser) ParseSource(path string, content []byte) (FileAnalysis, error) {
	ts := tree_sitter.NewParser()
	defer ts.Close()
	if err := ts.SetLanguage(rustLanguage); err != nil {
		return FileAnalysis{}, fmt.Errorf("failed to load rust grammar: %w", err)
	}

	tree := ts.Parse(content, nil)
	if tree == nil {
		return FileAnalysis{}, fmt.Errorf("failed to parse %s: %w", path, ErrSyntax)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			return FileAnalysis{}, fmt.Errorf("failed to parse %s: %w at line %d", path, ErrSyntax, bad.StartPosition().Row+1)
		}
		return FileAnalysis{}, fmt.Errorf("failed to parse %s: %w", path, ErrSyntax)
	}

	v := &visitor{
		source:    content,
		path:      path,
		typeNames: p.typeNames,
		opts:      p.opts,
		result:    FileAnalysis{Path: path},
	}
	v.visit(root)

	return v.result, nil
}

func firstError(n *tree_sitter.Node) *tree_sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}
