// Package treesitter builds ast trees from Java source using tree-sitter.
package treesitter

import (
	"fmt"
	"os"

	"github.com/panbanda/oometrics/pkg/ast"
	"github.com/panbanda/oometrics/pkg/parser"
)

// Provider implements ast.Provider using tree-sitter.
// Like the underlying parser it is not safe for concurrent use.
type Provider struct {
	parser *parser.Parser
	owned  bool
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
		owned:  true,
	}
}

// NewWithParser creates a provider that borrows an existing parser.
// Close on the returned provider is a no-op; the caller owns the parser.
func NewWithParser(psr *parser.Parser) *Provider {
	return &Provider{parser: psr}
}

// Parse reads and parses a file.
func (p *Provider) Parse(path string) (*ast.File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(source, path)
}

// ParseSource parses Java source already in memory.
func (p *Provider) ParseSource(source []byte, path string) (*ast.File, error) {
	lang := parser.DetectLanguage(path)
	if lang != parser.LangJava {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}

	result, err := p.parser.Parse(source, lang, path)
	if err != nil {
		return nil, err
	}
	defer result.Tree.Close()

	return Convert(result), nil
}

// Language returns the detected language for a file path.
func (p *Provider) Language(path string) ast.Language {
	if parser.DetectLanguage(path) == parser.LangJava {
		return ast.LangJava
	}
	return ast.LangUnknown
}

// Close releases parser resources.
func (p *Provider) Close() {
	if p.owned && p.parser != nil {
		p.parser.Close()
	}
	p.parser = nil
}

// Convert turns a tree-sitter parse result into an ast.File.
func Convert(result *parser.ParseResult) *ast.File {
	c := &converter{source: result.Source}
	root := c.convert(result.Tree.RootNode())
	if root == nil || root.Kind != ast.KindCompilationUnit {
		root = ast.Unit(nonNil(root)...)
	}
	return &ast.File{
		Path:     result.Path,
		Language: ast.LangJava,
		Root:     root,
	}
}

func nonNil(nodes ...*ast.Node) []*ast.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
