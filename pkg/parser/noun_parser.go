package parser

import (
	"fmt"
	"math/big"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_json "github.com/tree-sitter/tree-sitter-json/bindings/go"

	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

// NounParser reads nouns written as JSON: integers are atoms, null is Error,
// and an array of two or more items is a right-nested cell, so [1, 2, 3] is
// [1, [2, 3]]. A NounParser is not safe for concurrent use.
type NounParser struct {
	parser *sitter.Parser
}

// NewNounParser constructs a parser with the JSON grammar loaded.
func NewNounParser() (*NounParser, error) {
	lang := sitter.NewLanguage(tree_sitter_json.Language())
	if lang == nil {
		return nil, fmt.Errorf("parser: json language not available")
	}

	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("parser: %w", err)
	}

	return &NounParser{parser: p}, nil
}

// Close releases parser resources.
func (p *NounParser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
	p.parser = nil
}

// Parse converts source into a single noun.
func (p *NounParser) Parse(source []byte) (runtime.Value, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("parser: nil parser")
	}

	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parser: parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Kind() != "document" {
		return nil, fmt.Errorf("parser: unexpected root node")
	}
	if root.HasError() {
		return nil, syntaxError(root)
	}

	var values []*sitter.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if isIgnorableNode(node) {
			continue
		}
		values = append(values, node)
	}
	switch len(values) {
	case 0:
		return nil, &ParseError{Message: "parser: expected a noun", Location: locationForNode(root)}
	case 1:
		return parseNoun(values[0], source)
	default:
		return nil, wrapParseError(values[1], fmt.Errorf("parser: unexpected second noun"))
	}
}

// Parse is a convenience wrapper that builds a NounParser for one call.
func Parse(source []byte) (runtime.Value, error) {
	p, err := NewNounParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse(source)
}

func parseNoun(node *sitter.Node, source []byte) (runtime.Value, error) {
	switch node.Kind() {
	case "null":
		return runtime.Error(), nil
	case "number":
		text := node.Utf8Text(source)
		value, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, wrapParseError(node, fmt.Errorf("parser: atom %s is not an integer", text))
		}
		return runtime.AtomBig(value), nil
	case "array":
		items := make([]runtime.Value, 0, node.NamedChildCount())
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if isIgnorableNode(child) {
				continue
			}
			item, err := parseNoun(child, source)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if len(items) < 2 {
			return nil, wrapParseError(node, fmt.Errorf("parser: a cell needs at least two nouns, found %d", len(items)))
		}
		return runtime.Tuple(items...), nil
	default:
		return nil, wrapParseError(node, fmt.Errorf("parser: %s is not a noun", node.Kind()))
	}
}

func isIgnorableNode(node *sitter.Node) bool {
	return node == nil || node.Kind() == "comment"
}
