package pysource

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParamKind distinguishes the syntactic forms a parameter can take.
type ParamKind int

const (
	ParamRegular ParamKind = iota
	ParamVarPositional
	ParamVarKeyword
	ParamKeywordOnlyMarker
	ParamPositionalOnlyMarker
)

// Parameter is one entry of a parameter list.
type Parameter struct {
	Name       string
	Annotation string
	Default    string
	Kind       ParamKind
}

// String renders the parameter as it would appear in a signature.
func (p Parameter) String() string {
	switch p.Kind {
	case ParamKeywordOnlyMarker:
		return "*"
	case ParamPositionalOnlyMarker:
		return "/"
	}

	s := p.Name
	switch p.Kind {
	case ParamVarPositional:
		s = "*" + s
	case ParamVarKeyword:
		s = "**" + s
	}

	switch {
	case p.Annotation != "" && p.Default != "":
		s += ": " + p.Annotation + " = " + p.Default
	case p.Annotation != "":
		s += ": " + p.Annotation
	case p.Default != "":
		s += "=" + p.Default
	}
	return s
}

func joinParameters(params []Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// parseParameters converts a tree-sitter "parameters" node.
func parseParameters(node *sitter.Node, source []byte) []Parameter {
	if node == nil {
		return nil
	}

	var params []Parameter
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if p, ok := parseParameter(child, source); ok {
			params = append(params, p)
		}
	}
	return params
}

func parseParameter(node *sitter.Node, source []byte) (Parameter, bool) {
	switch node.Kind() {
	case "identifier":
		return Parameter{Name: nodeText(node, source)}, true

	case "list_splat_pattern":
		return Parameter{Name: splatName(node, source), Kind: ParamVarPositional}, true

	case "dictionary_splat_pattern":
		return Parameter{Name: splatName(node, source), Kind: ParamVarKeyword}, true

	case "keyword_separator":
		return Parameter{Kind: ParamKeywordOnlyMarker}, true

	case "positional_separator":
		return Parameter{Kind: ParamPositionalOnlyMarker}, true

	case "typed_parameter":
		// The name is an unnamed-field child: identifier or a splat pattern.
		var p Parameter
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Kind() == "type" {
				continue
			}
			if inner, ok := parseParameter(child, source); ok {
				p = inner
				break
			}
		}
		p.Annotation = normalizeSpace(nodeText(node.ChildByFieldName("type"), source))
		return p, p.Name != ""

	case "default_parameter":
		return Parameter{
			Name:    nodeText(node.ChildByFieldName("name"), source),
			Default: normalizeSpace(nodeText(node.ChildByFieldName("value"), source)),
		}, true

	case "typed_default_parameter":
		return Parameter{
			Name:       nodeText(node.ChildByFieldName("name"), source),
			Annotation: normalizeSpace(nodeText(node.ChildByFieldName("type"), source)),
			Default:    normalizeSpace(nodeText(node.ChildByFieldName("value"), source)),
		}, true
	}

	// comments and anything else the grammar adds
	return Parameter{}, false
}

func splatName(node *sitter.Node, source []byte) string {
	return strings.TrimLeft(nodeText(node, source), "*")
}

// normalizeSpace collapses runs of whitespace so multi-line annotations and
// defaults render on one line.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
