package pysource

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	"golang.org/x/text/unicode/runenames"
)

var pythonLanguage = sitter.NewLanguage(python.Language())

// parseTree parses Python source. The caller must close the returned tree.
func parseTree(filePath string, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(pythonLanguage); err != nil {
		return nil, fmt.Errorf("failed to set python language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse python file: %s", filePath)
	}
	return tree, nil
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// hasChildOfKind reports whether any direct child (named or not) has the given kind.
func hasChildOfKind(node *sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return true
		}
	}
	return false
}

// stringLiteral returns the value of a string statement, or false if stmt
// is not a lone string expression.
func stringLiteral(stmt *sitter.Node, source []byte) (string, bool) {
	if stmt == nil || stmt.Kind() != "expression_statement" {
		return "", false
	}
	children := namedChildren(stmt)
	if len(children) != 1 {
		return "", false
	}

	expr := children[0]
	switch expr.Kind() {
	case "string":
		return literalValue(nodeText(expr, source)), true
	case "concatenated_string":
		var b strings.Builder
		for _, part := range namedChildren(expr) {
			if part.Kind() == "string" {
				b.WriteString(literalValue(nodeText(part, source)))
			}
		}
		return b.String(), true
	}
	return "", false
}

// literalValue strips the prefix and quotes of a Python string literal and
// decodes escape sequences unless the literal is raw.
func literalValue(raw string) string {
	prefixEnd := strings.IndexAny(raw, `"'`)
	if prefixEnd < 0 {
		return raw
	}
	prefix := strings.ToLower(raw[:prefixEnd])
	body := raw[prefixEnd:]

	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	default:
		quote = body[:1]
	}
	body = strings.TrimPrefix(body, quote)
	body = strings.TrimSuffix(body, quote)

	if strings.Contains(prefix, "r") {
		return body
	}
	return unescape(body)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch esc := s[i]; esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case '\n':
			// line continuation
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n, width := octalEscape(s[i:])
			b.WriteRune(rune(n))
			i += width - 1
		case 'a', 'b', 'f', 'v', 'x', 'u', 'U':
			// x yields a code point here, not a byte
			value, _, tail, err := strconv.UnquoteChar(s[i-1:], 0)
			if err != nil {
				b.WriteByte('\\')
				b.WriteByte(esc)
				continue
			}
			b.WriteRune(value)
			i = len(s) - len(tail) - 1
		case 'N':
			r, width, ok := namedEscape(s[i+1:])
			if !ok {
				b.WriteByte('\\')
				b.WriteByte(esc)
				continue
			}
			b.WriteRune(r)
			i += width
		default:
			b.WriteByte('\\')
			b.WriteByte(esc)
		}
	}
	return b.String()
}

// octalEscape reads up to three octal digits from the start of s.
func octalEscape(s string) (value, width int) {
	for width < 3 && width < len(s) && s[width] >= '0' && s[width] <= '7' {
		value = value*8 + int(s[width]-'0')
		width++
	}
	return value, width
}

// namedEscape decodes the {NAME} part of a \N escape, returning the rune and
// the number of bytes consumed.
func namedEscape(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, "{") {
		return 0, 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return 0, 0, false
	}
	r, ok := lookupRuneName(s[1:end])
	return r, end + 1, ok
}

const cjkIdeographPrefix = "CJK UNIFIED IDEOGRAPH-"

var (
	runeNamesOnce sync.Once
	runeNames     map[string]rune
)

// lookupRuneName finds a character by its Unicode name, ignoring case.
func lookupRuneName(name string) (rune, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if hex, ok := strings.CutPrefix(name, cjkIdeographPrefix); ok {
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !unicode.Is(unicode.Ideographic, rune(n)) {
			return 0, false
		}
		return rune(n), true
	}

	runeNamesOnce.Do(func() {
		runeNames = make(map[string]rune, 1<<15)
		for r := rune(0); r <= unicode.MaxRune; r++ {
			n := runenames.Name(r)
			if n == "" || strings.HasPrefix(n, "<") {
				continue
			}
			runeNames[n] = r
		}
	})
	r, ok := runeNames[name]
	return r, ok
}
