package pysource

import (
	"strings"

	"github.com/drift-labs/pyapidoc/internal/docstring"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// moduleBuilder turns a parsed tree into the object model of one module.
type moduleBuilder struct {
	source []byte
	module *Module
	loader *Loader
}

func buildModule(m *Module, source []byte, loader *Loader) error {
	tree, err := parseTree(m.FilePath, source)
	if err != nil {
		return err
	}
	defer tree.Close()

	b := &moduleBuilder{source: source, module: m, loader: loader}
	root := tree.RootNode()

	if doc, ok := b.docstringOf(root); ok {
		m.docstring = doc
	}
	b.collectBlock(root, m, m.members, m.path)
	return nil
}

// docstringOf returns the docstring of a module root or a block body.
func (b *moduleBuilder) docstringOf(body *sitter.Node) (*Docstring, bool) {
	children := namedChildren(body)
	if len(children) == 0 {
		return nil, false
	}
	value, ok := stringLiteral(children[0], b.source)
	if !ok {
		return nil, false
	}
	return &Docstring{Value: docstring.Clean(value)}, true
}

// collectBlock adds the definitions found in a module or class body to into.
// Conditional and try blocks are descended into so that guarded imports and
// definitions are still visible.
func (b *moduleBuilder) collectBlock(block *sitter.Node, parent Object, into members, parentPath string) {
	var lastTargets []*Attribute

	for _, stmt := range namedChildren(block) {
		if value, ok := stringLiteral(stmt, b.source); ok {
			// A string right after an assignment documents the assigned names.
			for _, attr := range lastTargets {
				attr.docstring = &Docstring{Value: docstring.Clean(value)}
			}
			lastTargets = nil
			continue
		}
		lastTargets = nil

		switch stmt.Kind() {
		case "class_definition":
			b.addClass(stmt, nil, parent, into, parentPath)

		case "function_definition":
			b.addFunction(stmt, nil, parent, into, parentPath)

		case "decorated_definition":
			decorators := b.decorators(stmt)
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Kind() {
			case "class_definition":
				b.addClass(def, decorators, parent, into, parentPath)
			case "function_definition":
				b.addFunction(def, decorators, parent, into, parentPath)
			}

		case "expression_statement":
			lastTargets = b.addAssignment(stmt, parent, into, parentPath)

		case "import_statement":
			b.addImport(stmt, parent, into, parentPath)

		case "import_from_statement":
			b.addImportFrom(stmt, parent, into, parentPath)

		case "if_statement", "try_statement", "with_statement":
			for _, nested := range nestedBlocks(stmt) {
				b.collectBlock(nested, parent, into, parentPath)
			}
		}
	}
}

// nestedBlocks returns the bodies of a compound statement and its clauses.
func nestedBlocks(stmt *sitter.Node) []*sitter.Node {
	var blocks []*sitter.Node
	for _, child := range namedChildren(stmt) {
		switch {
		case child.Kind() == "block":
			blocks = append(blocks, child)
		case strings.HasSuffix(child.Kind(), "_clause"):
			blocks = append(blocks, nestedBlocks(child)...)
		}
	}
	return blocks
}

func (b *moduleBuilder) decorators(decorated *sitter.Node) []string {
	var names []string
	for _, child := range namedChildren(decorated) {
		if child.Kind() != "decorator" {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(nodeText(child, b.source), "@"))
		if i := strings.Index(text, "("); i >= 0 {
			text = text[:i]
		}
		names = append(names, strings.TrimSpace(text))
	}
	return names
}

func (b *moduleBuilder) addClass(node *sitter.Node, decorators []string, parent Object, into members, parentPath string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, b.source)

	class := &Class{
		base: base{
			name:   name,
			path:   joinPath(parentPath, name),
			parent: parent,
		},
		members:    newMembers(),
		Decorators: decorators,
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for _, arg := range namedChildren(supers) {
			if arg.Kind() == "keyword_argument" {
				continue
			}
			class.Bases = append(class.Bases, normalizeSpace(nodeText(arg, b.source)))
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		if doc, ok := b.docstringOf(body); ok {
			class.docstring = doc
		}
		b.collectBlock(body, class, class.members, class.path)
		b.collectInstanceAttributes(class, body)
	}

	into.set(class)
}

func (b *moduleBuilder) addFunction(node *sitter.Node, decorators []string, parent Object, into members, parentPath string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, b.source)

	var doc *Docstring
	body := node.ChildByFieldName("body")
	if body != nil {
		doc, _ = b.docstringOf(body)
	}
	returns := normalizeSpace(nodeText(node.ChildByFieldName("return_type"), b.source))

	for _, d := range decorators {
		switch {
		case d == "property", d == "cached_property", d == "functools.cached_property":
			into.set(&Attribute{
				base: base{
					name:      name,
					path:      joinPath(parentPath, name),
					docstring: doc,
					parent:    parent,
				},
				Annotation: returns,
				Labels:     []string{"property"},
			})
			return
		case strings.HasSuffix(d, ".setter"), strings.HasSuffix(d, ".deleter"):
			// The getter already defined the property.
			return
		}
	}

	fn := &Function{
		base: base{
			name:      name,
			path:      joinPath(parentPath, name),
			docstring: doc,
			parent:    parent,
		},
		Parameters: parseParameters(node.ChildByFieldName("parameters"), b.source),
		Returns:    returns,
		Decorators: decorators,
		Async:      hasChildOfKind(node, "async"),
	}
	into.set(fn)
}

// addAssignment records the names bound by an assignment statement and
// returns them so a following string can document them.
func (b *moduleBuilder) addAssignment(stmt *sitter.Node, parent Object, into members, parentPath string) []*Attribute {
	children := namedChildren(stmt)
	if len(children) != 1 || children[0].Kind() != "assignment" {
		return nil
	}
	assign := children[0]

	annotation := normalizeSpace(nodeText(assign.ChildByFieldName("type"), b.source))
	value := valueText(assign, b.source)

	var attrs []*Attribute
	for _, name := range targetNames(assign.ChildByFieldName("left"), b.source) {
		attr := &Attribute{
			base: base{
				name:   name,
				path:   joinPath(parentPath, name),
				parent: parent,
			},
			Annotation: annotation,
			Value:      value,
		}
		into.set(attr)
		attrs = append(attrs, attr)
	}
	return attrs
}

// valueText returns the right-hand side of an assignment, following chained
// assignments (a = b = 1) to the final value.
func valueText(assign *sitter.Node, source []byte) string {
	right := assign.ChildByFieldName("right")
	for right != nil && right.Kind() == "assignment" {
		right = right.ChildByFieldName("right")
	}
	return normalizeSpace(nodeText(right, source))
}

// targetNames returns the plain identifiers bound by an assignment target.
func targetNames(left *sitter.Node, source []byte) []string {
	if left == nil {
		return nil
	}
	switch left.Kind() {
	case "identifier":
		return []string{nodeText(left, source)}
	case "pattern_list", "tuple_pattern", "list_pattern":
		var names []string
		for _, child := range namedChildren(left) {
			names = append(names, targetNames(child, source)...)
		}
		return names
	}
	return nil
}

// collectInstanceAttributes records self.x assignments made in __init__.
func (b *moduleBuilder) collectInstanceAttributes(class *Class, classBody *sitter.Node) {
	obj, ok := class.get("__init__")
	if !ok {
		return
	}
	init, ok := obj.(*Function)
	if !ok || len(init.Parameters) == 0 {
		return
	}
	initBody := findMethodBody(classBody, "__init__", b.source)
	if initBody == nil {
		return
	}
	self := init.Parameters[0].Name

	var visit func(block *sitter.Node)
	visit = func(block *sitter.Node) {
		var lastTargets []*Attribute
		for _, stmt := range namedChildren(block) {
			if value, ok := stringLiteral(stmt, b.source); ok {
				for _, attr := range lastTargets {
					attr.docstring = &Docstring{Value: docstring.Clean(value)}
				}
				lastTargets = nil
				continue
			}
			lastTargets = nil

			switch stmt.Kind() {
			case "expression_statement":
				lastTargets = b.addInstanceAssignment(stmt, self, class)
			case "if_statement", "try_statement", "with_statement", "for_statement":
				for _, nested := range nestedBlocks(stmt) {
					visit(nested)
				}
			}
		}
	}
	visit(initBody)
}

// findMethodBody returns the body of the last definition of name in a class body.
func findMethodBody(classBody *sitter.Node, name string, source []byte) *sitter.Node {
	var body *sitter.Node
	for _, stmt := range namedChildren(classBody) {
		def := stmt
		if def.Kind() == "decorated_definition" {
			def = def.ChildByFieldName("definition")
		}
		if def == nil || def.Kind() != "function_definition" {
			continue
		}
		if nodeText(def.ChildByFieldName("name"), source) == name {
			body = def.ChildByFieldName("body")
		}
	}
	return body
}

func (b *moduleBuilder) addInstanceAssignment(stmt *sitter.Node, self string, class *Class) []*Attribute {
	children := namedChildren(stmt)
	if len(children) != 1 || children[0].Kind() != "assignment" {
		return nil
	}
	assign := children[0]

	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "attribute" {
		return nil
	}
	object := left.ChildByFieldName("object")
	attrNode := left.ChildByFieldName("attribute")
	if object == nil || attrNode == nil || nodeText(object, b.source) != self {
		return nil
	}

	name := nodeText(attrNode, b.source)
	if _, exists := class.get(name); exists {
		return nil
	}

	attr := &Attribute{
		base: base{
			name:   name,
			path:   joinPath(class.path, name),
			parent: class,
		},
		Annotation: normalizeSpace(nodeText(assign.ChildByFieldName("type"), b.source)),
		Value:      valueText(assign, b.source),
		Labels:     []string{"instance"},
		instance:   true,
	}
	class.set(attr)
	return []*Attribute{attr}
}

func (b *moduleBuilder) addImport(stmt *sitter.Node, parent Object, into members, parentPath string) {
	for _, child := range namedChildren(stmt) {
		switch child.Kind() {
		case "dotted_name":
			// import a.b binds a
			target := nodeText(child, b.source)
			name := strings.SplitN(target, ".", 2)[0]
			into.set(b.newAlias(name, name, parent, parentPath))
		case "aliased_import":
			target := nodeText(child.ChildByFieldName("name"), b.source)
			name := nodeText(child.ChildByFieldName("alias"), b.source)
			into.set(b.newAlias(name, target, parent, parentPath))
		}
	}
}

func (b *moduleBuilder) addImportFrom(stmt *sitter.Node, parent Object, into members, parentPath string) {
	moduleNode := stmt.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	from := b.absoluteModule(moduleNode)
	if from == "" {
		return
	}

	for _, child := range namedChildren(stmt) {
		if child.StartByte() == moduleNode.StartByte() && child.EndByte() == moduleNode.EndByte() {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := nodeText(child, b.source)
			into.set(b.newAlias(name, from+"."+name, parent, parentPath))
		case "aliased_import":
			name := nodeText(child.ChildByFieldName("name"), b.source)
			alias := nodeText(child.ChildByFieldName("alias"), b.source)
			into.set(b.newAlias(alias, from+"."+name, parent, parentPath))
		}
		// wildcard imports are not expanded
	}
}

// absoluteModule resolves the module of a from-import, handling relative levels.
func (b *moduleBuilder) absoluteModule(node *sitter.Node) string {
	text := nodeText(node, b.source)
	if node.Kind() != "relative_import" {
		return text
	}

	level := len(text) - len(strings.TrimLeft(text, "."))
	rest := strings.TrimLeft(text, ".")

	pkg := b.module.packagePath()
	for i := 1; i < level; i++ {
		idx := strings.LastIndex(pkg, ".")
		if idx < 0 {
			return ""
		}
		pkg = pkg[:idx]
	}
	if pkg == "" {
		return rest
	}
	return joinPath(pkg, rest)
}

func (b *moduleBuilder) newAlias(name, target string, parent Object, parentPath string) *Alias {
	return &Alias{
		base: base{
			name:   name,
			path:   joinPath(parentPath, name),
			parent: parent,
		},
		Target: target,
		loader: b.loader,
	}
}

func joinPath(parent, name string) string {
	switch {
	case parent == "":
		return name
	case name == "":
		return parent
	}
	return parent + "." + name
}
