package pysource

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind classifies a loaded object.
type Kind string

const (
	KindModule    Kind = "module"
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindAttribute Kind = "attribute"
	KindAlias     Kind = "alias"
)

// Docstring is the cleaned text of a docstring literal.
type Docstring struct {
	Value string
}

// Object is anything a dotted path can point at.
type Object interface {
	Name() string
	Path() string
	Kind() Kind
	Docstring() *Docstring
	Parent() Object
}

// Container is an object with named members.
type Container interface {
	Object

	// Member returns the member called name. A missing member is reported
	// with an error wrapping ErrNotFound.
	Member(name string) (Object, error)

	// Members returns the directly declared members in declaration order.
	Members() []Object
}

// Signer is implemented by objects that can render a call signature.
type Signer interface {
	Signature() string
}

// Member looks up name on obj, failing with ErrNotContainer if obj has no members.
func Member(obj Object, name string) (Object, error) {
	c, ok := obj.(Container)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotContainer, obj.Path(), obj.Kind())
	}
	return c.Member(name)
}

// MemberPath walks a chain of member names starting at obj.
func MemberPath(obj Object, names []string) (Object, error) {
	for _, name := range names {
		next, err := Member(obj, name)
		if err != nil {
			return nil, err
		}
		obj = next
	}
	return obj, nil
}

type base struct {
	name      string
	path      string
	docstring *Docstring
	parent    Object
}

func (b *base) Name() string          { return b.name }
func (b *base) Path() string          { return b.path }
func (b *base) Docstring() *Docstring { return b.docstring }
func (b *base) Parent() Object        { return b.parent }

type members struct {
	byName *orderedmap.OrderedMap[string, Object]
}

func newMembers() members {
	return members{byName: orderedmap.New[string, Object]()}
}

func (m members) set(obj Object) {
	m.byName.Set(obj.Name(), obj)
}

func (m members) get(name string) (Object, bool) {
	return m.byName.Get(name)
}

func (m members) list() []Object {
	out := make([]Object, 0, m.byName.Len())
	for pair := m.byName.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Module is a loaded Python module or package.
type Module struct {
	base
	members

	// FilePath is the file the module was parsed from; empty for namespace packages.
	FilePath string

	dir       string
	isPackage bool
	loader    *Loader
}

func (m *Module) Kind() Kind { return KindModule }

// IsPackage reports whether the module is a package (__init__.py or namespace directory).
func (m *Module) IsPackage() bool { return m.isPackage }

// Member returns a declared member, or for packages a submodule found on disk.
func (m *Module) Member(name string) (Object, error) {
	if obj, ok := m.get(name); ok {
		return obj, nil
	}
	if m.isPackage && m.loader != nil {
		sub, err := m.loader.loadSubmodule(m, name)
		if err == nil {
			return sub, nil
		}
		if !IsMiss(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s has no member %q", ErrNotFound, m.path, name)
}

func (m *Module) Members() []Object { return m.list() }

// Submodules lists the names of modules and packages in a package directory.
func (m *Module) Submodules() []string {
	if !m.isPackage || m.loader == nil {
		return nil
	}
	return m.loader.listSubmodules(m.dir)
}

// packagePath is the dotted path relative imports are resolved against.
func (m *Module) packagePath() string {
	if m.isPackage {
		return m.path
	}
	if i := strings.LastIndex(m.path, "."); i >= 0 {
		return m.path[:i]
	}
	return ""
}

// Class is a class definition.
type Class struct {
	base
	members

	Bases      []string
	Decorators []string
}

func (c *Class) Kind() Kind { return KindClass }

func (c *Class) Member(name string) (Object, error) {
	if obj, ok := c.get(name); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %s has no member %q", ErrNotFound, c.path, name)
}

func (c *Class) Members() []Object { return c.list() }

// Parameters are the constructor parameters: those of __init__ without the
// bound first argument, or the annotated fields of a dataclass.
func (c *Class) Parameters() []Parameter {
	if obj, ok := c.get("__init__"); ok {
		if init, ok := obj.(*Function); ok {
			params := init.Parameters
			if len(params) > 0 && params[0].Kind == ParamRegular {
				params = params[1:]
			}
			return params
		}
	}
	if c.isDataclass() {
		return c.dataclassFields()
	}
	return nil
}

// Signature renders Name(params).
func (c *Class) Signature() string {
	return c.name + "(" + joinParameters(c.Parameters()) + ")"
}

func (c *Class) isDataclass() bool {
	for _, d := range c.Decorators {
		if d == "dataclass" || d == "dataclasses.dataclass" {
			return true
		}
	}
	return false
}

func (c *Class) dataclassFields() []Parameter {
	var params []Parameter
	for _, obj := range c.list() {
		attr, ok := obj.(*Attribute)
		if !ok || attr.Annotation == "" || attr.instance {
			continue
		}
		if strings.HasPrefix(attr.Annotation, "ClassVar") || strings.Contains(attr.Annotation, ".ClassVar") {
			continue
		}
		params = append(params, Parameter{
			Name:       attr.name,
			Annotation: attr.Annotation,
			Default:    attr.Value,
			Kind:       ParamRegular,
		})
	}
	return params
}

// Function is a function or method definition.
type Function struct {
	base

	Parameters []Parameter
	Returns    string
	Decorators []string
	Async      bool
}

func (f *Function) Kind() Kind { return KindFunction }

// Signature renders name(params) -> returns.
func (f *Function) Signature() string {
	sig := f.name + "(" + joinParameters(f.Parameters) + ")"
	if f.Returns != "" {
		sig += " -> " + f.Returns
	}
	return sig
}

// Attribute is a module or class level variable, or a property.
type Attribute struct {
	base

	Annotation string
	Value      string
	Labels     []string

	instance bool
}

func (a *Attribute) Kind() Kind { return KindAttribute }

// Alias is a name bound by an import statement.
type Alias struct {
	base

	// Target is the absolute dotted path the alias points at.
	Target string

	loader    *Loader
	resolved  Object
	resolving bool
}

func (a *Alias) Kind() Kind { return KindAlias }

// Resolve returns the object the alias points at. The result may itself be an alias.
func (a *Alias) Resolve() (Object, error) {
	if a.resolved != nil {
		return a.resolved, nil
	}
	if a.resolving {
		return nil, fmt.Errorf("%w: %s -> %s", ErrAliasCycle, a.path, a.Target)
	}
	if a.loader == nil {
		return nil, fmt.Errorf("%w: alias %s has no loader", ErrNotFound, a.path)
	}

	a.resolving = true
	defer func() { a.resolving = false }()

	obj, err := a.loader.Resolve(a.Target)
	if err != nil {
		return nil, err
	}
	a.resolved = obj
	return obj, nil
}

// Member delegates to the final target.
func (a *Alias) Member(name string) (Object, error) {
	target, err := FinalTarget(a)
	if err != nil {
		return nil, err
	}
	return Member(target, name)
}

// Members delegates to the final target; unresolvable aliases have none.
func (a *Alias) Members() []Object {
	target, err := FinalTarget(a)
	if err != nil {
		return nil
	}
	if c, ok := target.(Container); ok {
		return c.Members()
	}
	return nil
}

const maxAliasDepth = 32

// FinalTarget follows alias chains until a non-alias object is reached.
func FinalTarget(obj Object) (Object, error) {
	for i := 0; i < maxAliasDepth; i++ {
		alias, ok := obj.(*Alias)
		if !ok {
			return obj, nil
		}
		next, err := alias.Resolve()
		if err != nil {
			return nil, err
		}
		obj = next
	}
	return nil, fmt.Errorf("%w: %s", ErrAliasCycle, obj.Path())
}

// Final is FinalTarget that falls back to obj itself when the chain can't be followed.
func Final(obj Object) Object {
	target, err := FinalTarget(obj)
	if err != nil {
		return obj
	}
	return target
}
