package pysource

import (
	"strings"
)

// WalkFunc is called for every object visited by Walk.
type WalkFunc func(obj Object) error

// Walk visits the public objects defined under root, depth first in
// declaration order. Import aliases are skipped since they are defined
// elsewhere. Package submodules are loaded and visited after the package's
// own members.
func Walk(root Object, fn WalkFunc) error {
	return walk(root, fn, map[string]bool{})
}

func walk(obj Object, fn WalkFunc, seen map[string]bool) error {
	if seen[obj.Path()] {
		return nil
	}
	seen[obj.Path()] = true

	if err := fn(obj); err != nil {
		return err
	}

	c, ok := obj.(Container)
	if !ok {
		return nil
	}
	if _, isAlias := obj.(*Alias); isAlias {
		return nil
	}

	for _, member := range c.Members() {
		if !IsPublic(member.Name()) {
			continue
		}
		if _, isAlias := member.(*Alias); isAlias {
			continue
		}
		if err := walk(member, fn, seen); err != nil {
			return err
		}
	}

	if m, ok := obj.(*Module); ok {
		for _, name := range m.Submodules() {
			if !IsPublic(name) {
				continue
			}
			sub, err := m.loader.loadSubmodule(m, name)
			if err != nil {
				if IsMiss(err) {
					continue
				}
				return err
			}
			if err := walk(sub, fn, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsPublic reports whether a Python name is public by convention.
func IsPublic(name string) bool {
	return name != "" && !strings.HasPrefix(name, "_")
}
