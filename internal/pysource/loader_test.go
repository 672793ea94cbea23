package pysource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Loader:
// - Load finds packages, modules and namespace directories by dotted name
// - Load reports ErrNotFound for missing modules
// - LoadPath parses a specific file and records the parent module
// - Loaded modules are cached and reused
// - Packages expose submodules through Member even when not imported
// - Import aliases (absolute, relative, renamed) resolve to their targets
// - Alias cycles fail with ErrAliasCycle instead of looping
// - Member lookup on non-containers fails with ErrNotContainer
// - Resolve walks module prefixes and member chains

const fixtureRoot = "../../testdata/python/driftpy/src"

func newFixtureLoader(t *testing.T) *Loader {
	t.Helper()
	loader, err := NewLoader([]string{fixtureRoot})
	require.NoError(t, err)
	return loader
}

// writeTree creates files under a temporary root and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestNewLoader_RequiresSearchPath(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(nil)
	assert.Error(t, err)
}

func TestLoader_LoadPackage(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)

	m, err := loader.Load("driftpy")
	require.NoError(t, err)

	assert.Equal(t, "driftpy", m.Name())
	assert.Equal(t, "driftpy", m.Path())
	assert.Equal(t, KindModule, m.Kind())
	assert.True(t, m.IsPackage())
	require.NotNil(t, m.Docstring())
	assert.Equal(t, "DriftPy: Python client for the Drift protocol.", m.Docstring().Value)
}

func TestLoader_LoadModuleByName(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)

	m, err := loader.Load("driftpy.drift_client")
	require.NoError(t, err)

	assert.Equal(t, "drift_client", m.Name())
	assert.False(t, m.IsPackage())
	assert.Contains(t, m.FilePath, "drift_client.py")

	obj, err := m.Member("DriftClient")
	require.NoError(t, err)
	assert.Equal(t, KindClass, obj.Kind())
	assert.Equal(t, "driftpy.drift_client.DriftClient", obj.Path())
	assert.Same(t, m, obj.Parent())
}

func TestLoader_LoadMissingModule(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)

	_, err := loader.Load("driftpy.does_not_exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsMiss(err))
}

func TestLoader_LoadNamespacePackage(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)

	m, err := loader.Load("driftpy.idl")
	require.NoError(t, err)
	assert.True(t, m.IsPackage())
	assert.Empty(t, m.FilePath)
	assert.Nil(t, m.Docstring())

	schema, err := m.Member("schema")
	require.NoError(t, err)
	require.NotNil(t, schema.Docstring())
	assert.Equal(t, "IDL schema helpers.", schema.Docstring().Value)
}

func TestLoader_LoadPathWithParent(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)
	root, err := loader.Load("driftpy")
	require.NoError(t, err)

	path := filepath.Join(fixtureRoot, "driftpy", "keypair.py")
	m, err := loader.LoadPath("driftpy.keypair", path, root)
	require.NoError(t, err)

	assert.Equal(t, "driftpy.keypair", m.Path())
	assert.Same(t, root, m.Parent())

	fn, err := m.Member("load_keypair")
	require.NoError(t, err)
	assert.Equal(t, KindFunction, fn.Kind())
}

func TestLoader_CachesModules(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)

	first, err := loader.Load("driftpy.constants.config")
	require.NoError(t, err)
	second, err := loader.Load("driftpy.constants.config")
	require.NoError(t, err)

	assert.Same(t, first, second)
	hits, _ := loader.CacheStats()
	assert.GreaterOrEqual(t, hits, uint64(1))
}

func TestModule_SubmoduleLookup(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)
	root, err := loader.Load("driftpy")
	require.NoError(t, err)

	math, err := root.Member("math")
	require.NoError(t, err)
	assert.Equal(t, "driftpy.math", math.Path())
	assert.Same(t, root, math.Parent())

	fn, err := MemberPath(root, []string{"math", "conversion", "convert_to_number"})
	require.NoError(t, err)
	assert.Equal(t, "driftpy.math.conversion.convert_to_number", fn.Path())

	_, err = root.Member("nothing_here")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestModule_Submodules(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)
	root, err := loader.Load("driftpy")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"accounts", "addresses", "constants", "drift_client", "idl", "keypair", "math",
	}, root.Submodules())
}

func TestAlias_Resolution(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)
	root, err := loader.Load("driftpy")
	require.NoError(t, err)

	tests := []struct {
		member string
		target string
		kind   Kind
	}{
		{member: "DriftClient", target: "driftpy.drift_client.DriftClient", kind: KindClass},
		{member: "load", target: "driftpy.keypair.load_keypair", kind: KindFunction},
		{member: "addresses", target: "driftpy.addresses", kind: KindModule},
	}

	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			obj, err := root.Member(tt.member)
			require.NoError(t, err)

			alias, ok := obj.(*Alias)
			require.True(t, ok, "expected an alias, got %T", obj)
			assert.Equal(t, KindAlias, alias.Kind())
			assert.Equal(t, tt.target, alias.Target)

			final, err := FinalTarget(alias)
			require.NoError(t, err)
			assert.Equal(t, tt.target, final.Path())
			assert.Equal(t, tt.kind, final.Kind())
		})
	}
}

func TestAlias_MemberDelegatesToTarget(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)

	obj, err := loader.Resolve("driftpy.DriftClient.subscribe")
	require.NoError(t, err)
	assert.Equal(t, "driftpy.drift_client.DriftClient.subscribe", obj.Path())

	obj, err = loader.Resolve("driftpy.accounts.BulkAccountLoader")
	require.NoError(t, err)
	final := Final(obj)
	assert.Equal(t, "driftpy.accounts.bulk_account_loader.BulkAccountLoader", final.Path())
}

func TestAlias_Cycle(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.py": "from b import X\n",
		"b.py": "from a import X\n",
	})
	loader, err := NewLoader([]string{root})
	require.NoError(t, err)

	m, err := loader.Load("a")
	require.NoError(t, err)
	obj, err := m.Member("X")
	require.NoError(t, err)

	_, err = FinalTarget(obj)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAliasCycle)
	assert.False(t, IsMiss(err))

	assert.Same(t, obj, Final(obj))
}

func TestAlias_Unresolvable(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "from solders.pubkey import Pubkey\n",
	})
	loader, err := NewLoader([]string{root})
	require.NoError(t, err)

	obj, err := loader.Resolve("pkg.Pubkey")
	require.NoError(t, err)

	_, err = FinalTarget(obj)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindAlias, Final(obj).Kind())
}

func TestMember_NotContainer(t *testing.T) {
	t.Parallel()

	loader := newFixtureLoader(t)

	fn, err := loader.Resolve("driftpy.keypair.load_keypair")
	require.NoError(t, err)

	_, err = Member(fn, "anything")
	assert.ErrorIs(t, err, ErrNotContainer)
	assert.True(t, IsMiss(err))
}

func TestLoader_SearchPathOrder(t *testing.T) {
	t.Parallel()

	first := writeTree(t, map[string]string{"pkg/mod.py": `"""first"""` + "\n"})
	second := writeTree(t, map[string]string{
		"pkg/mod.py":   `"""second"""` + "\n",
		"pkg/other.py": `"""other"""` + "\n",
	})

	loader, err := NewLoader([]string{first, second})
	require.NoError(t, err)

	m, err := loader.Load("pkg.mod")
	require.NoError(t, err)
	assert.Equal(t, "first", m.Docstring().Value)

	other, err := loader.Load("pkg.other")
	require.NoError(t, err)
	assert.Equal(t, "other", other.Docstring().Value)
}

func TestLoader_ReadErrorIsNotAMiss(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"pkg/__init__.py": ""})
	// a directory named like a module file can't be read as one
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "broken.py"), 0755))

	loader, err := NewLoader([]string{root})
	require.NoError(t, err)

	_, err = loader.LoadPath("pkg.broken", filepath.Join(root, "pkg", "broken.py"), nil)
	require.Error(t, err)
	assert.False(t, IsMiss(err))
}
