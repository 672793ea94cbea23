package pysource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for module parsing:
// - Function signatures render every parameter form and the return annotation
// - Class signatures come from __init__ without self
// - Dataclass signatures come from annotated fields, skipping ClassVar
// - Methods, async methods and properties are class members of the right kind
// - self.x assignments in __init__ become instance attributes
// - A string after an assignment documents the assigned attribute
// - Definitions inside if/try blocks are collected
// - Docstrings are cleaned like inspect.cleandoc

func resolveFixture(t *testing.T, path string) Object {
	t.Helper()
	obj, err := newFixtureLoader(t).Resolve(path)
	require.NoError(t, err)
	return obj
}

func TestFunction_Signature(t *testing.T) {
	t.Parallel()

	fn, ok := resolveFixture(t, "driftpy.math.conversion.convert_to_number").(*Function)
	require.True(t, ok)

	assert.Equal(t, "convert_to_number(big_number, precision: int = PRICE_PRECISION) -> float", fn.Signature())
	assert.False(t, fn.Async)
	require.NotNil(t, fn.Docstring())
	assert.Equal(t, "Convert a raw on-chain integer into a float.\n\n"+
		"Args:\n"+
		"    big_number (int | float): the raw value\n"+
		"    precision (int): the precision the raw value is expressed in\n\n"+
		"Returns:\n"+
		"    float: the converted number", fn.Docstring().Value)
}

func TestFunction_ParameterForms(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"forms.py": `
def f(a, /, b: int, c=1, *args: str, d: "X" = None, **kw) -> None:
    pass

def g(x, *, y: dict[str,
                   int] = {}):
    pass

async def h():
    """Async."""
`,
	})
	loader, err := NewLoader([]string{root})
	require.NoError(t, err)
	m, err := loader.Load("forms")
	require.NoError(t, err)

	f, err := m.Member("f")
	require.NoError(t, err)
	assert.Equal(t, `f(a, /, b: int, c=1, *args: str, d: "X" = None, **kw) -> None`, f.(Signer).Signature())

	g, err := m.Member("g")
	require.NoError(t, err)
	assert.Equal(t, "g(x, *, y: dict[str, int] = {})", g.(Signer).Signature())

	h, err := m.Member("h")
	require.NoError(t, err)
	assert.True(t, h.(*Function).Async)
	assert.Equal(t, "h()", h.(Signer).Signature())
}

func TestClass_SignatureFromInit(t *testing.T) {
	t.Parallel()

	class, ok := resolveFixture(t, "driftpy.drift_client.DriftClient").(*Class)
	require.True(t, ok)

	assert.Equal(t,
		`DriftClient(connection, wallet, env: str = "mainnet", *, account_subscription: Optional[object] = None, **kwargs)`,
		class.Signature())
	require.NotNil(t, class.Docstring())
	assert.Equal(t, "This class is the main way to interact with Drift Protocol.\n\n"+
		"It handles account subscriptions and transaction building.", class.Docstring().Value)
}

func TestClass_DataclassSignature(t *testing.T) {
	t.Parallel()

	class, ok := resolveFixture(t, "driftpy.constants.config.Config").(*Class)
	require.True(t, ok)

	assert.Equal(t, []string{"dataclass"}, class.Decorators)
	assert.Equal(t, "Config(env: DriftEnv, pyth_oracle_mapping_address: Pubkey, usdc_mint_address: Pubkey, "+
		"default_http: str, default_ws: str, market_lookup_table: Pubkey = None)", class.Signature())
}

func TestClass_WithoutInit(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"plain.py": "class Base(object, metaclass=ABCMeta):\n    x = 1\n",
	})
	loader, err := NewLoader([]string{root})
	require.NoError(t, err)

	obj, err := loader.Resolve("plain.Base")
	require.NoError(t, err)
	class := obj.(*Class)

	assert.Equal(t, "Base()", class.Signature())
	assert.Equal(t, []string{"object"}, class.Bases)
}

func TestClass_Members(t *testing.T) {
	t.Parallel()

	class, ok := resolveFixture(t, "driftpy.drift_client.DriftClient").(*Class)
	require.True(t, ok)

	var names []string
	for _, member := range class.Members() {
		names = append(names, member.Name())
	}
	assert.Equal(t, []string{
		"__init__", "subscribe", "unsubscribe", "get_user", "add_user", "program_id",
		"connection", "wallet", "users",
	}, names)

	subscribe, err := class.Member("subscribe")
	require.NoError(t, err)
	assert.True(t, subscribe.(*Function).Async)
	assert.Equal(t, "subscribe(self)", subscribe.(Signer).Signature())

	getUser, err := class.Member("get_user")
	require.NoError(t, err)
	assert.Equal(t, `get_user(self, sub_account_id: Optional[int] = None) -> "DriftUser"`, getUser.(Signer).Signature())

	prop, err := class.Member("program_id")
	require.NoError(t, err)
	attr, ok := prop.(*Attribute)
	require.True(t, ok)
	assert.Equal(t, KindAttribute, attr.Kind())
	assert.Equal(t, "str", attr.Annotation)
	assert.Equal(t, []string{"property"}, attr.Labels)
	assert.Equal(t, "The program id in use.", attr.Docstring().Value)
	_, isSigner := prop.(Signer)
	assert.False(t, isSigner)
}

func TestClass_InstanceAttributes(t *testing.T) {
	t.Parallel()

	class, ok := resolveFixture(t, "driftpy.drift_client.DriftClient").(*Class)
	require.True(t, ok)

	conn, err := class.Member("connection")
	require.NoError(t, err)
	attr := conn.(*Attribute)
	assert.Equal(t, "driftpy.drift_client.DriftClient.connection", attr.Path())
	assert.Equal(t, "connection", attr.Value)
	assert.Equal(t, []string{"instance"}, attr.Labels)
	require.NotNil(t, attr.Docstring())
	assert.Equal(t, "The RPC connection.", attr.Docstring().Value)

	wallet, err := class.Member("wallet")
	require.NoError(t, err)
	assert.Nil(t, wallet.Docstring())
}

func TestAttribute_Docstring(t *testing.T) {
	t.Parallel()

	attr, ok := resolveFixture(t, "driftpy.constants.numeric_constants.PRICE_PRECISION").(*Attribute)
	require.True(t, ok)

	assert.Equal(t, "10**6", attr.Value)
	require.NotNil(t, attr.Docstring())
	assert.Equal(t, "Precision of oracle and mark prices.", attr.Docstring().Value)

	other, ok := resolveFixture(t, "driftpy.constants.numeric_constants.QUOTE_PRECISION").(*Attribute)
	require.True(t, ok)
	assert.Nil(t, other.Docstring())
}

func TestParse_GuardedDefinitions(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"guarded.py": `
import os.path
import json as _json

try:
    from fast import dumps
except ImportError:
    def dumps(obj):
        """Fallback."""
        return _json.dumps(obj)

if TYPE_CHECKING:
    from typing import Any
else:
    Any = object

A, (B, C) = 1, (2, 3)
X = Y = 5
ANNOTATED: int
`,
	})
	loader, err := NewLoader([]string{root})
	require.NoError(t, err)
	m, err := loader.Load("guarded")
	require.NoError(t, err)

	osAlias, err := m.Member("os")
	require.NoError(t, err)
	assert.Equal(t, "os", osAlias.(*Alias).Target)

	jsonAlias, err := m.Member("_json")
	require.NoError(t, err)
	assert.Equal(t, "json", jsonAlias.(*Alias).Target)

	// the except branch is collected after the try branch and wins
	dumps, err := m.Member("dumps")
	require.NoError(t, err)
	assert.Equal(t, KindFunction, dumps.Kind())

	anyObj, err := m.Member("Any")
	require.NoError(t, err)
	assert.Equal(t, KindAttribute, anyObj.Kind())

	for _, name := range []string{"A", "B", "C", "X"} {
		_, err := m.Member(name)
		assert.NoError(t, err, name)
	}

	x, err := m.Member("X")
	require.NoError(t, err)
	assert.Equal(t, "5", x.(*Attribute).Value)

	annotated, err := m.Member("ANNOTATED")
	require.NoError(t, err)
	assert.Equal(t, "int", annotated.(*Attribute).Annotation)
	assert.Empty(t, annotated.(*Attribute).Value)
}

func TestLiteralValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: `"""Triple."""`, want: "Triple."},
		{raw: `'''Single triple.'''`, want: "Single triple."},
		{raw: `"plain"`, want: "plain"},
		{raw: `'it\'s'`, want: "it's"},
		{raw: `"""a\nb"""`, want: "a\nb"},
		{raw: `r"""raw \n stays"""`, want: `raw \n stays`},
		{raw: `u"unicode"`, want: "unicode"},
		{raw: `"""keeps \d unknown"""`, want: `keeps \d unknown`},
		{raw: `"""Byte \x41 here."""`, want: "Byte A here."},
		{raw: `"""latin \xe9"""`, want: "latin \u00e9"},
		{raw: `"\u2014 and \U0001F600"`, want: "\u2014 and \U0001F600"},
		{raw: `"""dash \N{EM DASH} here"""`, want: "dash \u2014 here"},
		{raw: `"\N{latin small letter a}"`, want: "a"},
		{raw: `"\N{CJK UNIFIED IDEOGRAPH-4E00}"`, want: "\u4e00"},
		{raw: `"\N{NOT A REAL NAME}"`, want: `\N{NOT A REAL NAME}`},
		{raw: `"octal \101\60\7"`, want: "octal A0\a"},
		{raw: `"nul\0end"`, want: "nul\x00end"},
		{raw: `"\a\b\f\v"`, want: "\a\b\f\v"},
		{raw: `"bad \xZZ and \8"`, want: `bad \xZZ and \8`},
		{raw: "\"joined \\\nline\"", want: "joined line"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, literalValue(tt.raw), tt.raw)
	}
}
