package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsedit/internal/collector"
	"jsedit/internal/digest"
	"jsedit/internal/source"
)

func collect(t *testing.T, path, text string) *collector.Pool {
	t.Helper()
	src := source.New(path, text, digest.DefaultConfig())
	pool, err := collector.Collect(src)
	require.NoError(t, err)
	return pool
}

func TestParse_BareBase(t *testing.T) {
	e, err := Parse("alpha")
	require.NoError(t, err)
	assert.Equal(t, TypeAny, e.Type)
	assert.Equal(t, "alpha", e.Base)
}

func TestParse_TypedAndFiltered(t *testing.T) {
	e, err := Parse("function:alpha@kind=arrow-function@export=named,default")
	require.NoError(t, err)
	assert.Equal(t, TypeFunction, e.Type)
	assert.Equal(t, "alpha", e.Base)
	assert.Equal(t, []string{"arrow-function"}, e.Filters.Kind)
	assert.Equal(t, []string{"named", "default"}, e.Filters.Export)
}

func TestParse_BareRangeFilter(t *testing.T) {
	e, err := Parse("alpha@10-20")
	require.NoError(t, err)
	assert.Equal(t, "10-20", e.Filters.Range)
}

func TestParse_UnknownFilterKey(t *testing.T) {
	_, err := Parse("alpha@bogus=1")
	assert.Error(t, err)
}

func TestResolve_SingleMatch(t *testing.T) {
	pool := collect(t, "sample.js", `function add(a, b) {
  return a + b;
}
`)
	matches, err := Resolve(pool, "add", ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "add", matches[0].CanonicalName())
}

func TestResolve_NoMatch(t *testing.T) {
	pool := collect(t, "sample.js", `function add(a, b) { return a + b; }`)
	_, err := Resolve(pool, "nope", ResolveOptions{})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolve_AmbiguousWithoutAllowMultiple(t *testing.T) {
	pool := collect(t, "sample.js", `class A {
  handle() { return 1; }
}
class B {
  handle() { return 2; }
}
`)
	_, err := Resolve(pool, "handle", ResolveOptions{})
	assert.ErrorIs(t, err, ErrAmbiguous)

	matches, err := Resolve(pool, "handle", ResolveOptions{AllowMultiple: true})
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestResolve_SelectIndexDisambiguates(t *testing.T) {
	pool := collect(t, "sample.js", `class A {
  handle() { return 1; }
}
class B {
  handle() { return 2; }
}
`)
	matches, err := Resolve(pool, "handle", ResolveOptions{SelectIndex: 2})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "B.handle", matches[0].CanonicalName())
}

func TestResolve_OwnerVariantDotNotation(t *testing.T) {
	pool := collect(t, "sample.js", `class Widget {
  #validate() { return true; }
}
`)
	matches, err := Resolve(pool, "Widget.validate", ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Widget#validate", matches[0].CanonicalName())
}

func TestResolve_ReplaceableFilterExcludesClass(t *testing.T) {
	pool := collect(t, "sample.js", `class Widget {}`)
	truthy := true
	_, err := Resolve(pool, "Widget", ResolveOptions{})
	require.NoError(t, err)

	matches, err := ResolveExpr(pool, &Expression{Base: "Widget", Filters: Filters{Replaceable: &truthy}}, ResolveOptions{})
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Nil(t, matches)
}

func TestResolve_HashFilter(t *testing.T) {
	pool := collect(t, "sample.js", `function add(a, b) { return a + b; }`)
	hash := pool.Functions[0].Digest
	matches, err := Resolve(pool, "add@hash="+hash, ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestParse_HashPrefixSetsFilterAndWildcardBase(t *testing.T) {
	e, err := Parse("hash:deadbeef")
	require.NoError(t, err)
	assert.Equal(t, WildcardBase, e.Base)
	assert.Equal(t, []string{"deadbeef"}, e.Filters.Hash)
}

func TestResolve_HashPrefixSelector(t *testing.T) {
	pool := collect(t, "sample.js", `function add(a, b) { return a + b; }`)
	hash := pool.Functions[0].Digest
	matches, err := Resolve(pool, "hash:"+hash, ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "add", matches[0].CanonicalName())
}

func TestResolve_VariableTypeScoping(t *testing.T) {
	pool := collect(t, "sample.js", `const alpha = () => 1;`)
	matches, err := Resolve(pool, "variable:alpha", ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, TypeVariable, matches[0].Type)
}
