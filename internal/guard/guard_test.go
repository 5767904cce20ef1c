package guard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsedit/internal/digest"
	"jsedit/internal/newline"
	"jsedit/internal/source"
)

func TestBuildHashGuard_OKWhenNoExpectation(t *testing.T) {
	src := source.New("a.js", "function f() { return 1; }", digest.DefaultConfig())
	span := src.SpanFromChars(0, src.Mapper.Len())
	g := BuildHashGuard(src, span, "", false)
	assert.Equal(t, StatusOK, g.Status)
}

func TestBuildHashGuard_MismatchWithoutForce(t *testing.T) {
	src := source.New("a.js", "function f() { return 1; }", digest.DefaultConfig())
	span := src.SpanFromChars(0, src.Mapper.Len())
	g := BuildHashGuard(src, span, "stalehash", false)
	assert.Equal(t, StatusMismatch, g.Status)
}

func TestBuildHashGuard_BypassWithForce(t *testing.T) {
	src := source.New("a.js", "function f() { return 1; }", digest.DefaultConfig())
	span := src.SpanFromChars(0, src.Mapper.Len())
	g := BuildHashGuard(src, span, "stalehash", true)
	assert.Equal(t, StatusBypass, g.Status)
}

func TestBuildSyntaxGuard(t *testing.T) {
	g := BuildSyntaxGuard("a.js", "function ok() { return 1; }")
	assert.Equal(t, StatusOK, g.Status)

	g = BuildSyntaxGuard("a.js", "function broken( { return 1; }")
	assert.Equal(t, StatusError, g.Status)
}

func TestBuildPathGuard_SurvivesIdenticalReplace(t *testing.T) {
	text := "function alpha() {\n  return 1;\n}\n"
	src := source.New("a.js", text, digest.DefaultConfig())
	preSignature := "body[0].function_declaration"
	g := BuildPathGuard(src, preSignature, false)
	assert.Equal(t, StatusOK, g.Status)
}

func TestBuildResultGuard(t *testing.T) {
	cfg := digest.DefaultConfig()
	g := BuildResultGuard(cfg, "same", "same")
	assert.Equal(t, StatusUnchanged, g.Status)

	g = BuildResultGuard(cfg, "before", "after")
	assert.Equal(t, StatusChanged, g.Status)
}

func TestBuildNewlineGuard_ConvertsToFileStyle(t *testing.T) {
	g, text := BuildNewlineGuard(newline.StyleCRLF, "return 1;\n", true)
	assert.Equal(t, StatusConverted, g.Status)
	assert.Equal(t, "return 1;\r\n", text)
	assert.True(t, g.TrailingNewlineAdded)
}

func TestWritePlanAndSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	plan := BuildPlan("extract", "a.js", "alpha", []PlanMatch{
		{CanonicalName: "alpha", Kind: "function-declaration", Path: "body[0].function_declaration"},
	}, false, nil, nil, "2026-01-01T00:00:00Z")
	planPath := filepath.Join(dir, "plan.json")
	require.NoError(t, WritePlan(planPath, plan))

	data, err := os.ReadFile(planPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"operation": "extract"`)

	snap := NewSnapshot("20260101T000000Z", "replace", "a.js", "alpha", "", "before", "alpha", "H123", nil, nil, true, "function alpha() {}")
	path, err := WriteSnapshot(dir, snap)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, path, "--before.json")
}
