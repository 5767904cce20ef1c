package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsedit/internal/guard"
	"jsedit/internal/newline"
)

func TestReplaceFunction_CRLFFileWithLFSnippet(t *testing.T) {
	src := "function alpha() {\r\n  return 1;\r\n}\r\nfunction beta() {\r\n  return 2;\r\n}\r\n"
	c := ctx(t, "a.js", src)

	replacement := "function alpha() {\n  return 10;\n}\n"
	result, err := ReplaceFunction(c, "alpha", Options{WithCode: replacement}, Renderer{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	o := result.Outcomes[0]

	assert.Equal(t, guard.StatusConverted, o.Guard.Newline.Status)
	assert.True(t, o.Guard.Newline.TrailingNewlineAdded)
	assert.Equal(t, newline.StyleCRLF, o.Guard.Newline.FileStyle)
	// Snippet's internal newlines come out CRLF; the file stays CRLF.
	assert.Contains(t, result.FinalText, "return 10;\r\n")
	assert.Equal(t, newline.StyleCRLF, newline.Detect(result.FinalText))
}

func TestReplaceFunction_MultibyteIdentifiersPreserveSpans(t *testing.T) {
	src := "const emoji = \"\U0001F600\";\nfunction after() { return emoji; }\n"
	c := ctx(t, "a.js", src)

	result, err := ReplaceFunction(c, "after", Options{Rename: "renamed"}, Renderer{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Contains(t, result.FinalText, "function renamed() { return emoji; }")
	assert.Contains(t, result.FinalText, "\U0001F600")
}

func TestReplaceFunction_SubRangeSplicesIntoSnippet(t *testing.T) {
	src := "function alpha() { return 1; }\n"
	c := ctx(t, "a.js", src)

	snippet := "function alpha() { return 1; }"
	start := strings.Index(snippet, "1")
	rng := [2]int{start, start + 1}
	result, err := ReplaceFunction(c, "alpha", Options{WithCode: "42", ReplaceRange: &rng}, Renderer{})
	require.NoError(t, err)
	assert.Contains(t, result.FinalText, "function alpha() { return 42; }")
}

func TestReplaceFunction_ClassIsNotReplaceable(t *testing.T) {
	c := ctx(t, "a.js", "class Widget {}\n")
	_, err := ReplaceFunction(c, "Widget", Options{WithCode: "class Widget2 {}"}, Renderer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReplaceable)
}

func TestReplaceFunction_SyntaxGuardAbortsEvenWithForce(t *testing.T) {
	c := ctx(t, "a.js", "function alpha() { return 1; }\n")
	_, err := ReplaceFunction(c, "alpha", Options{WithCode: "function alpha( { ", Force: true}, Renderer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntaxFailure)
}

func TestSnipe_SingleMatchWithGuardInputs(t *testing.T) {
	c := ctx(t, "a.js", "function alpha() { return 1; }\n")
	result, err := Snipe(c, "alpha", Options{}, Renderer{})
	require.NoError(t, err)
	assert.Equal(t, "function alpha() { return 1; }", result.Code)
	assert.Equal(t, result.Match.Hash, result.ExpectedHash)
	assert.Equal(t, result.Match.Span, result.ExpectedSpan)
}

func TestSnipe_RejectsAmbiguity(t *testing.T) {
	c := ctx(t, "a.js", `class Widget {
  handle() { return 1; }
}
class Gadget {
  handle() { return 2; }
}
`)
	_, err := Snipe(c, "handle", Options{AllowMultiple: true}, Renderer{})
	require.Error(t, err)
}

func TestUnifiedDiff_MarksChangedLines(t *testing.T) {
	oldText := "line one\nline two\nline three\n"
	newText := "line one\nline 2\nline three\n"
	diff := UnifiedDiff("a.js", oldText, newText)
	assert.Contains(t, diff, "--- a/a.js")
	assert.Contains(t, diff, "+++ b/a.js")
	assert.Contains(t, diff, "-2: line two")
	assert.Contains(t, diff, "+2: line 2")
}

func TestUnifiedDiff_EmptyOnIdenticalInput(t *testing.T) {
	assert.Empty(t, UnifiedDiff("a.js", "same\n", "same\n"))
}

func TestDispatch_ReadsFileAndRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(path, []byte("function alpha() { return 1; }\n"), 0o644))

	out, err := Dispatch("locate", Request{File: path, Selector: "alpha"})
	require.NoError(t, err)
	located, ok := out.(LocateResult)
	require.True(t, ok)
	require.Len(t, located.Matches, 1)
	assert.Equal(t, "alpha", located.Matches[0].CanonicalName)
}

func TestDispatch_UnknownOperation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(path, []byte("const a = 1;\n"), 0o644))
	_, err := Dispatch("bogus", Request{File: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestCollectCached_ReturnsSameContextForSameContent(t *testing.T) {
	c1, err := CollectCached("cache.js", "const a = 1;\n", nil)
	require.NoError(t, err)
	c2, err := CollectCached("cache.js", "const a = 1;\n", nil)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	c3, err := CollectCached("cache.js", "const a = 2;\n", nil)
	require.NoError(t, err)
	assert.NotSame(t, c1, c3)
}

func TestReplaceFunction_FixWritesBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(path, []byte("function alpha() { return 1; }\n"), 0o644))

	c, err := CollectFile(path, nil)
	require.NoError(t, err)

	result, err := ReplaceFunction(c, "alpha", Options{WithCode: "function alpha() { return 2; }", Fix: true}, Renderer{})
	require.NoError(t, err)
	assert.True(t, result.Written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "return 2;")
}
