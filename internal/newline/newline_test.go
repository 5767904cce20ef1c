package newline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPureStyles(t *testing.T) {
	assert.Equal(t, StyleLF, Detect("a\nb\nc"))
	assert.Equal(t, StyleCRLF, Detect("a\r\nb\r\nc"))
	assert.Equal(t, StyleCR, Detect("a\rb\rc"))
	assert.Equal(t, StyleNone, Detect("abc"))
}

func TestDetectMixed(t *testing.T) {
	assert.Equal(t, StyleMixed, Detect("a\nb\r\nc"))
}

func TestPrepareNormalizedSnippetConvertsToCRLF(t *testing.T) {
	res := PrepareNormalizedSnippet("function a() {\nreturn 1;\n}", StyleCRLF, NormalizeOptions{})
	assert.True(t, res.Converted)
	assert.Equal(t, "function a() {\r\nreturn 1;\r\n}", res.Text)
	assert.Equal(t, StyleLF, res.OriginalStyle)
}

func TestPrepareNormalizedSnippetEnsuresTrailingNewline(t *testing.T) {
	res := PrepareNormalizedSnippet("const x = 1;", StyleLF, NormalizeOptions{EnsureTrailingNewline: true})
	assert.True(t, res.TrailingAdded)
	assert.Equal(t, "const x = 1;\n", res.Text)
}

func TestPrepareNormalizedSnippetNoOpWhenAlreadyTarget(t *testing.T) {
	res := PrepareNormalizedSnippet("const x = 1;\n", StyleLF, NormalizeOptions{EnsureTrailingNewline: true})
	assert.False(t, res.Converted)
	assert.False(t, res.TrailingAdded)
}

func TestPrepareNormalizedSnippetCRLFFileLFSnippet(t *testing.T) {
	// CRLF file, LF-terminated replacement snippet.
	res := PrepareNormalizedSnippet("alpha2() {\n  return 2;\n}\n", StyleCRLF, NormalizeOptions{EnsureTrailingNewline: true})
	assert.True(t, res.Converted)
	assert.Contains(t, res.Text, "\r\n")
	assert.True(t, res.TrailingAdded, "the LF trailing terminator is restyled to CRLF")
}
