package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jsedit/internal/bytemap"
)

func TestCreateDigestStability(t *testing.T) {
	cfg := DefaultConfig()
	d1 := CreateDigest(cfg, "function alpha() { return 1; }")
	d2 := CreateDigest(cfg, "function alpha() { return 1; }")
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 12)
}

func TestCreateDigestDiffersOnContent(t *testing.T) {
	cfg := DefaultConfig()
	d1 := CreateDigest(cfg, "a")
	d2 := CreateDigest(cfg, "b")
	assert.NotEqual(t, d1, d2)
}

func TestComputeHashOverSpan(t *testing.T) {
	src := "exports.alpha = function alpha() { return 1; }"
	m := bytemap.New(src)
	span := m.SpanFromBytes(16, len(src))
	cfg := DefaultConfig()

	h := ComputeHash(cfg, m, span)
	assert.Equal(t, CreateDigest(cfg, src[16:]), h)
}

func TestMatchesAcceptsHexAndBase64(t *testing.T) {
	text := "function alpha() { return 1; }"
	base64Prefix := CreateDigest(DefaultConfig(), text)
	assert.True(t, Matches(text, base64Prefix))

	hexCfg := Config{Encoding: "hex", Length: 12}
	hexPrefix := CreateDigest(hexCfg, text)
	assert.True(t, Matches(text, hexPrefix))

	assert.False(t, Matches(text, "not-a-real-hash"))
}

func TestNormalizeCandidatesRoundTrips(t *testing.T) {
	text := "const x = 1;"
	hexCfg := Config{Encoding: "hex", Length: 0}
	full := CreateDigest(hexCfg, text)

	set := NormalizeCandidates([]string{full})
	assert.Contains(t, set, full)
	assert.GreaterOrEqual(t, len(set), 1)
}
