package bytemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapperAsciiRoundTrip(t *testing.T) {
	src := "function alpha() { return 1; }"
	m := New(src)

	require.Equal(t, len(src), m.Len())
	require.Equal(t, len(src), m.ByteLen())

	for i := 0; i <= len(src); i++ {
		assert.Equal(t, i, m.UnitToByte(m.ByteToUnit(i)))
	}
}

func TestMapperMultibyteSurrogatePair(t *testing.T) {
	// U+1F600 (grinning face) is a 4-byte UTF-8 sequence and a UTF-16
	// surrogate pair; it should occupy 2 code units sharing one byte offset.
	src := "const x = \"\U0001F600\";"
	m := New(src)

	emojiByteStart := len("const x = \"")
	unitAtEmoji := m.ByteToUnit(emojiByteStart)
	unitAfterEmoji := m.ByteToUnit(emojiByteStart + 4)

	assert.Equal(t, 2, unitAfterEmoji-unitAtEmoji, "surrogate pair should span 2 code units")
}

func TestNormalizeSpanOneOriginByte(t *testing.T) {
	src := "abcdef"
	m := New(src)

	s := m.NormalizeSpan(Raw{Start: 1, End: 3})
	assert.True(t, s.Normalized)
	assert.Equal(t, 0, s.ByteStart)
	assert.Equal(t, 3, s.ByteEnd)
	assert.Equal(t, "abc", m.SliceString(s))
}

func TestNormalizeSpanLegacyLoHi(t *testing.T) {
	src := "abcdef"
	m := New(src)

	s := m.NormalizeSpan(Raw{Lo: 1, Hi: 3})
	assert.Equal(t, 0, s.ByteStart)
	assert.Equal(t, 3, s.ByteEnd)
}

func TestNormalizeSpanEndBeforeStart(t *testing.T) {
	src := "abcdef"
	m := New(src)

	s := m.NormalizeSpan(Raw{Start: 4, End: 2})
	assert.Equal(t, s.ByteStart, s.ByteEnd, "end < start should normalize to zero-length at start")
}

func TestNormalizeSpanOutOfRangeClamps(t *testing.T) {
	src := "abc"
	m := New(src)

	s := m.NormalizeSpan(Raw{Start: 1, End: 1000})
	assert.Equal(t, len(src), s.ByteEnd)

	s2 := m.NormalizeSpan(Raw{Start: -50, End: 2})
	assert.Equal(t, 0, s2.ByteStart)
}

func TestSliceStringAndBufferAgree(t *testing.T) {
	src := "let café = 1;"
	m := New(src)
	s := m.SpanFromBytes(4, 4+len("café"))

	assert.Equal(t, "café", m.SliceString(s))
	assert.Equal(t, []byte("café"), m.SliceBuffer(s))
}

func TestSpanFromBytesClampsToSourceBounds(t *testing.T) {
	src := "abc"
	m := New(src)
	s := m.SpanFromBytes(1, 9999)
	assert.Equal(t, len(src), s.ByteEnd)
}
