// Package bytemap maps between 16-bit code-unit offsets (the parser's
// native span representation) and UTF-8 byte offsets (the backing
// buffer's native representation), and slices source text by either.
package bytemap

import "sort"

// Span is a closed-open interval carrying both code-unit and byte
// endpoints. Invariant: End >= Start, ByteEnd >= ByteStart, and both
// intervals describe the same source slice.
type Span struct {
	Start      int `json:"start"`
	End        int `json:"end"`
	ByteStart  int `json:"byteStart"`
	ByteEnd    int `json:"byteEnd"`
	Normalized bool `json:"__normalized"`
}

// Raw is a parser-native span before normalization. Either Start/End
// (1-based byte offsets) or Lo/Hi (legacy alias) may be populated.
type Raw struct {
	Start int
	End   int
	Lo    int
	Hi    int
}

func (r Raw) bounds() (start, end int) {
	if r.Start != 0 || r.End != 0 {
		return r.Start, r.End
	}
	return r.Lo, r.Hi
}

// Mapper indexes a source string's UTF-8 byte boundaries so that
// parser-native byte offsets can be translated to code-unit offsets
// and back via binary search.
type Mapper struct {
	source []byte
	// byteAtUnit[i] is the cumulative UTF-8 byte length of the source
	// prefix up to code-unit i. len(byteAtUnit) == number of code units + 1.
	byteAtUnit []int
}

// New builds a Mapper over source. Code units follow UTF-16 semantics:
// surrogate pairs (code points above U+FFFF) occupy two code units that
// share the byte offset of the first byte of their 4-byte UTF-8 encoding.
func New(source string) *Mapper {
	b := []byte(source)
	byteAtUnit := make([]int, 0, len(b)+1)
	byteAtUnit = append(byteAtUnit, 0)

	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c < 0x80:
			i++
			byteAtUnit = append(byteAtUnit, i)
		case c < 0xE0:
			i += 2
			byteAtUnit = append(byteAtUnit, i)
		case c < 0xF0:
			i += 3
			byteAtUnit = append(byteAtUnit, i)
		default:
			// 4-byte sequence encodes a code point requiring a UTF-16
			// surrogate pair: two code units share this byte offset.
			byteAtUnit = append(byteAtUnit, i)
			i += 4
			byteAtUnit = append(byteAtUnit, i)
		}
	}

	return &Mapper{source: b, byteAtUnit: byteAtUnit}
}

// Len returns the number of code units in the source.
func (m *Mapper) Len() int {
	if len(m.byteAtUnit) == 0 {
		return 0
	}
	return len(m.byteAtUnit) - 1
}

// ByteLen returns the number of UTF-8 bytes in the source.
func (m *Mapper) ByteLen() int {
	return len(m.source)
}

// ByteToUnit converts a byte offset to a code-unit offset via binary
// search over the index. Out-of-range offsets clamp to [0, ByteLen()].
func (m *Mapper) ByteToUnit(byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset >= len(m.source) {
		return m.Len()
	}
	// First unit i such that byteAtUnit[i] >= byteOffset.
	idx := sort.SearchInts(m.byteAtUnit, byteOffset)
	if idx >= len(m.byteAtUnit) {
		idx = len(m.byteAtUnit) - 1
	}
	return idx
}

// UnitToByte converts a code-unit offset to a byte offset.
func (m *Mapper) UnitToByte(unit int) int {
	if unit <= 0 {
		return 0
	}
	if unit >= len(m.byteAtUnit) {
		return m.ByteLen()
	}
	return m.byteAtUnit[unit]
}

// NormalizeSpan accepts a parser-native raw span (1-origin byte offsets,
// or a legacy Lo/Hi alias) and returns a mapper-normalized Span with
// both code-unit and byte endpoints populated.
//
// Start normalizes to max(0, raw-1); End normalizes to max(byteStart, raw).
// A span with end < start normalizes to zero-length at start.
func (m *Mapper) NormalizeSpan(raw Raw) Span {
	rawStart, rawEnd := raw.bounds()

	byteStart := rawStart - 1
	if byteStart < 0 {
		byteStart = 0
	}
	if byteStart > m.ByteLen() {
		byteStart = m.ByteLen()
	}

	byteEnd := rawEnd
	if byteEnd < byteStart {
		byteEnd = byteStart
	}
	if byteEnd > m.ByteLen() {
		byteEnd = m.ByteLen()
	}

	return Span{
		Start:      m.ByteToUnit(byteStart),
		End:        m.ByteToUnit(byteEnd),
		ByteStart:  byteStart,
		ByteEnd:    byteEnd,
		Normalized: true,
	}
}

// SpanFromBytes builds an already-normalized Span directly from a byte
// interval (used by components that already operate in byte space, e.g.
// tree-sitter node spans, which are 0-based byte offsets already).
func (m *Mapper) SpanFromBytes(byteStart, byteEnd int) Span {
	if byteStart < 0 {
		byteStart = 0
	}
	if byteEnd < byteStart {
		byteEnd = byteStart
	}
	if byteEnd > m.ByteLen() {
		byteEnd = m.ByteLen()
	}
	return Span{
		Start:      m.ByteToUnit(byteStart),
		End:        m.ByteToUnit(byteEnd),
		ByteStart:  byteStart,
		ByteEnd:    byteEnd,
		Normalized: true,
	}
}

// SliceString extracts source text using the span's byte endpoints,
// returned as a Go string (Go strings are already UTF-8 byte slices,
// so this and SliceBuffer necessarily agree byte-for-byte).
func (m *Mapper) SliceString(s Span) string {
	start, end := clamp(s.ByteStart, s.ByteEnd, len(m.source))
	return string(m.source[start:end])
}

// SliceBuffer extracts the raw UTF-8 bytes for a span.
func (m *Mapper) SliceBuffer(s Span) []byte {
	start, end := clamp(s.ByteStart, s.ByteEnd, len(m.source))
	out := make([]byte, end-start)
	copy(out, m.source[start:end])
	return out
}

func clamp(start, end, max int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	if end > max {
		end = max
	}
	if start > max {
		start = max
	}
	return start, end
}
