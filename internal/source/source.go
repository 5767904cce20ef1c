// Package source holds the immutable per-invocation source artifact:
// the original text plus its byte mapper, shared by every downstream
// component (collector, selector, guard, ops).
package source

import (
	"jsedit/internal/bytemap"
	"jsedit/internal/digest"
	"jsedit/internal/newline"
)

// Source is the immutable source artifact for one invocation. All
// spans derived from it are mapper-normalized (bytemap.Span) so they
// survive multibyte editing.
type Source struct {
	Path       string
	Text       string
	Mapper     *bytemap.Mapper
	HashConfig digest.Config
	FileStyle  newline.Style
}

// New constructs a Source artifact for path/text using the given hash
// config (or digest.DefaultConfig() if the zero value is passed).
func New(path, text string, hashCfg digest.Config) *Source {
	if hashCfg.Encoding == "" {
		hashCfg = digest.DefaultConfig()
	}
	return &Source{
		Path:       path,
		Text:       text,
		Mapper:     bytemap.New(text),
		HashConfig: hashCfg,
		FileStyle:  newline.Detect(text),
	}
}

// Slice returns the text for span.
func (s *Source) Slice(span bytemap.Span) string {
	return s.Mapper.SliceString(span)
}

// Hash computes the content digest of span under this Source's hash
// config.
func (s *Source) Hash(span bytemap.Span) string {
	return digest.ComputeHash(s.HashConfig, s.Mapper, span)
}

// NormalizeSpan converts a parser-native raw span into a
// mapper-normalized Span. Tree-sitter reports 0-based byte offsets
// directly usable via SpanFromBytes, so this path exists for inputs
// arriving in the legacy 1-origin convention (parsers that number the
// first byte of a token as 1).
func (s *Source) NormalizeSpan(raw bytemap.Raw) bytemap.Span {
	return s.Mapper.NormalizeSpan(raw)
}

// SpanFromBytes wraps Mapper.SpanFromBytes.
func (s *Source) SpanFromBytes(start, end int) bytemap.Span {
	return s.Mapper.SpanFromBytes(start, end)
}

// SpanFromChars builds a normalized span from 0-based code-unit
// (char) offsets, as used by --expect-span/--replace-range CLI flags.
func (s *Source) SpanFromChars(start, end int) bytemap.Span {
	byteStart := s.Mapper.UnitToByte(start)
	byteEnd := s.Mapper.UnitToByte(end)
	return s.Mapper.SpanFromBytes(byteStart, byteEnd)
}
