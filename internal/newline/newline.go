// Package newline detects and normalizes line-terminator style (LF,
// CRLF, CR, or mixed) so that guarded replacement can preserve the
// file's dominant newline convention across an edit.
package newline

import "strings"

// Style identifies a line-terminator convention.
type Style string

const (
	StyleLF    Style = "lf"
	StyleCRLF  Style = "crlf"
	StyleCR    Style = "cr"
	StyleMixed Style = "mixed"
	StyleNone  Style = "none" // no line terminators present at all
)

// Terminator returns the literal terminator string for a style ("\n"
// for StyleNone/StyleMixed, where no single terminator applies).
func (s Style) Terminator() string {
	switch s {
	case StyleLF:
		return "\n"
	case StyleCRLF:
		return "\r\n"
	case StyleCR:
		return "\r"
	default:
		return "\n"
	}
}

// Counts holds raw terminator occurrence counts for a piece of text.
type Counts struct {
	LF   int
	CRLF int
	CR   int
}

// Count scans text once, counting LF, CRLF, and CR occurrences. A CRLF
// pair counts toward CRLF only, not also LF or CR.
func Count(text string) Counts {
	var c Counts
	n := len(text)
	for i := 0; i < n; i++ {
		switch text[i] {
		case '\r':
			if i+1 < n && text[i+1] == '\n' {
				c.CRLF++
				i++
			} else {
				c.CR++
			}
		case '\n':
			c.LF++
		}
	}
	return c
}

// Detect determines the dominant style of text and whether the mix is
// pure (a single style) or mixed (more than one style present).
func Detect(text string) Style {
	c := Count(text)
	kinds := 0
	if c.LF > 0 {
		kinds++
	}
	if c.CRLF > 0 {
		kinds++
	}
	if c.CR > 0 {
		kinds++
	}

	switch {
	case kinds == 0:
		return StyleNone
	case kinds > 1:
		return StyleMixed
	case c.CRLF > 0:
		return StyleCRLF
	case c.CR > 0:
		return StyleCR
	default:
		return StyleLF
	}
}

// NormalizeOptions configures PrepareNormalizedSnippet.
type NormalizeOptions struct {
	EnsureTrailingNewline bool
}

// Result reports what PrepareNormalizedSnippet did.
type Result struct {
	Text            string
	OriginalStyle   Style
	TargetStyle     Style
	Converted       bool
	TrailingAdded   bool
}

// PrepareNormalizedSnippet collapses all line terminators in snippet to
// LF, then re-emits them in targetStyle. If opts.EnsureTrailingNewline
// is set and the result does not already end with targetStyle's
// terminator, one is appended.
func PrepareNormalizedSnippet(snippet string, targetStyle Style, opts NormalizeOptions) Result {
	original := Detect(snippet)

	collapsed := strings.ReplaceAll(snippet, "\r\n", "\n")
	collapsed = strings.ReplaceAll(collapsed, "\r", "\n")

	term := targetStyle.Terminator()
	reEmitted := collapsed
	if term != "\n" {
		reEmitted = strings.ReplaceAll(collapsed, "\n", term)
	}

	converted := reEmitted != snippet
	trailingAdded := false
	hadTrailing := strings.HasSuffix(snippet, "\n") || strings.HasSuffix(snippet, "\r")
	switch {
	case opts.EnsureTrailingNewline && !strings.HasSuffix(reEmitted, term):
		reEmitted += term
		trailingAdded = true
		converted = true
	case hadTrailing && !strings.HasSuffix(snippet, term):
		// The snippet's own trailing terminator was restyled.
		trailingAdded = true
	}

	return Result{
		Text:          reEmitted,
		OriginalStyle: original,
		TargetStyle:   targetStyle,
		Converted:     converted,
		TrailingAdded: trailingAdded,
	}
}
