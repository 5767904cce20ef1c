// Package guard implements pre/post-edit invariant checks, plan
// emission, and digest snapshotting for guarded replacement.
package guard

import (
	"fmt"

	"jsedit/internal/bytemap"
	"jsedit/internal/collector"
	"jsedit/internal/digest"
	"jsedit/internal/logging"
	"jsedit/internal/newline"
	"jsedit/internal/source"
)

// Status is the shared guard status vocabulary.
type Status string

const (
	StatusOK        Status = "ok"
	StatusMismatch  Status = "mismatch"
	StatusBypass    Status = "bypass"
	StatusPending   Status = "pending"
	StatusSkipped   Status = "skipped"
	StatusConverted Status = "converted"
	StatusUnchanged Status = "unchanged"
	StatusChanged   Status = "changed"
	StatusNone      Status = "none"
	StatusError     Status = "error"
)

// SpanGuard compares a record's current span against an expected one.
type SpanGuard struct {
	Status   Status       `json:"status"`
	Actual   bytemap.Span `json:"actual"`
	Expected bytemap.Span `json:"expected,omitempty"`
}

// HashGuard compares a record's current content digest against an
// expected digest.
type HashGuard struct {
	Status   Status `json:"status"`
	Actual   string `json:"actual"`
	Expected string `json:"expected,omitempty"`
}

// PathGuard records whether a record's path signature survived an edit.
type PathGuard struct {
	Status    Status `json:"status"`
	Signature string `json:"signature"`
}

// SyntaxGuard records whether the post-edit source re-parses cleanly.
// Failure here aborts the operation even under force.
type SyntaxGuard struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// ResultGuard records whether the edit actually changed the source.
type ResultGuard struct {
	Status     Status `json:"status"`
	BeforeHash string `json:"beforeHash"`
	AfterHash  string `json:"afterHash"`
}

// NewlineGuard records the newline normalization performed on a
// replacement snippet.
type NewlineGuard struct {
	Status                Status        `json:"status"`
	FileStyle             newline.Style `json:"fileStyle"`
	OriginalSnippetStyle  newline.Style `json:"originalSnippetStyle"`
	ResultStyle           newline.Style `json:"resultStyle"`
	ReplacementStyle      newline.Style `json:"replacementStyle"`
	ByteDelta             int           `json:"byteDelta"`
	TrailingNewlineAdded  bool          `json:"trailingNewlineAdded"`
}

// Guard is the composite pre/post invariant record attached to every
// mutating operation's payload.
type Guard struct {
	Span    SpanGuard    `json:"span"`
	Hash    HashGuard    `json:"hash"`
	Path    PathGuard    `json:"path"`
	Syntax  SyntaxGuard  `json:"syntax"`
	Result  ResultGuard  `json:"result"`
	Newline NewlineGuard `json:"newline"`
}

// BuildHashGuard computes the current digest of span and compares it
// against expected (the record's own hash, or a user-supplied
// --expect-hash). An empty expected hash means "no guard requested":
// status is ok. Force downgrades a mismatch to bypass.
func BuildHashGuard(src *source.Source, span bytemap.Span, expected string, force bool) HashGuard {
	actual := src.Hash(span)
	if expected == "" {
		return HashGuard{Status: StatusOK, Actual: actual}
	}
	if digest.Matches(src.Slice(span), expected) {
		return HashGuard{Status: StatusOK, Actual: actual, Expected: expected}
	}
	status := StatusMismatch
	if force {
		status = StatusBypass
	}
	logging.GuardError("hash guard %s: actual=%s expected=%s", status, actual, expected)
	return HashGuard{Status: status, Actual: actual, Expected: expected}
}

// BuildSpanGuard compares a record's actual span against an expected
// one supplied via --expect-span. A nil expected span means no guard
// was requested.
func BuildSpanGuard(actual bytemap.Span, expected *bytemap.Span, force bool) SpanGuard {
	if expected == nil {
		return SpanGuard{Status: StatusOK, Actual: actual}
	}
	if actual.Start == expected.Start && actual.End == expected.End {
		return SpanGuard{Status: StatusOK, Actual: actual, Expected: *expected}
	}
	status := StatusMismatch
	if force {
		status = StatusBypass
	}
	return SpanGuard{Status: status, Actual: actual, Expected: *expected}
}

// BuildSyntaxGuard re-parses text (the full post-edit source) and
// reports a syntax guard. This guard is never bypassed by force.
func BuildSyntaxGuard(path, text string) SyntaxGuard {
	ok, err := collector.ReParseOK(path, text)
	if err != nil {
		return SyntaxGuard{Status: StatusError, Message: err.Error()}
	}
	if !ok {
		return SyntaxGuard{Status: StatusError, Message: fmt.Sprintf("%s: source does not parse after edit", path)}
	}
	return SyntaxGuard{Status: StatusOK}
}

// BuildPathGuard re-collects the post-edit source and searches for a
// record whose path signature matches preSignature.
func BuildPathGuard(postSrc *source.Source, preSignature string, force bool) PathGuard {
	pool, err := collector.Collect(postSrc)
	if err != nil {
		status := StatusMismatch
		if force {
			status = StatusBypass
		}
		return PathGuard{Status: status, Signature: preSignature}
	}
	for _, f := range pool.Functions {
		if f.PathSignature == preSignature {
			return PathGuard{Status: StatusOK, Signature: preSignature}
		}
	}
	for _, v := range pool.Variables {
		if v.BindingPath == preSignature || v.DeclaratorPath == preSignature || v.DeclarationPath == preSignature {
			return PathGuard{Status: StatusOK, Signature: preSignature}
		}
	}
	status := StatusMismatch
	if force {
		status = StatusBypass
	}
	return PathGuard{Status: status, Signature: preSignature}
}

// BuildResultGuard compares before/after digests of the edited span's
// text content.
func BuildResultGuard(cfg digest.Config, beforeText, afterText string) ResultGuard {
	before := digest.CreateDigest(cfg, beforeText)
	after := digest.CreateDigest(cfg, afterText)
	status := StatusChanged
	if before == after {
		status = StatusUnchanged
	}
	return ResultGuard{Status: status, BeforeHash: before, AfterHash: after}
}

// BuildNewlineGuard normalizes replacement to fileStyle and reports
// the resulting guard.
func BuildNewlineGuard(fileStyle newline.Style, replacement string, ensureTrailing bool) (NewlineGuard, string) {
	result := newline.PrepareNormalizedSnippet(replacement, fileStyle, newline.NormalizeOptions{EnsureTrailingNewline: ensureTrailing})
	status := StatusNone
	if result.Converted {
		status = StatusConverted
	}
	g := NewlineGuard{
		Status:               status,
		FileStyle:            fileStyle,
		OriginalSnippetStyle: result.OriginalStyle,
		ResultStyle:          fileStyle,
		ReplacementStyle:     result.TargetStyle,
		ByteDelta:            len(result.Text) - len(replacement),
		TrailingNewlineAdded: result.TrailingAdded,
	}
	return g, result.Text
}
