package guard

import (
	"encoding/json"
	"fmt"
	"os"

	"jsedit/internal/bytemap"
)

// PlanVersion is the Plan file format version.
const PlanVersion = 1

// SpanRange is the aggregate span range across a match set, in both
// char and byte coordinates.
type SpanRange struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
	Length    int `json:"length"`
}

// PlanSummary is the Plan's match-count/disambiguation summary.
type PlanSummary struct {
	MatchCount     int       `json:"matchCount"`
	AllowMultiple  bool      `json:"allowMultiple"`
	SpanRange      SpanRange `json:"spanRange"`
	ExpectedHashes []string  `json:"expectedHashes,omitempty"`
}

// PlanMatch is one match's payload within a Plan.
type PlanMatch struct {
	CanonicalName  string       `json:"canonicalName"`
	Kind           string       `json:"kind"`
	Scope          []string     `json:"scope,omitempty"`
	Path           string       `json:"path"`
	Span           bytemap.Span `json:"span"`
	IdentifierSpan *bytemap.Span `json:"identifierSpan,omitempty"`
	Hash           string       `json:"hash"`
	ExpectedHash   string       `json:"expectedHash,omitempty"`
	ExpectedSpan   *bytemap.Span `json:"expectedSpan,omitempty"`
}

// Plan is the versioned, content-addressable artifact describing an
// intended or completed operation, written for review tooling and CI
// gating.
type Plan struct {
	Version     int                    `json:"version"`
	GeneratedAt string                 `json:"generatedAt"`
	Operation   string                 `json:"operation"`
	File        string                 `json:"file"`
	Selector    string                 `json:"selector"`
	Summary     PlanSummary            `json:"summary"`
	Matches     []PlanMatch            `json:"matches"`
	Extras      map[string]interface{} `json:"extras,omitempty"`
}

// BuildPlan assembles a Plan from a resolved match set. generatedAt is
// supplied by the caller (the ops layer, from a timestamp set by the
// cmd or recipe package) rather than computed
// here, since workflow scripts and deterministic tests must not call
// time.Now from within this package.
func BuildPlan(operation, file, selectorExpr string, matches []PlanMatch, allowMultiple bool, expectedHashes []string, extras map[string]interface{}, generatedAt string) Plan {
	sr := aggregateSpanRange(matches)
	return Plan{
		Version:     PlanVersion,
		GeneratedAt: generatedAt,
		Operation:   operation,
		File:        file,
		Selector:    selectorExpr,
		Summary: PlanSummary{
			MatchCount:     len(matches),
			AllowMultiple:  allowMultiple,
			SpanRange:      sr,
			ExpectedHashes: expectedHashes,
		},
		Matches: matches,
		Extras:  extras,
	}
}

func aggregateSpanRange(matches []PlanMatch) SpanRange {
	if len(matches) == 0 {
		return SpanRange{}
	}
	sr := SpanRange{
		Start:     matches[0].Span.Start,
		End:       matches[0].Span.End,
		ByteStart: matches[0].Span.ByteStart,
		ByteEnd:   matches[0].Span.ByteEnd,
	}
	for _, m := range matches[1:] {
		if m.Span.Start < sr.Start {
			sr.Start = m.Span.Start
		}
		if m.Span.End > sr.End {
			sr.End = m.Span.End
		}
		if m.Span.ByteStart < sr.ByteStart {
			sr.ByteStart = m.Span.ByteStart
		}
		if m.Span.ByteEnd > sr.ByteEnd {
			sr.ByteEnd = m.Span.ByteEnd
		}
	}
	sr.Length = sr.End - sr.Start
	return sr
}

// WritePlan marshals plan as indented JSON and writes it to path.
func WritePlan(path string, plan Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("guard: marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("guard: write plan %s: %w", path, err)
	}
	return nil
}
