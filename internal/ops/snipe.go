package ops

import (
	"fmt"

	"jsedit/internal/bytemap"
	"jsedit/internal/selector"
)

// SnipeResult is the JSON payload for --snipe: one precisely resolved
// record with everything a follow-up guarded replace needs baked in.
type SnipeResult struct {
	Operation    string        `json:"operation"`
	File         string        `json:"file"`
	Selector     string        `json:"selector"`
	Match        MatchPayload  `json:"match"`
	Code         string        `json:"code"`
	ExpectedHash string        `json:"expectedHash"`
	ExpectedSpan bytemap.Span  `json:"expectedSpan"`
	Scope        []string      `json:"scope,omitempty"`
}

// Snipe resolves expr to exactly one record, never tolerating
// ambiguity regardless of --allow-multiple, and returns its code
// together with the expected hash/span a later replace should guard
// on. It is the read half of a two-step guarded edit.
func Snipe(ctx *Context, expr string, opts Options, r Renderer) (SnipeResult, error) {
	strict := opts
	strict.AllowMultiple = false
	matches, err := resolveTyped(ctx, selector.TypeAny, expr, strict)
	if err != nil {
		return SnipeResult{}, err
	}
	if len(matches) != 1 {
		return SnipeResult{}, fmt.Errorf("%w: snipe requires exactly one match, got %d", selector.ErrAmbiguous, len(matches))
	}

	m := matches[0]
	p := payloadFor(m)
	result := SnipeResult{
		Operation:    "snipe",
		File:         ctx.Source.Path,
		Selector:     expr,
		Match:        p,
		Code:         ctx.Source.Slice(p.Span),
		ExpectedHash: p.Hash,
		ExpectedSpan: p.Span,
	}
	if m.Function != nil {
		for _, s := range m.Function.ScopeChain {
			if s.Role != "" {
				result.Scope = append(result.Scope, s.Owner+" "+s.Role)
			} else {
				result.Scope = append(result.Scope, s.Owner)
			}
		}
	}

	r.line("%s hash=%s span=[%d,%d)", p.CanonicalName, p.Hash, p.Span.Start, p.Span.End)
	r.line("%s", result.Code)
	r.result(result)
	return result, nil
}
