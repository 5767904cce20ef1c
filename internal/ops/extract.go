package ops

import (
	"fmt"
	"os"

	"jsedit/internal/selector"
)

// ExtractMatch pairs a MatchPayload with its extracted source text.
type ExtractMatch struct {
	MatchPayload
	Code string `json:"code"`
}

// ExtractResult is the JSON payload for --extract/--extract-variable.
type ExtractResult struct {
	Operation string         `json:"operation"`
	File      string         `json:"file"`
	Selector  string         `json:"selector"`
	Matches   []ExtractMatch `json:"matches"`
}

// Extract resolves expr to exactly one match (unless opts.AllowMultiple)
// and returns its text, optionally writing it to outputPath.
func Extract(ctx *Context, typ selector.Type, expr string, opts Options, outputPath string, r Renderer) (ExtractResult, error) {
	matches, err := resolveTyped(ctx, typ, expr, opts)
	if err != nil {
		return ExtractResult{}, err
	}

	result := ExtractResult{Operation: "extract", File: ctx.Source.Path, Selector: expr}
	for _, m := range matches {
		p := payloadFor(m)
		code := ctx.Source.Slice(p.Span)
		result.Matches = append(result.Matches, ExtractMatch{MatchPayload: p, Code: code})
		r.line("%s:\n%s", p.CanonicalName, code)
	}

	if outputPath != "" && len(result.Matches) > 0 {
		if err := os.WriteFile(outputPath, []byte(result.Matches[0].Code), 0o644); err != nil {
			return result, fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
		}
	}

	r.result(result)
	return result, nil
}

// ExtractByHashes implements the multi-hash extract entry point:
// given a list of hashes, find exactly one match per hash (erroring if
// any hash matches zero or more than one record) and return all.
func ExtractByHashes(ctx *Context, hashes []string, r Renderer) (ExtractResult, error) {
	result := ExtractResult{Operation: "extract-hashes", File: ctx.Source.Path}

	for _, h := range hashes {
		matches, err := selector.ResolveExpr(ctx.Pool, &selector.Expression{
			Base:    selector.WildcardBase,
			Filters: selector.Filters{Hash: []string{h}},
		}, selector.ResolveOptions{})
		if err != nil {
			return ExtractResult{}, fmt.Errorf("extract-hashes: hash %q: %w", h, err)
		}
		for _, m := range matches {
			p := payloadFor(m)
			code := ctx.Source.Slice(p.Span)
			result.Matches = append(result.Matches, ExtractMatch{MatchPayload: p, Code: code})
			r.line("%s (hash=%s):\n%s", p.CanonicalName, h, code)
		}
	}
	r.result(result)
	return result, nil
}
