package ops

import (
	"jsedit/internal/bytemap"
	"jsedit/internal/collector"
	"jsedit/internal/selector"
)

// MatchPayload is the common per-match shape shared by locate/preview/
// context/extract results and plan entries.
type MatchPayload struct {
	CanonicalName  string        `json:"canonicalName"`
	Type           string        `json:"type"`
	Kind           string        `json:"kind"`
	Path           string        `json:"path"`
	Span           bytemap.Span  `json:"span"`
	IdentifierSpan *bytemap.Span `json:"identifierSpan,omitempty"`
	Hash           string        `json:"hash"`
	Replaceable    bool          `json:"replaceable"`
}

func payloadFor(m selector.Match) MatchPayload {
	p := MatchPayload{
		CanonicalName: m.CanonicalName(),
		Type:          string(m.Type),
		Kind:          m.Kind(),
		Replaceable:   m.Replaceable(),
	}
	if m.Function != nil {
		p.Path = m.Function.PathSignature
		p.Span = m.Function.Span
		ident := m.Function.IdentifierSpan
		p.IdentifierSpan = &ident
		p.Hash = m.Function.Digest
	}
	if m.Variable != nil {
		p.Path = m.Variable.DeclarationPath
		p.Span = m.Variable.DeclarationSpan
		p.Hash = m.Variable.DeclarationDigest
	}
	return p
}

// LocateResult is the JSON payload for --locate/--locate-variable.
type LocateResult struct {
	Operation string         `json:"operation"`
	File      string         `json:"file"`
	Selector  string         `json:"selector"`
	Matches   []MatchPayload `json:"matches"`
}

// Locate resolves expr against ctx.Pool (restricted to typ, TypeAny for
// --locate-variable vs --locate distinction left to the caller) and
// returns the match payloads without mutation.
func Locate(ctx *Context, typ selector.Type, expr string, opts Options, r Renderer) (LocateResult, error) {
	matches, err := resolveTyped(ctx, typ, expr, opts)
	if err != nil {
		return LocateResult{}, err
	}
	result := LocateResult{Operation: "locate", File: ctx.Source.Path, Selector: expr}
	for _, m := range matches {
		p := payloadFor(m)
		result.Matches = append(result.Matches, p)
		r.line("%s kind=%s hash=%s span=[%d,%d)", p.CanonicalName, p.Kind, p.Hash, p.Span.Start, p.Span.End)
	}
	r.result(result)
	return result, nil
}

func resolveTyped(ctx *Context, typ selector.Type, expr string, opts Options) ([]selector.Match, error) {
	e, err := selector.Parse(expr)
	if err != nil {
		return nil, err
	}
	if typ != selector.TypeAny {
		e.Type = typ
	}
	return selector.ResolveExpr(ctx.Pool, e, opts.resolveOptions())
}

// PreviewResult is the JSON payload for --preview/--preview-variable.
type PreviewResult struct {
	Operation string         `json:"operation"`
	File      string         `json:"file"`
	Selector  string         `json:"selector"`
	Matches   []PreviewMatch `json:"matches"`
}

// PreviewMatch pairs a MatchPayload with its rendered code snippet.
type PreviewMatch struct {
	MatchPayload
	Code string `json:"code"`
}

// Preview extracts and renders the snippet for each resolved match,
// optionally truncated to opts.PreviewChars.
func Preview(ctx *Context, typ selector.Type, expr string, opts Options, r Renderer) (PreviewResult, error) {
	matches, err := resolveTyped(ctx, typ, expr, opts)
	if err != nil {
		return PreviewResult{}, err
	}
	result := PreviewResult{Operation: "preview", File: ctx.Source.Path, Selector: expr}
	for _, m := range matches {
		p := payloadFor(m)
		code := ctx.Source.Slice(p.Span)
		if runes := []rune(code); opts.PreviewChars > 0 && len(runes) > opts.PreviewChars {
			code = string(runes[:opts.PreviewChars])
		}
		pm := PreviewMatch{MatchPayload: p, Code: code}
		result.Matches = append(result.Matches, pm)
		r.line("%s:\n%s", p.CanonicalName, code)
	}
	r.result(result)
	return result, nil
}

// ContextResult is the JSON payload for --context-function/--context-variable.
type ContextResult struct {
	Operation string          `json:"operation"`
	File      string          `json:"file"`
	Selector  string          `json:"selector"`
	Matches   []ContextMatch  `json:"matches"`
}

// ContextMatch is a padded context snippet around (or enclosing) a match.
type ContextMatch struct {
	MatchPayload
	EnclosingSpan bytemap.Span `json:"enclosingSpan"`
	Code          string       `json:"code"`
}

// ContextOp implements --context-function/--context-variable: emits a
// padded snippet around the resolved span, in one of three enclosing
// modes (exact/class/function).
func ContextOp(ctx *Context, typ selector.Type, expr string, opts Options, r Renderer) (ContextResult, error) {
	matches, err := resolveTyped(ctx, typ, expr, opts)
	if err != nil {
		return ContextResult{}, err
	}
	result := ContextResult{Operation: "context", File: ctx.Source.Path, Selector: expr}
	for _, m := range matches {
		p := payloadFor(m)
		enclosing := enclosingSpanFor(m, opts.ContextEnclosing)
		padded := padSpan(ctx, enclosing, opts.ContextBefore, opts.ContextAfter)
		code := ctx.Source.Slice(padded)
		cm := ContextMatch{MatchPayload: p, EnclosingSpan: enclosing, Code: code}
		result.Matches = append(result.Matches, cm)
		r.line("%s [%s]:\n%s", p.CanonicalName, opts.ContextEnclosing, code)
	}
	r.result(result)
	return result, nil
}

// enclosingSpanFor resolves the "exact"/"class"/"function" enclosing
// mode to a concrete span using the match's own span or its
// enclosing-context stack.
func enclosingSpanFor(m selector.Match, mode string) bytemap.Span {
	var own bytemap.Span
	var enclosing []collector.EnclosingContext
	if m.Function != nil {
		own = m.Function.Span
		enclosing = m.Function.EnclosingContext
	} else if m.Variable != nil {
		own = m.Variable.DeclarationSpan
		enclosing = m.Variable.EnclosingContext
	}

	switch mode {
	case "class":
		for _, e := range enclosing {
			if e.Kind == "class" {
				return e.Span
			}
		}
	case "function":
		for _, e := range enclosing {
			if e.Kind == "function-declaration" || e.Kind == "function-expression" || e.Kind == "arrow-function" || e.Kind == "class-method" {
				return e.Span
			}
		}
	}
	return own
}

// padSpan extends span symmetrically by before/after characters,
// clamped to source bounds.
func padSpan(ctx *Context, span bytemap.Span, before, after int) bytemap.Span {
	start := span.Start - before
	if start < 0 {
		start = 0
	}
	end := span.End + after
	if max := ctx.Source.Mapper.Len(); end > max {
		end = max
	}
	return ctx.Source.SpanFromChars(start, end)
}

// ScanTarget is one entry in a --scan-targets listing: a lightweight
// name+kind+replaceable summary meant for downstream recipe selection.
type ScanTarget struct {
	CanonicalName string `json:"canonicalName"`
	Type          string `json:"type"`
	Kind          string `json:"kind"`
	Replaceable   bool   `json:"replaceable"`
	Hash          string `json:"hash"`
}

// ScanTargetsResult is the JSON payload for --scan-targets.
type ScanTargetsResult struct {
	Operation string       `json:"operation"`
	File      string       `json:"file"`
	Targets   []ScanTarget `json:"targets"`
}

// ScanTargets enumerates replaceable records across one or both kinds,
// restricted by opts.ScanTargetKind ("function" | "variable" | "").
func ScanTargets(ctx *Context, opts Options, r Renderer) ScanTargetsResult {
	result := ScanTargetsResult{Operation: "scan-targets", File: ctx.Source.Path}
	if opts.ScanTargetKind == "" || opts.ScanTargetKind == "function" {
		for _, f := range ctx.Pool.Functions {
			if !f.Replaceable {
				continue
			}
			if !matchesAny(opts.Match, f.CanonicalName) || !matchesNone(opts.Exclude, f.CanonicalName) {
				continue
			}
			result.Targets = append(result.Targets, ScanTarget{
				CanonicalName: f.CanonicalName, Type: "function", Kind: f.Kind, Replaceable: true, Hash: f.Digest,
			})
		}
	}
	if opts.ScanTargetKind == "" || opts.ScanTargetKind == "variable" {
		for _, v := range ctx.Pool.Variables {
			if !matchesAny(opts.Match, v.Name) || !matchesNone(opts.Exclude, v.Name) {
				continue
			}
			result.Targets = append(result.Targets, ScanTarget{
				CanonicalName: v.Name, Type: "variable", Kind: v.Kind, Replaceable: true, Hash: v.DeclarationDigest,
			})
		}
	}
	for _, t := range result.Targets {
		r.line("%s type=%s kind=%s hash=%s", t.CanonicalName, t.Type, t.Kind, t.Hash)
	}
	r.result(result)
	return result
}
