package ops

import (
	"fmt"
	"regexp"
	"sort"

	"jsedit/internal/bytemap"
	"jsedit/internal/collector"
	"jsedit/internal/digest"
	"jsedit/internal/guard"
	"jsedit/internal/logging"
	"jsedit/internal/selector"
	"jsedit/internal/source"
)

var identifierRegexp = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ReplaceOutcome is one match's guarded-replacement result, tracking
// the state machine's terminal state.
type ReplaceOutcome struct {
	Match   MatchPayload `json:"match"`
	State   string       `json:"state"` // done | error
	OldCode string       `json:"oldCode"`
	NewCode string       `json:"newCode"`
	Guard   guard.Guard  `json:"guard"`
	Error   string       `json:"error,omitempty"`
}

// ReplaceResult is the JSON payload for --replace/--replace-variable.
type ReplaceResult struct {
	Operation string           `json:"operation"`
	File      string           `json:"file"`
	Selector  string           `json:"selector"`
	Outcomes  []ReplaceOutcome `json:"outcomes"`
	FinalText string           `json:"-"`
	Written   bool             `json:"written"`
	Diff      string           `json:"diff,omitempty"`
	Plan      *guard.Plan      `json:"plan,omitempty"`
}

// ReplaceFunction implements --replace / --rename over function
// records.
func ReplaceFunction(ctx *Context, expr string, opts Options, r Renderer) (ReplaceResult, error) {
	matches, err := resolveTyped(ctx, selector.TypeFunction, expr, opts)
	if err != nil {
		return ReplaceResult{}, err
	}
	for _, m := range matches {
		if !m.Replaceable() {
			return ReplaceResult{}, fmt.Errorf("%w: %s", ErrNotReplaceable, m.CanonicalName())
		}
	}
	return runReplace(ctx, "replace", expr, matches, opts, r, true)
}

// ReplaceVariable implements --replace-variable over variable records:
// the same frame, keyed by opts.VariableTarget; no rename, no
// sub-range.
func ReplaceVariable(ctx *Context, expr string, opts Options, r Renderer) (ReplaceResult, error) {
	if opts.Rename != "" {
		return ReplaceResult{}, fmt.Errorf("%w: --rename is not supported for variable replace", ErrMutuallyExclusive)
	}
	if opts.ReplaceRange != nil {
		return ReplaceResult{}, fmt.Errorf("%w: --replace-range is not supported for variable replace", ErrMutuallyExclusive)
	}
	matches, err := resolveTyped(ctx, selector.TypeVariable, expr, opts)
	if err != nil {
		return ReplaceResult{}, err
	}
	return runReplace(ctx, "replace-variable", expr, matches, opts, r, false)
}

// runReplace drives the shared resolve -> guard -> rewrite -> verify ->
// commit frame across one or more matches. Matches are applied in
// reverse span order so earlier offsets stay valid while later ones
// are rewritten first.
func runReplace(ctx *Context, operation, expr string, matches []selector.Match, opts Options, r Renderer, isFunction bool) (ReplaceResult, error) {
	ordered := append([]selector.Match(nil), matches...)
	sort.Slice(ordered, func(i, j int) bool {
		_, _, bi, _ := ordered[i].PrimarySpan()
		_, _, bj, _ := ordered[j].PrimarySpan()
		return bi > bj
	})

	result := ReplaceResult{Operation: operation, File: ctx.Source.Path, Selector: expr}
	text := ctx.Source.Text
	cfg := ctx.Source.HashConfig

	for _, m := range ordered {
		outcome, newText, err := replaceOne(ctx.Source.Path, cfg, text, m, opts, isFunction)
		result.Outcomes = append(result.Outcomes, outcome)
		if err != nil {
			return result, err
		}
		if outcome.State == "done" {
			text = newText
		}
	}
	result.FinalText = text

	for _, o := range result.Outcomes {
		r.line("%s: %s (result=%s hash=%s)", o.Match.CanonicalName, o.State, o.Guard.Result.Status, o.Guard.Hash.Status)
	}

	if opts.PreviewEdit || opts.EmitDiff {
		result.Diff = UnifiedDiff(ctx.Source.Path, ctx.Source.Text, text)
		if result.Diff != "" {
			r.line("%s", result.Diff)
		}
	}

	if opts.Fix && allDone(result.Outcomes) {
		if err := WriteBack(ctx.Source.Path, text); err != nil {
			return result, err
		}
		result.Written = true
	} else if allDone(result.Outcomes) {
		r.line("dry run: no file written (pass --fix to commit)")
	}

	if opts.EmitPlan != "" {
		plan := buildReplacePlan(operation, ctx.Source.Path, expr, result, opts)
		result.Plan = &plan
		if err := guard.WritePlan(opts.EmitPlan, plan); err != nil {
			return result, err
		}
	}

	if _, err := buildDigestSnapshots(operation, ctx.Source.Path, expr, result, opts); err != nil {
		return result, err
	}

	r.result(result)
	return result, nil
}

func allDone(outcomes []ReplaceOutcome) bool {
	for _, o := range outcomes {
		if o.State != "done" {
			return false
		}
	}
	return len(outcomes) > 0
}

// replaceOne runs the state machine for a single match against the
// current working text, returning its outcome and (if successful) the
// rewritten whole-file text.
func replaceOne(path string, cfg digest.Config, text string, m selector.Match, opts Options, isFunction bool) (ReplaceOutcome, string, error) {
	p := payloadFor(m)
	outcome := ReplaceOutcome{Match: p}

	// state: resolving -> guarding
	workSrc := source.New(path, text, cfg)
	targetSpan, identifierSpan, pathSignature := targetFor(m, opts.VariableTarget)

	outcome.OldCode = workSrc.Slice(targetSpan)

	hashGuard := guard.BuildHashGuard(workSrc, targetSpan, opts.ExpectHash, opts.Force)
	spanGuard := guard.BuildSpanGuard(targetSpan, opts.ExpectSpan, opts.Force)
	if hashGuard.Status == guard.StatusMismatch || spanGuard.Status == guard.StatusMismatch {
		outcome.State = "error"
		outcome.Guard.Hash = hashGuard
		outcome.Guard.Span = spanGuard
		outcome.Error = "guard check failed"
		return outcome, "", fmt.Errorf("%w: %s", ErrGuardFailed, m.CanonicalName())
	}
	outcome.Guard.Hash = hashGuard
	outcome.Guard.Span = spanGuard

	// state: rewriting
	newText, newCode, newlineGuard, rewriteErr := rewriteText(workSrc, targetSpan, identifierSpan, opts, isFunction)
	if rewriteErr != nil {
		outcome.State = "error"
		outcome.Error = rewriteErr.Error()
		return outcome, "", rewriteErr
	}
	outcome.NewCode = newCode
	outcome.Guard.Newline = newlineGuard

	// state: verifying
	syntaxGuard := guard.BuildSyntaxGuard(path, newText)
	if syntaxGuard.Status != guard.StatusOK {
		outcome.State = "error"
		outcome.Guard.Syntax = syntaxGuard
		outcome.Error = syntaxGuard.Message
		return outcome, "", fmt.Errorf("%w: %s", ErrSyntaxFailure, syntaxGuard.Message)
	}
	outcome.Guard.Syntax = syntaxGuard

	postSrc := source.New(path, newText, cfg)
	pathGuard := guard.BuildPathGuard(postSrc, pathSignature, opts.Force)
	if pathGuard.Status == guard.StatusMismatch {
		outcome.State = "error"
		outcome.Guard.Path = pathGuard
		outcome.Error = "path signature did not survive the edit"
		return outcome, "", fmt.Errorf("%w: path guard failed for %s", ErrGuardFailed, m.CanonicalName())
	}
	outcome.Guard.Path = pathGuard
	outcome.Guard.Result = guard.BuildResultGuard(cfg, outcome.OldCode, outcome.NewCode)

	// state: committing (writeback decided by the caller via opts.Fix)
	outcome.State = "done"
	logging.Ops("replace %s: state=done result=%s", m.CanonicalName(), outcome.Guard.Result.Status)
	return outcome, newText, nil
}

// targetFor resolves the span/identifier-span/path-signature triple a
// match should be edited through, honoring variable target modes.
func targetFor(m selector.Match, variableMode string) (span bytemap.Span, identifierSpan *bytemap.Span, pathSignature string) {
	if m.Function != nil {
		ident := m.Function.IdentifierSpan
		return m.Function.Span, &ident, m.Function.PathSignature
	}
	s, mode := m.Variable.TargetSpan(variableMode)
	switch mode {
	case collector.TargetBinding:
		pathSignature = m.Variable.BindingPath
	case collector.TargetDeclarator:
		pathSignature = m.Variable.DeclaratorPath
	default:
		pathSignature = m.Variable.DeclarationPath
	}
	return s, nil, pathSignature
}

// rewriteText computes and splices the replacement into src.Text's
// full text, returning the new whole-file text, the exact bytes that
// were spliced in (for rendering/snapshots), and the newline guard
// describing any normalization performed.
func rewriteText(src *source.Source, targetSpan bytemap.Span, identifierSpan *bytemap.Span, opts Options, isFunction bool) (newText, newCode string, ng guard.NewlineGuard, err error) {
	text := src.Text

	if opts.Rename != "" {
		if !isFunction || identifierSpan == nil {
			return "", "", guard.NewlineGuard{}, fmt.Errorf("ops: --rename requires a function target")
		}
		if !identifierRegexp.MatchString(opts.Rename) {
			return "", "", guard.NewlineGuard{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, opts.Rename)
		}
		newText = text[:identifierSpan.ByteStart] + opts.Rename + text[identifierSpan.ByteEnd:]
		identDelta := len(opts.Rename) - (identifierSpan.ByteEnd - identifierSpan.ByteStart)
		newCode = newText[targetSpan.ByteStart : targetSpan.ByteEnd+identDelta]
		return newText, newCode, guard.NewlineGuard{Status: guard.StatusNone, FileStyle: src.FileStyle, ResultStyle: src.FileStyle}, nil
	}

	replacement := opts.WithCode
	subRange := isFunction && opts.ReplaceRange != nil
	// A trailing terminator is appended only when the source after the
	// span does not already supply one (a record at EOF), keeping
	// extract-then-replace a byte-identical no-op everywhere else.
	follower := text[targetSpan.ByteEnd:]
	ensureTrailing := !subRange && !startsWithTerminator(follower)
	newlineGuard, normalized := guard.BuildNewlineGuard(src.FileStyle, replacement, ensureTrailing)

	if subRange {
		snippet := src.Slice(targetSpan)
		start, end := opts.ReplaceRange[0], opts.ReplaceRange[1]
		length := targetSpan.End - targetSpan.Start
		if start < 0 || end > length || start > end {
			return "", "", guard.NewlineGuard{}, fmt.Errorf("%w: replace-range %d:%d out of bounds for span of length %d", ErrInvalidRange, start, end, length)
		}
		byteStart := src.Mapper.UnitToByte(targetSpan.Start+start) - targetSpan.ByteStart
		byteEnd := src.Mapper.UnitToByte(targetSpan.Start+end) - targetSpan.ByteStart
		newCode = snippet[:byteStart] + normalized + snippet[byteEnd:]
	} else {
		newCode = normalized
	}

	newText = text[:targetSpan.ByteStart] + newCode + text[targetSpan.ByteEnd:]
	return newText, newCode, newlineGuard, nil
}

func startsWithTerminator(s string) bool {
	return len(s) > 0 && (s[0] == '\n' || s[0] == '\r')
}
