package ops

import (
	"jsedit/internal/guard"
)

// buildReplacePlan assembles a guard.Plan from a completed ReplaceResult.
func buildReplacePlan(operation, file, selectorExpr string, result ReplaceResult, opts Options) guard.Plan {
	var planMatches []guard.PlanMatch
	var expectedHashes []string
	for _, o := range result.Outcomes {
		pm := guard.PlanMatch{
			CanonicalName: o.Match.CanonicalName,
			Kind:          o.Match.Kind,
			Path:          o.Match.Path,
			Span:          o.Match.Span,
			Hash:          o.Match.Hash,
		}
		if o.Match.IdentifierSpan != nil {
			pm.IdentifierSpan = o.Match.IdentifierSpan
		}
		if opts.ExpectHash != "" {
			pm.ExpectedHash = opts.ExpectHash
			expectedHashes = append(expectedHashes, opts.ExpectHash)
		}
		if opts.ExpectSpan != nil {
			pm.ExpectedSpan = opts.ExpectSpan
		}
		planMatches = append(planMatches, pm)
	}

	extras := map[string]interface{}{
		"fix":   opts.Fix,
		"force": opts.Force,
	}
	if opts.VariableTarget != "" {
		extras["variableTarget"] = opts.VariableTarget
	}
	if opts.Rename != "" {
		extras["rename"] = opts.Rename
	}
	if opts.ReplaceRange != nil {
		extras["replaceRange"] = opts.ReplaceRange
	}

	return guard.BuildPlan(operation, file, selectorExpr, planMatches, opts.AllowMultiple, expectedHashes, extras, opts.Timestamp)
}

// buildDigestSnapshots writes before/after snapshots for every
// outcome when opts.EmitDigests is set.
func buildDigestSnapshots(operation, file, selectorExpr string, result ReplaceResult, opts Options) ([]string, error) {
	if !opts.EmitDigests {
		return nil, nil
	}
	dir := opts.EmitDigestDir
	if dir == "" {
		dir = "."
	}

	var paths []string
	for _, o := range result.Outcomes {
		before := guard.NewSnapshot(opts.Timestamp, operation, file, selectorExpr, opts.VariableTarget, "before", o.Match.CanonicalName, o.Guard.Hash.Actual, o.Match.Span, &o.Guard, opts.DigestIncludeSnippets, o.OldCode)
		beforePath, err := guard.WriteSnapshot(dir, before)
		if err != nil {
			return paths, err
		}
		paths = append(paths, beforePath)

		after := guard.NewSnapshot(opts.Timestamp, operation, file, selectorExpr, opts.VariableTarget, "after", o.Match.CanonicalName, o.Guard.Result.AfterHash, o.Match.Span, &o.Guard, opts.DigestIncludeSnippets, o.NewCode)
		afterPath, err := guard.WriteSnapshot(dir, after)
		if err != nil {
			return paths, err
		}
		paths = append(paths, afterPath)
	}
	return paths, nil
}
