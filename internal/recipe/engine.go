package recipe

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"jsedit/internal/bytemap"
	"jsedit/internal/config"
	"jsedit/internal/logging"
	"jsedit/internal/ops"
)

// Step statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// StepResult records one step's outcome.
type StepResult struct {
	Name       string `json:"name"`
	Op         string `json:"op"`
	Status     string `json:"status"`
	DurationMS int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// Result is the aggregate recipe execution payload.
type Result struct {
	Recipe string       `json:"recipe"`
	File   string       `json:"file"`
	Status string       `json:"status"`
	Steps  []StepResult `json:"steps"`
}

// Engine executes a Manifest's steps sequentially over one file.
type Engine struct {
	Config   *config.Config
	Renderer ops.Renderer
	// Fix controls writeback for the whole run; a dry run (Fix false)
	// still executes every mutating handler with all guards, only the
	// file write is suppressed.
	Fix bool
	// Now supplies timestamps for plan/snapshot artifacts; defaults to
	// time.Now when nil.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Run executes m against file with the given CLI parameter overrides.
// A step failure records the error and exits the loop with aggregate
// status "failed"; skipped steps do not fail the run.
func (e *Engine) Run(m *Manifest, file string, overrides map[string]string) (Result, error) {
	env := m.ResolveParameters(overrides)
	env["file"] = file
	if cwd, err := os.Getwd(); err == nil {
		env["cwd"] = cwd
	}

	result := Result{Recipe: m.Name, File: file, Status: StatusSuccess}
	logging.Recipe("run %s: %d steps, fix=%t", m.Name, len(m.Steps), e.Fix)

	for i, step := range m.Steps {
		env["step"] = i
		sr := StepResult{Name: step.Name, Op: step.Op}

		if step.When != "" {
			ok, err := EvalCondition(step.When, env)
			if err != nil {
				sr.Status = StatusFailed
				sr.Error = fmt.Sprintf("condition: %v", err)
				result.Steps = append(result.Steps, sr)
				result.Status = StatusFailed
				return result, fmt.Errorf("recipe %s: step %q: %s", m.Name, step.Name, sr.Error)
			}
			if !ok {
				sr.Status = StatusSkipped
				result.Steps = append(result.Steps, sr)
				e.Renderer.Line("step %s: skipped (when: %s)", step.Name, step.When)
				continue
			}
		}

		args, err := e.substituteArgs(step.With, env)
		if err != nil {
			sr.Status = StatusFailed
			sr.Error = err.Error()
			result.Steps = append(result.Steps, sr)
			result.Status = StatusFailed
			return result, fmt.Errorf("recipe %s: step %q: %w", m.Name, step.Name, err)
		}

		req, err := e.buildRequest(args, file)
		if err != nil {
			sr.Status = StatusFailed
			sr.Error = err.Error()
			result.Steps = append(result.Steps, sr)
			result.Status = StatusFailed
			return result, fmt.Errorf("recipe %s: step %q: %w", m.Name, step.Name, err)
		}

		start := time.Now()
		out, err := ops.Dispatch(step.Op, req)
		sr.DurationMS = time.Since(start).Milliseconds()
		if err != nil {
			sr.Status = StatusFailed
			sr.Error = err.Error()
			result.Steps = append(result.Steps, sr)
			result.Status = StatusFailed
			logging.RecipeError("step %s failed: %v", step.Name, err)
			return result, fmt.Errorf("recipe %s: step %q: %w", m.Name, step.Name, err)
		}
		sr.Status = StatusSuccess
		result.Steps = append(result.Steps, sr)
		e.Renderer.Line("step %s: success (%dms)", step.Name, sr.DurationMS)

		if len(step.Outputs) > 0 {
			if err := bindOutputs(step.Outputs, out, env); err != nil {
				sr := &result.Steps[len(result.Steps)-1]
				sr.Status = StatusFailed
				sr.Error = err.Error()
				result.Status = StatusFailed
				return result, fmt.Errorf("recipe %s: step %q outputs: %w", m.Name, step.Name, err)
			}
		}
	}
	return result, nil
}

func (e *Engine) substituteArgs(with map[string]string, env map[string]interface{}) (map[string]string, error) {
	out := make(map[string]string, len(with))
	for k, v := range with {
		s, err := Substitute(v, env)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// buildRequest maps a step's substituted string arguments onto an
// ops.Request, the same surface the CLI flags bind to.
func (e *Engine) buildRequest(args map[string]string, defaultFile string) (ops.Request, error) {
	req := ops.Request{
		File:     defaultFile,
		Config:   e.Config,
		Renderer: e.Renderer,
	}
	if f := args["file"]; f != "" {
		req.File = f
	}
	req.Selector = args["selector"]
	req.Query = args["query"]
	req.Output = args["output"]
	if h := args["hashes"]; h != "" {
		for _, part := range strings.FieldsFunc(h, func(r rune) bool { return r == ',' || r == '|' }) {
			if part = strings.TrimSpace(part); part != "" {
				req.Hashes = append(req.Hashes, part)
			}
		}
	}

	o := &req.Opts
	o.Timestamp = e.now().UTC().Format("20060102T150405Z")
	o.AllowMultiple = boolArg(args, "allow-multiple")
	o.Force = boolArg(args, "force")
	o.SelectHash = args["select-hash"]
	o.SelectPath = args["select-path"]
	o.ExpectHash = args["expect-hash"]
	o.Rename = args["rename"]
	o.WithCode = args["with-code"]
	o.VariableTarget = args["variable-target"]
	o.ContextEnclosing = args["context-enclosing"]
	o.ScanTargetKind = args["scan-target-kind"]
	o.FilterText = args["filter-text"]
	o.EmitPlan = args["emit-plan"]
	o.EmitDigestDir = args["emit-digest-dir"]
	o.EmitDigests = boolArg(args, "emit-digests")
	o.DigestIncludeSnippets = boolArg(args, "digest-include-snippets")
	o.EmitDiff = boolArg(args, "emit-diff")
	o.PreviewEdit = boolArg(args, "preview-edit")
	o.IncludePaths = boolArg(args, "include-paths")
	o.IncludeInternals = boolArg(args, "include-internals")

	var err error
	if o.SelectIndex, err = intArg(args, "select"); err != nil {
		return req, err
	}
	if o.ContextBefore, err = intArg(args, "context-before"); err != nil {
		return req, err
	}
	if o.ContextAfter, err = intArg(args, "context-after"); err != nil {
		return req, err
	}
	if o.SearchLimit, err = intArg(args, "search-limit"); err != nil {
		return req, err
	}
	if o.SearchContext, err = intArg(args, "search-context"); err != nil {
		return req, err
	}
	if o.PreviewChars, err = intArg(args, "preview-chars"); err != nil {
		return req, err
	}
	if m := args["match"]; m != "" {
		o.Match = splitList(m)
	}
	if x := args["exclude"]; x != "" {
		o.Exclude = splitList(x)
	}
	if span := args["expect-span"]; span != "" {
		s, en, perr := parseSpanPair(span)
		if perr != nil {
			return req, perr
		}
		o.ExpectSpan = &bytemap.Span{Start: s, End: en}
	}
	if rr := args["replace-range"]; rr != "" {
		s, en, perr := parseSpanPair(rr)
		if perr != nil {
			return req, perr
		}
		o.ReplaceRange = &[2]int{s, en}
	}
	if wf := args["with-file"]; wf != "" {
		data, rerr := os.ReadFile(wf)
		if rerr != nil {
			return req, fmt.Errorf("recipe: read replacement %s: %w", wf, rerr)
		}
		o.WithCode = string(data)
	}

	// Writeback is gated by the run-level fix flag; a step may opt out
	// of writing even in a --fix run but can never force a write in a
	// dry run.
	stepFix := true
	if v, ok := args["fix"]; ok {
		stepFix = v == "true" || v == "1"
	}
	o.Fix = e.Fix && stepFix

	return req, nil
}

func boolArg(args map[string]string, key string) bool {
	v := args[key]
	return v == "true" || v == "1"
}

func intArg(args map[string]string, key string) (int, error) {
	v := args[key]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("recipe: argument %s=%q is not an integer", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSpanPair(v string) (int, int, error) {
	idx := strings.Index(v, ":")
	if idx <= 0 {
		return 0, 0, fmt.Errorf("recipe: malformed span %q (want start:end)", v)
	}
	s, err1 := strconv.Atoi(strings.TrimSpace(v[:idx]))
	en, err2 := strconv.Atoi(strings.TrimSpace(v[idx+1:]))
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("recipe: malformed span %q (want start:end)", v)
	}
	return s, en, nil
}

// bindOutputs resolves each declared output path against the step's
// result payload (via a JSON round trip so traversal sees plain maps
// and slices) and binds it into env.
func bindOutputs(outputs map[string]string, out interface{}, env map[string]interface{}) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal step result: %w", err)
	}
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode step result: %w", err)
	}
	if m, ok := tree.(map[string]interface{}); ok {
		synthesizeCounts(m)
	}

	scope := map[string]interface{}{"result": tree}
	if m, ok := tree.(map[string]interface{}); ok {
		for k, v := range m {
			scope[k] = v
		}
	}
	for varName, pathExpr := range outputs {
		v, err := evalPath(pathExpr, scope)
		if err != nil {
			return fmt.Errorf("output %s=%s: %w", varName, pathExpr, err)
		}
		env[varName] = v
	}
	return nil
}

// synthesizeCounts adds a matchCount key derived from whichever result
// collection the payload carries, so recipes can bind step counts
// without knowing each operation's collection name.
func synthesizeCounts(m map[string]interface{}) {
	if _, exists := m["matchCount"]; exists {
		return
	}
	for _, key := range []string{"matches", "outcomes", "targets", "hits", "functions", "variables", "nodes"} {
		if arr, ok := m[key].([]interface{}); ok {
			m["matchCount"] = float64(len(arr))
			return
		}
	}
	m["matchCount"] = float64(0)
}
